// Package api содержит типизированный HTTP-клиент для API PassVault.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// Ошибки клиента.
var (
	// ErrAuthorization сигнализирует об ошибке авторизации (401/403).
	ErrAuthorization = errors.New("ошибка авторизации")
	// ErrNotFound сигнализирует, что ресурс не найден (404).
	ErrNotFound = errors.New("ресурс не найден")
)

// Response — стандартный конверт ответа сервера.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// User — профиль пользователя в ответе сервера.
type User struct {
	ID             int64   `json:"id"`
	Firstname      string  `json:"firstname"`
	Middlename     *string `json:"middlename"`
	Lastname       string  `json:"lastname"`
	Email          string  `json:"email"`
	ProfilePicture string  `json:"profilePicture"`
}

// Account — сохраненная учетная запись.
type Account struct {
	ID       int64  `json:"id"`
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

// Item — произвольная заметка пользователя.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// AccountRequest — данные учетной записи для создания или обновления.
// ImageName и Image задают опциональный файл картинки; CurrentImage при
// обновлении сохраняет прежнюю картинку, если новый файл не передан.
type AccountRequest struct {
	Site         string
	Username     string
	Password     string
	CurrentImage string
	ImageName    string
	Image        io.Reader
}

// RegisterRequest — тело запроса на регистрацию.
type RegisterRequest struct {
	Firstname  string `json:"firstname"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OTP        string `json:"otp"`
}

// UpdateUserRequest — тело запроса на обновление профиля.
type UpdateUserRequest struct {
	Firstname  string `json:"firstname"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
}

// Client определяет интерфейс для взаимодействия с API сервера PassVault.
type Client interface {
	// RequestOTP запрашивает код подтверждения для регистрации.
	RequestOTP(ctx context.Context, email string) error
	// Register регистрирует пользователя по коду подтверждения и возвращает токен.
	Register(ctx context.Context, req RegisterRequest) (string, error)
	// Login аутентифицирует пользователя и возвращает JWT токен.
	Login(ctx context.Context, email, password string) (string, error)
	// Logout завершает текущую сессию.
	Logout(ctx context.Context) error

	// RequestPasswordResetOTP запрашивает код подтверждения для сброса пароля.
	RequestPasswordResetOTP(ctx context.Context, email string) error
	// VerifyPasswordResetOTP проверяет код подтверждения для сброса пароля.
	VerifyPasswordResetOTP(ctx context.Context, email, otp string) error
	// ResetPassword устанавливает новый пароль после подтверждения кода.
	ResetPassword(ctx context.Context, email, newPassword, confirmNewPassword string) error

	// GetUserInfo возвращает профиль текущего пользователя.
	GetUserInfo(ctx context.Context) (*User, error)
	// UpdateUserInfo обновляет профиль пользователя с указанным id.
	UpdateUserInfo(ctx context.Context, userID int64, req UpdateUserRequest) error
	// GetProfilePicture возвращает ссылку на аватар.
	GetProfilePicture(ctx context.Context) (string, error)
	// VerifyCurrentPassword проверяет текущий пароль без изменения данных.
	VerifyCurrentPassword(ctx context.Context, currentPassword string) error
	// ChangePassword меняет пароль и возвращает новый токен сессии.
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error)

	// CreateAccount создает учетную запись (с опциональной картинкой) и возвращает ее id.
	CreateAccount(ctx context.Context, req AccountRequest) (int64, error)
	// GetAccounts возвращает сохраненные учетные записи пользователя.
	GetAccounts(ctx context.Context) ([]Account, error)
	// UpdateAccount обновляет учетную запись и возвращает актуальную ссылку на картинку.
	UpdateAccount(ctx context.Context, accountID int64, req AccountRequest) (string, error)
	// DeleteAccount удаляет учетную запись по id.
	DeleteAccount(ctx context.Context, accountID int64) error

	// CreateItem создает заметку и возвращает ее id.
	CreateItem(ctx context.Context, name, description string) (int64, error)
	// GetItems возвращает заметки пользователя.
	GetItems(ctx context.Context) ([]Item, error)
	// UpdateItem обновляет заметку.
	UpdateItem(ctx context.Context, itemID int64, name, description string) error
	// DeleteItem удаляет заметку.
	DeleteItem(ctx context.Context, itemID int64) error

	// SetAuthToken устанавливает JWT токен для аутентифицированных запросов.
	SetAuthToken(token string)
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// Убедимся, что httpClient удовлетворяет интерфейсу Client.
var _ Client = (*httpClient)(nil)

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// SetAuthToken устанавливает токен аутентификации для клиента.
func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

// doJSON выполняет запрос с JSON-телом (или без тела) и декодирует конверт
// ответа в out. Статусы 401/403 и 404 превращаются в сентинел-ошибки, прочие
// неуспешные статусы — в ошибку с сообщением сервера.
func (c *httpClient) doJSON(ctx context.Context, method, path string, body, out any, authorized bool) error {
	reqURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("ошибка формирования URL запроса: %w", err)
	}

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("ошибка кодирования тела запроса: %w", marshalErr)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		if c.authToken == "" {
			return ErrAuthorization
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var envelope Response
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			if envelope.Message != "" {
				return fmt.Errorf("%w: %s", ErrAuthorization, envelope.Message)
			}
			return ErrAuthorization
		case http.StatusNotFound:
			if envelope.Message != "" {
				return fmt.Errorf("%w: %s", ErrNotFound, envelope.Message)
			}
			return ErrNotFound
		}
		if envelope.Message != "" {
			return fmt.Errorf("сервер вернул ошибку (статус %d): %s", resp.StatusCode, envelope.Message)
		}
		return fmt.Errorf("сервер вернул ошибку: статус %d", resp.StatusCode)
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("ошибка декодирования ответа: %w", err)
		}
	}
	return nil
}

// tokenResponse — ответ с токеном сессии.
type tokenResponse struct {
	Response
	Token string `json:"token"`
}

// RequestOTP запрашивает код подтверждения для регистрации.
func (c *httpClient) RequestOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/api/request-otp", body, nil, false)
}

// Register регистрирует пользователя и возвращает токен сессии.
func (c *httpClient) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/verify-otp-and-register", req, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.Token
	return resp.Token, nil
}

// Login аутентифицирует пользователя и сохраняет токен для последующих запросов.
func (c *httpClient) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", body, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.Token
	return resp.Token, nil
}

// Logout завершает сессию на сервере и сбрасывает токен клиента.
func (c *httpClient) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil, true); err != nil {
		return err
	}
	c.authToken = ""
	return nil
}

// RequestPasswordResetOTP запрашивает код подтверждения для сброса пароля.
func (c *httpClient) RequestPasswordResetOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/api/forgot-password/request-otp", body, nil, false)
}

// VerifyPasswordResetOTP проверяет код подтверждения для сброса пароля.
func (c *httpClient) VerifyPasswordResetOTP(ctx context.Context, email, otp string) error {
	body := map[string]string{"email": email, "otp": otp}
	return c.doJSON(ctx, http.MethodPost, "/api/forgot-password/verify-otp", body, nil, false)
}

// ResetPassword устанавливает новый пароль после подтверждения кода.
func (c *httpClient) ResetPassword(ctx context.Context, email, newPassword, confirmNewPassword string) error {
	body := map[string]string{
		"email":              email,
		"newPassword":        newPassword,
		"confirmNewPassword": confirmNewPassword,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/forgot-password/reset", body, nil, false)
}

// GetUserInfo возвращает профиль текущего пользователя.
func (c *httpClient) GetUserInfo(ctx context.Context) (*User, error) {
	var resp struct {
		Response
		User User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/user-info", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UpdateUserInfo обновляет профиль пользователя с указанным id.
func (c *httpClient) UpdateUserInfo(ctx context.Context, userID int64, req UpdateUserRequest) error {
	path := "/api/users/" + strconv.FormatInt(userID, 10)
	return c.doJSON(ctx, http.MethodPut, path, req, nil, true)
}

// GetProfilePicture возвращает ссылку на аватар текущего пользователя.
func (c *httpClient) GetProfilePicture(ctx context.Context) (string, error) {
	var resp struct {
		Response
		ProfilePicture string `json:"profilepicture"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/profile-picture", nil, &resp, true); err != nil {
		return "", err
	}
	return resp.ProfilePicture, nil
}

// VerifyCurrentPassword проверяет текущий пароль без изменения данных.
func (c *httpClient) VerifyCurrentPassword(ctx context.Context, currentPassword string) error {
	body := map[string]string{"currentPassword": currentPassword}
	return c.doJSON(ctx, http.MethodPost, "/api/verify-current-password", body, nil, true)
}

// ChangePassword меняет пароль и сохраняет новый токен сессии.
func (c *httpClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	body := map[string]string{
		"currentPassword":    currentPassword,
		"newPassword":        newPassword,
		"confirmNewPassword": newPassword,
	}
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/change-password", body, &resp, true); err != nil {
		return "", err
	}
	if resp.Token != "" {
		c.authToken = resp.Token
	}
	return resp.Token, nil
}

// doMultipart выполняет авторизованный запрос с multipart-формой учетной записи.
func (c *httpClient) doMultipart(ctx context.Context, method, path string, req AccountRequest, out any) error {
	reqURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("ошибка формирования URL запроса: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"site":     req.Site,
		"username": req.Username,
		"password": req.Password,
	}
	if req.CurrentImage != "" {
		fields["currentImage"] = req.CurrentImage
	}
	for name, value := range fields {
		if err = writer.WriteField(name, value); err != nil {
			return fmt.Errorf("ошибка записи поля формы %q: %w", name, err)
		}
	}
	if req.Image != nil {
		part, partErr := writer.CreateFormFile("image", req.ImageName)
		if partErr != nil {
			return fmt.Errorf("ошибка добавления файла в форму: %w", partErr)
		}
		if _, err = io.Copy(part, req.Image); err != nil {
			return fmt.Errorf("ошибка записи файла в форму: %w", err)
		}
	}
	if err = writer.Close(); err != nil {
		return fmt.Errorf("ошибка завершения multipart-формы: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, &buf)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if c.authToken == "" {
		return ErrAuthorization
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var envelope Response
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAuthorization
		case http.StatusNotFound:
			return ErrNotFound
		}
		if envelope.Message != "" {
			return fmt.Errorf("сервер вернул ошибку (статус %d): %s", resp.StatusCode, envelope.Message)
		}
		return fmt.Errorf("сервер вернул ошибку: статус %d", resp.StatusCode)
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("ошибка декодирования ответа: %w", err)
		}
	}
	return nil
}

// CreateAccount создает учетную запись и возвращает ее id.
func (c *httpClient) CreateAccount(ctx context.Context, req AccountRequest) (int64, error) {
	var resp struct {
		Response
		AccountID int64 `json:"accountId"`
	}
	if err := c.doMultipart(ctx, http.MethodPost, "/api/accounts", req, &resp); err != nil {
		return 0, err
	}
	return resp.AccountID, nil
}

// UpdateAccount обновляет учетную запись и возвращает актуальную ссылку на картинку.
func (c *httpClient) UpdateAccount(ctx context.Context, accountID int64, req AccountRequest) (string, error) {
	path := "/api/accounts/" + strconv.FormatInt(accountID, 10)
	var resp struct {
		Response
		Image string `json:"image"`
	}
	if err := c.doMultipart(ctx, http.MethodPut, path, req, &resp); err != nil {
		return "", err
	}
	return resp.Image, nil
}

// GetAccounts возвращает сохраненные учетные записи пользователя.
func (c *httpClient) GetAccounts(ctx context.Context) ([]Account, error) {
	var resp struct {
		Response
		Accounts []Account `json:"accounts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/accounts", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// DeleteAccount удаляет учетную запись по id.
func (c *httpClient) DeleteAccount(ctx context.Context, accountID int64) error {
	path := "/api/accounts/" + strconv.FormatInt(accountID, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, true)
}

// CreateItem создает заметку и возвращает ее id.
func (c *httpClient) CreateItem(ctx context.Context, name, description string) (int64, error) {
	body := map[string]string{"name": name, "description": description}
	var resp struct {
		Response
		ItemID int64 `json:"itemId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/items", body, &resp, true); err != nil {
		return 0, err
	}
	return resp.ItemID, nil
}

// GetItems возвращает заметки пользователя.
func (c *httpClient) GetItems(ctx context.Context) ([]Item, error) {
	var resp struct {
		Response
		Items []Item `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/items", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// UpdateItem обновляет заметку.
func (c *httpClient) UpdateItem(ctx context.Context, itemID int64, name, description string) error {
	body := map[string]any{"id": itemID, "name": name, "description": description}
	return c.doJSON(ctx, http.MethodPut, "/api/items", body, nil, true)
}

// DeleteItem удаляет заметку.
func (c *httpClient) DeleteItem(ctx context.Context, itemID int64) error {
	body := map[string]int64{"id": itemID}
	return c.doJSON(ctx, http.MethodDelete, "/api/items", body, nil, true)
}
