package models

// Account представляет сохраненную учетную запись пользователя (сайт/логин/пароль).
// Каждая запись принадлежит ровно одному пользователю (user_id); все операции
// чтения/записи фильтруются по владельцу.
type Account struct {
	ID     int64  `db:"id" json:"id"`
	UserID int64  `db:"user_id" json:"-"`
	Site   string `db:"site" json:"site"`
	// Логин и пароль от стороннего сайта. Пароль хранится в открытом виде —
	// формат хранения унаследован от исходной схемы (см. DESIGN.md).
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"password"`
	// Ссылка на картинку: "images/default.png", "images/<файл>" или абсолютный URL.
	// Поле никогда не бывает пустым.
	Image string `db:"image" json:"image"`
}
