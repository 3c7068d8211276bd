package models

// Item представляет произвольную пользовательскую заметку (имя + описание).
type Item struct {
	ID          int64   `db:"id" json:"id"`
	UserID      int64   `db:"user_id" json:"-"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

// ItemRequest представляет тело запроса на создание/обновление заметки.
// ID используется только при обновлении и удалении.
type ItemRequest struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
