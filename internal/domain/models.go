package domain

// Comment представляет комментарий в хранилище.
// Author и Text - указатели: поле, которого не было в запросе,
// не попадает в сохраненный объект (а не превращается в "").
type Comment struct {
	ID     int64   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Author *string `json:"author,omitempty" gorm:"type:text"`
	Text   *string `json:"text,omitempty" gorm:"type:text"`
}

// NewComment - поля запроса для нового комментария.
type NewComment struct {
	Author *string
	Text   *string
}

// Build собирает комментарий с заданным ID.
func (n NewComment) Build(id int64) Comment {
	return Comment{
		ID:     id,
		Author: n.Author,
		Text:   n.Text,
	}
}

// StringPtr возвращает указатель на копию строки.
func StringPtr(s string) *string { return &s }
