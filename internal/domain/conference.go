package domain

import (
	"time"

	"github.com/nurlyy/guestbook/pkg/validator"
)

// Conference представляет место и год проведения конференции
type Conference struct {
	ID              int64     `json:"id" db:"id"`
	City            string    `json:"city" db:"city"`
	Year            string    `json:"year" db:"year"`
	IsInternational bool      `json:"isInternational" db:"is_international"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// NewConference создает конференцию с текущим временем создания
func NewConference() *Conference {
	return &Conference{CreatedAt: time.Now()}
}

// String возвращает подпись конференции для админки и дайджестов
func (c *Conference) String() string {
	return c.City + " " + c.Year
}

// ValidationRules возвращает правила проверки конференции
func (c *Conference) ValidationRules() []validator.FieldRule {
	return []validator.FieldRule{
		{Field: "city", Value: c.City, Tag: "required,min=2,max=255"},
		{Field: "year", Value: c.Year, Tag: "required,year4"},
	}
}

// Apply переносит данные записи в конференцию (replace - семантика PUT)
func (c *Conference) Apply(in ConferenceInput, replace bool) *Conference {
	if replace || in.Has("city") {
		c.City = in.City
	}
	if replace || in.Has("year") {
		c.Year = in.Year
	}
	if replace || in.Has("isInternational") {
		c.IsInternational = in.IsInternational
	}
	return c
}

// Fields возвращает читаемые поля конференции; commentCount передается снаружи
func (c *Conference) Fields(commentCount int) []FieldValue {
	values := make([]FieldValue, 0, len(ConferenceFieldGroups))
	for _, name := range ConferenceFieldGroups.ReadFields() {
		var v interface{}
		switch name {
		case "id":
			v = c.ID
		case "city":
			v = c.City
		case "year":
			v = c.Year
		case "isInternational":
			v = c.IsInternational
		case "createdAt":
			v = c.CreatedAt
		case "commentCount":
			v = commentCount
		}
		values = append(values, FieldValue{Name: name, Value: v})
	}
	return values
}

// ConferenceInput содержит записываемые поля конференции
type ConferenceInput struct {
	City            string
	Year            string
	IsInternational bool

	FieldSet
}

// ConferenceWithCount - конференция вместе с числом комментариев
type ConferenceWithCount struct {
	Conference
	CommentCount int `json:"commentCount" db:"comment_count"`
}
