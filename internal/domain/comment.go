package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/nurlyy/guestbook/pkg/validator"
)

// ShortTextLimit - длина текста (в символах), начиная с которой он сокращается
const ShortTextLimit = 20

// Поддерживаемые локали для отображения возраста комментария
const (
	LocaleFR = "fr"
	LocaleEN = "en"
)

// Сообщения валидации комментария
const (
	AuthorMinMessage = "L'auteur doit contenir au moins 5 caractères"
	AuthorMaxMessage = "L'auteur doit contenir au plus 50 caractères"
	NoteRangeMessage = "You must be between 1 and 5 to enter"
)

// Comment представляет модель комментария к конференции
type Comment struct {
	ID           int64     `json:"id" db:"id"`
	Author       string    `json:"author" db:"author"`
	Text         string    `json:"text" db:"text"`
	Email        string    `json:"email" db:"email"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	Note         *int16    `json:"note" db:"note"`
	ConferenceID *int64    `json:"conference" db:"conference_id"`
}

// NewComment создает комментарий с текущим временем создания
func NewComment() *Comment {
	return &Comment{CreatedAt: time.Now()}
}

// SetAuthor устанавливает автора
func (c *Comment) SetAuthor(author string) *Comment {
	c.Author = author
	return c
}

// SetText устанавливает текст
func (c *Comment) SetText(text string) *Comment {
	c.Text = text
	return c
}

// SetEmail устанавливает email
func (c *Comment) SetEmail(email string) *Comment {
	c.Email = email
	return c
}

// SetCreatedAt переопределяет время создания (для загрузки из хранилища и фикстур)
func (c *Comment) SetCreatedAt(t time.Time) *Comment {
	c.CreatedAt = t
	return c
}

// SetNote устанавливает оценку; nil очищает ее
func (c *Comment) SetNote(note *int16) *Comment {
	c.Note = note
	return c
}

// SetConference привязывает комментарий к конференции; nil отвязывает
func (c *Comment) SetConference(conferenceID *int64) *Comment {
	c.ConferenceID = conferenceID
	return c
}

// ShortText возвращает текст, сокращенный до ShortTextLimit символов с "..."
func (c *Comment) ShortText() string {
	runes := []rune(c.Text)
	if len(runes) < ShortTextLimit {
		return c.Text
	}
	return string(runes[:ShortTextLimit]) + "..."
}

// Elapsed - разница между двумя моментами: полные дни, часы и минуты сверх них
type Elapsed struct {
	Days    int
	Hours   int
	Minutes int
}

// ElapsedSince возвращает время, прошедшее с момента создания до now.
// Если дата создания в будущем, считается абсолютная разница.
func (c *Comment) ElapsedSince(now time.Time) Elapsed {
	d := now.Sub(c.CreatedAt)
	if d < 0 {
		d = -d
	}

	return Elapsed{
		Days:    int(d / (24 * time.Hour)),
		Hours:   int(d % (24 * time.Hour) / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
	}
}

// Format выводит разницу на выбранном языке; неизвестная локаль дает французский
func (e Elapsed) Format(locale string) string {
	if locale == LocaleEN {
		return fmt.Sprintf("Created %d days %d hours and %d minutes ago", e.Days, e.Hours, e.Minutes)
	}
	return fmt.Sprintf("Créé il y a %d jours %d heures et %d minutes", e.Days, e.Hours, e.Minutes)
}

// Age возвращает возраст комментария на французском
func (c *Comment) Age() string {
	return c.AgeIn(LocaleFR)
}

// AgeIn возвращает возраст комментария в указанной локали
func (c *Comment) AgeIn(locale string) string {
	return c.ElapsedSince(time.Now()).Format(locale)
}

// NoteFromInt сужает оценку из запроса до int16 с насыщением.
// Значения за пределами int16 остаются вне диапазона 1..5 и отклоняются правилами проверки.
func NoteFromInt(v int64) *int16 {
	switch {
	case v > math.MaxInt16:
		v = math.MaxInt16
	case v < math.MinInt16:
		v = math.MinInt16
	}
	note := int16(v)
	return &note
}

// ValidationRules возвращает правила проверки комментария перед сохранением
func (c *Comment) ValidationRules() []validator.FieldRule {
	var note int16
	if c.Note != nil {
		note = *c.Note
	}

	return []validator.FieldRule{
		{
			Field: "author",
			Value: c.Author,
			Tag:   "required,min=5,max=50",
			Messages: map[string]string{
				"min": AuthorMinMessage,
				"max": AuthorMaxMessage,
			},
		},
		{
			Field: "email",
			Value: c.Email,
			Tag:   "required,email",
		},
		{
			Field: "note",
			Value: note,
			Tag:   "min=1,max=5",
			Messages: map[string]string{
				"min": NoteRangeMessage,
				"max": NoteRangeMessage,
			},
			Skip: c.Note == nil,
		},
	}
}

// Apply переносит данные записи в комментарий.
// При replace незаданные записываемые поля обнуляются (PUT), иначе остаются как есть (PATCH).
func (c *Comment) Apply(in CommentInput, replace bool) *Comment {
	if replace || in.Has("author") {
		c.SetAuthor(in.Author)
	}
	if replace || in.Has("text") {
		c.SetText(in.Text)
	}
	if replace || in.Has("email") {
		c.SetEmail(in.Email)
	}
	if replace || in.Has("note") {
		c.SetNote(in.Note)
	}
	if replace || in.Has("conference") {
		c.SetConference(in.ConferenceID)
	}
	return c
}

// Fields возвращает читаемые поля комментария в порядке таблицы групп.
// Производные поля вычисляются относительно now.
func (c *Comment) Fields(now time.Time, locale string) []FieldValue {
	values := make([]FieldValue, 0, len(CommentFieldGroups))
	for _, name := range CommentFieldGroups.ReadFields() {
		var v interface{}
		switch name {
		case "id":
			v = c.ID
		case "author":
			v = c.Author
		case "text":
			v = c.Text
		case "email":
			v = c.Email
		case "createdAt":
			v = c.CreatedAt
		case "note":
			v = c.Note
		case "conference":
			v = c.ConferenceID
		case "shorttext":
			v = c.ShortText()
		case "age":
			v = c.ElapsedSince(now).Format(locale)
		}
		values = append(values, FieldValue{Name: name, Value: v})
	}
	return values
}

// CommentInput содержит записываемые поля комментария из тела запроса
type CommentInput struct {
	Author       string
	Text         string
	Email        string
	Note         *int16
	ConferenceID *int64

	FieldSet
}

// CommentFilterOptions представляет параметры выборки комментариев
type CommentFilterOptions struct {
	ConferenceID *int64
	Page         int
	PageSize     int
}
