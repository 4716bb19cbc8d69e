package domain

// FieldGroup описывает видимость поля при чтении и записи через API
type FieldGroup struct {
	Name  string
	Read  bool
	Write bool
}

// FieldGroups - упорядоченная таблица видимости полей ресурса
type FieldGroups []FieldGroup

// CommentFieldGroups - группы comment:read / comment:write
var CommentFieldGroups = FieldGroups{
	{Name: "id", Read: true},
	{Name: "author", Read: true, Write: true},
	{Name: "text", Read: true, Write: true},
	{Name: "email", Read: true, Write: true},
	{Name: "createdAt"},
	{Name: "note", Read: true, Write: true},
	{Name: "conference", Read: true, Write: true},
	{Name: "shorttext", Read: true},
	{Name: "age", Read: true},
}

// ConferenceFieldGroups - группы conference:read / conference:write
var ConferenceFieldGroups = FieldGroups{
	{Name: "id", Read: true},
	{Name: "city", Read: true, Write: true},
	{Name: "year", Read: true, Write: true},
	{Name: "isInternational", Read: true, Write: true},
	{Name: "createdAt", Read: true},
	{Name: "commentCount", Read: true},
}

// ReadFields возвращает имена читаемых полей в порядке таблицы
func (g FieldGroups) ReadFields() []string {
	fields := make([]string, 0, len(g))
	for _, f := range g {
		if f.Read {
			fields = append(fields, f.Name)
		}
	}
	return fields
}

// CanRead сообщает, входит ли поле в группу чтения
func (g FieldGroups) CanRead(name string) bool {
	f, ok := g.lookup(name)
	return ok && f.Read
}

// CanWrite сообщает, входит ли поле в группу записи
func (g FieldGroups) CanWrite(name string) bool {
	f, ok := g.lookup(name)
	return ok && f.Write
}

func (g FieldGroups) lookup(name string) (FieldGroup, bool) {
	for _, f := range g {
		if f.Name == name {
			return f, true
		}
	}
	return FieldGroup{}, false
}

// FieldValue - значение читаемого поля
type FieldValue struct {
	Name  string
	Value interface{}
}

// FieldSet отмечает поля, присутствовавшие в теле запроса
type FieldSet struct {
	present map[string]bool
}

// Mark отмечает поле как переданное
func (s *FieldSet) Mark(name string) {
	if s.present == nil {
		s.present = make(map[string]bool)
	}
	s.present[name] = true
}

// Has сообщает, было ли поле передано
func (s FieldSet) Has(name string) bool {
	return s.present[name]
}
