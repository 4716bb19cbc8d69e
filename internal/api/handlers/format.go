package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/munnerz/goautoneg"

	"github.com/nurlyy/guestbook/internal/domain"
)

// Format - формат представления ресурса
type Format string

// Поддерживаемые форматы
const (
	FormatJSONLD Format = "jsonld"
	FormatJSON   Format = "json"
	FormatHTML   Format = "html"
	FormatCSV    Format = "csv"
	FormatHAL    Format = "jsonhal"
)

// Порядок важен: первый тип выбирается для */* и пустого Accept
var offeredTypes = []string{
	"application/ld+json",
	"application/json",
	"text/html",
	"text/csv",
	"application/hal+json",
}

var formatByType = map[string]Format{
	"application/ld+json":  FormatJSONLD,
	"application/json":     FormatJSON,
	"text/html":            FormatHTML,
	"text/csv":             FormatCSV,
	"application/hal+json": FormatHAL,
}

// NegotiateFormat выбирает формат по заголовку Accept
func NegotiateFormat(accept string) (Format, bool) {
	if strings.TrimSpace(accept) == "" {
		return FormatJSONLD, true
	}

	chosen := goautoneg.Negotiate(accept, offeredTypes)
	f, ok := formatByType[chosen]
	return f, ok
}

// ContentType возвращает значение заголовка Content-Type для формата
func (f Format) ContentType() string {
	for mediaType, format := range formatByType {
		if format == f {
			return mediaType + "; charset=utf-8"
		}
	}
	return "application/json; charset=utf-8"
}

// Resource описывает сериализуемый ресурс API
type Resource struct {
	// Type - короткое имя ресурса (@type в JSON-LD)
	Type string
	// Collection - сегмент пути коллекции
	Collection string
	Groups     domain.FieldGroups
	// Relations - поля-ссылки и коллекции, на которые они указывают
	Relations map[string]string
}

var commentResource = Resource{
	Type:       "Commentaire",
	Collection: "commentaires",
	Groups:     domain.CommentFieldGroups,
	Relations:  map[string]string{"conference": "conferences"},
}

var conferenceResource = Resource{
	Type:       "Conference",
	Collection: "conferences",
	Groups:     domain.ConferenceFieldGroups,
}

// Item - элемент ресурса с полями группы чтения
type Item struct {
	ID     int64
	Fields []domain.FieldValue
}

// Page - страница коллекции
type Page struct {
	Items    []Item
	Total    int
	Page     int
	PageSize int
	// Path - путь коллекции для ссылок навигации
	Path string
}

func (p Page) paginated() bool {
	return p.PageSize > 0 && (p.Total > p.PageSize || p.Page > 1)
}

func (p Page) lastPage() int {
	return domain.TotalPages(p.Total, p.PageSize)
}

func (p Page) link(page int) string {
	return fmt.Sprintf("%s?page=%d", p.Path, page)
}

// member - пара ключ/значение упорядоченного JSON-объекта
type member struct {
	Key   string
	Value interface{}
}

// object - JSON-объект с сохранением порядка ключей
type object []member

// MarshalJSON выводит ключи в порядке добавления
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", m.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encoder сериализует ресурсы во все поддерживаемые форматы
type encoder struct {
	// prefix - префикс IRI, например /api
	prefix string
}

func (e encoder) iri(collection string, id int64) string {
	return fmt.Sprintf("%s/%s/%d", e.prefix, collection, id)
}

func (e encoder) context(res Resource) string {
	return e.prefix + "/contexts/" + res.Type
}

// value приводит значение поля к виду для вывода: ссылки становятся IRI
func (e encoder) value(res Resource, f domain.FieldValue) interface{} {
	if collection, ok := res.Relations[f.Name]; ok {
		if ref, ok := f.Value.(*int64); ok && ref != nil {
			return e.iri(collection, *ref)
		}
		return nil
	}

	switch v := f.Value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case *int16:
		if v == nil {
			return nil
		}
		return *v
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	}
	return f.Value
}

// EncodeItem пишет один элемент в выбранном формате
func (e encoder) EncodeItem(w io.Writer, f Format, res Resource, it Item) error {
	switch f {
	case FormatJSONLD:
		return json.NewEncoder(w).Encode(e.jsonldItem(res, it, true))
	case FormatHAL:
		return json.NewEncoder(w).Encode(e.halItem(res, it))
	case FormatCSV:
		return e.csv(w, res, []Item{it})
	case FormatHTML:
		return e.html(w, res, []Item{it}, nil)
	default:
		return json.NewEncoder(w).Encode(e.plainItem(res, it))
	}
}

// EncodePage пишет страницу коллекции в выбранном формате
func (e encoder) EncodePage(w io.Writer, f Format, res Resource, p Page) error {
	switch f {
	case FormatJSONLD:
		return json.NewEncoder(w).Encode(e.jsonldPage(res, p))
	case FormatHAL:
		return json.NewEncoder(w).Encode(e.halPage(res, p))
	case FormatCSV:
		return e.csv(w, res, p.Items)
	case FormatHTML:
		return e.html(w, res, p.Items, &p)
	default:
		items := make([]object, 0, len(p.Items))
		for _, it := range p.Items {
			items = append(items, e.plainItem(res, it))
		}
		return json.NewEncoder(w).Encode(items)
	}
}

func (e encoder) plainItem(res Resource, it Item) object {
	obj := make(object, 0, len(it.Fields))
	for _, f := range it.Fields {
		obj = append(obj, member{f.Name, e.value(res, f)})
	}
	return obj
}

func (e encoder) jsonldItem(res Resource, it Item, withContext bool) object {
	obj := make(object, 0, len(it.Fields)+3)
	if withContext {
		obj = append(obj, member{"@context", e.context(res)})
	}
	obj = append(obj,
		member{"@id", e.iri(res.Collection, it.ID)},
		member{"@type", res.Type},
	)
	return append(obj, e.plainItem(res, it)...)
}

func (e encoder) jsonldPage(res Resource, p Page) object {
	members := make([]object, 0, len(p.Items))
	for _, it := range p.Items {
		members = append(members, e.jsonldItem(res, it, false))
	}

	obj := object{
		{"@context", e.context(res)},
		{"@id", p.Path},
		{"@type", "hydra:Collection"},
		{"hydra:member", members},
		{"hydra:totalItems", p.Total},
	}

	if p.paginated() {
		view := object{
			{"@id", p.link(p.Page)},
			{"@type", "hydra:PartialCollectionView"},
			{"hydra:first", p.link(1)},
			{"hydra:last", p.link(p.lastPage())},
		}
		if p.Page > 1 {
			view = append(view, member{"hydra:previous", p.link(p.Page - 1)})
		}
		if p.Page < p.lastPage() {
			view = append(view, member{"hydra:next", p.link(p.Page + 1)})
		}
		obj = append(obj, member{"hydra:view", view})
	}

	return obj
}

func href(link string) object {
	return object{{"href", link}}
}

func (e encoder) halItem(res Resource, it Item) object {
	links := object{{"self", href(e.iri(res.Collection, it.ID))}}
	obj := object{}

	for _, f := range it.Fields {
		if _, ok := res.Relations[f.Name]; ok {
			if ref, ok := e.value(res, f).(string); ok {
				links = append(links, member{f.Name, href(ref)})
			}
			continue
		}
		obj = append(obj, member{f.Name, e.value(res, f)})
	}

	return append(object{{"_links", links}}, obj...)
}

func (e encoder) halPage(res Resource, p Page) object {
	items := make([]object, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, e.halItem(res, it))
	}

	links := object{{"self", href(p.Path)}}
	if p.paginated() {
		links = object{
			{"self", href(p.link(p.Page))},
			{"first", href(p.link(1))},
			{"last", href(p.link(p.lastPage()))},
		}
		if p.Page > 1 {
			links = append(links, member{"prev", href(p.link(p.Page - 1))})
		}
		if p.Page < p.lastPage() {
			links = append(links, member{"next", href(p.link(p.Page + 1))})
		}
	}

	obj := object{
		{"_links", links},
		{"totalItems", p.Total},
	}
	if p.PageSize > 0 {
		obj = append(obj, member{"itemsPerPage", p.PageSize})
	}
	return append(obj, member{"_embedded", object{{"item", items}}})
}

// rows возвращает строковые значения полей в порядке группы чтения
func (e encoder) rows(res Resource, items []Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := make([]string, 0, len(it.Fields))
		for _, f := range it.Fields {
			v := e.value(res, f)
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprint(v))
		}
		rows = append(rows, row)
	}
	return rows
}

func (e encoder) csv(w io.Writer, res Resource, items []Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Groups.ReadFields()); err != nil {
		return err
	}
	if err := cw.WriteAll(e.rows(res, items)); err != nil {
		return err
	}
	return cw.Error()
}

var tableTemplate = template.Must(template.New("table").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{with .Page}}<p>Page {{.Page}} / {{.Last}} ({{.Total}})</p>{{end}}
</body>
</html>
`))

type tablePage struct {
	Page  int
	Last  int
	Total int
}

func (e encoder) html(w io.Writer, res Resource, items []Item, p *Page) error {
	data := struct {
		Title   string
		Columns []string
		Rows    [][]string
		Page    *tablePage
	}{
		Title:   res.Type,
		Columns: res.Groups.ReadFields(),
		Rows:    e.rows(res, items),
	}
	if p != nil {
		data.Page = &tablePage{Page: p.Page, Last: p.lastPage(), Total: p.Total}
	}
	return tableTemplate.Execute(w, data)
}
