package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/guestbook/internal/api/middleware"
	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/validator"
)

var created = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func int16Ptr(v int16) *int16 { return &v }
func int64Ptr(v int64) *int64 { return &v }

type fakeComments struct {
	items     map[int64]*domain.Comment
	nextID    int64
	lastInput domain.CommentInput
	validator *validator.CustomValidator
}

func newFakeComments(comments ...*domain.Comment) *fakeComments {
	f := &fakeComments{items: map[int64]*domain.Comment{}, validator: validator.NewValidator()}
	for _, c := range comments {
		f.items[c.ID] = c
		if c.ID > f.nextID {
			f.nextID = c.ID
		}
	}
	return f
}

func (f *fakeComments) Create(_ context.Context, in domain.CommentInput) (*domain.Comment, error) {
	f.lastInput = in
	c := domain.NewComment().SetCreatedAt(created).Apply(in, true)
	if err := f.validator.ValidateFields(c.ValidationRules()); err != nil {
		return nil, err
	}
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeComments) Get(_ context.Context, id int64) (*domain.Comment, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return c, nil
}

func (f *fakeComments) sorted(filter func(*domain.Comment) bool) []*domain.Comment {
	var out []*domain.Comment
	for _, c := range f.items {
		if filter(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paginate(all []*domain.Comment, page, size int) []*domain.Comment {
	from := domain.Offset(page, size)
	if from >= len(all) {
		return []*domain.Comment{}
	}
	to := from + size
	if to > len(all) {
		to = len(all)
	}
	return all[from:to]
}

func (f *fakeComments) List(_ context.Context, opts domain.CommentFilterOptions) ([]*domain.Comment, int, error) {
	all := f.sorted(func(c *domain.Comment) bool {
		return opts.ConferenceID == nil || (c.ConferenceID != nil && *c.ConferenceID == *opts.ConferenceID)
	})
	return paginate(all, opts.Page, opts.PageSize), len(all), nil
}

func (f *fakeComments) ListByConference(ctx context.Context, conferenceID int64, page, pageSize int) ([]*domain.Comment, int, error) {
	if conferenceID == 404 {
		return nil, 0, domain.ErrConferenceNotFound
	}
	return f.List(ctx, domain.CommentFilterOptions{ConferenceID: &conferenceID, Page: page, PageSize: pageSize})
}

func (f *fakeComments) Replace(ctx context.Context, id int64, in domain.CommentInput) (*domain.Comment, error) {
	return f.update(id, in, true)
}

func (f *fakeComments) Patch(ctx context.Context, id int64, in domain.CommentInput) (*domain.Comment, error) {
	return f.update(id, in, false)
}

func (f *fakeComments) update(id int64, in domain.CommentInput, replace bool) (*domain.Comment, error) {
	f.lastInput = in
	c, ok := f.items[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	updated := *c
	updated.Apply(in, replace)
	if err := f.validator.ValidateFields(updated.ValidationRules()); err != nil {
		return nil, err
	}
	f.items[id] = &updated
	return &updated, nil
}

func (f *fakeComments) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeConferences struct {
	items     map[int64]*domain.ConferenceWithCount
	lastInput domain.ConferenceInput
}

func (f *fakeConferences) Create(_ context.Context, in domain.ConferenceInput) (*domain.ConferenceWithCount, error) {
	f.lastInput = in
	c := domain.NewConference().Apply(in, true)
	c.ID = int64(len(f.items) + 1)
	c.CreatedAt = created
	out := &domain.ConferenceWithCount{Conference: *c}
	f.items[c.ID] = out
	return out, nil
}

func (f *fakeConferences) Get(_ context.Context, id int64) (*domain.ConferenceWithCount, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, domain.ErrConferenceNotFound
	}
	return c, nil
}

func (f *fakeConferences) List(_ context.Context, page, pageSize int) ([]*domain.ConferenceWithCount, int, error) {
	var out []*domain.ConferenceWithCount
	for _, c := range f.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeConferences) Replace(ctx context.Context, id int64, in domain.ConferenceInput) (*domain.ConferenceWithCount, error) {
	return f.update(id, in, true)
}

func (f *fakeConferences) Patch(ctx context.Context, id int64, in domain.ConferenceInput) (*domain.ConferenceWithCount, error) {
	return f.update(id, in, false)
}

func (f *fakeConferences) update(id int64, in domain.ConferenceInput, replace bool) (*domain.ConferenceWithCount, error) {
	f.lastInput = in
	c, ok := f.items[id]
	if !ok {
		return nil, domain.ErrConferenceNotFound
	}
	c.Conference.Apply(in, replace)
	return c, nil
}

func (f *fakeConferences) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return domain.ErrConferenceNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeUsers struct{}

func (fakeUsers) Register(_ context.Context, req domain.RegisterRequest) (*domain.UserResponse, error) {
	if err := validator.NewValidator().Validate(req); err != nil {
		return nil, err
	}
	if req.Email == "taken@b.com" {
		return nil, domain.ErrEmailAlreadyExists
	}
	return &domain.UserResponse{ID: 1, Email: req.Email, Role: domain.RoleUser, CreatedAt: created}, nil
}

func (fakeUsers) Login(_ context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Password != "secret123" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (fakeUsers) RefreshToken(_ context.Context, req domain.RefreshTokenRequest) (*domain.LoginResponse, error) {
	return nil, domain.ErrUnauthorized
}

func (fakeUsers) Me(_ context.Context, userID int64) (*domain.UserResponse, error) {
	return &domain.UserResponse{ID: userID, Email: "me@b.com", Role: domain.RoleAdmin}, nil
}

type fakeNotifications struct {
	filter domain.NotificationFilterOptions
}

func (f *fakeNotifications) List(_ context.Context, filter domain.NotificationFilterOptions) (domain.PagedResponse, error) {
	f.filter = filter
	items := []domain.Notification{{ID: 1, Type: domain.NotificationTypeDigest, Status: domain.NotificationStatusSent}}
	return domain.NewPagedResponse(items, 1, filter.Page, filter.PageSize), nil
}

type testAPI struct {
	router        chi.Router
	comments      *fakeComments
	conferences   *fakeConferences
	notifications *fakeNotifications
}

func sampleComment(id int64, conferenceID *int64) *domain.Comment {
	c := domain.NewComment().
		SetAuthor("Alice123").
		SetEmail("a@b.com").
		SetText("Hello world, this is a long comment").
		SetNote(int16Ptr(3)).
		SetConference(conferenceID).
		SetCreatedAt(created)
	c.ID = id
	return c
}

func newTestAPI(t *testing.T, comments ...*domain.Comment) *testAPI {
	t.Helper()

	base := NewBaseHandler(logger.NewNopLogger(), validator.NewValidator(), BaseConfig{
		Locale:             domain.LocaleFR,
		CommentsPerPage:    2,
		ConferencesPerPage: 30,
	})
	base.now = func() time.Time { return created.Add(25 * time.Hour) }

	api := &testAPI{
		router:   chi.NewRouter(),
		comments: newFakeComments(comments...),
		conferences: &fakeConferences{items: map[int64]*domain.ConferenceWithCount{
			7: {Conference: domain.Conference{ID: 7, City: "Paris", Year: "2021", CreatedAt: created}, CommentCount: 2},
		}},
		notifications: &fakeNotifications{},
	}

	ch := NewCommentHandler(base, api.comments)
	cf := NewConferenceHandler(base, api.conferences)
	ah := NewAuthHandler(base, fakeUsers{})
	nh := NewNotificationHandler(base, api.notifications)

	r := api.router
	r.Get("/api/commentaires", ch.ListComments)
	r.Post("/api/commentaires", ch.CreateComment)
	r.Get("/api/commentaires/{id}", ch.GetComment)
	r.Put("/api/commentaires/{id}", ch.ReplaceComment)
	r.Patch("/api/commentaires/{id}", ch.PatchComment)
	r.Delete("/api/commentaires/{id}", ch.DeleteComment)
	r.Get("/api/conferences", cf.ListConferences)
	r.Post("/api/conferences", cf.CreateConference)
	r.Get("/api/conferences/{id}", cf.GetConference)
	r.Patch("/api/conferences/{id}", cf.PatchConference)
	r.Delete("/api/conferences/{id}", cf.DeleteConference)
	r.Get("/api/conferences/{id}/commentaires", ch.ListConferenceComments)
	r.Post("/api/auth/register", ah.Register)
	r.Post("/api/auth/login", ah.Login)
	r.Post("/api/auth/refresh", ah.RefreshToken)
	r.Get("/api/auth/me", ah.GetCurrentUser)
	r.Get("/api/notifications", nh.ListNotifications)

	return api
}

func (a *testAPI) do(method, path, accept, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNegotiateFormat(t *testing.T) {
	tests := []struct {
		accept string
		want   Format
		ok     bool
	}{
		{"", FormatJSONLD, true},
		{"*/*", FormatJSONLD, true},
		{"application/ld+json", FormatJSONLD, true},
		{"application/json", FormatJSON, true},
		{"text/html,application/xhtml+xml;q=0.9", FormatHTML, true},
		{"text/csv", FormatCSV, true},
		{"application/hal+json", FormatHAL, true},
		{"application/json;q=0.5, text/csv", FormatCSV, true},
		{"application/xml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			got, ok := NegotiateFormat(tt.accept)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetCommentJSONLD(t *testing.T) {
	api := newTestAPI(t, sampleComment(1, int64Ptr(7)))

	rec := api.do(http.MethodGet, "/api/commentaires/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/ld+json; charset=utf-8", rec.Header().Get("Content-Type"))

	want := `{"@context":"/api/contexts/Commentaire","@id":"/api/commentaires/1","@type":"Commentaire",` +
		`"id":1,"author":"Alice123","text":"Hello world, this is a long comment","email":"a@b.com",` +
		`"note":3,"conference":"/api/conferences/7","shorttext":"Hello world, this is...",` +
		`"age":"Créé il y a 1 jours 1 heures et 0 minutes"}` + "\n"
	assert.Equal(t, want, rec.Body.String())
}

func TestGetCommentFormats(t *testing.T) {
	api := newTestAPI(t, sampleComment(1, int64Ptr(7)), sampleComment(2, nil))

	t.Run("json", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/commentaires/2", "application/json", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.NotContains(t, body, "@id")
		assert.NotContains(t, body, "createdAt")
		assert.Nil(t, body["conference"])
	})

	t.Run("hal", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/commentaires/1", "application/hal+json", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), `{"_links":{"self":{"href":"/api/commentaires/1"},"conference":{"href":"/api/conferences/7"}}`))
		assert.NotContains(t, decode(t, rec), "conference")
	})

	t.Run("csv", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/commentaires/1", "text/csv", "")
		require.Equal(t, http.StatusOK, rec.Code)
		records, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, []string{"id", "author", "text", "email", "note", "conference", "shorttext", "age"}, records[0])
		assert.Equal(t, "/api/conferences/7", records[1][5])
	})

	t.Run("html", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/commentaires/1", "text/html", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<th>shorttext</th>")
		assert.Contains(t, rec.Body.String(), "<td>Hello world, this is...</td>")
	})

	t.Run("not acceptable", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/commentaires/1", "application/xml", "")
		assert.Equal(t, http.StatusNotAcceptable, rec.Code)
		assert.Equal(t, "not_acceptable", decode(t, rec)["error_code"])
	})
}

func TestGetCommentNotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/commentaires/99", "/api/commentaires/abc"} {
		rec := api.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "hydra:Error", body["@type"])
	}
}

func TestConferenceCommentsPagination(t *testing.T) {
	api := newTestAPI(t,
		sampleComment(1, int64Ptr(7)),
		sampleComment(2, int64Ptr(7)),
		sampleComment(3, int64Ptr(7)),
		sampleComment(4, nil),
	)

	rec := api.do(http.MethodGet, "/api/conferences/7/commentaires", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	assert.Equal(t, "hydra:Collection", body["@type"])
	assert.Equal(t, float64(3), body["hydra:totalItems"])
	assert.Len(t, body["hydra:member"], 2)

	view := body["hydra:view"].(map[string]interface{})
	assert.Equal(t, "/api/conferences/7/commentaires?page=1", view["@id"])
	assert.Equal(t, "/api/conferences/7/commentaires?page=2", view["hydra:last"])
	assert.Equal(t, "/api/conferences/7/commentaires?page=2", view["hydra:next"])
	assert.NotContains(t, view, "hydra:previous")

	rec = api.do(http.MethodGet, "/api/conferences/7/commentaires?page=2", "application/hal+json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(3), body["totalItems"])
	assert.Equal(t, float64(2), body["itemsPerPage"])
	links := body["_links"].(map[string]interface{})
	assert.Contains(t, links, "prev")
	assert.NotContains(t, links, "next")
	items := body["_embedded"].(map[string]interface{})["item"].([]interface{})
	assert.Len(t, items, 1)

	rec = api.do(http.MethodGet, "/api/conferences/404/commentaires", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCommentsFilterAndPlainJSON(t *testing.T) {
	api := newTestAPI(t, sampleComment(1, int64Ptr(7)), sampleComment(2, nil))

	rec := api.do(http.MethodGet, "/api/commentaires?conference=/api/conferences/7", "application/json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0]["id"])

	rec = api.do(http.MethodGet, "/api/commentaires?conference=7", "application/json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/commentaires?conference=/api/users/1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/commentaires", "text/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestCreateCommentFiltersWriteGroup(t *testing.T) {
	api := newTestAPI(t)

	body := `{"id":99,"createdAt":"2000-01-01T00:00:00Z","shorttext":"x","author":"Bernard","email":"b@b.com",` +
		`"text":"Très bien","note":5,"conference":"/api/conferences/7"}`
	rec := api.do(http.MethodPost, "/api/commentaires", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	in := api.comments.lastInput
	assert.False(t, in.Has("createdAt"))
	assert.False(t, in.Has("shorttext"))
	require.NotNil(t, in.ConferenceID)
	assert.Equal(t, int64(7), *in.ConferenceID)

	out := decode(t, rec)
	assert.Equal(t, float64(1), out["id"])
	assert.Equal(t, "/api/commentaires/1", rec.Header().Get("Location"))
	assert.Equal(t, "/api/conferences/7", out["conference"])
	assert.Equal(t, created, api.comments.items[1].CreatedAt)
}

func TestCreateCommentConferenceRefs(t *testing.T) {
	tests := []struct {
		name       string
		conference string
		status     int
	}{
		{"integer", `7`, http.StatusCreated},
		{"null", `null`, http.StatusCreated},
		{"iri", `"/api/conferences/7"`, http.StatusCreated},
		{"foreign iri", `"/api/commentaires/7"`, http.StatusBadRequest},
		{"garbage iri", `"/api/conferences/seven"`, http.StatusBadRequest},
		{"negative", `-1`, http.StatusBadRequest},
		{"object", `{"id":7}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			body := `{"author":"Bernard","email":"b@b.com","text":"ok","conference":` + tt.conference + `}`
			rec := api.do(http.MethodPost, "/api/commentaires", "", body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateCommentErrors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/commentaires", "", `{"author":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/commentaires", "", `{"note":"five"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/commentaires", "", `{"author":"Bob","email":"nope","note":9}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ConstraintViolationList", body["@type"])
	violations := body["violations"].([]interface{})
	require.Len(t, violations, 3)
	first := violations[0].(map[string]interface{})
	assert.Equal(t, "author", first["propertyPath"])
	assert.Equal(t, domain.AuthorMinMessage, first["message"])

	rec = api.do(http.MethodPost, "/api/commentaires", "application/json", `{"author":"Bob","email":"a@b.com"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Len(t, body["errors"], 1)
}

func TestCreateCommentNoteOutsideInt16(t *testing.T) {
	for _, note := range []string{"40000", "-40000", "9223372036854775807"} {
		t.Run(note, func(t *testing.T) {
			api := newTestAPI(t)

			rec := api.do(http.MethodPost, "/api/commentaires", "",
				`{"author":"Alice123","email":"a@b.com","text":"Short","note":`+note+`}`)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.Equal(t, "ConstraintViolationList", body["@type"])
			violations := body["violations"].([]interface{})
			require.Len(t, violations, 1)
			v := violations[0].(map[string]interface{})
			assert.Equal(t, "note", v["propertyPath"])
			assert.Equal(t, domain.NoteRangeMessage, v["message"])
		})
	}

	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/commentaires", "", `{"author":"Alice123","email":"a@b.com","text":"Short","note":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int16(5), *api.comments.lastInput.Note)
}

func TestPatchAndReplaceComment(t *testing.T) {
	api := newTestAPI(t, sampleComment(1, int64Ptr(7)))

	rec := api.do(http.MethodPatch, "/api/commentaires/1", "application/json", `{"author":"Charlotte"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, api.comments.lastInput.Has("author"))
	assert.False(t, api.comments.lastInput.Has("text"))

	body := decode(t, rec)
	assert.Equal(t, "Charlotte", body["author"])
	assert.Equal(t, "Hello world, this is a long comment", body["text"])
	assert.Equal(t, "/api/conferences/7", body["conference"])

	rec = api.do(http.MethodPut, "/api/commentaires/1", "application/json", `{"author":"Charlotte","email":"c@b.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "", body["text"])
	assert.Nil(t, body["conference"])
	assert.Nil(t, body["note"])

	rec = api.do(http.MethodPatch, "/api/commentaires/2", "", `{"author":"Charlotte"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteComment(t *testing.T) {
	api := newTestAPI(t, sampleComment(1, nil))

	rec := api.do(http.MethodDelete, "/api/commentaires/1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = api.do(http.MethodDelete, "/api/commentaires/1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "hydra:Error", decode(t, rec)["@type"])

	// Ошибка удаления отдается в согласованном формате
	rec = api.do(http.MethodDelete, "/api/commentaires/1", "application/json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "@type")

	rec = api.do(http.MethodDelete, "/api/conferences/99", "application/hal+json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, decode(t, rec), "@type")

	rec = api.do(http.MethodDelete, "/api/commentaires/1", "image/png", "")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestConferenceEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/conferences/7", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	want := `{"@context":"/api/contexts/Conference","@id":"/api/conferences/7","@type":"Conference",` +
		`"id":7,"city":"Paris","year":"2021","isInternational":false,"createdAt":"2024-01-01T00:00:00Z","commentCount":2}` + "\n"
	assert.Equal(t, want, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/conferences", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["hydra:totalItems"])
	assert.NotContains(t, body, "hydra:view")

	rec = api.do(http.MethodPost, "/api/conferences", "", `{"city":"Lyon","year":"2022","isInternational":true,"commentCount":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, api.conferences.lastInput.Has("commentCount"))
	assert.True(t, api.conferences.lastInput.IsInternational)

	rec = api.do(http.MethodPatch, "/api/conferences/7", "", `{"year":"2023"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2023", decode(t, rec)["year"])
	assert.Equal(t, "Paris", api.conferences.items[7].City)

	rec = api.do(http.MethodPatch, "/api/conferences/7", "", `{"year":2023}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, "/api/conferences/7", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/auth/register", "", `{"email":"new@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "new@b.com", body["data"].(map[string]interface{})["email"])

	rec = api.do(http.MethodPost, "/api/auth/register", "", `{"email":"taken@b.com","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/register", "", `{"email":"bad","password":"1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decode(t, rec)["errors"], 2)

	rec = api.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access", decode(t, rec)["data"].(map[string]interface{})["access_token"])

	rec = api.do(http.MethodPost, "/api/auth/refresh", "", `{"refresh_token":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: 5, Role: domain.RoleAdmin}))
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decode(t, rec)["data"].(map[string]interface{})["id"])
}

func TestListNotifications(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/notifications?type=digest&status=sent&page=2&page_size=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	filter := api.notifications.filter
	require.NotNil(t, filter.Type)
	require.NotNil(t, filter.Status)
	assert.Equal(t, domain.NotificationTypeDigest, *filter.Type)
	assert.Equal(t, domain.NotificationStatusSent, *filter.Status)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 10, filter.PageSize)

	meta := decode(t, rec)["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["current_page"])
}

func TestObjectKeepsKeyOrder(t *testing.T) {
	data, err := json.Marshal(object{{"b", 1}, {"a", object{{"z", nil}, {"y", "x"}}}})
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"z":null,"y":"x"}}`, string(data))
}
