package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/messaging"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/internal/repository/cache"
	pkgcache "github.com/nurlyy/guestbook/pkg/cache"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
)

func newTestCache(t *testing.T) (*cache.RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewNopLogger()
	r := pkgcache.NewRedisWithClient(client, &config.RedisConfig{DefaultTTL: time.Hour}, log)
	return cache.NewRedisRepository(r, log, time.Hour), mr
}

// memStore - хранилище в памяти для комментариев и конференций
type memStore struct {
	mu          sync.Mutex
	comments    map[int64]domain.Comment
	conferences map[int64]domain.Conference
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{
		comments:    map[int64]domain.Comment{},
		conferences: map[int64]domain.Conference{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memComments struct{ *memStore }

func (r memComments) Create(_ context.Context, c *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	r.comments[c.ID] = *c
	return nil
}

func (r memComments) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return &c, nil
}

func (r memComments) Update(_ context.Context, c *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.ID]; !ok {
		return domain.ErrCommentNotFound
	}
	r.comments[c.ID] = *c
	return nil
}

func (r memComments) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r memComments) filtered(filter repository.CommentFilter) []*domain.Comment {
	result := []*domain.Comment{}
	for _, c := range r.comments {
		c := c
		if filter.ConferenceID != nil && (c.ConferenceID == nil || *c.ConferenceID != *filter.ConferenceID) {
			continue
		}
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (r memComments) List(_ context.Context, filter repository.CommentFilter) ([]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filtered(filter)
	if filter.Offset >= len(all) {
		return []*domain.Comment{}, nil
	}
	end := len(all)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return all[filter.Offset:end], nil
}

func (r memComments) Count(_ context.Context, filter repository.CommentFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filtered(filter)), nil
}

func (r memComments) CountSince(_ context.Context, since time.Time) ([]repository.ConferenceCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byConf := map[int64]int{}
	orphans := 0
	for _, c := range r.comments {
		if c.CreatedAt.Before(since) {
			continue
		}
		if c.ConferenceID == nil {
			orphans++
			continue
		}
		byConf[*c.ConferenceID]++
	}

	ids := make([]int64, 0, len(byConf))
	for id := range byConf {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := []repository.ConferenceCount{}
	for _, id := range ids {
		id := id
		conf := r.conferences[id]
		result = append(result, repository.ConferenceCount{ConferenceID: &id, City: conf.City, Year: conf.Year, Count: byConf[id]})
	}
	if orphans > 0 {
		result = append(result, repository.ConferenceCount{Count: orphans})
	}
	return result, nil
}

type memConferences struct{ *memStore }

func (r memConferences) Create(_ context.Context, c *domain.Conference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	r.conferences[c.ID] = *c
	return nil
}

func (r memConferences) GetByID(_ context.Context, id int64) (*domain.Conference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conferences[id]
	if !ok {
		return nil, domain.ErrConferenceNotFound
	}
	return &c, nil
}

func (r memConferences) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conferences[id]
	return ok, nil
}

func (r memConferences) Update(_ context.Context, c *domain.Conference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conferences[c.ID]; !ok {
		return domain.ErrConferenceNotFound
	}
	r.conferences[c.ID] = *c
	return nil
}

// Delete повторяет ON DELETE SET NULL
func (r memConferences) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conferences[id]; !ok {
		return domain.ErrConferenceNotFound
	}
	delete(r.conferences, id)
	for cid, c := range r.comments {
		if c.ConferenceID != nil && *c.ConferenceID == id {
			c.ConferenceID = nil
			r.comments[cid] = c
		}
	}
	return nil
}

func (r memConferences) sorted() []*domain.Conference {
	result := []*domain.Conference{}
	for _, c := range r.conferences {
		c := c
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r memConferences) List(_ context.Context, limit, offset int) ([]*domain.Conference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if offset >= len(all) {
		return []*domain.Conference{}, nil
	}
	end := len(all)
	if offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r memConferences) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conferences), nil
}

func (r memConferences) CountComments(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.comments {
		if c.ConferenceID != nil && *c.ConferenceID == id {
			n++
		}
	}
	return n, nil
}

func (r memConferences) CommentCounts(ctx context.Context) ([]repository.ConferenceCount, error) {
	r.mu.Lock()
	all := r.sorted()
	r.mu.Unlock()

	result := []repository.ConferenceCount{}
	for _, c := range all {
		id := c.ID
		n, _ := r.CountComments(ctx, id)
		result = append(result, repository.ConferenceCount{ConferenceID: &id, City: c.City, Year: c.Year, Count: n})
	}
	return result, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]domain.User{}}
}

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	u.ID = int64(len(r.users) + 1)
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type memNotifications struct {
	mu    sync.Mutex
	items []domain.Notification
	err   error
}

func (r *memNotifications) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	n.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *n)
	return nil
}

func (r *memNotifications) match(filter domain.NotificationFilterOptions) []*domain.Notification {
	result := []*domain.Notification{}
	for i := len(r.items) - 1; i >= 0; i-- {
		n := r.items[i]
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && n.Status != *filter.Status {
			continue
		}
		result = append(result, &n)
	}
	return result
}

func (r *memNotifications) List(_ context.Context, filter domain.NotificationFilterOptions) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.match(filter)
	offset := domain.Offset(filter.Page, filter.PageSize)
	if offset >= len(all) {
		return []*domain.Notification{}, nil
	}
	end := len(all)
	if offset+filter.PageSize < end {
		end = offset + filter.PageSize
	}
	return all[offset:end], nil
}

func (r *memNotifications) Count(_ context.Context, filter domain.NotificationFilterOptions) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.match(filter)), nil
}

type publishedComment struct {
	Type    string
	Comment domain.Comment
}

type fakePublisher struct {
	mu            sync.Mutex
	comments      []publishedComment
	notifications []messaging.NotificationEvent
	err           error
}

func (p *fakePublisher) PublishCommentEvent(_ context.Context, eventType string, c *domain.Comment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.comments = append(p.comments, publishedComment{Type: eventType, Comment: *c})
	return nil
}

func (p *fakePublisher) PublishNotification(_ context.Context, event messaging.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.notifications = append(p.notifications, event)
	return nil
}

func (p *fakePublisher) commentTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.comments))
	for _, c := range p.comments {
		types = append(types, c.Type)
	}
	return types
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

var errBrokerDown = errors.New("broker down")
