package services

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"edis-portal/internal/models"
)

type stubUserStore struct {
	users     map[string]*models.User
	nextID    int64
	deleted   []int64
	pwUpdated map[int64]string
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[string]*models.User{}, pwUpdated: map[int64]string{}}
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	u := *user
	s.users[user.Username] = &u
	return nil
}

func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	s.pwUpdated[userID] = passwordHash
	for _, u := range s.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func (s *stubUserStore) Delete(ctx context.Context, userID int64) error {
	s.deleted = append(s.deleted, userID)
	for name, u := range s.users {
		if u.ID == userID {
			delete(s.users, name)
		}
	}
	return nil
}

type stubProjectStore struct {
	projects  map[int64]*models.Project
	nextID    int64
	listCalls int
	createErr error
}

func newStubProjectStore(projects ...models.Project) *stubProjectStore {
	s := &stubProjectStore{projects: map[int64]*models.Project{}}
	for i := range projects {
		p := projects[i]
		s.projects[p.ID] = &p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (s *stubProjectStore) List(ctx context.Context) ([]models.Project, error) {
	s.listCalls++
	out := []models.Project{}
	for id := int64(1); id <= s.nextID; id++ {
		if p, ok := s.projects[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProjectStore) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *stubProjectStore) GetByName(ctx context.Context, name string) (*models.Project, error) {
	for _, p := range s.projects {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubProjectStore) Create(ctx context.Context, p *models.Project) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	p.ID = s.nextID
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *stubProjectStore) Update(ctx context.Context, p *models.Project) error {
	if _, ok := s.projects[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *stubProjectStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.projects[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.projects, id)
	return nil
}

type stubStudentStore struct {
	students    []models.Student
	nextID      int64
	searchName  string
	searchScope int64
	createErr   error
}

func (s *stubStudentStore) List(ctx context.Context) ([]models.Student, error) {
	return append([]models.Student{}, s.students...), nil
}

func (s *stubStudentStore) ListByProject(ctx context.Context, projectID int64) ([]models.Student, error) {
	out := []models.Student{}
	for _, st := range s.students {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubStudentStore) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	for _, st := range s.students {
		if st.ID == id {
			cp := st
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubStudentStore) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	for _, st := range s.students {
		if st.CodeNumber == code {
			cp := st
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubStudentStore) SearchByName(ctx context.Context, name string, projectID int64) ([]models.Student, error) {
	s.searchName = name
	s.searchScope = projectID
	out := []models.Student{}
	for _, st := range s.students {
		if projectID != 0 && st.ProjectID != projectID {
			continue
		}
		if strings.EqualFold(st.FirstName, name) || strings.EqualFold(st.LastName, name) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubStudentStore) Create(ctx context.Context, st *models.Student) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	st.ID = s.nextID
	s.students = append(s.students, *st)
	return nil
}

func (s *stubStudentStore) Update(ctx context.Context, st *models.Student) error {
	for i := range s.students {
		if s.students[i].ID == st.ID {
			s.students[i] = *st
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (s *stubStudentStore) Delete(ctx context.Context, id int64) error {
	for i := range s.students {
		if s.students[i].ID == id {
			s.students = append(s.students[:i], s.students[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

// memCache backs both Cache and TokenMarks.
type memCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	marks map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, marks: map[string]time.Duration{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
}

func (c *memCache) DelPattern(ctx context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
		}
	}
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *memCache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	c.marks[key] = ttl
	c.mu.Unlock()
	return nil
}

func (c *memCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.marks[key]
	return ok, nil
}

type stubPublisher struct {
	events []models.ChangeEvent
}

func (p *stubPublisher) Publish(ctx context.Context, channel string, v interface{}) error {
	if ev, ok := v.(models.ChangeEvent); ok && channel == models.ChangesChannel {
		p.events = append(p.events, ev)
	}
	return nil
}
