package services

import (
	"context"
	"time"

	"edis-portal/internal/models"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	Delete(ctx context.Context, userID int64) error
}

type ProjectStore interface {
	List(ctx context.Context) ([]models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id int64) error
}

type StudentStore interface {
	List(ctx context.Context) ([]models.Student, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.Student, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByCode(ctx context.Context, code string) (*models.Student, error)
	SearchByName(ctx context.Context, name string, projectID int64) ([]models.Student, error)
	Create(ctx context.Context, st *models.Student) error
	Update(ctx context.Context, st *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// Cache is a best-effort JSON cache; failures degrade to misses.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	DelPattern(ctx context.Context, pattern string)
}

// TokenMarks records revoked tokens until they would have expired anyway.
type TokenMarks interface {
	Mark(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, v interface{}) error
}
