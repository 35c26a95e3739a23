package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"edis-portal/internal/models"
)

const projectsCacheKey = "projects"

type ProjectService struct {
	projects ProjectStore
	cache    Cache
	events   Publisher
	ttl      time.Duration
}

func NewProjectService(projects ProjectStore, cache Cache, events Publisher, ttl time.Duration) *ProjectService {
	return &ProjectService{projects: projects, cache: cache, events: events, ttl: ttl}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	var cached []models.Project
	if s.cache.Get(ctx, projectsCacheKey, &cached) {
		return cached, nil
	}

	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, projectsCacheKey, projects, s.ttl)
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Project not found")
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, req models.ProjectRequest, createdBy string) (*models.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, 0); err != nil {
		return nil, err
	}

	p := &models.Project{Name: req.Name, Description: req.Description}
	if createdBy != "" {
		p.CreatedBy = &createdBy
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, translateDBError(err)
	}

	s.changed(ctx, p.ID)
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, id int64, req models.ProjectRequest) (*models.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != req.Name {
		if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
			return nil, err
		}
	}

	p.Name = req.Name
	p.Description = req.Description
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, translateDBError(notFound(err, "Project not found"))
	}

	s.changed(ctx, p.ID)
	return p, nil
}

// Delete removes the project together with its students.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return notFound(err, "Project not found")
	}

	s.changed(ctx, id)
	s.cache.DelPattern(ctx, studentsCachePattern)
	publish(ctx, s.events, models.ChangeEvent{Type: models.EventStudentsChanged, ProjectID: id})
	return nil
}

func (s *ProjectService) ensureUniqueName(ctx context.Context, name string, ignoreID int64) error {
	existing, err := s.projects.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if ignoreID == 0 || existing.ID != ignoreID {
		return &BadRequestError{Message: "Project with this name already exists"}
	}
	return nil
}

func (s *ProjectService) changed(ctx context.Context, id int64) {
	s.cache.DelPattern(ctx, projectsCacheKey)
	publish(ctx, s.events, models.ChangeEvent{Type: models.EventProjectsChanged, ProjectID: id})
}

// publish is fire-and-forget; listeners only use events as a refresh hint.
func publish(ctx context.Context, events Publisher, ev models.ChangeEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, models.ChangesChannel, ev); err != nil {
		log.Printf("[events] failed to publish %s: %v", ev.Type, err)
	}
}
