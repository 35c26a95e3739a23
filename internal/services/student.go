package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"edis-portal/internal/models"
)

const (
	studentsCacheAll     = "students:all"
	studentsCachePattern = "students:*"
)

func studentsProjectKey(projectID int64) string {
	return "students:project:" + strconv.FormatInt(projectID, 10)
}

type StudentService struct {
	students StudentStore
	projects ProjectStore
	cache    Cache
	events   Publisher
	ttl      time.Duration
}

func NewStudentService(students StudentStore, projects ProjectStore, cache Cache, events Publisher, ttl time.Duration) *StudentService {
	return &StudentService{students: students, projects: projects, cache: cache, events: events, ttl: ttl}
}

func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	return s.cached(ctx, studentsCacheAll, func() ([]models.Student, error) {
		return s.students.List(ctx)
	})
}

func (s *StudentService) ListByProject(ctx context.Context, projectID int64) ([]models.Student, error) {
	return s.cached(ctx, studentsProjectKey(projectID), func() ([]models.Student, error) {
		return s.students.ListByProject(ctx, projectID)
	})
}

func (s *StudentService) cached(ctx context.Context, key string, load func() ([]models.Student, error)) ([]models.Student, error) {
	var students []models.Student
	if s.cache.Get(ctx, key, &students) {
		return students, nil
	}
	students, err := load()
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, students, s.ttl)
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Student not found")
	}
	return st, nil
}

func (s *StudentService) SearchByCode(ctx context.Context, code string) (*models.Student, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &BadRequestError{Message: "Code cannot be empty"}
	}
	st, err := s.students.GetByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, "Student not found")
	}
	return st, nil
}

// SearchByName matches whole first, last or full names, ignoring case.
// projectID 0 searches across projects.
func (s *StudentService) SearchByName(ctx context.Context, name string, projectID int64) ([]models.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &BadRequestError{Message: "query parameter is required"}
	}
	return s.students.SearchByName(ctx, name, projectID)
}

func (s *StudentService) Create(ctx context.Context, req models.StudentRequest) (*models.Student, error) {
	normalizeStudent(&req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, notFound(err, "Project not found")
	}

	st := &models.Student{
		CodeNumber:  req.CodeNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   project.ID,
		ProjectName: &project.Name,
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, translateDBError(err)
	}

	s.changed(ctx, st.ProjectID)
	return st, nil
}

// Update overwrites the editable fields. A student never moves between
// projects; req.ProjectID is ignored.
func (s *StudentService) Update(ctx context.Context, id int64, req models.StudentRequest) (*models.Student, error) {
	normalizeStudent(&req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	st.CodeNumber = req.CodeNumber
	st.FirstName = req.FirstName
	st.LastName = req.LastName
	st.DateOfBirth = req.DateOfBirth
	st.Title = req.Title
	st.Description = req.Description
	if err := s.students.Update(ctx, st); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Student not found"}
		}
		return nil, translateDBError(err)
	}

	s.changed(ctx, st.ProjectID)
	return st, nil
}

func (s *StudentService) Delete(ctx context.Context, id int64) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return notFound(err, "Student not found")
	}

	s.changed(ctx, st.ProjectID)
	return nil
}

func (s *StudentService) changed(ctx context.Context, projectID int64) {
	s.cache.DelPattern(ctx, studentsCachePattern)
	publish(ctx, s.events, models.ChangeEvent{Type: models.EventStudentsChanged, ProjectID: projectID})
}

func normalizeStudent(req *models.StudentRequest) {
	req.CodeNumber = strings.TrimSpace(req.CodeNumber)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	req.Title = strings.TrimSpace(req.Title)
}
