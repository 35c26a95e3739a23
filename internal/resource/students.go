package resource

import (
	"context"
	"strings"

	"edis-portal/internal/models"
)

// StudentAPI is the part of the API client student collections use.
type StudentAPI interface {
	ListStudents(ctx context.Context, projectID int64) ([]models.Student, error)
	CreateStudent(ctx context.Context, req models.StudentRequest) (*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, req models.StudentRequest) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	SearchStudents(ctx context.Context, query string, projectID int64) ([]models.Student, error)
	SearchStudentByCode(ctx context.Context, code string) (*models.Student, error)
}

// Students is the student collection of one project (or of all projects when
// the project id is 0).
type Students struct {
	*Collection[models.Student, models.StudentRequest]

	api       StudentAPI
	projectID int64
}

func NewStudents(api StudentAPI, projectID int64) *Students {
	c := NewCollection(Config[models.Student, models.StudentRequest]{
		Singular: "student",
		Plural:   "students",
		Fetch: func(ctx context.Context) ([]models.Student, error) {
			return api.ListStudents(ctx, projectID)
		},
		Create: func(ctx context.Context, req models.StudentRequest) error {
			_, err := api.CreateStudent(ctx, req)
			return err
		},
		Update: func(ctx context.Context, id int64, req models.StudentRequest) error {
			_, err := api.UpdateStudent(ctx, id, req)
			return err
		},
		Delete: api.DeleteStudent,
	})
	return &Students{Collection: c, api: api, projectID: projectID}
}

func (s *Students) ProjectID() int64 { return s.projectID }

// Search replaces the items with the matches for query. A blank query reloads
// the collection and reports zero matches; an all-digit query is an exact
// code lookup; anything else is a server name search within the project.
// Found is true whenever the search ran.
func (s *Students) Search(ctx context.Context, query string) (models.SearchResult, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	q := strings.TrimSpace(query)
	if q == "" {
		if err := s.FetchAll(ctx); err != nil {
			return models.SearchResult{}, fail(OpSearch, err, "Failed to search students")
		}
		return models.SearchResult{Found: true, Count: 0}, nil
	}

	var (
		items []models.Student
		err   error
	)
	if isDigits(q) {
		var st *models.Student
		st, err = s.api.SearchStudentByCode(ctx, q)
		if st != nil {
			items = []models.Student{*st}
		}
	} else {
		items, err = s.api.SearchStudents(ctx, q, s.projectID)
	}
	if err != nil {
		return models.SearchResult{}, fail(OpSearch, err, "Failed to search students")
	}

	s.replace(items)
	return models.SearchResult{Found: true, Count: len(items)}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
