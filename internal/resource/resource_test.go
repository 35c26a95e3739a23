package resource

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"edis-portal/internal/apiclient"
	"edis-portal/internal/models"
)

type stubProjectAPI struct {
	lists     [][]models.Project
	listErr   error
	createErr error
	deleteErr error
	listCalls int
	created   []models.ProjectRequest
	deleted   []int64
}

func (s *stubProjectAPI) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.lists) == 0 {
		return nil, nil
	}
	next := s.lists[0]
	s.lists = s.lists[1:]
	return next, nil
}

func (s *stubProjectAPI) CreateProject(ctx context.Context, req models.ProjectRequest) (*models.Project, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, req)
	return &models.Project{Name: req.Name}, nil
}

func (s *stubProjectAPI) UpdateProject(ctx context.Context, id int64, req models.ProjectRequest) (*models.Project, error) {
	return &models.Project{ID: id, Name: req.Name}, nil
}

func (s *stubProjectAPI) DeleteProject(ctx context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubStudentAPI struct {
	list        []models.Student
	byCode      *models.Student
	byName      []models.Student
	codeCalls   []string
	nameCalls   []string
	nameProject int64
	listCalls   int
	searchErr   error
}

func (s *stubStudentAPI) ListStudents(ctx context.Context, projectID int64) ([]models.Student, error) {
	s.listCalls++
	return s.list, nil
}

func (s *stubStudentAPI) CreateStudent(ctx context.Context, req models.StudentRequest) (*models.Student, error) {
	return &models.Student{}, nil
}

func (s *stubStudentAPI) UpdateStudent(ctx context.Context, id int64, req models.StudentRequest) (*models.Student, error) {
	return &models.Student{}, nil
}

func (s *stubStudentAPI) DeleteStudent(ctx context.Context, id int64) error { return nil }

func (s *stubStudentAPI) SearchStudents(ctx context.Context, query string, projectID int64) ([]models.Student, error) {
	s.nameCalls = append(s.nameCalls, query)
	s.nameProject = projectID
	return s.byName, s.searchErr
}

func (s *stubStudentAPI) SearchStudentByCode(ctx context.Context, code string) (*models.Student, error) {
	s.codeCalls = append(s.codeCalls, code)
	return s.byCode, s.searchErr
}

func TestFetchThenDeleteRefetches(t *testing.T) {
	api := &stubProjectAPI{lists: [][]models.Project{
		{{ID: 1, Name: "Alpha"}},
		{},
	}}
	projects := NewProjects(api)
	ctx := context.Background()

	if !projects.Loading() {
		t.Fatal("expected loading before the first fetch")
	}
	if err := projects.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if projects.Loading() {
		t.Fatal("loading should be cleared after fetch")
	}
	if want := []models.Project{{ID: 1, Name: "Alpha"}}; !reflect.DeepEqual(projects.Items(), want) {
		t.Fatalf("items = %+v, want %+v", projects.Items(), want)
	}

	if err := projects.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(projects.Items()) != 0 {
		t.Fatalf("items after delete = %+v, want empty", projects.Items())
	}
	if !reflect.DeepEqual(api.deleted, []int64{1}) || api.listCalls != 2 {
		t.Fatalf("deleted=%v listCalls=%d", api.deleted, api.listCalls)
	}
}

func TestCreateReflectsServerState(t *testing.T) {
	fixture := []models.Project{{ID: 42, Name: "Server Name", Description: "canonical"}}
	api := &stubProjectAPI{lists: [][]models.Project{fixture}}
	projects := NewProjects(api)

	if err := projects.Create(context.Background(), models.ProjectRequest{Name: "local name"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !reflect.DeepEqual(projects.Items(), fixture) {
		t.Fatalf("items = %+v, want server fixture %+v", projects.Items(), fixture)
	}
}

func TestFetchNilBecomesEmpty(t *testing.T) {
	projects := NewProjects(&stubProjectAPI{})
	if err := projects.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if items := projects.Items(); items == nil || len(items) != 0 {
		t.Fatalf("items = %#v, want empty slice", items)
	}
}

func TestFailuresAreNormalized(t *testing.T) {
	cause := &apiclient.APIError{StatusCode: http.StatusConflict, Body: []byte(`{"message":"This project name is already taken"}`)}

	tests := []struct {
		name    string
		api     *stubProjectAPI
		run     func(*Projects) error
		wantOp  Op
		wantMsg string
	}{
		{
			name:    "load",
			api:     &stubProjectAPI{listErr: errors.New("")},
			run:     func(p *Projects) error { return p.FetchAll(context.Background()) },
			wantOp:  OpLoad,
			wantMsg: "Failed to load projects",
		},
		{
			name:    "create with server message",
			api:     &stubProjectAPI{createErr: cause},
			run:     func(p *Projects) error { return p.Create(context.Background(), models.ProjectRequest{Name: "Alpha"}) },
			wantOp:  OpCreate,
			wantMsg: "This project name is already taken",
		},
		{
			name:    "delete with empty error",
			api:     &stubProjectAPI{deleteErr: errors.New("")},
			run:     func(p *Projects) error { return p.Delete(context.Background(), 9) },
			wantOp:  OpDelete,
			wantMsg: "Failed to delete project",
		},
		{
			name:    "refetch failure after create",
			api:     &stubProjectAPI{listErr: errors.New("")},
			run:     func(p *Projects) error { return p.Create(context.Background(), models.ProjectRequest{Name: "Alpha"}) },
			wantOp:  OpCreate,
			wantMsg: "Failed to load projects",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects := NewProjects(tt.api)
			err := tt.run(projects)

			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("err = %v, want *Failure", err)
			}
			if f.Op != tt.wantOp || f.Message != tt.wantMsg {
				t.Fatalf("failure = {%s %q}, want {%s %q}", f.Op, f.Message, tt.wantOp, tt.wantMsg)
			}
			if projects.Loading() {
				t.Fatal("loading must be cleared after a failure")
			}
		})
	}
}

func TestFailureUnwrapsCause(t *testing.T) {
	cause := &apiclient.APIError{StatusCode: http.StatusBadRequest}
	projects := NewProjects(&stubProjectAPI{createErr: cause})

	err := projects.Create(context.Background(), models.ProjectRequest{})
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr != cause {
		t.Fatalf("expected the API error to be preserved, got %v", err)
	}
}

func TestSearchClassification(t *testing.T) {
	ada := models.Student{ID: 1, CodeNumber: "999999", FirstName: "Ada"}

	t.Run("digits use code lookup", func(t *testing.T) {
		api := &stubStudentAPI{byCode: &ada}
		students := NewStudents(api, 5)

		res, err := students.Search(context.Background(), "999999")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(api.codeCalls) != 1 || api.codeCalls[0] != "999999" || len(api.nameCalls) != 0 {
			t.Fatalf("codeCalls=%v nameCalls=%v", api.codeCalls, api.nameCalls)
		}
		if res != (models.SearchResult{Found: true, Count: 1}) {
			t.Fatalf("result = %+v", res)
		}
		if !reflect.DeepEqual(students.Items(), []models.Student{ada}) {
			t.Fatalf("items = %+v", students.Items())
		}
	})

	t.Run("text uses name search scoped to project", func(t *testing.T) {
		api := &stubStudentAPI{byName: []models.Student{ada}}
		students := NewStudents(api, 5)

		res, err := students.Search(context.Background(), "  Ada ")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if students.ProjectID() != 5 {
			t.Fatalf("ProjectID() = %d", students.ProjectID())
		}
		if len(api.nameCalls) != 1 || api.nameCalls[0] != "Ada" || api.nameProject != 5 || len(api.codeCalls) != 0 {
			t.Fatalf("nameCalls=%v project=%d codeCalls=%v", api.nameCalls, api.nameProject, api.codeCalls)
		}
		if res.Count != 1 || !res.Found {
			t.Fatalf("result = %+v", res)
		}
	})

	t.Run("blank reloads and reports zero", func(t *testing.T) {
		api := &stubStudentAPI{list: []models.Student{ada, {ID: 2}}}
		students := NewStudents(api, 5)

		res, err := students.Search(context.Background(), "   ")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if res != (models.SearchResult{Found: true, Count: 0}) {
			t.Fatalf("result = %+v", res)
		}
		if api.listCalls != 1 || len(api.nameCalls)+len(api.codeCalls) != 0 {
			t.Fatalf("listCalls=%d nameCalls=%v codeCalls=%v", api.listCalls, api.nameCalls, api.codeCalls)
		}
		if len(students.Items()) != 2 {
			t.Fatalf("items = %+v", students.Items())
		}
	})

	t.Run("code lookup without data yields no rows", func(t *testing.T) {
		students := NewStudents(&stubStudentAPI{}, 5)
		res, err := students.Search(context.Background(), "123456")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if res != (models.SearchResult{Found: true, Count: 0}) || len(students.Items()) != 0 {
			t.Fatalf("result = %+v items = %+v", res, students.Items())
		}
	})

	t.Run("no matches still found", func(t *testing.T) {
		students := NewStudents(&stubStudentAPI{}, 0)
		res, err := students.Search(context.Background(), "Nobody")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if res != (models.SearchResult{Found: true, Count: 0}) {
			t.Fatalf("result = %+v", res)
		}
	})
}

func TestSearchFailure(t *testing.T) {
	students := NewStudents(&stubStudentAPI{searchErr: errors.New("")}, 1)
	_, err := students.Search(context.Background(), "Ada")

	var f *Failure
	if !errors.As(err, &f) || f.Op != OpSearch || f.Message != "Failed to search students" {
		t.Fatalf("err = %v", err)
	}
	if students.Loading() {
		t.Fatal("loading must be cleared after a failed search")
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestMount_LogsAndSwallowsFailure(t *testing.T) {
	buf := captureLog(t)
	api := &stubProjectAPI{listErr: &apiclient.APIError{StatusCode: http.StatusInternalServerError, Body: []byte(`{"message":"db down"}`)}}
	projects := NewProjects(api)

	projects.Mount(context.Background())

	if api.listCalls != 1 {
		t.Fatalf("listCalls = %d", api.listCalls)
	}
	if projects.Loading() {
		t.Fatal("loading must be cleared after a failed mount")
	}
	if items := projects.Items(); items == nil || len(items) != 0 {
		t.Fatalf("items = %#v, want empty", items)
	}
	if !strings.Contains(buf.String(), "initial projects fetch failed: db down") {
		t.Fatalf("log = %q", buf.String())
	}
}

func TestMount_LoadsItems(t *testing.T) {
	buf := captureLog(t)
	api := &stubProjectAPI{lists: [][]models.Project{{{ID: 1, Name: "Apollo"}}}}
	projects := NewProjects(api)

	projects.Mount(context.Background())

	if got := projects.Items(); len(got) != 1 || got[0].Name != "Apollo" {
		t.Fatalf("items = %+v", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}
