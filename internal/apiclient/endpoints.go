package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"edis-portal/internal/models"
)

func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login response did not contain a token")
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	req := models.RegisterRequest{Username: username, Password: password}
	return c.do(ctx, http.MethodPost, "/auth/register", nil, req, nil)
}

// Logout revokes the current token server side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &out)
	return out, err
}

// GetProject reports nil when the server answered without data.
func (c *Client) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var out *models.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, req models.ProjectRequest) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id int64, req models.ProjectRequest) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPut, "/projects/"+strconv.FormatInt(id, 10), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) ListStudents(ctx context.Context, projectID int64) ([]models.Student, error) {
	var q url.Values
	if projectID != 0 {
		q = url.Values{"projectId": {strconv.FormatInt(projectID, 10)}}
	}
	var out []models.Student
	err := c.do(ctx, http.MethodGet, "/students", q, nil, &out)
	return out, err
}

func (c *Client) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var out *models.Student
	if err := c.do(ctx, http.MethodGet, "/students/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateStudent(ctx context.Context, req models.StudentRequest) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodPost, "/students", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStudent(ctx context.Context, id int64, req models.StudentRequest) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodPut, "/students/"+strconv.FormatInt(id, 10), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/students/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// SearchStudents runs the server name search; projectID 0 searches every project.
func (c *Client) SearchStudents(ctx context.Context, query string, projectID int64) ([]models.Student, error) {
	q := url.Values{"query": {query}}
	if projectID != 0 {
		q.Set("projectId", strconv.FormatInt(projectID, 10))
	}
	var out []models.Student
	err := c.do(ctx, http.MethodGet, "/students/search", q, nil, &out)
	return out, err
}

// SearchStudentByCode reports nil when the server answered without data.
func (c *Client) SearchStudentByCode(ctx context.Context, code string) (*models.Student, error) {
	var out *models.Student
	q := url.Values{"code": {code}}
	if err := c.do(ctx, http.MethodGet, "/students/search/code", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
