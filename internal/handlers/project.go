package handlers

import (
	"context"
	"net/http"

	"edis-portal/internal/middleware"
	"edis-portal/internal/models"
)

type projectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, req models.ProjectRequest, createdBy string) (*models.Project, error)
	Update(ctx context.Context, id int64, req models.ProjectRequest) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
}

type ProjectHandler struct {
	projects projectService
}

func NewProjectHandler(projects projectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", p)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.projects.Create(r.Context(), req, middleware.GetUsername(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "Project created successfully", p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.projects.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "Project updated successfully", p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess[any](w, "Project deleted successfully", nil)
}
