package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"edis-portal/internal/models"
)

type studentService interface {
	List(ctx context.Context) ([]models.Student, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.Student, error)
	Get(ctx context.Context, id int64) (*models.Student, error)
	SearchByCode(ctx context.Context, code string) (*models.Student, error)
	SearchByName(ctx context.Context, name string, projectID int64) ([]models.Student, error)
	Create(ctx context.Context, req models.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id int64, req models.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
}

type StudentHandler struct {
	students studentService
}

func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// optionalProjectID reads ?projectId=, reporting 0 when absent.
func optionalProjectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("projectId"))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid projectId")
		return 0, false
	}
	return id, true
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := optionalProjectID(w, r)
	if !ok {
		return
	}

	var (
		students []models.Student
		err      error
	)
	if projectID != 0 {
		students, err = h.students.ListByProject(r.Context(), projectID)
	} else {
		students, err = h.students.List(r.Context())
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", students)
}

func (h *StudentHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	students, err := h.students.ListByProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", students)
}

func (h *StudentHandler) Search(w http.ResponseWriter, r *http.Request) {
	projectID, ok := optionalProjectID(w, r)
	if !ok {
		return
	}
	students, err := h.students.SearchByName(r.Context(), r.URL.Query().Get("query"), projectID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", students)
}

func (h *StudentHandler) SearchByCode(w http.ResponseWriter, r *http.Request) {
	st, err := h.students.SearchByCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", st)
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	st, err := h.students.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "", st)
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.StudentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.students.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "Student created successfully", st)
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.StudentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.students.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, "Student updated successfully", st)
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.students.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess[any](w, "Student deleted successfully", nil)
}
