package resource

import (
	"context"

	"edis-portal/internal/models"
)

// ProjectAPI is the part of the API client project collections use.
type ProjectAPI interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, req models.ProjectRequest) (*models.Project, error)
	UpdateProject(ctx context.Context, id int64, req models.ProjectRequest) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

type Projects = Collection[models.Project, models.ProjectRequest]

func NewProjects(api ProjectAPI) *Projects {
	return NewCollection(Config[models.Project, models.ProjectRequest]{
		Singular: "project",
		Plural:   "projects",
		Fetch:    api.ListProjects,
		Create: func(ctx context.Context, req models.ProjectRequest) error {
			_, err := api.CreateProject(ctx, req)
			return err
		},
		Update: func(ctx context.Context, id int64, req models.ProjectRequest) error {
			_, err := api.UpdateProject(ctx, id, req)
			return err
		},
		Delete: api.DeleteProject,
	})
}
