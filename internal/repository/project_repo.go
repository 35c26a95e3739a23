package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"edis-portal/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, name, description, created_by, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	p := &models.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *ProjectRepo) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE name = $1`, name))
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, p.Name, p.Description, p.CreatedBy).Scan(&p.ID, &p.CreatedAt)
}

func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	query := `
		UPDATE projects SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING created_by, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, p.Name, p.Description, p.ID).Scan(&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
}

// Delete removes the project and, through the foreign key, its students.
func (r *ProjectRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
