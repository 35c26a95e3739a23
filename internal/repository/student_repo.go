package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"edis-portal/internal/models"
)

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

const studentSelect = `
	SELECT s.id, s.code_number, s.first_name, s.last_name, s.date_of_birth, s.title,
	       s.description, s.project_id, p.name, s.created_at, s.updated_at
	FROM students s
	JOIN projects p ON p.id = s.project_id`

func scanStudent(row pgx.Row) (*models.Student, error) {
	st := &models.Student{}
	var dob *time.Time
	err := row.Scan(
		&st.ID, &st.CodeNumber, &st.FirstName, &st.LastName, &dob, &st.Title,
		&st.Description, &st.ProjectID, &st.ProjectName, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob != nil {
		st.DateOfBirth = dob.Format(models.DateLayout)
	}
	return st, nil
}

func (r *StudentRepo) query(ctx context.Context, sql string, args ...interface{}) ([]models.Student, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

func (r *StudentRepo) List(ctx context.Context) ([]models.Student, error) {
	return r.query(ctx, studentSelect+` ORDER BY s.id`)
}

func (r *StudentRepo) ListByProject(ctx context.Context, projectID int64) ([]models.Student, error) {
	return r.query(ctx, studentSelect+` WHERE s.project_id = $1 ORDER BY s.id`, projectID)
}

func (r *StudentRepo) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.id = $1`, id))
}

func (r *StudentRepo) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.code_number = $1`, code))
}

// SearchByName matches the first name, last name or "first last" exactly,
// ignoring case. projectID 0 searches every project.
func (r *StudentRepo) SearchByName(ctx context.Context, name string, projectID int64) ([]models.Student, error) {
	sql := studentSelect + `
		WHERE (LOWER(s.first_name) = LOWER($1)
		    OR LOWER(s.last_name) = LOWER($1)
		    OR LOWER(s.first_name || ' ' || s.last_name) = LOWER($1))
		  AND ($2::bigint = 0 OR s.project_id = $2::bigint)
		ORDER BY s.id`
	return r.query(ctx, sql, name, projectID)
}

func (r *StudentRepo) Create(ctx context.Context, st *models.Student) error {
	dob, err := parseDate(st.DateOfBirth)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO students (code_number, first_name, last_name, date_of_birth, title, description, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		st.CodeNumber, st.FirstName, st.LastName, dob, st.Title, st.Description, st.ProjectID,
	).Scan(&st.ID, &st.CreatedAt)
}

func (r *StudentRepo) Update(ctx context.Context, st *models.Student) error {
	dob, err := parseDate(st.DateOfBirth)
	if err != nil {
		return err
	}
	query := `
		UPDATE students SET code_number = $1, first_name = $2, last_name = $3, date_of_birth = $4,
		       title = $5, description = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		st.CodeNumber, st.FirstName, st.LastName, dob, st.Title, st.Description, st.ID,
	).Scan(&st.CreatedAt, &st.UpdatedAt)
}

func (r *StudentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
