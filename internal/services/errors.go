package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation failed" }

type BadRequestError struct{ Message string }

func (e *BadRequestError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

const (
	msgStudentCodeTaken = "This student ID is already taken"
	msgProjectNameTaken = "This project name is already taken"
	msgUsernameTaken    = "Username already exists"
	msgIntegrity        = "Data integrity constraint violation"
)

// translateDBError maps Postgres constraint violations onto service errors.
// Other errors pass through unchanged.
func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "students_code_number_key":
			return &ConflictError{Message: msgStudentCodeTaken}
		case "projects_name_key":
			return &ConflictError{Message: msgProjectNameTaken}
		case "users_username_key":
			return &ConflictError{Message: msgUsernameTaken}
		}
	}
	if strings.HasPrefix(pgErr.Code, "23") {
		return &BadRequestError{Message: msgIntegrity}
	}
	return err
}

// notFound turns pgx.ErrNoRows into a NotFoundError carrying message.
func notFound(err error, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: message}
	}
	return err
}
