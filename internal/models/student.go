package models

import "time"

// DateLayout is the wire format of Student.DateOfBirth.
const DateLayout = "2006-01-02"

type Student struct {
	ID          int64      `json:"id"`
	CodeNumber  string     `json:"codeNumber"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth string     `json:"dateOfBirth"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   int64      `json:"projectId"`
	ProjectName *string    `json:"projectName,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type StudentRequest struct {
	CodeNumber  string `json:"codeNumber" validate:"required,max=20,numeric"`
	FirstName   string `json:"firstName" validate:"required,max=100,letters"`
	LastName    string `json:"lastName" validate:"required,max=100,letters"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02,past"`
	Title       string `json:"title" validate:"required,max=200,letters"`
	Description string `json:"description" validate:"max=1000"`
	ProjectID   int64  `json:"projectId" validate:"required"`
}

// SearchResult describes the outcome of a student search. Found reports that
// the search ran, not that it matched anything.
type SearchResult struct {
	Found bool `json:"found"`
	Count int  `json:"count"`
}
