package resource

// Op names the collection operation that failed.
type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpSearch Op = "search"
)

// Failure carries the normalized, user-facing message of a failed operation
// together with the underlying cause.
type Failure struct {
	Op      Op
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }
