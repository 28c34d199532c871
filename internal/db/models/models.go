// Package models defines the database models for the service.
package models

// Pagination defaults
const (
	// DefaultLimit is the default number of records returned by list queries
	DefaultLimit = 50
	// MaxLimit is the maximum number of records returned by list queries
	MaxLimit = 200
)

// ListOptions represents pagination options for list queries
type ListOptions struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// Normalize clamps the list options to sane values
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
