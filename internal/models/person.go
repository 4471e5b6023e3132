package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Person is a single civil record held by the passport office.
type Person struct {
	ID             int64     `db:"id" json:"id" yaml:"id,omitempty"`
	FirstName      string    `db:"first_name" json:"first_name" yaml:"first_name"`
	LastName       string    `db:"last_name" json:"last_name" yaml:"last_name"`
	MiddleName     string    `db:"middle_name" json:"middle_name" yaml:"middle_name"`
	BirthDate      time.Time `db:"birth_date" json:"birth_date" yaml:"birth_date"`
	PassportSeries string    `db:"passport_series" json:"passport_series" yaml:"passport_series"`
	PassportNumber string    `db:"passport_number" json:"passport_number" yaml:"passport_number"`
}

// PersonInput carries the writable fields of a person record.
type PersonInput struct {
	FirstName      string    `json:"first_name" yaml:"first_name" validate:"required"`
	LastName       string    `json:"last_name" yaml:"last_name" validate:"required"`
	MiddleName     string    `json:"middle_name" yaml:"middle_name"`
	BirthDate      time.Time `json:"birth_date" yaml:"birth_date" validate:"required"`
	PassportSeries string    `json:"passport_series" yaml:"passport_series" validate:"required"`
	PassportNumber string    `json:"passport_number" yaml:"passport_number" validate:"required"`
}

// ToPerson builds a record from the input, keeping the provided id.
func (in PersonInput) ToPerson(id int64) Person {
	return Person{
		ID:             id,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		MiddleName:     in.MiddleName,
		BirthDate:      in.BirthDate,
		PassportSeries: in.PassportSeries,
		PassportNumber: in.PassportNumber,
	}
}

// PersonUpdate replaces every writable field of an existing record.
type PersonUpdate struct {
	ID          int64 `json:"id" yaml:"id" validate:"required,gt=0"`
	PersonInput `yaml:",inline"`
}

// PersonChangeSet groups the pending mutations committed by a single save.
type PersonChangeSet struct {
	Create []PersonInput  `json:"create" yaml:"create" validate:"dive"`
	Update []PersonUpdate `json:"update" yaml:"update" validate:"dive"`
	Delete []int64        `json:"delete" yaml:"delete" validate:"dive,gt=0"`
}

// Empty reports whether the change set carries no mutation.
func (c PersonChangeSet) Empty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// PersonSaveResult summarises a committed change set.
type PersonSaveResult struct {
	CreatedIDs []int64 `json:"created_ids"`
	Updated    int     `json:"updated"`
	Deleted    int     `json:"deleted"`
}

// SortMode selects how result sets are ordered.
type SortMode int

const (
	// SortByID orders records by ascending id.
	SortByID SortMode = iota
	// SortFull orders by last name, first name, middle name, birth date,
	// passport series and passport number.
	SortFull
)

// String returns the wire name of the sort mode.
func (m SortMode) String() string {
	switch m {
	case SortFull:
		return "full"
	default:
		return "id"
	}
}

// ParseSortMode converts a query value into a SortMode. Empty means SortByID.
func ParseSortMode(raw string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "id":
		return SortByID, nil
	case "full":
		return SortFull, nil
	default:
		return SortByID, fmt.Errorf("unknown sort mode %q", raw)
	}
}

// PageRequest addresses a 1-based page of a result set.
type PageRequest struct {
	Size   int
	Number int
}

// Enabled reports whether both size and number are positive. A disabled
// request returns the full result set.
func (p PageRequest) Enabled() bool {
	return p.Size > 0 && p.Number > 0
}

// Offset returns the number of records preceding the page.
func (p PageRequest) Offset() int {
	if !p.Enabled() {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Pagination describes the page returned to API clients.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
