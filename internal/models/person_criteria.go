package models

import "time"

// PersonCriteria holds the optional search parameters for person records.
// Empty strings and a nil BirthDate mean the field does not filter.
type PersonCriteria struct {
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	MiddleName     string     `json:"middle_name,omitempty"`
	PassportSeries string     `json:"passport_series,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
}

func (c PersonCriteria) UsesFirstName() bool      { return c.FirstName != "" }
func (c PersonCriteria) UsesLastName() bool       { return c.LastName != "" }
func (c PersonCriteria) UsesMiddleName() bool     { return c.MiddleName != "" }
func (c PersonCriteria) UsesPassportSeries() bool { return c.PassportSeries != "" }
func (c PersonCriteria) UsesPassportNumber() bool { return c.PassportNumber != "" }
func (c PersonCriteria) UsesBirthDate() bool      { return c.BirthDate != nil }

// HasActiveFilter reports whether at least one field narrows the result set.
func (c PersonCriteria) HasActiveFilter() bool {
	return c.UsesFirstName() ||
		c.UsesLastName() ||
		c.UsesMiddleName() ||
		c.UsesPassportSeries() ||
		c.UsesPassportNumber() ||
		c.UsesBirthDate()
}
