package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/passport-office-api/internal/models"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// PersonRequest is the JSON body for creating or replacing a person.
type PersonRequest struct {
	FirstName      string `json:"first_name" yaml:"first_name"`
	LastName       string `json:"last_name" yaml:"last_name"`
	MiddleName     string `json:"middle_name" yaml:"middle_name"`
	BirthDate      string `json:"birth_date" yaml:"birth_date" example:"1990-05-12"`
	PassportSeries string `json:"passport_series" yaml:"passport_series"`
	PassportNumber string `json:"passport_number" yaml:"passport_number"`
}

// PersonUpdateRequest pairs a record id with its replacement fields.
type PersonUpdateRequest struct {
	ID            int64 `json:"id" yaml:"id"`
	PersonRequest `yaml:",inline"`
}

// PersonBatchRequest is a change set submitted in one call.
type PersonBatchRequest struct {
	Create []PersonRequest       `json:"create" yaml:"create"`
	Update []PersonUpdateRequest `json:"update" yaml:"update"`
	Delete []int64               `json:"delete" yaml:"delete"`
}

// ToInput trims the text fields and parses the birth date. An empty birth
// date stays zero so validation reports it as missing.
func (r PersonRequest) ToInput() (models.PersonInput, error) {
	in := models.PersonInput{
		FirstName:      strings.TrimSpace(r.FirstName),
		LastName:       strings.TrimSpace(r.LastName),
		MiddleName:     strings.TrimSpace(r.MiddleName),
		PassportSeries: strings.TrimSpace(r.PassportSeries),
		PassportNumber: strings.TrimSpace(r.PassportNumber),
	}
	if raw := strings.TrimSpace(r.BirthDate); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			return models.PersonInput{}, err
		}
		in.BirthDate = d
	}
	return in, nil
}

// ToChangeSet converts the batch into a change set, failing on the first
// malformed entry.
func (r PersonBatchRequest) ToChangeSet() (models.PersonChangeSet, error) {
	changes := models.PersonChangeSet{Delete: r.Delete}
	for i, item := range r.Create {
		in, err := item.ToInput()
		if err != nil {
			return models.PersonChangeSet{}, fmt.Errorf("create[%d]: %w", i, err)
		}
		changes.Create = append(changes.Create, in)
	}
	for i, item := range r.Update {
		in, err := item.ToInput()
		if err != nil {
			return models.PersonChangeSet{}, fmt.Errorf("update[%d]: %w", i, err)
		}
		changes.Update = append(changes.Update, models.PersonUpdate{ID: item.ID, PersonInput: in})
	}
	return changes, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
}
