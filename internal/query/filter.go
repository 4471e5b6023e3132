// Package query composes filtered, ordered and paged views over person
// records. The same stage and ordering definitions back the in-memory store
// and are compiled into SQL by the relational stores.
package query

import (
	"strings"
	"time"

	"github.com/noah-isme/passport-office-api/internal/models"
)

// StageKind tells a store how a filter stage compares values.
type StageKind int

const (
	// KindPrefix keeps records whose column starts with the criteria value.
	// Comparison is case-sensitive and ordinal.
	KindPrefix StageKind = iota
	// KindDate keeps records whose birth date falls on the criteria's
	// calendar day.
	KindDate
)

// Stage is one optional narrowing step of a search.
type Stage struct {
	Column string
	Kind   StageKind
	Active func(models.PersonCriteria) bool

	criteriaText func(models.PersonCriteria) string
	recordText   func(models.Person) string
}

// Match reports whether the record passes this stage.
func (s Stage) Match(p models.Person, c models.PersonCriteria) bool {
	if s.Kind == KindDate {
		return SameCalendarDate(p.BirthDate, *c.BirthDate)
	}
	return strings.HasPrefix(s.recordText(p), s.criteriaText(c))
}

// Text returns the prefix searched by a KindPrefix stage.
func (s Stage) Text(c models.PersonCriteria) string {
	if s.criteriaText == nil {
		return ""
	}
	return s.criteriaText(c)
}

// Date returns the calendar day searched by a KindDate stage.
func (s Stage) Date(c models.PersonCriteria) time.Time {
	if c.BirthDate == nil {
		return time.Time{}
	}
	return CalendarDate(*c.BirthDate)
}

func prefixStage(column string, active func(models.PersonCriteria) bool, criteria func(models.PersonCriteria) string, record func(models.Person) string) Stage {
	return Stage{Column: column, Kind: KindPrefix, Active: active, criteriaText: criteria, recordText: record}
}

// Stages lists every filter stage. Stages commute, so order carries no meaning.
var Stages = []Stage{
	prefixStage("first_name", models.PersonCriteria.UsesFirstName,
		func(c models.PersonCriteria) string { return c.FirstName },
		func(p models.Person) string { return p.FirstName }),
	prefixStage("last_name", models.PersonCriteria.UsesLastName,
		func(c models.PersonCriteria) string { return c.LastName },
		func(p models.Person) string { return p.LastName }),
	prefixStage("middle_name", models.PersonCriteria.UsesMiddleName,
		func(c models.PersonCriteria) string { return c.MiddleName },
		func(p models.Person) string { return p.MiddleName }),
	prefixStage("passport_series", models.PersonCriteria.UsesPassportSeries,
		func(c models.PersonCriteria) string { return c.PassportSeries },
		func(p models.Person) string { return p.PassportSeries }),
	prefixStage("passport_number", models.PersonCriteria.UsesPassportNumber,
		func(c models.PersonCriteria) string { return c.PassportNumber },
		func(p models.Person) string { return p.PassportNumber }),
	{Column: "birth_date", Kind: KindDate, Active: models.PersonCriteria.UsesBirthDate},
}

// ActiveStages returns the stages that narrow results for the criteria, or
// nil when the criteria carries no active filter.
func ActiveStages(c models.PersonCriteria) []Stage {
	if !c.HasActiveFilter() {
		return nil
	}
	active := make([]Stage, 0, len(Stages))
	for _, stage := range Stages {
		if stage.Active(c) {
			active = append(active, stage)
		}
	}
	return active
}

// Filter keeps the records passing every active stage. The input slice is
// not modified.
func Filter(people []models.Person, c models.PersonCriteria) []models.Person {
	stages := ActiveStages(c)
	out := make([]models.Person, 0, len(people))
	for _, p := range people {
		if matchesAll(p, c, stages) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAll(p models.Person, c models.PersonCriteria, stages []Stage) bool {
	for _, stage := range stages {
		if !stage.Match(p, c) {
			return false
		}
	}
	return true
}

// CalendarDate drops the time of day and zone of t, keeping the year, month
// and day as seen in t's own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameCalendarDate compares year, month and day of a and b, each read in its
// own location.
func SameCalendarDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
