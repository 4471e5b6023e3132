package query

import (
	"cmp"
	"sort"
	"strings"

	"github.com/noah-isme/passport-office-api/internal/models"
)

var fullOrderColumns = []string{
	"last_name",
	"first_name",
	"middle_name",
	"birth_date",
	"passport_series",
	"passport_number",
	"id",
}

// OrderColumns returns the ascending ORDER BY columns for the mode. Full
// ordering ends with id so ties on all six keys stay deterministic.
func OrderColumns(mode models.SortMode) []string {
	if mode == models.SortFull {
		cols := make([]string, len(fullOrderColumns))
		copy(cols, fullOrderColumns)
		return cols
	}
	return []string{"id"}
}

// Compare orders a and b under the given mode, returning -1, 0 or +1.
// Full mode does not look at ids.
func Compare(a, b models.Person, mode models.SortMode) int {
	if mode != models.SortFull {
		return cmp.Compare(a.ID, b.ID)
	}
	if c := strings.Compare(a.LastName, b.LastName); c != 0 {
		return c
	}
	if c := strings.Compare(a.FirstName, b.FirstName); c != 0 {
		return c
	}
	if c := strings.Compare(a.MiddleName, b.MiddleName); c != 0 {
		return c
	}
	if c := CalendarDate(a.BirthDate).Compare(CalendarDate(b.BirthDate)); c != 0 {
		return c
	}
	if c := strings.Compare(a.PassportSeries, b.PassportSeries); c != 0 {
		return c
	}
	return strings.Compare(a.PassportNumber, b.PassportNumber)
}

// Sort orders people in place. The sort is stable: records equal under the
// mode keep their input order.
func Sort(people []models.Person, mode models.SortMode) {
	sort.SliceStable(people, func(i, j int) bool {
		return Compare(people[i], people[j], mode) < 0
	})
}

// Paginate returns the requested page window of an ordered sequence. A
// disabled page request returns people unchanged; a page past the end is
// empty.
func Paginate(people []models.Person, page models.PageRequest) []models.Person {
	if !page.Enabled() {
		return people
	}
	if page.Number-1 > len(people)/page.Size {
		return []models.Person{}
	}
	offset := page.Offset()
	if offset >= len(people) {
		return []models.Person{}
	}
	end := len(people)
	if page.Size < end-offset {
		end = offset + page.Size
	}
	return people[offset:end]
}

// Apply filters, orders and pages people in that order. The input slice is
// left untouched.
func Apply(people []models.Person, c models.PersonCriteria, mode models.SortMode, page models.PageRequest) []models.Person {
	view := Filter(people, c)
	Sort(view, mode)
	return Paginate(view, page)
}
