package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/internal/query"
)

// MemoryPersonRepository keeps person records in process. It honours the
// same contract as PersonRepository and is used for local runs and tests.
type MemoryPersonRepository struct {
	mu     sync.RWMutex
	people map[int64]models.Person
	nextID int64
}

// NewMemoryPersonRepository constructs an empty in-memory store.
func NewMemoryPersonRepository() *MemoryPersonRepository {
	return &MemoryPersonRepository{people: make(map[int64]models.Person), nextID: 1}
}

// List returns the matching records ordered by mode and cut to page.
func (r *MemoryPersonRepository) List(_ context.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) ([]models.Person, error) {
	return query.Apply(r.snapshot(), criteria, mode, page), nil
}

// Count returns how many records match criteria.
func (r *MemoryPersonRepository) Count(_ context.Context, criteria models.PersonCriteria) (int, error) {
	return len(query.Filter(r.snapshot(), criteria)), nil
}

// FindByID returns the record with id or sql.ErrNoRows.
func (r *MemoryPersonRepository) FindByID(_ context.Context, id int64) (*models.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	person, ok := r.people[id]
	if !ok {
		return nil, fmt.Errorf("find person %d: %w", id, sql.ErrNoRows)
	}
	return &person, nil
}

// RemoveAll clears the store. Ids are never reused afterwards.
func (r *MemoryPersonRepository) RemoveAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := int64(len(r.people))
	r.people = make(map[int64]models.Person)
	return removed, nil
}

// Save applies the change set atomically: on failure nothing changes.
func (r *MemoryPersonRepository) Save(_ context.Context, changes models.PersonChangeSet) (models.PersonSaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[int64]models.Person, len(r.people)+len(changes.Create))
	for id, p := range r.people {
		staged[id] = p
	}
	nextID := r.nextID

	var result models.PersonSaveResult
	for _, in := range changes.Create {
		person := in.ToPerson(nextID)
		person.BirthDate = query.CalendarDate(person.BirthDate)
		staged[nextID] = person
		result.CreatedIDs = append(result.CreatedIDs, nextID)
		nextID++
	}
	for _, upd := range changes.Update {
		if _, ok := staged[upd.ID]; !ok {
			return models.PersonSaveResult{}, fmt.Errorf("update person %d: %w", upd.ID, sql.ErrNoRows)
		}
		person := upd.ToPerson(upd.ID)
		person.BirthDate = query.CalendarDate(person.BirthDate)
		staged[upd.ID] = person
		result.Updated++
	}
	for _, id := range changes.Delete {
		if _, ok := staged[id]; !ok {
			return models.PersonSaveResult{}, fmt.Errorf("delete person %d: %w", id, sql.ErrNoRows)
		}
		delete(staged, id)
		result.Deleted++
	}

	r.people = staged
	r.nextID = nextID
	return result, nil
}

// Ping always succeeds.
func (r *MemoryPersonRepository) Ping(context.Context) error {
	return nil
}

// snapshot copies the records in id order.
func (r *MemoryPersonRepository) snapshot() []models.Person {
	r.mu.RLock()
	defer r.mu.RUnlock()
	people := make([]models.Person, 0, len(r.people))
	for _, p := range r.people {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool { return people[i].ID < people[j].ID })
	return people
}
