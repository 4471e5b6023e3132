package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/internal/query"
	"github.com/noah-isme/passport-office-api/internal/repository"
	appErrors "github.com/noah-isme/passport-office-api/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func person(first, last string, birth time.Time, series, number string) models.PersonInput {
	return models.PersonInput{FirstName: first, LastName: last, BirthDate: birth, PassportSeries: series, PassportNumber: number}
}

// seededService stores Smith/Ann, Smith/Bob and Jones/Cy as ids 1, 2, 3.
func seededService(t *testing.T, cache *CacheService) (*PersonService, *repository.MemoryPersonRepository) {
	t.Helper()
	repo := repository.NewMemoryPersonRepository()
	svc := NewPersonService(repo, cache, nil, nil, nil, PersonServiceConfig{})
	_, err := svc.Save(context.Background(), models.PersonChangeSet{Create: []models.PersonInput{
		person("Ann", "Smith", date(1990, 1, 1), "AA", "1"),
		person("Bob", "Smith", date(1991, 2, 2), "AA", "2"),
		person("Cy", "Jones", date(1980, 3, 3), "BB", "3"),
	}})
	require.NoError(t, err)
	return svc, repo
}

func idsOf(people []models.Person) []int64 {
	out := make([]int64, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}

func TestPersonServiceScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	found, err := svc.SearchAll(ctx, models.PersonCriteria{LastName: "Smith"}, models.SortFull)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, idsOf(found))

	page, pagination, err := svc.GetPage(ctx, models.PageRequest{Size: 1, Number: 2}, models.PersonCriteria{LastName: "Smith"}, models.SortFull)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, idsOf(page))
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 1, TotalCount: 2}, pagination)
}

func TestPersonServiceEmptyCriteriaEqualsGetAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	for _, mode := range []models.SortMode{models.SortByID, models.SortFull} {
		all, err := svc.GetAll(ctx, mode)
		require.NoError(t, err)
		searched, err := svc.SearchAll(ctx, models.PersonCriteria{}, mode)
		require.NoError(t, err)
		assert.Equal(t, all, searched, mode.String())
	}
}

func TestPersonServiceSortModes(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	byID, err := svc.GetAll(ctx, models.SortByID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, idsOf(byID))

	full, err := svc.GetAll(ctx, models.SortFull)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, idsOf(full))
	for i := 1; i < len(full); i++ {
		assert.LessOrEqual(t, query.Compare(full[i-1], full[i], models.SortFull), 0)
	}
}

func TestPersonServiceBirthDateIgnoresTimeOfDay(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	late := time.Date(1991, 2, 2, 23, 59, 0, 0, time.FixedZone("UTC+11", 11*60*60))
	found, err := svc.SearchAll(ctx, models.PersonCriteria{BirthDate: &late}, models.SortByID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, idsOf(found))
}

func TestPersonServicePagingEdges(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	beyond, pagination, err := svc.GetPage(ctx, models.PageRequest{Size: 2, Number: 3}, models.PersonCriteria{}, models.SortByID)
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
	assert.Equal(t, 3, pagination.TotalCount)

	all, err := svc.SearchAll(ctx, models.PersonCriteria{}, models.SortByID)
	require.NoError(t, err)
	for _, page := range []models.PageRequest{{Size: 0, Number: 1}, {Size: 2, Number: 0}, {Size: -1, Number: -1}} {
		got, _, err := svc.GetPage(ctx, page, models.PersonCriteria{}, models.SortByID)
		require.NoError(t, err)
		assert.Equal(t, all, got)
	}
}

func TestPersonServiceGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	p, err := svc.GetByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Cy", p.FirstName)

	missing, err := svc.GetByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPersonServiceRemoveAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	require.NoError(t, svc.RemoveAll(ctx))
	all, err := svc.GetAll(ctx, models.SortByID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPersonServiceSaveValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	_, err := svc.Save(ctx, models.PersonChangeSet{Create: []models.PersonInput{{FirstName: "NoLast"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "LastName")

	_, err = svc.Save(ctx, models.PersonChangeSet{Delete: []int64{0}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPersonServiceSaveMissingRecordRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	_, err := svc.Save(ctx, models.PersonChangeSet{
		Create: []models.PersonInput{person("Dee", "Brown", date(2000, 1, 1), "CC", "4")},
		Update: []models.PersonUpdate{{ID: 99, PersonInput: person("X", "Y", date(2000, 1, 1), "1", "2")}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	all, err := svc.GetAll(ctx, models.SortByID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPersonServiceSaveEmptyChangeSet(t *testing.T) {
	svc := NewPersonService(&failingRepo{err: errors.New("must not be called")}, nil, nil, nil, nil, PersonServiceConfig{})
	result, err := svc.Save(context.Background(), models.PersonChangeSet{})
	require.NoError(t, err)
	assert.Empty(t, result.CreatedIDs)
}

type failingRepo struct {
	err error
}

func (r *failingRepo) List(context.Context, models.PersonCriteria, models.SortMode, models.PageRequest) ([]models.Person, error) {
	return nil, r.err
}
func (r *failingRepo) Count(context.Context, models.PersonCriteria) (int, error) { return 0, r.err }
func (r *failingRepo) FindByID(context.Context, int64) (*models.Person, error)   { return nil, r.err }
func (r *failingRepo) RemoveAll(context.Context) (int64, error)                  { return 0, r.err }
func (r *failingRepo) Save(context.Context, models.PersonChangeSet) (models.PersonSaveResult, error) {
	return models.PersonSaveResult{}, r.err
}
func (r *failingRepo) Ping(context.Context) error { return r.err }

func TestPersonServiceStoreFailure(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	svc := NewPersonService(&failingRepo{err: cause}, nil, NewMetricsService(), nil, nil, PersonServiceConfig{})

	_, err := svc.GetAll(ctx, models.SortByID)
	assert.ErrorIs(t, err, appErrors.ErrStoreFailure)
	assert.ErrorIs(t, err, cause)

	_, _, err = svc.GetPage(ctx, models.PageRequest{Size: 5, Number: 1}, models.PersonCriteria{}, models.SortByID)
	assert.ErrorIs(t, err, appErrors.ErrStoreFailure)

	_, err = svc.GetByID(ctx, 1)
	assert.ErrorIs(t, err, appErrors.ErrStoreFailure)

	assert.ErrorIs(t, svc.RemoveAll(ctx), appErrors.ErrStoreFailure)
	assert.ErrorIs(t, svc.Ready(ctx), appErrors.ErrStoreFailure)

	_, err = svc.Save(ctx, models.PersonChangeSet{Delete: []int64{1}})
	assert.ErrorIs(t, err, appErrors.ErrStoreFailure)
}

// memoryCache is a CacheRepository backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPersonServiceCachesListings(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	svc, _ := seededService(t, cache)

	first, err := svc.Lookup(ctx, models.PersonCriteria{LastName: "Smith"}, models.SortFull, models.PageRequest{})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.Lookup(ctx, models.PersonCriteria{LastName: "Smith"}, models.SortFull, models.PageRequest{})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, idsOf(first.People), idsOf(second.People))

	other, err := svc.Lookup(ctx, models.PersonCriteria{LastName: "Smith"}, models.SortByID, models.PageRequest{})
	require.NoError(t, err)
	assert.False(t, other.CacheHit)

	for _, key := range store.keys() {
		assert.True(t, strings.HasPrefix(key, "persons:"), key)
	}

	_, err = svc.Save(ctx, models.PersonChangeSet{Create: []models.PersonInput{person("Al", "Smith", date(1970, 1, 1), "AA", "0")}})
	require.NoError(t, err)
	assert.Empty(t, store.keys())

	fresh, err := svc.SearchAll(ctx, models.PersonCriteria{LastName: "Smith"}, models.SortFull)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 1, 2}, idsOf(fresh))
}

func TestPersonServiceExport(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t, nil)

	file, err := svc.Export(ctx, models.PersonCriteria{LastName: "Smith"}, models.SortFull, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,last_name,first_name,middle_name,birth_date,passport_series,passport_number", lines[0])
	assert.Equal(t, "1,Smith,Ann,,1990-01-01,AA,1", lines[1])

	pdf, err := svc.Export(ctx, models.PersonCriteria{}, models.SortByID, "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf.Data), "%PDF-"))

	_, err = svc.Export(ctx, models.PersonCriteria{}, models.SortByID, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedFormat)
}

func TestPersonCacheKeyStable(t *testing.T) {
	a := time.Date(1990, 5, 1, 8, 0, 0, 0, time.UTC)
	b := time.Date(1990, 5, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t,
		personCacheKey(models.PersonCriteria{BirthDate: &a}, models.SortByID, models.PageRequest{}),
		personCacheKey(models.PersonCriteria{BirthDate: &b}, models.SortByID, models.PageRequest{Size: 0, Number: 7}),
	)
	assert.NotEqual(t,
		personCacheKey(models.PersonCriteria{}, models.SortByID, models.PageRequest{Size: 1, Number: 1}),
		personCacheKey(models.PersonCriteria{}, models.SortByID, models.PageRequest{Size: 1, Number: 2}),
	)
	assert.NotEqual(t,
		personCacheKey(models.PersonCriteria{FirstName: "A"}, models.SortByID, models.PageRequest{}),
		personCacheKey(models.PersonCriteria{LastName: "A"}, models.SortByID, models.PageRequest{}),
	)
}
