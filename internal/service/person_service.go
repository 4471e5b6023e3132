package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/internal/query"
	appErrors "github.com/noah-isme/passport-office-api/pkg/errors"
	"github.com/noah-isme/passport-office-api/pkg/export"
)

const personCachePattern = "persons:*"

type personRepository interface {
	List(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) ([]models.Person, error)
	Count(ctx context.Context, criteria models.PersonCriteria) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Person, error)
	RemoveAll(ctx context.Context) (int64, error)
	Save(ctx context.Context, changes models.PersonChangeSet) (models.PersonSaveResult, error)
	Ping(ctx context.Context) error
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// PersonServiceConfig tunes runtime behaviour.
type PersonServiceConfig struct {
	CacheTTL    time.Duration
	ExportTitle string
}

// PersonListing is one read result together with how it was served.
type PersonListing struct {
	People     []models.Person
	Pagination *models.Pagination
	CacheHit   bool
}

// ExportFile is a rendered export ready to be sent to a client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PersonService is the single entry point for reading and mutating person
// records. Store errors come back as *appErrors.Error with the cause kept.
type PersonService struct {
	repo      personRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	renderers map[string]datasetRenderer
	cfg       PersonServiceConfig
}

// NewPersonService constructs a PersonService. cache and metrics may be nil.
func NewPersonService(repo personRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PersonServiceConfig) *PersonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExportTitle == "" {
		cfg.ExportTitle = "Passport records"
	}
	return &PersonService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		renderers: map[string]datasetRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		cfg: cfg,
	}
}

// GetAll returns every record in the requested order.
func (s *PersonService) GetAll(ctx context.Context, mode models.SortMode) ([]models.Person, error) {
	listing, err := s.Lookup(ctx, models.PersonCriteria{}, mode, models.PageRequest{})
	if err != nil {
		return nil, err
	}
	return listing.People, nil
}

// SearchAll returns every record matching criteria. Empty criteria behave
// like GetAll.
func (s *PersonService) SearchAll(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode) ([]models.Person, error) {
	listing, err := s.Lookup(ctx, criteria, mode, models.PageRequest{})
	if err != nil {
		return nil, err
	}
	return listing.People, nil
}

// GetPage returns one page of the SearchAll result and its pagination
// metadata. A disabled page request returns the whole result.
func (s *PersonService) GetPage(ctx context.Context, page models.PageRequest, criteria models.PersonCriteria, mode models.SortMode) ([]models.Person, *models.Pagination, error) {
	listing, err := s.Lookup(ctx, criteria, mode, page)
	if err != nil {
		return nil, nil, err
	}
	return listing.People, listing.Pagination, nil
}

// Lookup backs GetAll, SearchAll and GetPage. It serves from cache when
// enabled and reports whether it did.
func (s *PersonService) Lookup(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) (*PersonListing, error) {
	key := personCacheKey(criteria, mode, page)
	var cached PersonListing
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		cached.CacheHit = true
		if cached.People == nil {
			cached.People = []models.Person{}
		}
		return &cached, nil
	}

	listing, err := s.load(ctx, criteria, mode, page)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, listing, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("person listing not cached", zap.String("key", key), zap.Error(err))
	}
	return listing, nil
}

func (s *PersonService) load(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) (*PersonListing, error) {
	if !page.Enabled() {
		start := time.Now()
		people, err := s.repo.List(ctx, criteria, mode, page)
		s.metrics.ObserveDBQuery("person_list", time.Since(start), err)
		if err != nil {
			return nil, storeError(err, "failed to list persons")
		}
		return &PersonListing{
			People:     people,
			Pagination: &models.Pagination{Page: 1, PageSize: len(people), TotalCount: len(people)},
		}, nil
	}

	var (
		people []models.Person
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		people, err = s.repo.List(gctx, criteria, mode, page)
		s.metrics.ObserveDBQuery("person_page", time.Since(start), err)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		total, err = s.repo.Count(gctx, criteria)
		s.metrics.ObserveDBQuery("person_count", time.Since(start), err)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "failed to load person page")
	}
	return &PersonListing{
		People:     people,
		Pagination: &models.Pagination{Page: page.Number, PageSize: page.Size, TotalCount: total},
	}, nil
}

// GetByID returns the record with id, or nil when there is none.
func (s *PersonService) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	start := time.Now()
	person, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		s.metrics.ObserveDBQuery("person_get", time.Since(start), nil)
		return nil, nil
	}
	s.metrics.ObserveDBQuery("person_get", time.Since(start), err)
	if err != nil {
		return nil, storeError(err, "failed to load person")
	}
	return person, nil
}

// RemoveAll deletes every record.
func (s *PersonService) RemoveAll(ctx context.Context) error {
	start := time.Now()
	removed, err := s.repo.RemoveAll(ctx)
	s.metrics.ObserveDBQuery("person_remove_all", time.Since(start), err)
	if err != nil {
		return storeError(err, "failed to remove persons")
	}
	s.metrics.RecordMutations(0, 0, int(removed))
	s.logger.Info("persons removed", zap.Int64("count", removed))
	s.invalidate(ctx)
	return nil
}

// Save validates the change set and commits it atomically. Updating or
// deleting an unknown id fails the whole set with ErrNotFound.
func (s *PersonService) Save(ctx context.Context, changes models.PersonChangeSet) (*models.PersonSaveResult, error) {
	if err := s.validator.Struct(changes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	if changes.Empty() {
		return &models.PersonSaveResult{CreatedIDs: []int64{}}, nil
	}

	start := time.Now()
	result, err := s.repo.Save(ctx, changes)
	s.metrics.ObserveDBQuery("person_save", time.Since(start), err)
	if err != nil {
		return nil, storeError(err, "failed to save persons")
	}
	if result.CreatedIDs == nil {
		result.CreatedIDs = []int64{}
	}

	s.metrics.RecordMutations(len(result.CreatedIDs), result.Updated, result.Deleted)
	s.logger.Info("persons saved",
		zap.Int("created", len(result.CreatedIDs)),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
	)
	s.invalidate(ctx)
	return &result, nil
}

// Export renders the SearchAll result in the given format (csv or pdf).
func (s *PersonService) Export(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}

	people, err := s.SearchAll(ctx, criteria, mode)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(personDataset(people), s.cfg.ExportTitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("persons-%s.%s", time.Now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}

// Ready reports whether the record store is reachable.
func (s *PersonService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return storeError(err, "record store not ready")
	}
	return nil
}

func (s *PersonService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, personCachePattern); err != nil {
		s.logger.Warn("person cache not invalidated", zap.Error(err))
	}
}

func storeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "person not found")
	}
	return appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, message)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid change set"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return "invalid change set: " + strings.Join(fields, ", ")
}

type personCacheKeyParts struct {
	FirstName      string `json:"fn,omitempty"`
	LastName       string `json:"ln,omitempty"`
	MiddleName     string `json:"mn,omitempty"`
	BirthDate      string `json:"bd,omitempty"`
	PassportSeries string `json:"ps,omitempty"`
	PassportNumber string `json:"pn,omitempty"`
	Mode           string `json:"m"`
	Size           int    `json:"s,omitempty"`
	Number         int    `json:"n,omitempty"`
}

func personCacheKey(criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) string {
	parts := personCacheKeyParts{
		FirstName:      criteria.FirstName,
		LastName:       criteria.LastName,
		MiddleName:     criteria.MiddleName,
		PassportSeries: criteria.PassportSeries,
		PassportNumber: criteria.PassportNumber,
		Mode:           mode.String(),
	}
	if criteria.UsesBirthDate() {
		parts.BirthDate = query.CalendarDate(*criteria.BirthDate).Format("2006-01-02")
	}
	if page.Enabled() {
		parts.Size, parts.Number = page.Size, page.Number
	}
	raw, _ := json.Marshal(parts)
	sum := sha256.Sum256(raw)
	return "persons:" + hex.EncodeToString(sum[:16])
}

var personExportHeaders = []string{"id", "last_name", "first_name", "middle_name", "birth_date", "passport_series", "passport_number"}

func personDataset(people []models.Person) export.Dataset {
	rows := make([][]string, 0, len(people))
	for _, p := range people {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.LastName,
			p.FirstName,
			p.MiddleName,
			p.BirthDate.Format("2006-01-02"),
			p.PassportSeries,
			p.PassportNumber,
		})
	}
	return export.Dataset{Headers: personExportHeaders, Rows: rows}
}
