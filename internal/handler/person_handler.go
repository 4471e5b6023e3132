package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passport-office-api/internal/dto"
	"github.com/noah-isme/passport-office-api/internal/middleware"
	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/internal/query"
	"github.com/noah-isme/passport-office-api/internal/service"
	appErrors "github.com/noah-isme/passport-office-api/pkg/errors"
	"github.com/noah-isme/passport-office-api/pkg/response"
)

type personService interface {
	Lookup(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) (*service.PersonListing, error)
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	Save(ctx context.Context, changes models.PersonChangeSet) (*models.PersonSaveResult, error)
	RemoveAll(ctx context.Context) error
	Export(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, format string) (*service.ExportFile, error)
}

// PersonHandler exposes person records over HTTP.
type PersonHandler struct {
	service personService
}

// NewPersonHandler constructs the handler.
func NewPersonHandler(service personService) *PersonHandler {
	return &PersonHandler{service: service}
}

// List godoc
// @Summary List all persons
// @Tags Persons
// @Produce json
// @Param sort query string false "Ordering: id (default) or full"
// @Success 200 {object} response.Envelope
// @Router /persons [get]
func (h *PersonHandler) List(c *gin.Context) {
	mode, err := sortMode(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondListing(c, models.PersonCriteria{}, mode, models.PageRequest{})
}

// Search godoc
// @Summary Search persons by prefix and birth date
// @Tags Persons
// @Produce json
// @Param firstName query string false "First name prefix"
// @Param lastName query string false "Last name prefix"
// @Param middleName query string false "Middle name prefix"
// @Param passportSeries query string false "Passport series prefix"
// @Param passportNumber query string false "Passport number prefix"
// @Param birthDate query string false "Birth date (YYYY-MM-DD)"
// @Param sort query string false "Ordering: id (default) or full"
// @Param page query int false "1-based page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /persons/search [get]
func (h *PersonHandler) Search(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	mode, err := sortMode(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := pageFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondListing(c, criteria, mode, page)
}

func (h *PersonHandler) respondListing(c *gin.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) {
	listing, err := h.service.Lookup(c.Request.Context(), criteria, mode, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, listing.CacheHit)
	var pagination *models.Pagination
	if page.Enabled() || c.Query("page") != "" || c.Query("pageSize") != "" {
		pagination = listing.Pagination
	}
	response.JSON(c, http.StatusOK, listing.People, pagination, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export matching persons as CSV or PDF
// @Tags Persons
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /persons/export [get]
func (h *PersonHandler) Export(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	mode, err := sortMode(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := strings.TrimSpace(c.DefaultQuery("format", "csv"))
	file, err := h.service.Export(c.Request.Context(), criteria, mode, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Get godoc
// @Summary Get a person by id
// @Tags Persons
// @Produce json
// @Param id path int true "Person ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /persons/{id} [get]
func (h *PersonHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	person, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if person == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "person not found"))
		return
	}
	response.OK(c, person)
}

// Create godoc
// @Summary Create a person
// @Tags Persons
// @Accept json
// @Produce json
// @Param payload body dto.PersonRequest true "Person"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /persons [post]
func (h *PersonHandler) Create(c *gin.Context) {
	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	in, err := req.ToInput()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	result, err := h.service.Save(c.Request.Context(), models.PersonChangeSet{Create: []models.PersonInput{in}})
	if err != nil {
		response.Error(c, err)
		return
	}
	var created models.Person
	if len(result.CreatedIDs) == 1 {
		created = storedPerson(in, result.CreatedIDs[0])
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Replace a person
// @Tags Persons
// @Accept json
// @Produce json
// @Param id path int true "Person ID"
// @Param payload body dto.PersonRequest true "Person"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /persons/{id} [put]
func (h *PersonHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.PersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	in, err := req.ToInput()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	if _, err := h.service.Save(c.Request.Context(), models.PersonChangeSet{Update: []models.PersonUpdate{{ID: id, PersonInput: in}}}); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, storedPerson(in, id))
}

// Delete godoc
// @Summary Delete a person
// @Tags Persons
// @Param id path int true "Person ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /persons/{id} [delete]
func (h *PersonHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.service.Save(c.Request.Context(), models.PersonChangeSet{Delete: []int64{id}}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Batch godoc
// @Summary Apply a change set atomically
// @Tags Persons
// @Accept json
// @Produce json
// @Param payload body dto.PersonBatchRequest true "Change set"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /persons/batch [post]
func (h *PersonHandler) Batch(c *gin.Context) {
	var req dto.PersonBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	changes, err := req.ToChangeSet()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	result, err := h.service.Save(c.Request.Context(), changes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// RemoveAll godoc
// @Summary Delete every person
// @Tags Persons
// @Success 204
// @Router /persons [delete]
func (h *PersonHandler) RemoveAll(c *gin.Context) {
	if err := h.service.RemoveAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// storedPerson mirrors the record as the store keeps it.
func storedPerson(in models.PersonInput, id int64) models.Person {
	person := in.ToPerson(id)
	person.BirthDate = query.CalendarDate(person.BirthDate)
	return person
}

func criteriaFromQuery(c *gin.Context) (models.PersonCriteria, error) {
	criteria := models.PersonCriteria{
		FirstName:      strings.TrimSpace(c.Query("firstName")),
		LastName:       strings.TrimSpace(c.Query("lastName")),
		MiddleName:     strings.TrimSpace(c.Query("middleName")),
		PassportSeries: strings.TrimSpace(c.Query("passportSeries")),
		PassportNumber: strings.TrimSpace(c.Query("passportNumber")),
	}
	if raw := strings.TrimSpace(c.Query("birthDate")); raw != "" {
		d, err := dto.ParseDate(raw)
		if err != nil {
			return models.PersonCriteria{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "birthDate must be YYYY-MM-DD")
		}
		criteria.BirthDate = &d
	}
	return criteria, nil
}

func sortMode(c *gin.Context) (models.SortMode, error) {
	mode, err := models.ParseSortMode(c.Query("sort"))
	if err != nil {
		return mode, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "sort must be id or full")
	}
	return mode, nil
}

func pageFromQuery(c *gin.Context) (models.PageRequest, error) {
	var page models.PageRequest
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &page.Number}, {"pageSize", &page.Size}} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.PageRequest{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, p.name+" must be an integer")
		}
		*p.dst = n
	}
	return page, nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer")
	}
	return id, nil
}
