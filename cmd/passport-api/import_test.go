package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/internal/repository"
	"github.com/noah-isme/passport-office-api/internal/service"
)

const sampleImport = `
create:
  - first_name: Ann
    last_name: Smith
    birth_date: "1990-01-01"
    passport_series: "4502"
    passport_number: "123456"
  - first_name: Bob
    last_name: Smith
    middle_name: J
    birth_date: "1991-02-02"
    passport_series: "4502"
    passport_number: "654321"
`

func TestDecodeChangeSet(t *testing.T) {
	changes, err := decodeChangeSet(strings.NewReader(sampleImport))
	require.NoError(t, err)
	require.Len(t, changes.Create, 2)
	assert.Equal(t, "J", changes.Create[1].MiddleName)
	assert.Equal(t, 1991, changes.Create[1].BirthDate.Year())

	svc := service.NewPersonService(repository.NewMemoryPersonRepository(), nil, nil, nil, nil, service.PersonServiceConfig{})
	result, err := svc.Save(context.Background(), changes)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, result.CreatedIDs)

	found, err := svc.SearchAll(context.Background(), models.PersonCriteria{PassportNumber: "65"}, models.SortByID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob", found[0].FirstName)
}

func TestDecodeChangeSetRejectsUnknownKeys(t *testing.T) {
	_, err := decodeChangeSet(strings.NewReader("insert:\n  - first_name: Ann\n"))
	assert.Error(t, err)

	_, err = decodeChangeSet(strings.NewReader("create:\n  - first_name: Ann\n    birth_date: 01/02/1990\n"))
	assert.Error(t, err)

	empty, err := decodeChangeSet(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}
