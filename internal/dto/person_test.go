package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-05-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC), d)

	ts, err := ParseDate("1990-05-12T23:30:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, 12, ts.Day())

	_, err = ParseDate("12.05.1990")
	assert.Error(t, err)
}

func TestPersonRequestToInput(t *testing.T) {
	in, err := PersonRequest{FirstName: " Ann ", LastName: "Smith", BirthDate: "1990-01-01", PassportSeries: "AA", PassportNumber: "1"}.ToInput()
	require.NoError(t, err)
	assert.Equal(t, "Ann", in.FirstName)
	assert.Equal(t, 1990, in.BirthDate.Year())

	empty, err := PersonRequest{FirstName: "Ann"}.ToInput()
	require.NoError(t, err)
	assert.True(t, empty.BirthDate.IsZero())

	_, err = PersonRequest{BirthDate: "yesterday"}.ToInput()
	assert.Error(t, err)
}

func TestPersonBatchRequestToChangeSet(t *testing.T) {
	batch := PersonBatchRequest{
		Create: []PersonRequest{{FirstName: "A", BirthDate: "2000-01-01"}},
		Update: []PersonUpdateRequest{{ID: 4, PersonRequest: PersonRequest{FirstName: "B", BirthDate: "2001-02-03"}}},
		Delete: []int64{9},
	}
	changes, err := batch.ToChangeSet()
	require.NoError(t, err)
	require.Len(t, changes.Create, 1)
	require.Len(t, changes.Update, 1)
	assert.Equal(t, int64(4), changes.Update[0].ID)
	assert.Equal(t, []int64{9}, changes.Delete)

	batch.Update[0].BirthDate = "bad"
	_, err = batch.ToChangeSet()
	assert.ErrorContains(t, err, "update[0]")
}
