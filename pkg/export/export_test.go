package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	return Dataset{
		Headers: []string{"id", "last_name", "first_name"},
		Rows: [][]string{
			{"1", "Smith", "Ann"},
			{"2", "O'Neil, Jr", "Bob"},
			{"3", "Jones"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sample(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "id,last_name,first_name\n1,Smith,Ann\n2,\"O'Neil, Jr\",Bob\n3,Jones,\n", string(out))
}

func TestCSVExporterRejectsBadInput(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"id"}, Rows: [][]string{{"1", "extra"}}}, "")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sample()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, []string{fmt.Sprint(i + 4), "Row", "Filler"})
	}

	out, err := NewPDFExporter().Render(data, "Passport records")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())
}

func TestColumnWidthsHaveFloor(t *testing.T) {
	widths := columnWidths(Dataset{Headers: []string{"a", "a much longer header text"}})
	require.Len(t, widths, 2)
	assert.GreaterOrEqual(t, widths[0], pdfMinColumn)
	assert.Greater(t, widths[1], widths[0])
}
