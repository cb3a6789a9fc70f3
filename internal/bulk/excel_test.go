package bulk

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Sendient/ai-detector-sub000/pkg/errors"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestExcelParseValidWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Firstname", "Lastname", "Email Address", "External ID", "Descriptor", "Assign to Class"},
		{"Jane", "Doe", "jane@x.com", "", "", ""},
	})

	result, err := NewExcelStrategy().Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "Jane", row.FirstName)
	assert.Equal(t, "Doe", row.LastName)
	require.NotNil(t, row.Email)
	assert.Equal(t, "jane@x.com", *row.Email)
	assert.Nil(t, row.AssignToClass)
}

func TestExcelHeaderMismatch(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Lastname", "Firstname", "Email Address", "External ID", "Descriptor", "Assign to Class"},
		{"Doe", "Jane", "", "", "", ""},
	})

	_, err := NewExcelStrategy().Parse(context.Background(), data)

	var validErr errors.ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestExcelShortRowsArePadded(t *testing.T) {
	// Trailing blank cells disappear from xlsx storage; the row must
	// still import with its optional fields absent.
	data := buildWorkbook(t, [][]string{
		{"Firstname", "Lastname", "Email Address", "External ID", "Descriptor", "Assign to Class"},
		{"Jane", "Doe"},
	})

	result, err := NewExcelStrategy().Parse(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Nil(t, result.Rows[0].Email)
}

func TestExcelRejectsPayloadWithoutData(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Firstname", "Lastname", "Email Address", "External ID", "Descriptor", "Assign to Class"},
	})

	_, err := NewExcelStrategy().Parse(context.Background(), data)

	var validErr errors.ValidationError
	assert.ErrorAs(t, err, &validErr)
}

func TestExcelRejectsGarbage(t *testing.T) {
	_, err := NewExcelStrategy().Parse(context.Background(), []byte("not a workbook"))
	assert.Error(t, err)
}
