package spreadsheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, name string, fill func(f *excelize.File, sheet string)) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	fill(f, sheet)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpenReadsComputedValues(t *testing.T) {
	path := writeWorkbook(t, "structured.xlsx", func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A1", "Cognome"))
		require.NoError(t, f.SetCellValue(sheet, "B1", "Nome"))
		require.NoError(t, f.SetCellValue(sheet, "C1", "Data nascita"))
		require.NoError(t, f.SetCellValue(sheet, "D1", "Licenza"))
		require.NoError(t, f.SetCellValue(sheet, "A2", "Rossi"))
		require.NoError(t, f.SetCellValue(sheet, "B2", "Mario"))
		require.NoError(t, f.SetCellValue(sheet, "C2", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, f.SetCellValue(sheet, "D2", 12345))
	})

	sheet, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, "structured.xlsx", sheet.FileName())
	assert.Equal(t, 2, sheet.MaxRow())
	assert.Equal(t, 4, sheet.MaxCol())

	assert.Equal(t, KindString, sheet.Cell(2, 1).Kind)
	assert.Equal(t, "Rossi", sheet.Cell(2, 1).String())

	birth := sheet.Cell(2, 3)
	assert.Equal(t, KindDate, birth.Kind)
	assert.InDelta(t, 32874, birth.Number, 0.0001)

	license := sheet.Cell(2, 4)
	assert.Equal(t, KindNumber, license.Kind)
	assert.Equal(t, "12345", license.String())

	assert.True(t, sheet.Cell(10, 10).IsEmpty())
	assert.True(t, sheet.Cell(0, 1).IsEmpty())
}

func TestOpenRejectsCorruptFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a workbook"), 0o600))

	_, err := Open(path)
	require.Error(t, err)

	var unreadable *UnreadableFileError
	require.True(t, errors.As(err, &unreadable))
	assert.Equal(t, path, unreadable.Path)
}

func TestOpenReaderMatchesOpen(t *testing.T) {
	path := writeWorkbook(t, "upload.xlsx", func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A3", "REGIONE AUTONOMA DELLA SARDEGNA"))
	})

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	sheet, err := OpenReader("upload.xlsx", file)
	require.NoError(t, err)
	assert.Equal(t, "REGIONE AUTONOMA DELLA SARDEGNA", sheet.Cell(3, 1).String())
	assert.True(t, sheet.Cell(1, 1).IsEmpty())
}

func TestRowRangeClampsAndStops(t *testing.T) {
	sheet := NewSheet("names.xlsx", [][]string{{"a"}, {"b"}, {"c"}, {"d"}})

	var seen []string
	sheet.RowRange(0, 60, func(row int, cells []Value) bool {
		seen = append(seen, cells[0].String())
		return row < 3
	})

	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestCustomFormatIsDate(t *testing.T) {
	assert.True(t, customFormatIsDate("dd/mm/yyyy"))
	assert.True(t, customFormatIsDate("[$-410]d mmmm yyyy"))
	assert.False(t, customFormatIsDate(`0.00" kg"`))
	assert.False(t, customFormatIsDate("[Red]0.00"))
}
