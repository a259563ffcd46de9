package spreadsheet

import (
	"strconv"
	"strings"
)

// Kind is the type of a computed cell value.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
	KindBool
)

// Value is the computed value of a cell. Date cells keep their serial number.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
}

// IsEmpty reports whether the cell holds no visible value.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty || strings.TrimSpace(v.Text) == ""
}

// String returns the trimmed textual value.
func (v Value) String() string {
	if v.Kind == KindNumber && v.Number == float64(int64(v.Number)) {
		return strconv.FormatInt(int64(v.Number), 10)
	}
	return strings.TrimSpace(v.Text)
}

// Sheet is a read-only snapshot of one worksheet.
type Sheet struct {
	fileName string
	name     string
	rows     [][]Value
}

// NewSheet builds a sheet from string rows. Numeric-looking strings stay strings.
func NewSheet(fileName string, rows [][]string) *Sheet {
	values := make([][]Value, len(rows))
	for r, cells := range rows {
		values[r] = make([]Value, len(cells))
		for c, text := range cells {
			if strings.TrimSpace(text) != "" {
				values[r][c] = Value{Kind: KindString, Text: text}
			}
		}
	}
	return &Sheet{fileName: fileName, rows: values}
}

// FileName is the base name of the file the sheet was read from.
func (s *Sheet) FileName() string { return s.fileName }

// Name is the worksheet name.
func (s *Sheet) Name() string { return s.name }

// MaxRow is the last populated row (1-based).
func (s *Sheet) MaxRow() int { return len(s.rows) }

// MaxCol is the widest populated column (1-based).
func (s *Sheet) MaxCol() int {
	width := 0
	for _, row := range s.rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the value at the 1-based row and column. Out of range cells are empty.
func (s *Sheet) Cell(row, col int) Value {
	if row < 1 || col < 1 || row > len(s.rows) {
		return Value{}
	}
	cells := s.rows[row-1]
	if col > len(cells) {
		return Value{}
	}
	return cells[col-1]
}

// Row returns the 1-based row. The slice must not be modified.
func (s *Sheet) Row(row int) []Value {
	if row < 1 || row > len(s.rows) {
		return nil
	}
	return s.rows[row-1]
}

// RowRange calls fn for rows from..to (inclusive, clamped to the sheet) until
// fn returns false.
func (s *Sheet) RowRange(from, to int, fn func(row int, cells []Value) bool) {
	if from < 1 {
		from = 1
	}
	if to > len(s.rows) {
		to = len(s.rows)
	}
	for r := from; r <= to; r++ {
		if !fn(r, s.rows[r-1]) {
			return
		}
	}
}
