package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is wrapped by UnreadableFileError when a workbook has no worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// UnreadableFileError reports a file that cannot be opened or parsed as a spreadsheet.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable spreadsheet %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// Open reads the active worksheet of the workbook at path. The workbook is
// closed before Open returns; the returned Sheet is an in-memory snapshot.
func Open(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &UnreadableFileError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	sheet, err := snapshot(f, filepath.Base(path))
	if err != nil {
		return nil, &UnreadableFileError{Path: path, Err: err}
	}
	return sheet, nil
}

// OpenReader is Open for an uploaded payload.
func OpenReader(name string, r io.Reader) (*Sheet, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, &UnreadableFileError{Path: name, Err: fmt.Errorf("failed to read upload: %w", err)}
	}
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &UnreadableFileError{Path: name, Err: err}
	}
	defer func() { _ = f.Close() }()

	sheet, err := snapshot(f, name)
	if err != nil {
		return nil, &UnreadableFileError{Path: name, Err: err}
	}
	return sheet, nil
}

func snapshot(f *excelize.File, fileName string) (*Sheet, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	name := sheets[0]
	if active := f.GetSheetName(f.GetActiveSheetIndex()); active != "" {
		name = active
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", name, err)
	}

	dateStyles := make(map[int]bool)
	rows := make([][]Value, len(raw))
	for r, cells := range raw {
		rows[r] = make([]Value, len(cells))
		for c, text := range cells {
			if strings.TrimSpace(text) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("failed to address cell (%d,%d): %w", r+1, c+1, err)
			}
			rows[r][c] = classifyCell(f, name, axis, text, dateStyles)
		}
	}

	return &Sheet{fileName: fileName, name: name, rows: rows}, nil
}

func classifyCell(f *excelize.File, sheet, axis, text string, dateStyles map[int]bool) Value {
	cellType, err := f.GetCellType(sheet, axis)
	if err != nil {
		return Value{Kind: KindString, Text: text}
	}

	switch cellType {
	case excelize.CellTypeBool:
		return Value{Kind: KindBool, Text: text}
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return Value{Kind: KindString, Text: text}
	case excelize.CellTypeDate:
		// ISO 8601 date cells; keep the calendar date part.
		if len(text) >= 10 && text[4] == '-' {
			text = text[:10]
		}
		return Value{Kind: KindString, Text: text}
	}

	number, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return Value{Kind: KindString, Text: text}
	}

	styleID, err := f.GetCellStyle(sheet, axis)
	if err == nil && styleID > 0 {
		isDate, seen := dateStyles[styleID]
		if !seen {
			isDate = styleIsDate(f, styleID)
			dateStyles[styleID] = isDate
		}
		if isDate {
			return Value{Kind: KindDate, Text: text, Number: number}
		}
	}
	return Value{Kind: KindNumber, Text: text, Number: number}
}

// builtinDateFormats are the built-in number format ids that render dates.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true,
	34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true,
	57: true, 58: true,
}

func styleIsDate(f *excelize.File, styleID int) bool {
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	return customFormatIsDate(*style.CustomNumFmt)
}

// customFormatIsDate looks for day/month/year tokens outside quoted literals
// and bracketed sections such as colours or locales.
func customFormatIsDate(format string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'd', r == 'y', r == 'm':
			return true
		}
	}
	return false
}
