package extraction

import (
	"strings"

	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

// Template is the layout family a sheet belongs to.
type Template string

const (
	TemplateStructured Template = "structured"
	TemplateFreeText   Template = "free-text"
)

// Classify decides which strategy reads the sheet. Free-text boilerplate takes
// priority over a header row; sheets matching neither are treated as
// structured and simply yield nothing.
func Classify(sheet *spreadsheet.Sheet) Template {
	if IsFreeText(sheet) {
		return TemplateFreeText
	}
	return TemplateStructured
}

// IsFreeText scans every cell of the first rows for a FreeTextKeywords entry.
func IsFreeText(sheet *spreadsheet.Sheet) bool {
	found := false
	sheet.RowRange(1, classifierRows, func(_ int, cells []spreadsheet.Value) bool {
		for _, cell := range cells {
			if cell.Kind != spreadsheet.KindString {
				continue
			}
			if containsAny(strings.ToLower(cell.Text), FreeTextKeywords) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// FindHeaderRow returns the first row whose headers map at least two of the
// identity fields.
func FindHeaderRow(sheet *spreadsheet.Sheet) (int, bool) {
	header := 0
	sheet.RowRange(1, classifierRows, func(row int, cells []spreadsheet.Value) bool {
		columns := MapColumns(cells)
		found := 0
		for _, field := range identityFields {
			if _, ok := columns[field]; ok {
				found++
			}
		}
		if found >= 2 {
			header = row
			return false
		}
		return true
	})
	return header, header > 0
}

// MapColumns maps logical fields to 1-based column indexes using
// ColumnSynonyms. An exact header match wins over a substring match so that
// "nome" does not claim a "cognome" column.
func MapColumns(cells []spreadsheet.Value) map[Field]int {
	headers := make([]string, len(cells))
	for i, cell := range cells {
		if cell.Kind == spreadsheet.KindString {
			headers[i] = strings.ToLower(strings.TrimSpace(cell.Text))
		}
	}

	columns := make(map[Field]int)
	claimed := make(map[int]bool)

	assign := func(match func(header, synonym string) bool) {
		for _, entry := range ColumnSynonyms {
			if _, done := columns[entry.Field]; done {
				continue
			}
			for idx, header := range headers {
				if header == "" || claimed[idx] {
					continue
				}
				if anySynonym(header, entry.Synonyms, match) {
					columns[entry.Field] = idx + 1
					claimed[idx] = true
					break
				}
			}
		}
	}

	assign(func(header, synonym string) bool { return header == synonym })
	assign(strings.Contains)

	return columns
}

func anySynonym(header string, synonyms []string, match func(header, synonym string) bool) bool {
	for _, synonym := range synonyms {
		if match(header, synonym) {
			return true
		}
	}
	return false
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
