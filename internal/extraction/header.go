package extraction

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

// HeaderFields are the values found in the long header cell of a sheet.
type HeaderFields struct {
	Text          string
	Surname       string
	GivenName     string
	FirearmPermit string
	Authorization string
	IssueDate     *time.Time
	IssueDateRaw  string
}

// FindHeaderText returns the first long string cell in the top-left block
// of the sheet that mentions one of HeaderTextKeywords.
func FindHeaderText(sheet *spreadsheet.Sheet) (string, bool) {
	if sheet == nil {
		return "", false
	}

	var text string
	sheet.RowRange(1, headerTextRows, func(_ int, cells []spreadsheet.Value) bool {
		for col, cell := range cells {
			if col >= headerTextColumns {
				break
			}
			if cell.Kind != spreadsheet.KindString || utf8.RuneCountInString(cell.Text) <= headerTextMinLength {
				continue
			}
			if containsAny(strings.ToLower(cell.Text), HeaderTextKeywords) {
				text = cell.Text
				return false
			}
		}
		return true
	})
	return text, text != ""
}

// ParseHeaderText pulls the salutation name, firearm permit number, issue
// date and regional authorization number out of a header cell.
func ParseHeaderText(text string) HeaderFields {
	fields := HeaderFields{Text: text}

	if match := salutationPattern.FindStringSubmatch(text); match != nil {
		fields.Surname = domain.NormalizeSurname(match[1])
		fields.GivenName = domain.NormalizeGivenName(match[2])
	}
	if match := firearmPermitRegexp.FindStringSubmatch(text); match != nil {
		fields.FirearmPermit = strings.TrimSpace(match[1])
	}
	if match := authorizationRegexp.FindStringSubmatch(text); match != nil {
		fields.Authorization = match[1]
	}
	if match := issueDateRegexp.FindStringSubmatch(text); match != nil {
		fields.IssueDateRaw = match[1]
		if date, err := time.Parse("02/01/2006", match[1]); err == nil {
			fields.IssueDate = &date
		}
	}
	return fields
}
