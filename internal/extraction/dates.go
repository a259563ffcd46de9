package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

// excelEpoch is day zero of the spreadsheet date-serial system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateFromSerial converts a spreadsheet date serial to a calendar date.
// The fractional time of day is dropped.
func DateFromSerial(serial float64) time.Time {
	return excelEpoch.AddDate(0, 0, int(serial))
}

// ParseDateText tries DateLayouts in order.
func ParseDateText(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range DateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// ParseDateValue applies the numeric-date rule to a cell: serials are offset
// from the epoch, text is tried against DateLayouts.
func ParseDateValue(v spreadsheet.Value) (time.Time, error) {
	switch v.Kind {
	case spreadsheet.KindDate, spreadsheet.KindNumber:
		return DateFromSerial(v.Number), nil
	case spreadsheet.KindEmpty:
		return time.Time{}, fmt.Errorf("empty date")
	default:
		return ParseDateText(v.Text)
	}
}
