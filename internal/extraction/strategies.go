package extraction

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

// input is what every strategy sees for one file.
type input struct {
	sheet    *spreadsheet.Sheet
	template Template
	fileName string
	header   HeaderFields
}

// strategy recovers (part of) an identity. Extra fields and warnings go to res.
type strategy struct {
	name string
	run  func(in input, res *Result) identity
}

// strategies is the fixed fallback chain.
var strategies = []strategy{
	{name: "free-text", run: freeTextStrategy},
	{name: "structured", run: structuredStrategy},
	{name: "header-salutation", run: headerSalutationStrategy},
	{name: "file-name", run: fileNameStrategy},
}

func freeTextStrategy(in input, res *Result) identity {
	if in.sheet == nil || in.template != TemplateFreeText {
		return identity{}
	}

	var found identity
	in.sheet.RowRange(1, freeTextRows, func(row int, cells []spreadsheet.Value) bool {
		cell := in.sheet.Cell(row, freeTextColumn)
		if cell.Kind != spreadsheet.KindString || cell.IsEmpty() {
			return true
		}
		if surname, given, ok := MatchFreeTextName(cell.Text); ok {
			found = identity{surname: surname, givenName: given, provenance: ProvenanceFreeText}
			return false
		}
		return true
	})

	if !found.complete() {
		res.warn("free-text template recognised but no name found in column A")
	}
	return found
}

// MatchFreeTextName applies FreeTextNamePatterns in order to one cell text.
func MatchFreeTextName(text string) (string, string, bool) {
	for _, pattern := range FreeTextNamePatterns {
		var surname, given string
		if pattern.Generic {
			surname, given = capitalizedPair(pattern, text)
		} else if match := pattern.Pattern.FindStringSubmatch(text); match != nil {
			surname, given = match[1], match[2]
		}

		surname = domain.NormalizeSurname(surname)
		given = domain.NormalizeGivenName(given)
		if utf8.RuneCountInString(surname) >= minNameLength && utf8.RuneCountInString(given) >= minNameLength {
			return surname, given, true
		}
	}
	return "", "", false
}

// capitalizedPair finds the first two adjacent capitalized words, separated
// only by whitespace, neither of which is boilerplate.
func capitalizedPair(pattern NamePattern, text string) (string, string) {
	words := pattern.Pattern.FindAllStringIndex(text, -1)
	for i := 0; i+1 < len(words); i++ {
		first := text[words[i][0]:words[i][1]]
		second := text[words[i+1][0]:words[i+1][1]]
		if strings.TrimSpace(text[words[i][1]:words[i+1][0]]) != "" {
			continue
		}
		if genericStopWords[strings.ToUpper(first)] || genericStopWords[strings.ToUpper(second)] {
			continue
		}
		if utf8.RuneCountInString(first) < minNameLength || utf8.RuneCountInString(second) < minNameLength {
			continue
		}
		return first, second
	}
	return "", ""
}

func structuredStrategy(in input, res *Result) identity {
	if in.sheet == nil || in.template != TemplateStructured {
		return identity{}
	}

	headerRow, ok := FindHeaderRow(in.sheet)
	if !ok {
		res.warn("column headers not found")
		return identity{}
	}

	columns := MapColumns(in.sheet.Row(headerRow))
	dataRow := headerRow + 1
	value := func(field Field) spreadsheet.Value {
		col, ok := columns[field]
		if !ok {
			return spreadsheet.Value{}
		}
		return in.sheet.Cell(dataRow, col)
	}

	res.TaxCode = strings.ToUpper(value(FieldTaxCode).String())
	res.Municipality = value(FieldMunicipality).String()
	res.LicenseNumber = value(FieldLicenseNumber).String()
	res.Season = value(FieldYear).String()

	if birth := value(FieldBirthDate); !birth.IsEmpty() {
		if date, err := ParseDateValue(birth); err == nil {
			res.BirthDate = &date
		} else {
			res.warn("unrecognized date: %s", birth.String())
		}
	}

	return identity{
		surname:    domain.NormalizeSurname(value(FieldSurname).String()),
		givenName:  domain.NormalizeGivenName(value(FieldGivenName).String()),
		provenance: ProvenanceStructured,
	}
}

func headerSalutationStrategy(in input, _ *Result) identity {
	if in.header.Surname == "" {
		return identity{}
	}
	return identity{
		surname:    in.header.Surname,
		givenName:  in.header.GivenName,
		provenance: ProvenanceFreeText,
	}
}

func fileNameStrategy(in input, _ *Result) identity {
	id, _ := ParseFileName(in.fileName)
	return id.identity()
}

// FileNameIdentity is what a bare file name carries.
type FileNameIdentity struct {
	Surname   string
	GivenName string
	Status    domain.SheetStatus
	Pattern   string
}

func (f FileNameIdentity) identity() identity {
	if f.Pattern == "" {
		return identity{}
	}
	return identity{
		surname:    f.Surname,
		givenName:  f.GivenName,
		provenance: ProvenanceFileName,
	}
}

// ParseFileName recognises "Surname GivenName(Status)", "Surname_GivenName_Status"
// and "Surname GivenName", in that order.
func ParseFileName(fileName string) (FileNameIdentity, bool) {
	base := fileNameExtension.ReplaceAllString(filepath.Base(fileName), "")
	base = strings.TrimSpace(base)

	if match := fileNameParenthetical.FindStringSubmatch(base); match != nil {
		id := FileNameIdentity{Status: domain.ParseStatus(match[2]), Pattern: "parenthetical"}
		parts := strings.Fields(match[1])
		if len(parts) >= 2 {
			id.Surname = domain.NormalizeSurname(parts[0])
			id.GivenName = domain.NormalizeGivenName(strings.Join(parts[1:], " "))
		}
		return id, id.Surname != ""
	}

	if match := fileNameUnderscore.FindStringSubmatch(base); match != nil {
		return FileNameIdentity{
			Surname:   domain.NormalizeSurname(match[1]),
			GivenName: domain.NormalizeGivenName(match[2]),
			Status:    domain.ParseStatus(match[3]),
			Pattern:   "underscore",
		}, true
	}

	if match := fileNamePlain.FindStringSubmatch(base); match != nil {
		return FileNameIdentity{
			Surname:   domain.NormalizeSurname(match[1]),
			GivenName: domain.NormalizeGivenName(match[2]),
			Status:    domain.SheetStatusIssued,
			Pattern:   "plain",
		}, true
	}

	return FileNameIdentity{}, false
}
