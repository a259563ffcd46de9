package extraction

import (
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

var anyParenthetical = regexp.MustCompile(`\(([^)]+)\)`)

// Extractor turns a sheet snapshot and its file name into a Result.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor. A nil logger uses slog.Default.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs the strategy chain. sheet may be nil when the file could not
// be read; the file name is still consulted.
func (e *Extractor) Extract(sheet *spreadsheet.Sheet, fileName string) Result {
	fileName = filepath.Base(fileName)
	res := Result{FileName: fileName}

	in := input{sheet: sheet, fileName: fileName}
	if sheet != nil {
		in.template = Classify(sheet)
		res.Template = in.template
		if text, ok := FindHeaderText(sheet); ok {
			in.header = ParseHeaderText(text)
			res.FirearmPermit = in.header.FirearmPermit
			res.AuthorizationNumber = in.header.Authorization
			res.IssueDate = in.header.IssueDate
			if in.header.IssueDateRaw != "" && in.header.IssueDate == nil {
				res.warn("unrecognized date: %s", in.header.IssueDateRaw)
			}
		}
	}

	for _, s := range strategies {
		if res.HasIdentity() {
			break
		}
		found := s.run(in, &res)
		if res.Surname == "" && found.surname != "" {
			res.Surname = found.surname
		}
		if res.GivenName == "" && found.givenName != "" {
			res.GivenName = found.givenName
		}
		if res.HasIdentity() && res.Provenance == ProvenanceNone {
			res.Provenance = found.provenance
			e.logger.Debug("identity extracted", "file", fileName, "strategy", s.name)
		}
	}

	res.Status, res.StatusFromFileName = StatusFromFileName(fileName)

	if err := res.Err(); err != nil {
		res.Errors = append(res.Errors, err.Error())
		e.logger.Warn("no identity extracted", "file", fileName)
	}
	return res
}

// StatusFromFileName maps the status suffix of a file name. Files without one
// are considered issued.
func StatusFromFileName(fileName string) (domain.SheetStatus, bool) {
	if id, ok := ParseFileName(fileName); ok && id.Pattern != "plain" {
		return id.Status, true
	}
	if match := anyParenthetical.FindStringSubmatch(filepath.Base(fileName)); match != nil {
		return domain.ParseStatus(match[1]), true
	}
	return domain.SheetStatusIssued, false
}
