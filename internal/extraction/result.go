package extraction

import (
	"fmt"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"
)

// Provenance names the strategy that produced the identity.
type Provenance string

const (
	ProvenanceNone       Provenance = ""
	ProvenanceStructured Provenance = "structured"
	ProvenanceFreeText   Provenance = "free-text-template"
	ProvenanceFileName   Provenance = "file-name"
)

// MissingIdentityError reports a file from which no surname and given name
// could be recovered.
type MissingIdentityError struct {
	FileName string
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf("%s: surname/given name missing", e.FileName)
}

// Result is the partial record extracted from one file.
type Result struct {
	FileName            string             `json:"fileName"`
	Template            Template           `json:"template,omitempty"`
	Provenance          Provenance         `json:"provenance"`
	Surname             string             `json:"surname"`
	GivenName           string             `json:"givenName"`
	TaxCode             string             `json:"taxCode,omitempty"`
	BirthDate           *time.Time         `json:"birthDate,omitempty"`
	Municipality        string             `json:"municipality,omitempty"`
	LicenseNumber       string             `json:"licenseNumber,omitempty"`
	Season              string             `json:"season,omitempty"`
	FirearmPermit       string             `json:"firearmPermit,omitempty"`
	AuthorizationNumber string             `json:"authorizationNumber,omitempty"`
	IssueDate           *time.Time         `json:"issueDate,omitempty"`
	Status              domain.SheetStatus `json:"status"`
	StatusFromFileName  bool               `json:"statusFromFileName"`
	Warnings            []string           `json:"warnings,omitempty"`
	Errors              []string           `json:"errors,omitempty"`
}

// HasIdentity reports whether both surname and given name are present.
func (r Result) HasIdentity() bool {
	return r.Surname != "" && r.GivenName != ""
}

// Err returns the hard error of the extraction, if any.
func (r Result) Err() error {
	if !r.HasIdentity() {
		return &MissingIdentityError{FileName: r.FileName}
	}
	return nil
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// identity is what a single strategy recovers.
type identity struct {
	surname    string
	givenName  string
	provenance Provenance
}

func (i identity) complete() bool {
	return i.surname != "" && i.givenName != ""
}
