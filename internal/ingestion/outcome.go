package ingestion

import (
	"fmt"

	"github.com/willozwi/AppCaccia/internal/extraction"
)

// FileStatus is the result of importing one file.
type FileStatus string

const (
	FileImported       FileStatus = "imported"
	FileAlreadyPresent FileStatus = "already_present"
	FileErrored        FileStatus = "errored"
)

// Failure pairs a file name with the reason it was not imported.
type Failure struct {
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

// FileOutcome is the per-file log line of a run.
type FileOutcome struct {
	FileName      string                `json:"fileName"`
	Path          string                `json:"path"`
	Status        FileStatus            `json:"status"`
	Message       string                `json:"message,omitempty"`
	Attempts      int                   `json:"attempts"`
	Provenance    extraction.Provenance `json:"provenance,omitempty"`
	RegistryID    string                `json:"registryId,omitempty"`
	SheetNumber   string                `json:"sheetNumber,omitempty"`
	HunterCreated bool                  `json:"hunterCreated"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// Outcome aggregates one import run. It is owned by a single Run call.
type Outcome struct {
	Folder         string        `json:"folder"`
	Year           int           `json:"year"`
	FilesScanned   int           `json:"filesScanned"`
	Imported       int           `json:"imported"`
	AlreadyPresent int           `json:"alreadyPresent"`
	Errored        int           `json:"errored"`
	HuntersCreated int           `json:"huntersCreated"`
	Failures       []Failure     `json:"failures"`
	Files          []FileOutcome `json:"files"`
}

func newOutcome(folder string, year int) Outcome {
	return Outcome{
		Folder:   folder,
		Year:     year,
		Failures: []Failure{},
		Files:    []FileOutcome{},
	}
}

func (o *Outcome) record(file FileOutcome) {
	o.Files = append(o.Files, file)
	switch file.Status {
	case FileImported:
		o.Imported++
	case FileAlreadyPresent:
		o.AlreadyPresent++
	case FileErrored:
		o.Errored++
		o.Failures = append(o.Failures, Failure{FileName: file.FileName, Message: file.Message})
	}
	if file.HunterCreated {
		o.HuntersCreated++
	}
}

// Processed is the number of files handled so far.
func (o Outcome) Processed() int {
	return o.Imported + o.AlreadyPresent + o.Errored
}

func (o Outcome) String() string {
	return fmt.Sprintf(
		"scanned=%d imported=%d already_present=%d errored=%d hunters_created=%d",
		o.FilesScanned, o.Imported, o.AlreadyPresent, o.Errored, o.HuntersCreated,
	)
}
