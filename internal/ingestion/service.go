package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/extraction"
	"github.com/willozwi/AppCaccia/internal/identifier"
	"github.com/willozwi/AppCaccia/internal/repository"
	"github.com/willozwi/AppCaccia/internal/resolver"
	"github.com/willozwi/AppCaccia/internal/spreadsheet"
	"github.com/willozwi/AppCaccia/pkg/logger"
)

var (
	// ErrFolderRequired is returned when Run is called without a folder.
	ErrFolderRequired = errors.New("folder is required")
	// ErrInvalidYear is returned for a missing or non-positive year.
	ErrInvalidYear = errors.New("year must be positive")

	spreadsheetExtensions = map[string]bool{".xlsx": true, ".xls": true}
)

const (
	defaultMaxAttempts = 3
	defaultBackoffUnit = 500 * time.Millisecond
	defaultActor       = "import"
)

// Config tunes the import retry loop.
type Config struct {
	MaxAttempts int
	BackoffUnit time.Duration
	Actor       string
}

// ProgressFunc is called after every file with the running outcome.
type ProgressFunc func(outcome Outcome, file FileOutcome)

// Service imports folders of permit spreadsheets.
type Service struct {
	store     repository.Store
	extractor *extraction.Extractor
	resolver  *resolver.Resolver
	metrics   *Metrics
	config    Config
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewService creates a new import service. metrics may be nil.
func NewService(store repository.Store, config Config, metrics *Metrics) *Service {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.BackoffUnit <= 0 {
		config.BackoffUnit = defaultBackoffUnit
	}
	if strings.TrimSpace(config.Actor) == "" {
		config.Actor = defaultActor
	}
	return &Service{
		store:     store,
		extractor: extraction.NewExtractor(nil),
		resolver:  resolver.New(),
		metrics:   metrics,
		config:    config,
		sleep:     sleepContext,
	}
}

// Request describes one folder import.
type Request struct {
	Folder   string       `json:"folder"`
	Year     int          `json:"year"`
	Actor    string       `json:"actor,omitempty"`
	Progress ProgressFunc `json:"-"`
}

// Run imports every spreadsheet in req.Folder, one file at a time. A failing
// file is recorded and never aborts the run; only cancellation of ctx stops
// it early, in which case the partial outcome is returned with ctx.Err().
func (s *Service) Run(ctx context.Context, req Request) (Outcome, error) {
	outcome := newOutcome(req.Folder, req.Year)

	if strings.TrimSpace(req.Folder) == "" {
		return outcome, ErrFolderRequired
	}
	if req.Year <= 0 {
		return outcome, ErrInvalidYear
	}
	if req.Actor == "" {
		req.Actor = s.config.Actor
	}
	ctx = logger.WithActor(ctx, req.Actor)

	files, err := ListSpreadsheets(req.Folder)
	if err != nil {
		return outcome, err
	}
	outcome.FilesScanned = len(files)

	log := logger.WithContext(ctx).With("folder", req.Folder, "year", req.Year)
	log.Info("import started", "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			log.Warn("import interrupted", "processed", outcome.Processed())
			return outcome, err
		}

		file := s.importFile(ctx, path, req)
		outcome.record(file)

		if req.Progress != nil {
			req.Progress(outcome, file)
		}
	}

	log.Info("import finished",
		"imported", outcome.Imported,
		"already_present", outcome.AlreadyPresent,
		"errored", outcome.Errored,
		"hunters_created", outcome.HuntersCreated,
	)
	return outcome, nil
}

// ListSpreadsheets returns the .xlsx and .xls files directly inside folder,
// sorted by name. Office lock files (~$...) are skipped.
func ListSpreadsheets(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if !spreadsheetExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		files = append(files, filepath.Join(folder, name))
	}
	sort.Strings(files)
	return files, nil
}

// persisted is what one successful transaction wrote.
type persisted struct {
	hunter         domain.Hunter
	hunterCreated  bool
	sheet          domain.PermitSheet
	alreadyPresent bool
}

func (s *Service) importFile(ctx context.Context, path string, req Request) FileOutcome {
	start := time.Now()
	fileName := filepath.Base(path)
	file := FileOutcome{FileName: fileName, Path: path}
	log := logger.WithContext(ctx).With("file", fileName)

	finish := func(status FileStatus, message string) FileOutcome {
		file.Status = status
		file.Message = message
		s.metrics.ObserveFile(status, start)
		switch status {
		case FileErrored:
			log.Warn("file not imported", "error", message, "attempts", file.Attempts)
		default:
			log.Info("file processed", "status", status, "sheet", file.SheetNumber, "registry_id", file.RegistryID)
		}
		return file
	}

	sheet, err := spreadsheet.Open(path)
	if err != nil {
		return finish(FileErrored, err.Error())
	}

	result := s.extractor.Extract(sheet, fileName)
	file.Provenance = result.Provenance
	file.Warnings = result.Warnings
	if err := result.Err(); err != nil {
		return finish(FileErrored, err.Error())
	}

	registryID := identifier.HunterRegistryID(result.FirearmPermit, fileName, req.Year)
	file.RegistryID = registryID.Value
	file.SheetNumber = identifier.SheetNumber(result.AuthorizationNumber, fileName, req.Year)

	var written persisted
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		file.Attempts = attempt
		written, err = s.persist(ctx, path, req.Year, result, registryID, file.SheetNumber)
		if err == nil {
			break
		}
		if !repository.IsContention(err) {
			return finish(FileErrored, err.Error())
		}
		if attempt == s.config.MaxAttempts {
			return finish(FileErrored, fmt.Sprintf("database busy after %d attempts: %v", attempt, err))
		}

		s.metrics.IncrementRetries()
		delay := time.Duration(attempt) * s.config.BackoffUnit
		log.Debug("database contention, retrying", "attempt", attempt, "delay", delay, "error", err)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return finish(FileErrored, sleepErr.Error())
		}
	}

	if written.alreadyPresent {
		return finish(FileAlreadyPresent, "")
	}

	file.HunterCreated = written.hunterCreated
	if written.hunterCreated {
		s.metrics.IncrementHuntersCreated()
		s.audit(ctx, domain.NewAuditEntry(req.Actor, domain.AuditActionInsert, domain.AuditEntityHunter, written.hunter.ID,
			fmt.Sprintf("hunter %s %s created from %s", written.hunter.RegistryID, written.hunter.FullName(), fileName)))
	}
	s.audit(ctx, domain.NewAuditEntry(req.Actor, domain.AuditActionInsert, domain.AuditEntityPermitSheet, written.sheet.ID,
		fmt.Sprintf("sheet %s (%s) imported from %s", written.sheet.SheetNumber, written.sheet.Status, fileName)))

	return finish(FileImported, "")
}

// persist performs the writes of one file in a single transaction.
func (s *Service) persist(
	ctx context.Context,
	path string,
	year int,
	result extraction.Result,
	registryID identifier.ID,
	sheetNumber string,
) (persisted, error) {
	var out persisted

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		out = persisted{}

		exists, err := repos.Sheets.Exists(ctx, year, sheetNumber)
		if err != nil {
			return err
		}
		if exists {
			out.alreadyPresent = true
			return nil
		}

		match, err := s.resolver.Resolve(ctx, repos.Hunters, resolver.Query{
			Surname:   result.Surname,
			GivenName: result.GivenName,
			BirthDate: result.BirthDate,
		})
		if err != nil {
			return err
		}

		if match.Hunter != nil {
			out.hunter = *match.Hunter
		} else {
			candidate := domain.NewHunter(registryID.Value, result.Surname, result.GivenName).
				WithBirthDate(result.BirthDate).
				WithTaxCode(result.TaxCode).
				WithMunicipality(result.Municipality)
			out.hunter, out.hunterCreated, err = repos.Hunters.Upsert(ctx, candidate)
			if err != nil {
				return err
			}
			// A permit number names one person; a file-name hash may collide.
			if !out.hunterCreated && registryID.Source != identifier.SourceFirearmPermit && !sameName(out.hunter, candidate) {
				return fmt.Errorf("%w: registry id %s already belongs to %s", repository.ErrConflict, registryID.Value, out.hunter.FullName())
			}
		}

		sheet := domain.NewPermitSheet(year, sheetNumber).
			AssignedTo(out.hunter).
			WithStatus(result.Status).
			WithSource(path)
		sheet.IssuedAt = result.IssueDate

		out.sheet, err = repos.Sheets.Create(ctx, sheet)
		if errors.Is(err, repository.ErrConflict) {
			return errSheetRace
		}
		return err
	})

	if errors.Is(err, errSheetRace) {
		// Another writer inserted the sheet between the check and the insert.
		return persisted{alreadyPresent: true}, nil
	}
	if err != nil {
		return persisted{}, err
	}
	return out, nil
}

var errSheetRace = errors.New("sheet inserted concurrently")

func sameName(a, b domain.Hunter) bool {
	return strings.EqualFold(a.Surname, b.Surname) && strings.EqualFold(a.GivenName, b.GivenName)
}

// audit writes an entry outside the import transaction. Failures are logged
// and otherwise ignored.
func (s *Service) audit(ctx context.Context, entry domain.AuditEntry) {
	if err := s.store.Repositories().Audit.Record(ctx, entry); err != nil {
		logger.WithContext(ctx).Warn("failed to record audit entry", "entity", entry.Entity, "error", err)
	}
}

// PreviewResult is what an import of a single file would write.
type PreviewResult struct {
	Extraction  extraction.Result `json:"extraction"`
	RegistryID  string            `json:"registryId,omitempty"`
	SheetNumber string            `json:"sheetNumber,omitempty"`
}

// Preview reads and extracts one uploaded file and computes its identifiers
// without touching the database.
func (s *Service) Preview(ctx context.Context, fileName string, data io.Reader, year int) (PreviewResult, error) {
	if year <= 0 {
		return PreviewResult{}, ErrInvalidYear
	}
	if err := ctx.Err(); err != nil {
		return PreviewResult{}, err
	}

	sheet, err := spreadsheet.OpenReader(fileName, data)
	if err != nil {
		return PreviewResult{}, err
	}

	result := s.extractor.Extract(sheet, fileName)
	preview := PreviewResult{Extraction: result}
	if result.HasIdentity() {
		preview.RegistryID = identifier.HunterRegistryID(result.FirearmPermit, fileName, year).Value
		preview.SheetNumber = identifier.SheetNumber(result.AuthorizationNumber, fileName, year)
	}
	return preview, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
