package ingestion

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/extraction"
	"github.com/willozwi/AppCaccia/internal/identifier"
	"github.com/willozwi/AppCaccia/internal/testutil/memstore"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xuri/excelize/v2"
)

// writeSheet saves a workbook whose first column holds lines, one per row.
func writeSheet(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to address cell: %v", err)
		}
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			t.Fatalf("failed to set cell: %v", err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

func newTestService(store *memstore.Store, metrics *Metrics) (*Service, *[]time.Duration) {
	service := NewService(store, Config{MaxAttempts: 3, BackoffUnit: time.Millisecond, Actor: "test"}, metrics)
	var delays []time.Duration
	service.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return service, &delays
}

func TestServiceRunImportsBandinoAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "Bandino Giuseppe(Stampato).xlsx")
	store := memstore.New()
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.FilesScanned != 1 || outcome.Imported != 1 || outcome.HuntersCreated != 1 || outcome.Errored != 0 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}

	hunters := store.Hunters()
	if len(hunters) != 1 {
		t.Fatalf("expected 1 hunter, got %d", len(hunters))
	}
	hunter := hunters[0]
	if hunter.Surname != "BANDINO" || hunter.GivenName != "Giuseppe" {
		t.Fatalf("unexpected hunter name %q %q", hunter.Surname, hunter.GivenName)
	}
	if !strings.HasPrefix(hunter.RegistryID, "AUTO_2025_") {
		t.Fatalf("expected hash-derived registry id, got %q", hunter.RegistryID)
	}

	sheets := store.Sheets()
	if len(sheets) != 1 {
		t.Fatalf("expected 1 sheet, got %d", len(sheets))
	}
	sheet := sheets[0]
	if sheet.Year != 2025 || sheet.Status != domain.SheetStatusIssued {
		t.Fatalf("unexpected sheet: year=%d status=%s", sheet.Year, sheet.Status)
	}
	if sheet.HunterID == nil || *sheet.HunterID != hunter.ID {
		t.Fatalf("sheet not attached to hunter")
	}
	if sheet.SourceFile == nil || *sheet.SourceFile != path {
		t.Fatalf("expected source file %q, got %v", path, sheet.SourceFile)
	}
	if got := len(store.AuditEntries()); got != 2 {
		t.Fatalf("expected 2 audit entries, got %d", got)
	}

	second, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	if second.AlreadyPresent != 1 || second.Imported != 0 || second.HuntersCreated != 0 {
		t.Fatalf("unexpected second outcome: %s", second)
	}
	if len(store.Hunters()) != 1 || len(store.Sheets()) != 1 {
		t.Fatalf("second run must not write rows")
	}
}

func TestServiceRunRejectsHashedRegistryIDOfAnotherHunter(t *testing.T) {
	rossi := identifier.HunterRegistryID("", "Rossi Mario.xlsx", 2025)
	sanna := identifier.HunterRegistryID("", "Sanna Giovannicgb.xlsx", 2025)
	if rossi != sanna {
		t.Fatalf("expected colliding registry ids, got %s and %s", rossi, sanna)
	}

	dir := t.TempDir()
	writeSheet(t, dir, "Rossi Mario.xlsx")
	writeSheet(t, dir, "Sanna Giovannicgb.xlsx")
	store := memstore.New()
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Imported != 1 || outcome.Errored != 1 || outcome.HuntersCreated != 1 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if len(outcome.Failures) != 1 || outcome.Failures[0].FileName != "Sanna Giovannicgb.xlsx" {
		t.Fatalf("expected the SANNA file to fail, got %+v", outcome.Failures)
	}
	if !strings.Contains(outcome.Failures[0].Message, rossi.Value) {
		t.Fatalf("failure should name the registry id: %q", outcome.Failures[0].Message)
	}

	sheets := store.Sheets()
	if len(sheets) != 1 || sheets[0].IssuedTo != "ROSSI Mario" {
		t.Fatalf("expected only the ROSSI sheet, got %+v", sheets)
	}
	if got := len(store.Hunters()); got != 1 {
		t.Fatalf("expected 1 hunter, got %d", got)
	}
}

func TestServiceRunReusesPermitRegistryID(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Pinna Anna.xlsx", "Sig. Pinna Anna porto d'arma n. AB123 autorizzazione n. 501")
	store := memstore.New()
	holder := domain.NewHunter("PA_AB123", "Melis", "Giovanni")
	store.AddHunter(holder)
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Imported != 1 || outcome.HuntersCreated != 0 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if got := len(store.Hunters()); got != 1 {
		t.Fatalf("expected the permit holder to be reused, got %d hunters", got)
	}
	sheets := store.Sheets()
	if len(sheets) != 1 || sheets[0].HunterID == nil || *sheets[0].HunterID != holder.ID {
		t.Fatalf("expected the sheet attached to the permit holder, got %+v", sheets)
	}
}

func TestServiceRunSkipsNonSpreadsheets(t *testing.T) {
	dir := t.TempDir()
	saved := writeSheet(t, dir, "Rossi Mario.xlsx")
	if err := os.Rename(saved, filepath.Join(dir, "Rossi Mario.XLSX")); err != nil {
		t.Fatalf("failed to rename workbook: %v", err)
	}
	writeSheet(t, dir, "~$Rossi Mario.xlsx")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.xlsx"), 0o700); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	service, _ := newTestService(memstore.New(), nil)
	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.FilesScanned != 1 || outcome.Imported != 1 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
}

func TestServiceRunFreeTextNameBeatsFileName(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Bianchi Luca(Consegnato).xlsx",
		"REGIONE AUTONOMA DELLA SARDEGNA",
		"Il sottoscritto Rossi Mario",
	)
	store := memstore.New()
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Files[0].Provenance != extraction.ProvenanceFreeText {
		t.Fatalf("expected free-text provenance, got %q", outcome.Files[0].Provenance)
	}
	hunter := store.Hunters()[0]
	if hunter.Surname != "ROSSI" || hunter.GivenName != "Mario" {
		t.Fatalf("unexpected hunter %s", hunter.FullName())
	}
	if status := store.Sheets()[0].Status; status != domain.SheetStatusDelivered {
		t.Fatalf("expected delivered status from file name, got %s", status)
	}
}

func TestServiceRunAttachesFuzzyMatch(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Rossi Giuse.xlsx")
	store := memstore.New()
	existing := domain.NewHunter("PA_123", "ROSSI", "Giuseppe")
	store.AddHunter(existing)
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Imported != 1 || outcome.HuntersCreated != 0 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if len(store.Hunters()) != 1 {
		t.Fatalf("expected no duplicate hunter")
	}
	if id := store.Sheets()[0].HunterID; id == nil || *id != existing.ID {
		t.Fatalf("sheet not attached to the existing hunter")
	}
}

func TestServiceRunRetriesContention(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Rossi Mario.xlsx")
	store := memstore.New()
	store.ContentionLeft = 2
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	service, delays := newTestService(store, metrics)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Imported != 1 || outcome.Files[0].Attempts != 3 {
		t.Fatalf("expected import on third attempt, got %s attempts=%d", outcome, outcome.Files[0].Attempts)
	}
	if len(*delays) != 2 || (*delays)[0] != time.Millisecond || (*delays)[1] != 2*time.Millisecond {
		t.Fatalf("expected linear backoff, got %v", *delays)
	}
	if got := testutil.ToFloat64(metrics.Retries); got != 2 {
		t.Fatalf("expected 2 retries recorded, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.FilesProcessed.WithLabelValues(string(FileImported))); got != 1 {
		t.Fatalf("expected 1 imported file recorded, got %v", got)
	}
}

func TestServiceRunGivesUpAfterMaxAttempts(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Pinna Anna.xlsx")
	writeSheet(t, dir, "Rossi Mario.xlsx")
	store := memstore.New()
	store.ContentionLeft = 3
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Errored != 1 || outcome.Imported != 1 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	failure := outcome.Failures[0]
	if failure.FileName != "Pinna Anna.xlsx" || !strings.Contains(failure.Message, "after 3 attempts") {
		t.Fatalf("unexpected failure: %+v", failure)
	}
}

func TestServiceRunDoesNotRetryOtherErrors(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Pinna Anna.xlsx")
	writeSheet(t, dir, "Rossi Mario.xlsx")
	store := memstore.New()
	store.FailOnce = errors.New("relation \"permit_sheets\" does not exist")
	service, delays := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Errored != 1 || outcome.Imported != 1 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if outcome.Files[0].Attempts != 1 || len(*delays) != 0 {
		t.Fatalf("expected a single attempt without backoff")
	}
}

func TestServiceRunRecordsMissingIdentityWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "documento.xlsx")
	store := memstore.New()
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Errored != 1 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if outcome.Failures[0].Message != "documento.xlsx: surname/given name missing" {
		t.Fatalf("unexpected failure message %q", outcome.Failures[0].Message)
	}
	if store.TxCount != 0 {
		t.Fatalf("missing identity must not reach the database")
	}
}

func TestServiceRunRecordsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Corrotto Mario.xlsx"), []byte("not a workbook"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	writeSheet(t, dir, "Rossi Mario.xlsx")

	service, _ := newTestService(memstore.New(), nil)
	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Errored != 1 || outcome.Imported != 1 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if !strings.Contains(outcome.Failures[0].Message, "unreadable spreadsheet") {
		t.Fatalf("unexpected failure message %q", outcome.Failures[0].Message)
	}
}

func TestServiceRunIgnoresAuditFailures(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Rossi Mario.xlsx")
	store := memstore.New()
	store.AuditErr = errors.New("audit_log is full")
	service, _ := newTestService(store, nil)

	outcome, err := service.Run(context.Background(), Request{Folder: dir, Year: 2025})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if outcome.Imported != 1 || len(store.Sheets()) != 1 {
		t.Fatalf("audit failure must not fail the import: %s", outcome)
	}
}

func TestServiceRunReportsProgress(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Pinna Anna.xlsx")
	writeSheet(t, dir, "Rossi Mario.xlsx")
	service, _ := newTestService(memstore.New(), nil)

	var seen []int
	_, err := service.Run(context.Background(), Request{
		Folder: dir,
		Year:   2025,
		Progress: func(outcome Outcome, _ FileOutcome) {
			seen = append(seen, outcome.Processed())
		},
	})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected progress %v", seen)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "Rossi Mario.xlsx")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service, _ := newTestService(memstore.New(), nil)
	outcome, err := service.Run(ctx, Request{Folder: dir, Year: 2025})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if outcome.FilesScanned != 1 || outcome.Processed() != 0 {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
}

func TestServiceRunValidatesRequest(t *testing.T) {
	service, _ := newTestService(memstore.New(), nil)

	if _, err := service.Run(context.Background(), Request{Year: 2025}); !errors.Is(err, ErrFolderRequired) {
		t.Fatalf("expected ErrFolderRequired, got %v", err)
	}
	if _, err := service.Run(context.Background(), Request{Folder: t.TempDir()}); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
	if _, err := service.Run(context.Background(), Request{Folder: filepath.Join(t.TempDir(), "missing"), Year: 2025}); err == nil {
		t.Fatalf("expected error for a missing folder")
	}
}

func TestServicePreview(t *testing.T) {
	path := writeSheet(t, t.TempDir(), "Bandino Giuseppe(Stampato).xlsx")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read workbook: %v", err)
	}

	store := memstore.New()
	service, _ := newTestService(store, nil)
	preview, err := service.Preview(context.Background(), "Bandino Giuseppe(Stampato).xlsx", bytes.NewReader(data), 2025)
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}
	if preview.Extraction.Surname != "BANDINO" || !strings.HasPrefix(preview.RegistryID, "AUTO_2025_") {
		t.Fatalf("unexpected preview: %+v", preview)
	}
	if !strings.HasPrefix(preview.SheetNumber, "2025") || len(preview.SheetNumber) != 10 {
		t.Fatalf("unexpected sheet number %q", preview.SheetNumber)
	}
	if store.TxCount != 0 {
		t.Fatalf("preview must not touch the database")
	}
}
