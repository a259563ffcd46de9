package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/willozwi/AppCaccia/internal/domain"
)

type stubAuditRepo struct {
	entries []domain.AuditEntry
	err     error
	limit   int
}

func (s *stubAuditRepo) Record(context.Context, domain.AuditEntry) error { return nil }

func (s *stubAuditRepo) List(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func TestWriteAuditCSV(t *testing.T) {
	sheetID := uuid.New()
	repo := &stubAuditRepo{entries: []domain.AuditEntry{
		domain.NewAuditEntry("import", domain.AuditActionInsert, domain.AuditEntityPermitSheet, sheetID, "sheet 2025_12345, with comma"),
		domain.NewAuditEntry("segreteria", domain.AuditActionUpdate, domain.AuditEntityPermitSheet, uuid.Nil, "deliver"),
	}}

	var buf bytes.Buffer
	summary, err := NewService(repo).WriteAuditCSV(context.Background(), &buf, 0)
	if err != nil {
		t.Fatalf("WriteAuditCSV: %v", err)
	}
	if repo.limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, repo.limit)
	}
	if summary.Rows != 2 || summary.Bytes != int64(buf.Len()) {
		t.Fatalf("unexpected summary %+v for %d bytes", summary, buf.Len())
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(auditHeaders, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][5] != sheetID.String() || records[1][6] != "sheet 2025_12345, with comma" {
		t.Fatalf("unexpected first row %v", records[1])
	}
	if records[2][5] != "" {
		t.Fatalf("expected empty entity id, got %q", records[2][5])
	}
}

func TestWriteAuditCSVListError(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("boom")}
	if _, err := NewService(repo).WriteAuditCSV(context.Background(), &bytes.Buffer{}, 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestHTTPDownload(t *testing.T) {
	repo := &stubAuditRepo{entries: []domain.AuditEntry{
		domain.NewAuditEntry("import", domain.AuditActionInsert, domain.AuditEntityHunter, uuid.New(), "hunter PA_123"),
	}}
	handler := NewHTTPHandler(NewService(repo))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit.csv?limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.limit != 10 {
		t.Fatalf("expected limit 10, got %d", repo.limit)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), "hunter PA_123") {
		t.Fatalf("body missing entry: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit.csv?limit=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
