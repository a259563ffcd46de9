package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/repository"
)

// DefaultLimit bounds an export when the caller does not.
const DefaultLimit = 1000

var auditHeaders = []string{"id", "created_at", "actor", "action", "entity", "entity_id", "detail"}

// Service streams audit entries as CSV.
type Service struct {
	audit repository.AuditLogRepository
}

// Summary describes a finished export.
type Summary struct {
	Rows  int
	Bytes int64
}

func NewService(audit repository.AuditLogRepository) *Service {
	return &Service{audit: audit}
}

// WriteAuditCSV writes the newest limit audit entries to w, header first.
func (s *Service) WriteAuditCSV(ctx context.Context, w io.Writer, limit int) (Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	entries, err := s.audit.List(ctx, limit)
	if err != nil {
		return Summary{}, fmt.Errorf("list audit entries: %w", err)
	}

	buffered := bufio.NewWriter(w)
	counter := &countingWriter{writer: buffered}
	csvWriter := csv.NewWriter(counter)

	if err := csvWriter.Write(auditHeaders); err != nil {
		return Summary{}, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(auditHeaders))
	summary := Summary{}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		fillAuditRow(row, entry)
		if err := csvWriter.Write(row); err != nil {
			return summary, fmt.Errorf("write audit row: %w", err)
		}
		summary.Rows++
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return summary, fmt.Errorf("final flush: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return summary, fmt.Errorf("final buffered flush: %w", err)
	}
	summary.Bytes = counter.count
	return summary, nil
}

func fillAuditRow(row []string, entry domain.AuditEntry) {
	row[0] = entry.ID.String()
	row[1] = entry.CreatedAt.UTC().Format(time.RFC3339)
	row[2] = entry.Actor
	row[3] = entry.Action
	row[4] = entry.Entity
	row[5] = ""
	if entry.EntityID != nil {
		row[5] = entry.EntityID.String()
	}
	row[6] = entry.Detail
}

type countingWriter struct {
	writer *bufio.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}
