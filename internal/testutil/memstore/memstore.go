// Package memstore is an in-memory repository.Store for tests, with hooks to
// inject contention and failures.
package memstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/repository"
)

// memState is the committed content of the in-memory store.
type memState struct {
	hunters []domain.Hunter
	sheets  []domain.PermitSheet
}

func (s memState) clone() memState {
	return memState{
		hunters: append([]domain.Hunter(nil), s.hunters...),
		sheets:  append([]domain.PermitSheet(nil), s.sheets...),
	}
}

// Store is a repository.Store whose transactions work on a copy of the
// state and replace it on commit.
type Store struct {
	mu    sync.Mutex
	state memState
	audit []domain.AuditEntry

	// AuditErr makes every audit Record fail.
	AuditErr error
	// ContentionLeft makes the next n transactions fail with a lock error.
	ContentionLeft int
	// FailOnce makes the next transaction fail with this error.
	FailOnce error
	// TxCount counts WithinTx calls.
	TxCount int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Hunters returns the committed hunters.
func (m *Store) Hunters() []domain.Hunter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Hunter(nil), m.state.hunters...)
}

// Sheets returns the committed permit sheets.
func (m *Store) Sheets() []domain.PermitSheet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PermitSheet(nil), m.state.sheets...)
}

// AuditEntries returns the recorded audit entries.
func (m *Store) AuditEntries() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.audit...)
}

// AddHunter commits a hunter directly.
func (m *Store) AddHunter(h domain.Hunter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.hunters = append(m.state.hunters, h)
}

// AddSheet commits a permit sheet directly.
func (m *Store) AddSheet(s domain.PermitSheet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.sheets = append(m.state.sheets, s)
}

func (m *Store) Repositories() repository.Repositories {
	return m.repos(&m.state)
}

var _ repository.Store = (*Store)(nil)

func (m *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TxCount++
	if m.ContentionLeft > 0 {
		m.ContentionLeft--
		return errors.New("could not obtain lock: database is locked")
	}
	if m.FailOnce != nil {
		err := m.FailOnce
		m.FailOnce = nil
		return err
	}

	work := m.state.clone()
	if err := fn(m.repos(&work)); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *Store) repos(state *memState) repository.Repositories {
	return repository.Repositories{
		Hunters: &memHunters{state: state},
		Sheets:  &memSheets{state: state},
		Audit:   &memAudit{store: m},
	}
}

type memHunters struct {
	state *memState
}

func (r *memHunters) FindByName(_ context.Context, surname, givenName string) ([]domain.Hunter, error) {
	var out []domain.Hunter
	for _, h := range r.state.hunters {
		if h.Active && strings.EqualFold(h.Surname, surname) && strings.EqualFold(h.GivenName, givenName) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHunters) ListActive(context.Context) ([]domain.Hunter, error) {
	var out []domain.Hunter
	for _, h := range r.state.hunters {
		if h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHunters) Upsert(_ context.Context, hunter domain.Hunter) (domain.Hunter, bool, error) {
	for _, h := range r.state.hunters {
		if h.RegistryID == hunter.RegistryID {
			return h, false, nil
		}
	}
	r.state.hunters = append(r.state.hunters, hunter)
	return hunter, true, nil
}

type memSheets struct {
	state *memState
}

func (r *memSheets) Exists(_ context.Context, year int, sheetNumber string) (bool, error) {
	for _, s := range r.state.sheets {
		if s.Year == year && s.SheetNumber == sheetNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSheets) Create(_ context.Context, sheet domain.PermitSheet) (domain.PermitSheet, error) {
	for _, s := range r.state.sheets {
		if s.SheetNumber == sheet.SheetNumber {
			return domain.PermitSheet{}, repository.ErrConflict
		}
	}
	r.state.sheets = append(r.state.sheets, sheet)
	return sheet, nil
}

func (r *memSheets) GetForUpdate(_ context.Context, sheetNumber string) (domain.PermitSheet, error) {
	for _, s := range r.state.sheets {
		if s.SheetNumber == sheetNumber {
			return s, nil
		}
	}
	return domain.PermitSheet{}, repository.ErrNotFound
}

func (r *memSheets) UpdateStatus(_ context.Context, sheet domain.PermitSheet) (domain.PermitSheet, error) {
	for i, s := range r.state.sheets {
		if s.ID == sheet.ID {
			r.state.sheets[i] = sheet
			return sheet, nil
		}
	}
	return domain.PermitSheet{}, repository.ErrNotFound
}

func (r *memSheets) Stats(_ context.Context, year int) (domain.SheetStats, error) {
	stats := domain.SheetStats{Year: year}
	for _, s := range r.state.sheets {
		if s.Year == year {
			stats.Add(s.Status)
		}
	}
	return stats, nil
}

type memAudit struct {
	store *Store
}

func (r *memAudit) Record(_ context.Context, entry domain.AuditEntry) error {
	if r.store.AuditErr != nil {
		return r.store.AuditErr
	}
	r.store.audit = append(r.store.audit, entry)
	return nil
}

func (r *memAudit) List(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > len(r.store.audit) {
		limit = len(r.store.audit)
	}
	return r.store.audit[:limit], nil
}
