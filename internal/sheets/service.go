// Package sheets applies operator status changes to permit sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"
	"github.com/willozwi/AppCaccia/internal/repository"
	"github.com/willozwi/AppCaccia/pkg/logger"
)

// Action is a status toggle requested by an operator.
type Action string

const (
	ActionDeliver    Action = "deliver"
	ActionUndeliver  Action = "undeliver"
	ActionReturn     Action = "return"
	ActionUnreturn   Action = "unreturn"
	ActionUndoReturn Action = "undo-return"
)

// Actions lists every supported toggle.
var Actions = []Action{ActionDeliver, ActionUndeliver, ActionReturn, ActionUnreturn, ActionUndoReturn}

// ErrUnknownAction is returned for an action outside Actions.
var ErrUnknownAction = errors.New("unknown sheet action")

// Config tunes the contention retry loop.
type Config struct {
	MaxAttempts int
	BackoffUnit time.Duration
}

// Service changes sheet status inside row-locking transactions.
type Service struct {
	store  repository.Store
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewService creates a sheet status service.
func NewService(store repository.Store, config Config) *Service {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 5
	}
	if config.BackoffUnit <= 0 {
		config.BackoffUnit = 100 * time.Millisecond
	}
	return &Service{
		store:  store,
		config: config,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// Apply performs action on the sheet and records who did it.
func (s *Service) Apply(ctx context.Context, sheetNumber string, action Action, actor string) (domain.PermitSheet, error) {
	transition, err := s.transition(action, actor)
	if err != nil {
		return domain.PermitSheet{}, err
	}
	ctx = logger.WithActor(ctx, actor)

	var (
		before  domain.PermitSheet
		updated domain.PermitSheet
	)
	for attempt := 1; ; attempt++ {
		err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
			current, err := repos.Sheets.GetForUpdate(ctx, sheetNumber)
			if err != nil {
				return err
			}
			before = current
			updated, err = repos.Sheets.UpdateStatus(ctx, transition(current))
			return err
		})
		if err == nil {
			break
		}
		if !repository.IsContention(err) || attempt >= s.config.MaxAttempts {
			return domain.PermitSheet{}, fmt.Errorf("failed to %s sheet %s: %w", action, sheetNumber, err)
		}
		if sleepErr := s.sleep(ctx, time.Duration(attempt)*s.config.BackoffUnit); sleepErr != nil {
			return domain.PermitSheet{}, sleepErr
		}
	}

	entry := domain.NewAuditEntry(actor, domain.AuditActionUpdate, domain.AuditEntityPermitSheet, updated.ID,
		fmt.Sprintf("sheet %s %s: %s -> %s", updated.SheetNumber, action, before.Status, updated.Status))
	if err := s.store.Repositories().Audit.Record(ctx, entry); err != nil {
		logger.WithContext(ctx).Warn("failed to record audit entry", "sheet", sheetNumber, "error", err)
	}

	logger.WithContext(ctx).Info("sheet status changed",
		"sheet", sheetNumber, "action", action, "from", before.Status, "to", updated.Status)
	return updated, nil
}

func (s *Service) transition(action Action, actor string) (func(domain.PermitSheet) domain.PermitSheet, error) {
	switch action {
	case ActionDeliver:
		return func(sheet domain.PermitSheet) domain.PermitSheet {
			now := s.now()
			sheet = sheet.WithDelivered(true)
			sheet.DeliveredAt = &now
			sheet.DeliveredBy = actor
			return sheet
		}, nil
	case ActionUndeliver:
		return func(sheet domain.PermitSheet) domain.PermitSheet {
			sheet = sheet.WithDelivered(false)
			sheet.DeliveredAt = nil
			sheet.DeliveredBy = ""
			return sheet
		}, nil
	case ActionReturn:
		return func(sheet domain.PermitSheet) domain.PermitSheet {
			now := s.now()
			sheet = sheet.WithReturned(true)
			sheet.ReturnedAt = &now
			sheet.ReturnedBy = actor
			return sheet
		}, nil
	case ActionUnreturn:
		return func(sheet domain.PermitSheet) domain.PermitSheet {
			return sheet.WithReturned(false)
		}, nil
	case ActionUndoReturn:
		return func(sheet domain.PermitSheet) domain.PermitSheet {
			return sheet.WithReturnUndone()
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Stats counts the sheets of a year by status.
func (s *Service) Stats(ctx context.Context, year int) (domain.SheetStats, error) {
	stats, err := s.store.Repositories().Sheets.Stats(ctx, year)
	if err != nil {
		return domain.SheetStats{}, fmt.Errorf("failed to load stats for %d: %w", year, err)
	}
	return stats, nil
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
