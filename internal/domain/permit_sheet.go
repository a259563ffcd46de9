package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SheetStatus is the lifecycle state of a permit sheet.
type SheetStatus string

const (
	SheetStatusAvailable SheetStatus = "DISPONIBILE"
	SheetStatusDelivered SheetStatus = "CONSEGNATO"
	SheetStatusIssued    SheetStatus = "RILASCIATO"
	SheetStatusReturned  SheetStatus = "RESTITUITO"
)

// SheetStatuses lists the canonical states in lifecycle order.
var SheetStatuses = []SheetStatus{
	SheetStatusAvailable,
	SheetStatusDelivered,
	SheetStatusIssued,
	SheetStatusReturned,
}

// DefaultSheetType is the paper format used by the office.
const DefaultSheetType = "A3"

// Valid reports whether s is one of the canonical states.
func (s SheetStatus) Valid() bool {
	for _, candidate := range SheetStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// DisplayName returns the label shown to operators.
func (s SheetStatus) DisplayName() string {
	switch s {
	case SheetStatusAvailable:
		return "Disponibile"
	case SheetStatusDelivered:
		return "Consegnato"
	case SheetStatusIssued:
		return "Rilasciato"
	case SheetStatusReturned:
		return "Restituito"
	default:
		return string(s)
	}
}

// ParseStatus maps any legacy or import-derived status string onto the
// canonical states. The mapping is total: unknown values become issued,
// which is what an imported sheet without further information represents.
func ParseStatus(raw string) SheetStatus {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return SheetStatusAvailable
	}
	if status := SheetStatus(value); status.Valid() {
		return status
	}

	switch {
	case strings.Contains(value, "CONSEGN"):
		return SheetStatusDelivered
	case strings.Contains(value, "STAMP"), strings.Contains(value, "RILASC"):
		return SheetStatusIssued
	case strings.Contains(value, "RESTITU"):
		return SheetStatusReturned
	case strings.Contains(value, "RINNOV"), strings.Contains(value, "DISPONIB"):
		return SheetStatusAvailable
	default:
		return SheetStatusIssued
	}
}

// PermitSheet is a yearly, uniquely numbered hunting authorization sheet.
type PermitSheet struct {
	ID          uuid.UUID   `json:"id"`
	SheetNumber string      `json:"sheet_number"`
	Year        int         `json:"year"`
	HunterID    *uuid.UUID  `json:"hunter_id,omitempty"`
	Type        string      `json:"type"`
	Status      SheetStatus `json:"status"`
	Delivered   bool        `json:"delivered"`
	Returned    bool        `json:"returned"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	DeliveredBy string      `json:"delivered_by,omitempty"`
	IssuedAt    *time.Time  `json:"issued_at,omitempty"`
	IssuedTo    string      `json:"issued_to,omitempty"`
	ReturnedAt  *time.Time  `json:"returned_at,omitempty"`
	ReturnedBy  string      `json:"returned_by,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	SourceFile  *string     `json:"source_file,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewPermitSheet creates an unassigned, available sheet.
func NewPermitSheet(year int, sheetNumber string) PermitSheet {
	now := time.Now()
	return PermitSheet{
		ID:          uuid.New(),
		SheetNumber: sheetNumber,
		Year:        year,
		Type:        DefaultSheetType,
		Status:      SheetStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AssignedTo returns a copy of the sheet attached to the hunter.
func (s PermitSheet) AssignedTo(h Hunter) PermitSheet {
	id := h.ID
	s.HunterID = &id
	s.IssuedTo = h.FullName()
	s.UpdatedAt = time.Now()
	return s
}

// WithStatus returns a copy of the sheet in the given state, keeping the
// delivered and returned flags consistent with it.
func (s PermitSheet) WithStatus(status SheetStatus) PermitSheet {
	s.Status = status
	s.Delivered = status == SheetStatusDelivered
	s.Returned = status == SheetStatusReturned
	s.UpdatedAt = time.Now()
	return s
}

// WithSource records the file the sheet was imported from.
func (s PermitSheet) WithSource(path string) PermitSheet {
	if path == "" {
		s.SourceFile = nil
	} else {
		s.SourceFile = &path
	}
	return s
}

// WithDelivered applies the delivered checkbox. Checking it forces the
// delivered state; unchecking reverts to available only while the sheet is
// still delivered, so a later state is never regressed.
func (s PermitSheet) WithDelivered(value bool) PermitSheet {
	s.Delivered = value
	if value {
		s.Status = SheetStatusDelivered
	} else if s.Status == SheetStatusDelivered {
		s.Status = SheetStatusAvailable
	}
	s.UpdatedAt = time.Now()
	return s
}

// WithReturned applies the returned checkbox. Checking it forces the returned
// state; unchecking reverts to issued only while the sheet is still returned.
func (s PermitSheet) WithReturned(value bool) PermitSheet {
	s.Returned = value
	if value {
		s.Status = SheetStatusReturned
	} else if s.Status == SheetStatusReturned {
		s.Status = SheetStatusIssued
	}
	s.UpdatedAt = time.Now()
	return s
}

// WithReturnUndone clears the return metadata and puts the sheet back to issued.
func (s PermitSheet) WithReturnUndone() PermitSheet {
	s.Returned = false
	s.ReturnedAt = nil
	s.ReturnedBy = ""
	s.Status = SheetStatusIssued
	s.UpdatedAt = time.Now()
	return s
}
