package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	AuditActionInsert = "INSERT"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// Audited tables.
const (
	AuditEntityHunter      = "hunters"
	AuditEntityPermitSheet = "permit_sheets"
)

// AuditEntry records a write performed on behalf of an actor.
type AuditEntry struct {
	ID        uuid.UUID  `json:"id"`
	Actor     string     `json:"actor"`
	Action    string     `json:"action"`
	Entity    string     `json:"entity"`
	EntityID  *uuid.UUID `json:"entity_id,omitempty"`
	Detail    string     `json:"detail"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewAuditEntry creates an entry for the given entity id.
func NewAuditEntry(actor, action, entity string, entityID uuid.UUID, detail string) AuditEntry {
	entry := AuditEntry{
		ID:        uuid.New(),
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if entityID != uuid.Nil {
		entry.EntityID = &entityID
	}
	return entry
}
