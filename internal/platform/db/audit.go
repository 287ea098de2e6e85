package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemActor is recorded when a write happens without an authenticated user.
const SystemActor = "system"

// Audit holds the bookkeeping columns every table carries.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// StampCreate sets both actors. Timestamps are filled in by the store.
func (a *Audit) StampCreate(actor string) {
	if actor == "" {
		actor = SystemActor
	}
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// StampUpdate sets the updating actor.
func (a *Audit) StampUpdate(actor string) {
	if actor == "" {
		actor = SystemActor
	}
	a.UpdatedBy = actor
}

// AuditCols is appended to every select list, in Scan order of AuditDest.
const AuditCols = "created_at, created_by, updated_at, updated_by"

// AuditDest returns the scan targets matching AuditCols.
func (a *Audit) AuditDest() []interface{} {
	return []interface{}{&a.CreatedAt, &a.CreatedBy, &a.UpdatedAt, &a.UpdatedBy}
}

// HardDeleter removes a row permanently.
type HardDeleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// SoftDeleter flags a row as deleted and keeps it in storage.
type SoftDeleter interface {
	SoftDelete(ctx context.Context, id uuid.UUID, actor string) error
}
