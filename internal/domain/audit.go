package domain

import (
	"fmt"
	"time"
)

// AuditAction names a governance transition recorded in the audit trail.
type AuditAction string

const (
	AuditActionCreated     AuditAction = "CREATED"
	AuditActionClassified  AuditAction = "CLASSIFIED"
	AuditActionAllocated   AuditAction = "ALLOCATED"
	AuditActionConfirmed   AuditAction = "CONFIRMED"
	AuditActionAdjusted    AuditAction = "ADJUSTED"
	AuditActionTransferred AuditAction = "TRANSFERRED"
)

// FieldChange is one field-level before/after pair.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuditLogEntry is one append-only row of the governance audit trail. The
// trail is the authoritative history; an entry's current fields are a
// projection of it.
type AuditLogEntry struct {
	ID           string
	EntryID      string
	CaseID       string
	Action       AuditAction
	FieldChanges map[string]FieldChange
	Reason       string
	Actor        string
	CreatedAt    time.Time
}

// AuditFilter narrows audit trail queries.
type AuditFilter struct {
	CaseID  string
	EntryID string
	Action  AuditAction
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// ChangeSet collects field-level diffs while a transition is applied.
type ChangeSet map[string]FieldChange

// Record adds a before/after pair when the values differ.
func (c ChangeSet) Record(field string, old, new any) {
	oldStr := formatChangeValue(old)
	newStr := formatChangeValue(new)
	if oldStr == newStr {
		return
	}
	c[field] = FieldChange{Old: oldStr, New: newStr}
}

func formatChangeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case time.Time:
		return val.Format("2006-01-02")
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format("2006-01-02")
	case *int64:
		if val == nil {
			return ""
		}
		return fmt.Sprintf("%d", *val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
