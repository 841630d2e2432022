package db

import (
	"context"

	"github.com/alwitt/requestboard/models"
	"gorm.io/gorm"
)

// --------------------------------------------------------------------------------------
// Request audit events

// RequestEventAuditDBEntry request audit event DB entry
type RequestEventAuditDBEntry struct {
	models.RequestEventAudit
}

// TableName hard code table name
func (RequestEventAuditDBEntry) TableName() string {
	return "request_audit_events"
}

// --------------------------------------------------------------------------------------
// Requests

// RequestDBEntry request DB entry
type RequestDBEntry struct {
	models.Request
}

// TableName hard code table name
func (RequestDBEntry) TableName() string {
	return "requests"
}

// --------------------------------------------------------------------------------------

// DefineTables helper function to prepare a database with tables. Meant for unit-testing
// and local sqlite databases; hosted databases should apply the DDL printed by
// utils/atlas-migrate.
func DefineTables(_ context.Context, db *gorm.DB) error {
	return db.AutoMigrate(
		RequestDBEntry{},
		RequestEventAuditDBEntry{},
	)
}
