package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/repository"
)

var _ repository.AuditRepository = (*DB)(nil)

// insertAudit writes an audit row inside tx. A nil entry is a no-op.
// Audit ids are xids: sortable by creation time and independent of the
// integer sequences used for snippets and versions.
func insertAudit(ctx context.Context, tx *sql.Tx, e *model.AuditEntry) error {
	if e == nil {
		return nil
	}
	e.ID = xid.New().String()
	e.CreatedAt = time.Now()

	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, entity_name, entity_id, perform_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.EntityName, e.EntityID, e.PerformBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing audit %s: %w", e.Action, err)
	}
	return nil
}

// ListAudit returns the audit trail of one entity, oldest first.
func (db *DB) ListAudit(ctx context.Context, entityName string, entityID int64) ([]model.AuditEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, action, entity_name, entity_id, perform_by, created_at
		 FROM audit_logs
		 WHERE entity_name = ? AND entity_id = ?
		 ORDER BY id`,
		entityName, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing audit for %s %d: %w", entityName, entityID, err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityName, &e.EntityID, &e.PerformBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating audit rows: %w", err)
	}
	return entries, nil
}
