package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/repository"
)

var _ repository.VersionRepository = (*DB)(nil)

// insertVersion writes a version row and, when metrics is non-nil, its
// metrics row. Both ids are written back into the arguments.
func insertVersion(ctx context.Context, tx *sql.Tx, v *model.Version, m *model.Metrics) error {
	v.CreatedAt = time.Now()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO versions (snippet_id, version_number, content, commit_message, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.SnippetID,
		v.VersionNumber,
		v.Content,
		v.CommitMessage,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting version %d of snippet %d: %w", v.VersionNumber, v.SnippetID, err)
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: reading version id: %w", err)
	}

	if m == nil {
		return nil
	}
	m.VersionID = v.ID
	_, err = tx.ExecContext(ctx,
		`INSERT INTO code_metrics (version_id, loc, keyword_count, cyclomatic_complexity)
		 VALUES (?, ?, ?, ?)`,
		m.VersionID, m.LOC, m.KeywordCount, m.CyclomaticComplexity,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting metrics for version %d: %w", v.ID, err)
	}
	return nil
}

// ListVersions returns a snippet's versions, newest first.
func (db *DB) ListVersions(ctx context.Context, snippetID int64) ([]model.Version, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, snippet_id, version_number, content, commit_message, created_at
		 FROM versions
		 WHERE snippet_id = ?
		 ORDER BY version_number DESC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing versions of snippet %d: %w", snippetID, err)
	}
	defer rows.Close()

	versions := make([]model.Version, 0)
	for rows.Next() {
		var v model.Version
		if err := rows.Scan(&v.ID, &v.SnippetID, &v.VersionNumber, &v.Content, &v.CommitMessage, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning version row: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating versions: %w", err)
	}

	return versions, nil
}

// GetVersion looks a version up by its per-snippet number.
func (db *DB) GetVersion(ctx context.Context, snippetID int64, number int) (*model.Version, error) {
	var v model.Version
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, snippet_id, version_number, content, commit_message, created_at
		 FROM versions
		 WHERE snippet_id = ? AND version_number = ?`,
		snippetID, number,
	).Scan(&v.ID, &v.SnippetID, &v.VersionNumber, &v.Content, &v.CommitMessage, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Version not found"}
		}
		return nil, fmt.Errorf("sqlite: getting version %d of snippet %d: %w", number, snippetID, err)
	}
	return &v, nil
}

// GetVersionByID looks a version up by its global id.
func (db *DB) GetVersionByID(ctx context.Context, id int64) (*model.Version, error) {
	var v model.Version
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, snippet_id, version_number, content, commit_message, created_at
		 FROM versions
		 WHERE id = ?`,
		id,
	).Scan(&v.ID, &v.SnippetID, &v.VersionNumber, &v.Content, &v.CommitMessage, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Version not found"}
		}
		return nil, fmt.Errorf("sqlite: getting version %d: %w", id, err)
	}
	return &v, nil
}

// DeleteVersion removes one version (and its metrics, by cascade).
// The active-version rule is enforced by the service, not here.
func (db *DB) DeleteVersion(ctx context.Context, id int64, audit *model.AuditEntry) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting version %d: %w", id, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("version", strconv.FormatInt(id, 10))
		}
		return insertAudit(ctx, tx, audit)
	})
}

// GetMetrics returns the metrics computed for a version.
func (db *DB) GetMetrics(ctx context.Context, versionID int64) (*model.Metrics, error) {
	var m model.Metrics
	err := db.conn.QueryRowContext(ctx,
		`SELECT version_id, loc, keyword_count, cyclomatic_complexity
		 FROM code_metrics WHERE version_id = ?`,
		versionID,
	).Scan(&m.VersionID, &m.LOC, &m.KeywordCount, &m.CyclomaticComplexity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("metrics", strconv.FormatInt(versionID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting metrics for version %d: %w", versionID, err)
	}
	return &m, nil
}
