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

var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `
	s.id, s.title, s.description, s.current_content, s.language,
	s.user_id, u.username, s.active_version_number, s.created_at, s.updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner, s *model.Snippet) error {
	return row.Scan(
		&s.ID, &s.Title, &s.Description, &s.CurrentContent, &s.Language,
		&s.AuthorID, &s.AuthorName, &s.ActiveVersionNumber, &s.CreatedAt, &s.UpdatedAt,
	)
}

// CreateWithVersion inserts a snippet together with its first version.
//
// The generated ids are written back into snippet, version and metrics
// (pointer arguments), so the caller can respond with the stored record.
func (db *DB) CreateWithVersion(ctx context.Context, snippet *model.Snippet, version *model.Version, metrics *model.Metrics, audit *model.AuditEntry) error {
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO snippets (title, description, current_content, language, user_id,
			                       active_version_number, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snippet.Title,
			snippet.Description,
			snippet.CurrentContent,
			snippet.Language,
			snippet.AuthorID,
			snippet.ActiveVersionNumber,
			snippet.CreatedAt,
			snippet.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating snippet: %w", err)
		}
		if snippet.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: reading snippet id: %w", err)
		}

		version.SnippetID = snippet.ID
		if err := insertVersion(ctx, tx, version, metrics); err != nil {
			return err
		}
		if audit != nil {
			audit.EntityID = snippet.ID
		}
		return insertAudit(ctx, tx, audit)
	})
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated to apperror.NotFound.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var s model.Snippet

	err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s JOIN users u ON u.id = s.user_id
		 WHERE s.id = ?`,
		id,
	), &s)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, err)
	}

	return &s, nil
}

// ListByAuthor returns every snippet owned by authorID, most recently
// updated first.
func (db *DB) ListByAuthor(ctx context.Context, authorID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT`+snippetColumns+`
		 FROM snippets s JOIN users u ON u.id = s.user_id
		 WHERE s.user_id = ?
		 ORDER BY s.updated_at DESC, s.id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// AppendVersion stores the snippet's new title/description/content/active
// version and inserts the matching version row in the same transaction.
func (db *DB) AppendVersion(ctx context.Context, snippet *model.Snippet, version *model.Version, metrics *model.Metrics, audit *model.AuditEntry) error {
	snippet.UpdatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE snippets
			 SET title = ?, description = ?, current_content = ?, language = ?,
			     active_version_number = ?, updated_at = ?
			 WHERE id = ?`,
			snippet.Title,
			snippet.Description,
			snippet.CurrentContent,
			snippet.Language,
			snippet.ActiveVersionNumber,
			snippet.UpdatedAt,
			snippet.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating snippet %d: %w", snippet.ID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("snippet", strconv.FormatInt(snippet.ID, 10))
		}

		version.SnippetID = snippet.ID
		if err := insertVersion(ctx, tx, version, metrics); err != nil {
			return err
		}
		return insertAudit(ctx, tx, audit)
	})
}

// Delete removes a snippet. Versions and their metrics go with it through
// ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id int64, audit *model.AuditEntry) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting snippet %d: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("snippet", strconv.FormatInt(id, 10))
		}

		return insertAudit(ctx, tx, audit)
	})
}
