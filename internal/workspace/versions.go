package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/ui"
)

// LoadVersions fills the version panel for snippet id. The snippet is
// fetched again to learn which version is active. The result is dropped if
// id is no longer selected.
func (c *Controller) LoadVersions(ctx context.Context, id client.SnippetID) error {
	versions, err := c.api.Versions(ctx, id)
	if err != nil {
		return c.fail(err, "Failed to load versions")
	}
	s, err := c.api.GetSnippet(ctx, id)
	if err != nil {
		return c.fail(err, "Failed to load versions")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Selected != id {
		return nil
	}
	c.state.Versions = versions
	c.state.ActiveVersion = s.ActiveVersionNumber
	return nil
}

// Rollback makes version n of snippet id current. On success the snippet is
// selected again; a rejection leaves the selection alone and returns
// ErrRollbackRejected.
func (c *Controller) Rollback(ctx context.Context, id client.SnippetID, n int) error {
	if _, err := c.api.Rollback(ctx, id, n); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return c.fail(fmt.Errorf("%w: %w", ErrRollbackRejected, err), client.MessageOr(err, "Rollback failed"))
		}
		return c.fail(err, "Rollback failed")
	}

	c.notes.Success(fmt.Sprintf("Rolled back to Version %d", n))
	return c.SelectSnippet(ctx, id)
}

// FindVersion looks up a row of the version panel by version id.
func (c *Controller) FindVersion(versionID int64) (ui.VersionRow, bool) {
	for _, row := range c.View().Versions {
		if row.ID == versionID {
			return row, true
		}
	}
	return ui.VersionRow{}, false
}

// ConfirmDeleteVersion asks before DeleteVersion runs.
func (c *Controller) ConfirmDeleteVersion(versionID int64, n int) {
	c.modal.Show(ui.ModalContent{
		Heading: "Delete version",
		Body:    fmt.Sprintf("Confirm permanent deletion of Version %d? This cannot be undone.", n),
		Tone:    ui.ToneDanger,
	}, func(ctx context.Context) error {
		return c.DeleteVersion(ctx, versionID, n)
	})
}

// DeleteVersion permanently removes one version. The server refuses to
// delete the active version.
func (c *Controller) DeleteVersion(ctx context.Context, versionID int64, n int) error {
	if err := c.api.DeleteVersion(ctx, versionID); err != nil {
		return c.fail(err, client.MessageOr(err, "Deletion failed"))
	}

	c.notes.Success(fmt.Sprintf("Version %d purged", n))
	if id := c.Selected(); id != 0 {
		return c.LoadVersions(ctx, id)
	}
	return nil
}
