package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/ui"
)

func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	c.state.Editor.Title = title
	c.mu.Unlock()
}

func (c *Controller) SetDescription(description string) {
	c.mu.Lock()
	c.state.Editor.Description = description
	c.mu.Unlock()
}

func (c *Controller) SetContent(content string) {
	c.mu.Lock()
	c.state.Editor.Content = content
	c.mu.Unlock()
}

// LoadSnippets refreshes the snippet list. It does nothing when logged out.
func (c *Controller) LoadSnippets(ctx context.Context) error {
	c.mu.Lock()
	loggedIn := c.state.Session.Active()
	c.mu.Unlock()
	if !loggedIn {
		return nil
	}

	list, err := c.api.ListSnippets(ctx)
	if err != nil {
		return c.fail(err, "Failed to load snippets")
	}

	c.mu.Lock()
	if c.state.Session.Active() {
		c.state.Snippets = list
	}
	c.mu.Unlock()
	return nil
}

// SelectSnippet loads snippet id into the editor and refreshes the list and
// the version panel. A response that arrives after another selection was
// made is dropped.
func (c *Controller) SelectSnippet(ctx context.Context, id client.SnippetID) error {
	c.mu.Lock()
	c.state.Selected = id
	c.state.selectGen++
	gen := c.state.selectGen
	c.mu.Unlock()

	s, err := c.api.GetSnippet(ctx, id)

	c.mu.Lock()
	if c.state.selectGen != gen {
		c.mu.Unlock()
		return nil
	}
	if err == nil {
		c.state.Editor = ui.Editor{
			Title:       s.Title,
			Description: s.Description,
			Content:     s.CurrentContent,
		}
		c.state.DeleteVisible = true
		c.state.ActiveVersion = s.ActiveVersionNumber
	}
	c.mu.Unlock()

	if err != nil {
		return c.fail(err, "Error loading snippet")
	}
	return errors.Join(c.LoadSnippets(ctx), c.LoadVersions(ctx, id))
}

// SaveSnippet creates a snippet when nothing is selected and adds a version
// to the selected one otherwise.
func (c *Controller) SaveSnippet(ctx context.Context) error {
	c.mu.Lock()
	ed := c.state.Editor
	id := c.state.Selected
	c.mu.Unlock()

	if ed.Title == "" || ed.Content == "" {
		return c.reject(ErrMissingFields, "Title and content required")
	}

	in := client.SnippetInput{
		Title:       ed.Title,
		Description: ed.Description,
		Content:     ed.Content,
		Language:    c.language,
	}

	var (
		saved *client.Snippet
		err   error
	)
	if id == 0 {
		saved, err = c.api.CreateSnippet(ctx, in)
	} else {
		saved, err = c.api.UpdateSnippet(ctx, id, in)
	}
	if err != nil {
		return c.fail(err, "Save failed")
	}

	c.mu.Lock()
	c.state.Selected = saved.ID
	c.state.selectGen++
	c.state.DeleteVisible = true
	c.mu.Unlock()

	c.notes.Success("Snippet saved successfully!")
	return errors.Join(c.LoadSnippets(ctx), c.LoadVersions(ctx, saved.ID))
}

// ValidateCode sends the editor content to the server's syntax checker and
// shows the result in the modal.
func (c *Controller) ValidateCode(ctx context.Context) error {
	c.mu.Lock()
	content := c.state.Editor.Content
	c.mu.Unlock()

	diags, err := c.api.Validate(ctx, content)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return c.fail(err, client.MessageOr(err, "Validation failed"))
		}
		return c.fail(err, "Validation service error")
	}

	if len(diags) == 0 {
		c.modal.Show(ui.ModalContent{
			Heading: "Syntax Valid!",
			Body:    fmt.Sprintf("No errors found in your %s code.", c.language),
			Tone:    ui.ToneSuccess,
		}, nil)
		return nil
	}
	c.modal.Show(ui.ModalContent{
		Heading: "Syntax Errors Found",
		Items:   diags,
		Tone:    ui.ToneDanger,
	}, nil)
	return nil
}

// ConfirmDeleteSnippet asks before DeleteSnippet runs.
func (c *Controller) ConfirmDeleteSnippet() error {
	if c.Selected() == 0 {
		return c.reject(ErrNoSelection, "No snippet selected")
	}
	c.modal.Show(ui.ModalContent{
		Heading: "Delete snippet",
		Body:    "Are you sure you want to delete the ENTIRE SNIPPET and all its history?",
		Tone:    ui.ToneDanger,
	}, c.DeleteSnippet)
	return nil
}

// DeleteSnippet deletes the selected snippet with all its versions.
func (c *Controller) DeleteSnippet(ctx context.Context) error {
	id := c.Selected()
	if id == 0 {
		return c.reject(ErrNoSelection, "No snippet selected")
	}

	if err := c.api.DeleteSnippet(ctx, id); err != nil {
		return c.fail(err, client.MessageOr(err, "Deletion failed"))
	}

	c.notes.Success("Snippet deleted successfully")
	return c.NewSnippet(ctx)
}

// NewSnippet clears the selection, the editor and the version panel.
func (c *Controller) NewSnippet(ctx context.Context) error {
	c.mu.Lock()
	c.state.Selected = 0
	c.state.selectGen++
	c.state.Editor = ui.Editor{}
	c.state.Versions = nil
	c.state.ActiveVersion = 0
	c.state.DeleteVisible = false
	c.mu.Unlock()

	return c.LoadSnippets(ctx)
}

// DiffVersions shows the line diff between versions v1 and v2 of the
// selected snippet.
func (c *Controller) DiffVersions(ctx context.Context, v1, v2 int) error {
	id := c.Selected()
	if id == 0 {
		return c.reject(ErrNoSelection, "No snippet selected")
	}

	d, err := c.api.Diff(ctx, id, v1, v2)
	if err != nil {
		return c.fail(err, client.MessageOr(err, "Diff failed"))
	}

	content := ui.ModalContent{
		Heading: fmt.Sprintf("Version %d vs Version %d", v1, v2),
		Items:   d.Deltas,
		Body:    d.Unified,
	}
	if len(d.Deltas) == 0 {
		content.Body = "No differences."
	}
	c.modal.Show(content, nil)
	return nil
}

// ShowMetrics shows the code metrics of version n of the selected snippet.
func (c *Controller) ShowMetrics(ctx context.Context, n int) error {
	id := c.Selected()
	if id == 0 {
		return c.reject(ErrNoSelection, "No snippet selected")
	}

	m, err := c.api.Metrics(ctx, id, n)
	if err != nil {
		return c.fail(err, client.MessageOr(err, "Failed to load metrics"))
	}

	c.modal.Show(ui.ModalContent{
		Heading: fmt.Sprintf("Metrics for Version %d", n),
		Items: []string{
			fmt.Sprintf("Lines of code: %d", m.LOC),
			fmt.Sprintf("Keywords: %d", m.KeywordCount),
			fmt.Sprintf("Cyclomatic complexity: %d", m.CyclomaticComplexity),
		},
	}, nil)
	return nil
}
