package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Sanitize makes s safe to print to a terminal. Control characters,
// including ESC, become visible \x escapes. Newlines and tabs are kept only
// when multiline is true.
func Sanitize(s string, multiline bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case multiline && (r == '\n' || r == '\t'):
			b.WriteRune(r)
		case unicode.IsControl(r) || r == '\u2028' || r == '\u2029':
			if r <= 0xff {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func line(s string) string  { return Sanitize(s, false) }
func block(s string) string { return Sanitize(s, true) }

// Renderer draws views as plain text.
type Renderer struct {
	w io.Writer
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render writes the page, then the open modal if any, then live
// notifications.
func (r *Renderer) Render(v View, modal *Modal, notes []Notification) {
	if v.Page == PageLogin {
		r.renderLogin(v)
	} else {
		r.renderMain(v)
	}
	if modal != nil && modal.IsOpen() {
		r.RenderModal(modal.Content(), modal.Actions())
	}
	r.RenderNotifications(notes)
}

func (r *Renderer) renderLogin(v View) {
	if v.AuthMode == ModeRegister {
		fmt.Fprintln(r.w, "== Register ==")
		for _, field := range []string{"name", "email", "username", "password"} {
			if msg := v.FieldErrors[field]; msg != "" {
				fmt.Fprintf(r.w, "  %s: %s\n", field, line(msg))
			}
		}
		if !v.RegisterEnabled {
			fmt.Fprintln(r.w, "  (register disabled until all fields are valid)")
		}
		return
	}
	fmt.Fprintln(r.w, "== Login ==  (login <email> <password> | github-login | register ...)")
}

func (r *Renderer) renderMain(v View) {
	fmt.Fprintf(r.w, "== CodeMaster ==  signed in as %s\n", line(v.Username))

	fmt.Fprintln(r.w, "Snippets:")
	if len(v.Snippets) == 0 {
		fmt.Fprintln(r.w, "  (none)")
	}
	for _, s := range v.Snippets {
		marker := " "
		if s.Active {
			marker = ">"
		}
		fmt.Fprintf(r.w, " %s [%d] %s  (%s | v%d)\n", marker, s.ID, line(s.Title), line(s.Language), s.ActiveVersionNumber)
	}

	fmt.Fprintln(r.w, "Editor:")
	if v.SelectedID != 0 {
		fmt.Fprintf(r.w, "  snippet %d\n", v.SelectedID)
	} else {
		fmt.Fprintln(r.w, "  new snippet")
	}
	fmt.Fprintf(r.w, "  title: %s\n", line(v.Editor.Title))
	if v.Editor.Description != "" {
		fmt.Fprintf(r.w, "  description: %s\n", line(v.Editor.Description))
	}
	fmt.Fprintln(r.w, "  ---")
	for _, l := range strings.Split(block(v.Editor.Content), "\n") {
		fmt.Fprintf(r.w, "  %s\n", l)
	}
	fmt.Fprintln(r.w, "  ---")
	if v.DeleteVisible {
		fmt.Fprintln(r.w, "  (delete available)")
	}

	if len(v.Versions) > 0 {
		fmt.Fprintln(r.w, "Versions:")
	}
	for _, ver := range v.Versions {
		actions := "restore"
		if ver.CanDelete {
			actions += ", delete"
		}
		fmt.Fprintf(r.w, "  Version %d  [id %d]  %s  (%s)\n", ver.VersionNumber, ver.ID, line(ver.CommitMessage), actions)
	}
}

// RenderModal draws the modal box and its actions.
func (r *Renderer) RenderModal(c ModalContent, actions []string) {
	fmt.Fprintln(r.w, "+--- CodeMaster Engine ---")
	if c.Heading != "" {
		fmt.Fprintf(r.w, "| %s\n", line(c.Heading))
	}
	if c.Body != "" {
		for _, l := range strings.Split(block(c.Body), "\n") {
			fmt.Fprintf(r.w, "| %s\n", l)
		}
	}
	for _, item := range c.Items {
		fmt.Fprintf(r.w, "|  - %s\n", line(item))
	}
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = "[" + strings.ToLower(a) + "]"
	}
	fmt.Fprintf(r.w, "+--- %s\n", strings.Join(labels, " "))
}

func (r *Renderer) RenderNotifications(notes []Notification) {
	for _, n := range notes {
		suffix := ""
		if n.Count > 1 {
			suffix = fmt.Sprintf(" (x%d)", n.Count)
		}
		fmt.Fprintf(r.w, "[%s] %s%s\n", n.Level, line(n.Message), suffix)
	}
}
