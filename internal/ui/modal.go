package ui

import (
	"context"
	"sync"
)

// Tone hints how a modal should be drawn.
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneDanger
)

// ModalContent is what a modal shows. It is plain data; renderers decide
// how to draw it and escape every field.
type ModalContent struct {
	Heading string
	Body    string
	Items   []string
	Tone    Tone
}

// Modal actions.
const (
	ActionClose   = "Close"
	ActionCancel  = "Cancel"
	ActionConfirm = "Confirm"
)

// Modal is the single dialog overlay. Showing a new modal replaces the open
// one. It is safe for concurrent use.
type Modal struct {
	mu        sync.Mutex
	open      bool
	content   ModalContent
	onConfirm func(ctx context.Context) error
	gen       uint64
}

func NewModal() *Modal {
	return &Modal{}
}

// Show opens the modal. With a nil onConfirm it offers only Close;
// otherwise Cancel and Confirm.
func (m *Modal) Show(content ModalContent, onConfirm func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.content = content
	m.onConfirm = onConfirm
	m.gen++
}

func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Modal) Content() ModalContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// Actions lists the buttons of the open modal, or nil when closed.
func (m *Modal) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case !m.open:
		return nil
	case m.onConfirm == nil:
		return []string{ActionClose}
	}
	return []string{ActionCancel, ActionConfirm}
}

// Confirm runs the confirm handler, then closes the modal whether or not
// the handler failed, and returns the handler's error. A modal opened by the
// handler itself stays open. Confirm on a modal without a handler just
// closes it.
func (m *Modal) Confirm(ctx context.Context) error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return nil
	}
	fn, gen := m.onConfirm, m.gen
	m.mu.Unlock()

	var err error
	if fn != nil {
		err = fn(ctx)
	}

	m.mu.Lock()
	if m.gen == gen {
		m.closeLocked()
	}
	m.mu.Unlock()
	return err
}

// Close dismisses the modal without running its handler. It serves both
// the Close and Cancel actions.
func (m *Modal) Close() {
	m.mu.Lock()
	m.closeLocked()
	m.mu.Unlock()
}

func (m *Modal) closeLocked() {
	m.open = false
	m.content = ModalContent{}
	m.onConfirm = nil
}
