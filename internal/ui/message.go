package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/allezgo/internal/form"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSyncFinished MsgKind = iota
)

// syncFinishedMsg is the constructor for [MsgSyncFinished]
func syncFinishedMsg(out form.Outcome) Msg {
	return Msg{kind: MsgSyncFinished, data: out}
}

// waitForOutcome blocks on done and reports the outcome.
func waitForOutcome(done <-chan form.Outcome) tea.Cmd {
	return func() tea.Msg {
		return syncFinishedMsg(<-done)
	}
}
