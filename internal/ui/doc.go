// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a single view editing a [form.SyncForm]: five text fields (passwords masked), two checkboxes and a
// submit button, followed by a spinner while a sync is running and the latest result below the form.
//
// Tab and shift+tab move focus, space toggles the focused checkbox and enter submits once every field is filled.
// Each keystroke is written through to the form, so remembered credentials are saved as they are typed.
//
// The sync runs through [form.SyncForm.SubmitAsync]; the returned channel is awaited in a [tea.Cmd] that delivers
// a [MsgSyncFinished] message when the response arrives.
package ui
