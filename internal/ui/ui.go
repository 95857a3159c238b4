package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/allezgo/internal/form"
	"github.com/desertthunder/allezgo/internal/formatter"
)

// Focus identifies the focused control. Text fields come first, in form order.
type Focus int

const (
	PelotonEmailField Focus = iota
	PelotonPasswordField
	GarminEmailField
	GarminPasswordField
	GearNameField
	TodayOnlyBox
	RememberBox
	SubmitButton
	focusCount
)

type field struct {
	label string
	set   func(context.Context, string) error
	get   func(form.State) string
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	form    *form.SyncForm
	fields  []field
	inputs  []textinput.Model
	focus   Focus
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
	notice  string
}

// NewModel creates a TUI model editing f. The text fields start from f's current values, so remembered
// credentials must be loaded before the model is built.
func NewModel(ctx context.Context, f *form.SyncForm) *Model {
	m := &Model{
		ctx:     ctx,
		form:    f,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.focus)),
		help:    help.New(),
		keys:    newKeyMap(),
	}

	m.fields = []field{
		{"Peloton Email Address", f.SetPelotonEmail, func(s form.State) string { return s.Credentials.PelotonEmail }},
		{"Peloton Password", f.SetPelotonPassword, func(s form.State) string { return s.Credentials.PelotonPassword }},
		{"Garmin Email Address", f.SetGarminEmail, func(s form.State) string { return s.Credentials.GarminEmail }},
		{"Garmin Password", f.SetGarminPassword, func(s form.State) string { return s.Credentials.GarminPassword }},
		{"Garmin Gear Name for Peloton Bike (\"Brand & Model\" of your custom gear)", f.SetGarminGearName,
			func(s form.State) string { return s.Credentials.GarminPelotonGearName }},
	}

	placeholders := []string{
		"Enter the email address you use to login to Peloton",
		"Enter the password you use to login to Peloton",
		"Enter the email address you use to login to Garmin Connect",
		"Enter the password you use to login to Garmin Connect",
		"Enter the gear brand and model of your Peloton bike in Garmin",
	}

	m.inputs = make([]textinput.Model, len(m.fields))
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Prompt = "  "
		ti.Width = 60
		if Focus(i) == PelotonPasswordField || Focus(i) == GarminPasswordField {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		m.inputs[i] = ti
	}

	m.syncInputs()
	m.inputs[0].Focus()
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Focused returns the focused control.
func (m *Model) Focused() Focus {
	return m.focus
}

// Notice returns the warning line shown under the form, if any.
func (m *Model) Notice() string {
	return m.notice
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if !m.form.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInput(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSyncFinished:
		// The response, including transport failures, is read back from the form on render.
		m.notice = ""
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, m.keys.prev):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	case key.Matches(msg, m.keys.forget):
		m.notify(m.form.Forget(m.ctx))
		if m.notice == "" {
			m.notice = "Remembered credentials removed."
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle) && m.focus == TodayOnlyBox:
		m.notify(m.form.ToggleTodayOnly(m.ctx))
		return m, nil
	case key.Matches(msg, m.keys.toggle) && m.focus == RememberBox:
		m.notify(m.form.ToggleRememberCredentials(m.ctx))
		return m, nil
	case key.Matches(msg, m.keys.submit):
		return m, m.submit()
	}

	return m.updateInput(msg)
}

// updateInput forwards msg to the focused text field and mirrors its value into the form.
func (m *Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus >= Focus(len(m.inputs)) {
		return m, nil
	}

	i := int(m.focus)
	before := m.inputs[i].Value()

	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)

	if value := m.inputs[i].Value(); value != before {
		m.notify(m.fields[i].set(m.ctx, value))
	}
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	s := m.form.Snapshot()
	if s.InFlight {
		return nil
	}
	if !s.IsSubmittable() {
		m.notice = "Fill in all five fields before synchronizing."
		return nil
	}

	done, err := m.form.SubmitAsync(m.ctx)
	if err != nil {
		if !errors.Is(err, form.ErrSubmitInFlight) {
			m.notice = err.Error()
		}
		return nil
	}

	m.notice = ""
	return tea.Batch(m.spinner.Tick, waitForOutcome(done))
}

func (m *Model) setFocus(f Focus) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if Focus(i) == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// syncInputs copies the form's credential values into the text fields.
func (m *Model) syncInputs() {
	s := m.form.Snapshot()
	for i, f := range m.fields {
		m.inputs[i].SetValue(f.get(s))
	}
}

func (m *Model) notify(err error) {
	if err != nil {
		m.notice = fmt.Sprintf("Could not save credentials: %v", err)
	}
}

// View renders the form, the progress indicator and the latest result.
func (m *Model) View() string {
	s := m.form.Snapshot()
	var b strings.Builder

	b.WriteString(styles.title.Render("Synchronize Peloton Rides with Garmin Connect"))
	b.WriteString("\n")
	b.WriteString(styles.help.Render("Rides in Garmin Connect starting within 2 minutes of a Peloton ride count as the same activity."))
	b.WriteString("\n\n")

	for i, input := range m.inputs {
		b.WriteString(m.label(Focus(i), m.fields[i].label))
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(m.checkbox(TodayOnlyBox, "Only Synchronize Today's Rides", s.Options.TodayOnly))
	b.WriteString("\n")
	b.WriteString(m.checkbox(RememberBox, "Remember my credentials", s.Options.RememberCredentials))
	b.WriteString("\n")
	b.WriteString(styles.help.Render("    Saved on this computer. Do not use this feature on a shared computer."))
	b.WriteString("\n\n")

	b.WriteString(m.button(s))
	b.WriteString("\n")

	if s.InFlight {
		b.WriteString("\n" + m.spinner.View() + " Synchronizing...\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + styles.warn.Render(m.notice) + "\n")
	}

	if result := renderResult(formatter.NewResultView(s.Result, s.ResultDays)); result != "" {
		b.WriteString("\n" + result)
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) label(f Focus, text string) string {
	if m.focus == f {
		return styles.focus.Render("> " + text)
	}
	return styles.label.Render("  " + text)
}

func (m *Model) checkbox(f Focus, text string, checked bool) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	return m.label(f, box+" "+text)
}

func (m *Model) button(s form.State) string {
	text := "Synchronize Peloton Rides to Garmin"
	switch {
	case !s.CanSubmit():
		return "  " + styles.help.Render("[ "+text+" ]")
	case m.focus == SubmitButton:
		return "> " + styles.button.Render(text)
	default:
		return "  " + styles.ok.Render("[ "+text+" ]")
	}
}

// renderResult styles a [formatter.ResultView]. The result and error sections render independently.
func renderResult(view formatter.ResultView) string {
	var b strings.Builder

	if view.HasResult {
		b.WriteString(styles.title.Render(view.Heading))
		b.WriteString("\n")
		if view.Empty {
			b.WriteString(formatter.EmptyMessage + "\n")
		}
		for _, row := range view.Rows {
			garmin := row.GarminLabel
			if row.Created {
				garmin = styles.ok.Render(garmin)
			}
			b.WriteString(fmt.Sprintf("%s  %s %s\n", row.Date, styles.label.Render(row.Title), row.Description))
			b.WriteString(fmt.Sprintf("    Peloton: %s\n", row.PelotonLink))
			b.WriteString(fmt.Sprintf("    %s: %s\n", garmin, row.GarminLink))
		}
	}

	if view.HasError() {
		b.WriteString(styles.err.Render("Error: " + view.Error))
		b.WriteString("\n")
	}

	return b.String()
}
