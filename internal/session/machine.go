// Package session owns the view state machine of the trainer: which screen
// is active, which scenario is selected, and the lifecycle of the chat
// session id and its transcript.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/avharris/repcoach/internal/auth"
	"github.com/avharris/repcoach/internal/model/chat"
	"github.com/avharris/repcoach/internal/model/scenario"
)

// View is the active top-level screen. Exactly one is active at a time.
type View string

const (
	ViewLoggedOut   View = "logged_out"
	ViewMain        View = "main"
	ViewDetail      View = "scenario_detail"
	ViewAddScenario View = "add_scenario"
)

// Pane is the layer shown over the scenario detail view. Chat and feedback
// are mutually exclusive by construction: there is only one pane slot.
type Pane string

const (
	PaneDetails  Pane = "details"
	PaneChat     Pane = "chat"
	PaneFeedback Pane = "feedback"
)

// ValidationError is a guard failure surfaced to the user as an alert or
// inline message. It never reaches the backend.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErr(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// apologyText is the synthetic turn appended to the transcript when a chat
// request fails, in place of a propagated error.
const apologyText = "I'm sorry, I'm having trouble connecting right now. Please try again later."

// Backend is the slice of the remote API the machine drives. One request per
// user action, fire-and-forget.
type Backend interface {
	Scenarios(ctx context.Context) ([]scenario.Scenario, error)
	StartChat(ctx context.Context, sessionID, scenarioID string) (string, error)
	SendMessage(ctx context.Context, message, sessionID, scenarioID string) (string, error)
	Feedback(ctx context.Context, history chat.Transcript, scenarioID string) (string, error)
	AddScenario(ctx context.Context, sc scenario.Scenario) (string, error)
}

// FlagStore persists the authenticated flag across restarts.
type FlagStore interface {
	IsSet() bool
	Set() error
	Clear() error
}

// Machine holds all mutable view state. It is driven from a single goroutine;
// no internal locking.
type Machine struct {
	backend Backend
	auth    auth.Authenticator
	flags   FlagStore
	catalog scenario.Store
	log     *slog.Logger

	view       View
	pane       Pane
	scenarioID string
	sessionID  string
	transcript chat.Transcript
}

// New builds a machine in the LoggedOut view. Call Resume to honor a login
// flag persisted by a previous run.
func New(backend Backend, authenticator auth.Authenticator, flags FlagStore, catalog scenario.Store, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		backend: backend,
		auth:    authenticator,
		flags:   flags,
		catalog: catalog,
		log:     log,
		view:    ViewLoggedOut,
		pane:    PaneDetails,
	}
}

// View returns the active screen.
func (m *Machine) View() View { return m.view }

// Pane returns the active detail-layer pane; meaningful while the scenario
// detail view is active.
func (m *Machine) Pane() Pane { return m.pane }

// SessionID returns the active correlation token, empty when no chat session
// exists.
func (m *Machine) SessionID() string { return m.sessionID }

// Transcript returns a copy of the conversation so far.
func (m *Machine) Transcript() chat.Transcript { return m.transcript.Clone() }

// Scenarios returns the cached catalog.
func (m *Machine) Scenarios() []scenario.Scenario { return m.catalog.List() }

// Current returns the selected scenario, if any.
func (m *Machine) Current() (scenario.Scenario, bool) {
	if m.scenarioID == "" {
		return scenario.Scenario{}, false
	}
	return m.catalog.FindByID(m.scenarioID)
}

// Resume restores a persisted login on startup: if the flag survived, skip
// the login gate and load the catalog.
func (m *Machine) Resume(ctx context.Context) {
	if m.view != ViewLoggedOut || !m.flags.IsSet() {
		return
	}
	m.view = ViewMain
	m.refreshCatalog(ctx)
}

// Login checks credentials. Invalid submissions leave the state untouched
// and return a ValidationError for inline display.
func (m *Machine) Login(ctx context.Context, username, password string) error {
	if m.view != ViewLoggedOut {
		return validationErr("already logged in")
	}
	if !m.auth.Authenticate(username, password) {
		return validationErr("invalid username or password")
	}

	if err := m.flags.Set(); err != nil {
		// The login itself still succeeds; it just will not survive a restart.
		m.log.Warn("persisting login flag failed", "error", err)
	}
	m.view = ViewMain
	m.refreshCatalog(ctx)
	return nil
}

// Logout clears the persisted flag and drops every piece of view state.
func (m *Machine) Logout() error {
	err := m.flags.Clear()
	m.view = ViewLoggedOut
	m.pane = PaneDetails
	m.scenarioID = ""
	m.resetSession()
	return err
}

// SelectScenario moves from the main list into a scenario's detail view.
// Any previous chat session is discarded.
func (m *Machine) SelectScenario(id string) (scenario.Scenario, error) {
	if m.view != ViewMain {
		return scenario.Scenario{}, validationErr("select a scenario from the main view")
	}
	sc, ok := m.catalog.FindByID(id)
	if !ok {
		return scenario.Scenario{}, validationErr("unknown scenario %q", id)
	}

	m.scenarioID = sc.ID
	m.resetSession()
	m.view = ViewDetail
	m.pane = PaneDetails
	return sc, nil
}

// StartChat resets the transcript, mints a fresh session id, and asks the
// backend for the customer's opening turn. A failed request re-shows the
// details pane and leaves an apology in the transcript instead of an error.
func (m *Machine) StartChat(ctx context.Context) error {
	if m.view != ViewDetail || m.pane != PaneDetails {
		return validationErr("open a scenario before starting a chat")
	}
	if m.scenarioID == "" {
		return validationErr("no scenario selected")
	}

	m.transcript = nil
	m.sessionID = uuid.NewString()
	m.pane = PaneChat

	reply, err := m.backend.StartChat(ctx, m.sessionID, m.scenarioID)
	if err != nil {
		m.log.Warn("start_chat failed", "scenario", m.scenarioID, "error", err)
		m.transcript = m.transcript.Append(chat.SenderAI, apologyText)
		m.pane = PaneDetails
		return nil
	}

	m.transcript = m.transcript.Append(chat.SenderAI, reply)
	return nil
}

// SendMessage forwards one representative message. An empty trimmed message
// is a no-op guard failure. Network failures become an apology turn; the
// chat stays open.
func (m *Machine) SendMessage(ctx context.Context, text string) error {
	if m.view != ViewDetail || m.pane != PaneChat {
		return validationErr("no chat is open")
	}
	if strings.TrimSpace(text) == "" {
		return validationErr("message is empty")
	}
	if m.sessionID == "" {
		// Chat was opened without a session; create the token on first send.
		m.sessionID = uuid.NewString()
	}

	m.transcript = m.transcript.Append(chat.SenderUser, text)

	reply, err := m.backend.SendMessage(ctx, text, m.sessionID, m.scenarioID)
	if err != nil {
		m.log.Warn("chat failed", "session", m.sessionID, "error", err)
		m.transcript = m.transcript.Append(chat.SenderAI, apologyText)
		return nil
	}

	m.transcript = m.transcript.Append(chat.SenderAI, reply)
	return nil
}

// CloseChat returns to the details pane; the transcript is kept so feedback
// can be requested on it.
func (m *Machine) CloseChat() error {
	if m.view != ViewDetail || m.pane != PaneChat {
		return validationErr("no chat is open")
	}
	m.pane = PaneDetails
	return nil
}

// RequestFeedback submits the whole transcript for review and returns the
// raw feedback text. Guard failures never issue a request; a network failure
// opens the feedback pane with the error for inline display.
func (m *Machine) RequestFeedback(ctx context.Context) (string, error) {
	if m.view != ViewDetail || m.pane == PaneChat {
		return "", validationErr("close the chat before requesting feedback")
	}
	if m.scenarioID == "" {
		return "", validationErr("no scenario selected")
	}
	if len(m.transcript) == 0 {
		return "", validationErr("have a conversation first, then ask for feedback")
	}

	raw, err := m.backend.Feedback(ctx, m.transcript.Clone(), m.scenarioID)
	m.pane = PaneFeedback
	if err != nil {
		m.log.Warn("feedback failed", "scenario", m.scenarioID, "error", err)
		return "", err
	}
	return raw, nil
}

// CloseFeedback dismisses the feedback pane and returns to the main view,
// clearing the scenario selection.
func (m *Machine) CloseFeedback() error {
	if m.view != ViewDetail || m.pane != PaneFeedback {
		return validationErr("no feedback is open")
	}
	m.pane = PaneDetails
	m.view = ViewMain
	m.scenarioID = ""
	return nil
}

// BackToDetails dismisses the feedback pane but stays on the scenario, so
// another chat can be started.
func (m *Machine) BackToDetails() error {
	if m.view != ViewDetail || m.pane != PaneFeedback {
		return validationErr("no feedback is open")
	}
	m.pane = PaneDetails
	return nil
}

// CloseScenario leaves the detail view for the main list without requesting
// feedback. The selection is cleared; the next selection resets the session.
func (m *Machine) CloseScenario() error {
	if m.view != ViewDetail || m.pane != PaneDetails {
		return validationErr("no scenario details are open")
	}
	m.view = ViewMain
	m.scenarioID = ""
	return nil
}

// OpenAddScenario navigates from the main view to the add-scenario form.
func (m *Machine) OpenAddScenario() error {
	if m.view != ViewMain {
		return validationErr("open the scenario form from the main view")
	}
	m.view = ViewAddScenario
	return nil
}

// BackToMain leaves the add-scenario form without submitting.
func (m *Machine) BackToMain() error {
	if m.view != ViewAddScenario {
		return validationErr("not on the scenario form")
	}
	m.view = ViewMain
	return nil
}

// SubmitScenario validates and submits a new scenario. An omitted id gets a
// generated one. On success the machine returns to the main view and
// refreshes the catalog; on failure the form stays up and the error is
// returned for inline display.
func (m *Machine) SubmitScenario(ctx context.Context, sc scenario.Scenario) (string, error) {
	if m.view != ViewAddScenario {
		return "", validationErr("not on the scenario form")
	}

	if sc.ID == "" {
		id, err := gonanoid.New(10)
		if err != nil {
			return "", fmt.Errorf("generating scenario id: %w", err)
		}
		sc.ID = "scn-" + id
	}
	if err := sc.Validate(); err != nil {
		return "", &ValidationError{Reason: err.Error()}
	}

	msg, err := m.backend.AddScenario(ctx, sc)
	if err != nil {
		return "", err
	}

	m.view = ViewMain
	m.refreshCatalog(ctx)
	return msg, nil
}

// refreshCatalog swaps in the latest backend catalog. A failed fetch is
// logged and the cached (possibly empty) catalog stays in place.
func (m *Machine) refreshCatalog(ctx context.Context) {
	items, err := m.backend.Scenarios(ctx)
	if err != nil {
		m.log.Warn("scenario catalog load failed", "error", err)
		return
	}
	m.catalog.ReplaceAll(items)
}

// resetSession drops the session id and transcript together; they are only
// ever valid as a pair.
func (m *Machine) resetSession() {
	m.sessionID = ""
	m.transcript = nil
}
