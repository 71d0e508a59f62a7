package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avharris/repcoach/internal/auth"
	"github.com/avharris/repcoach/internal/model/chat"
	"github.com/avharris/repcoach/internal/model/scenario"
)

type fakeBackend struct {
	scenarios []scenario.Scenario

	startErr    error
	chatErr     error
	feedbackErr error

	startCalls    int
	chatCalls     int
	feedbackCalls int
	addCalls      int

	lastHistory chat.Transcript
}

func (f *fakeBackend) Scenarios(context.Context) ([]scenario.Scenario, error) {
	return f.scenarios, nil
}

func (f *fakeBackend) StartChat(_ context.Context, sessionID, scenarioID string) (string, error) {
	f.startCalls++
	if f.startErr != nil {
		return "", f.startErr
	}
	return "Hi, I need some help with " + scenarioID + ".", nil
}

func (f *fakeBackend) SendMessage(_ context.Context, message, sessionID, scenarioID string) (string, error) {
	f.chatCalls++
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "Thanks. About my next question...", nil
}

func (f *fakeBackend) Feedback(_ context.Context, history chat.Transcript, scenarioID string) (string, error) {
	f.feedbackCalls++
	f.lastHistory = history
	if f.feedbackErr != nil {
		return "", f.feedbackErr
	}
	return "**Overall Impression**\nSolid work.", nil
}

func (f *fakeBackend) AddScenario(_ context.Context, sc scenario.Scenario) (string, error) {
	f.addCalls++
	f.scenarios = append(f.scenarios, sc)
	return "Scenario added successfully.", nil
}

type memFlag struct{ set bool }

func (m *memFlag) IsSet() bool { return m.set }
func (m *memFlag) Set() error  { m.set = true; return nil }
func (m *memFlag) Clear() error {
	m.set = false
	return nil
}

func newTestMachine(t *testing.T) (*Machine, *fakeBackend, *memFlag) {
	t.Helper()
	backend := &fakeBackend{scenarios: scenario.Seed()}
	flag := &memFlag{}
	m := New(backend, auth.NewStatic("coach", "secret"), flag, scenario.NewMemoryStore(nil), nil)
	return m, backend, flag
}

func login(t *testing.T, m *Machine) {
	t.Helper()
	if err := m.Login(context.Background(), "coach", "secret"); err != nil {
		t.Fatalf("Login err: %v", err)
	}
}

func selectFirst(t *testing.T, m *Machine) scenario.Scenario {
	t.Helper()
	sc, err := m.SelectScenario(m.Scenarios()[0].ID)
	if err != nil {
		t.Fatalf("SelectScenario err: %v", err)
	}
	return sc
}

func assertInvariant(t *testing.T, m *Machine) {
	t.Helper()
	empty := len(m.Transcript()) == 0
	noSession := m.SessionID() == ""
	if empty != noSession {
		t.Fatalf("transcript/session invariant broken: %d turns, session %q",
			len(m.Transcript()), m.SessionID())
	}
}

func TestLoginGate(t *testing.T) {
	m, _, flag := newTestMachine(t)

	err := m.Login(context.Background(), "coach", "wrong")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if m.View() != ViewLoggedOut {
		t.Fatalf("invalid login changed state to %s", m.View())
	}
	if flag.set {
		t.Fatal("invalid login persisted the flag")
	}

	login(t, m)
	if m.View() != ViewMain {
		t.Fatalf("expected main view, got %s", m.View())
	}
	if !flag.set {
		t.Fatal("valid login did not persist the flag")
	}
	if len(m.Scenarios()) == 0 {
		t.Fatal("catalog not fetched on login")
	}
}

func TestResumeRestoresPersistedLogin(t *testing.T) {
	m, _, flag := newTestMachine(t)
	flag.set = true

	m.Resume(context.Background())
	if m.View() != ViewMain {
		t.Fatalf("expected resumed session in main view, got %s", m.View())
	}
	if len(m.Scenarios()) == 0 {
		t.Fatal("catalog not fetched on resume")
	}
}

func TestStartChatMintsFreshSession(t *testing.T) {
	m, _, _ := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)

	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}
	first := m.SessionID()
	if first == "" {
		t.Fatal("no session id generated")
	}
	if m.Pane() != PaneChat {
		t.Fatalf("expected chat pane, got %s", m.Pane())
	}
	if got := m.Transcript(); len(got) != 1 || got[0].Sender != chat.SenderAI {
		t.Fatalf("expected only the customer's opening turn, got %+v", got)
	}
	assertInvariant(t, m)

	// Reopening must reset the transcript and mint a different id.
	if err := m.CloseChat(); err != nil {
		t.Fatalf("CloseChat err: %v", err)
	}
	if err := m.SendMessage(context.Background(), "hello"); err == nil {
		t.Fatal("sending with chat closed should be rejected")
	}
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("second StartChat err: %v", err)
	}
	if m.SessionID() == first {
		t.Fatal("session id reused across chats")
	}
	if len(m.Transcript()) != 1 {
		t.Fatalf("previous transcript carried over: %d turns", len(m.Transcript()))
	}
}

func TestSendMessageGuards(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}

	var verr *ValidationError
	if err := m.SendMessage(context.Background(), "   \t"); !errors.As(err, &verr) {
		t.Fatalf("blank message should be a guard failure, got %v", err)
	}
	if backend.chatCalls != 0 {
		t.Fatal("blank message reached the backend")
	}

	if err := m.SendMessage(context.Background(), "Happy to help, what's up?"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	got := m.Transcript()
	if len(got) != 3 || got[1].Sender != chat.SenderUser || got[2].Sender != chat.SenderAI {
		t.Fatalf("unexpected transcript: %+v", got)
	}
}

func TestChatFailureAppendsApology(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}

	backend.chatErr = errors.New("connection refused")
	if err := m.SendMessage(context.Background(), "are you there?"); err != nil {
		t.Fatalf("network failure must not propagate, got %v", err)
	}

	got := m.Transcript()
	last := got[len(got)-1]
	if last.Sender != chat.SenderAI || !strings.Contains(last.Text, "trouble connecting") {
		t.Fatalf("expected apology turn, got %+v", last)
	}
	if m.Pane() != PaneChat {
		t.Fatal("chat should stay open after a failed send")
	}
	assertInvariant(t, m)
}

func TestStartChatFailureRecovers(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)

	backend.startErr = errors.New("boom")
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("start failure must not propagate, got %v", err)
	}
	if m.Pane() != PaneDetails {
		t.Fatalf("details pane should be re-shown, got %s", m.Pane())
	}
	got := m.Transcript()
	if len(got) != 1 || !strings.Contains(got[0].Text, "trouble connecting") {
		t.Fatalf("expected apology turn, got %+v", got)
	}
	assertInvariant(t, m)

	// The start control is available again and recovers fully.
	backend.startErr = nil
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("retry StartChat err: %v", err)
	}
	if m.Pane() != PaneChat {
		t.Fatal("retry did not open the chat")
	}
}

func TestFeedbackGuardsSkipNetwork(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)

	var verr *ValidationError
	if _, err := m.RequestFeedback(context.Background()); !errors.As(err, &verr) {
		t.Fatalf("empty transcript should be a guard failure, got %v", err)
	}
	if backend.feedbackCalls != 0 {
		t.Fatal("guard failure still issued a feedback request")
	}
}

func TestFeedbackFlow(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	sc := selectFirst(t, m)

	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}
	if err := m.SendMessage(context.Background(), "Plug the cable into the WAN port."); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if err := m.CloseChat(); err != nil {
		t.Fatalf("CloseChat err: %v", err)
	}

	raw, err := m.RequestFeedback(context.Background())
	if err != nil {
		t.Fatalf("RequestFeedback err: %v", err)
	}
	if !strings.Contains(raw, "**Overall Impression**") {
		t.Fatalf("unexpected feedback payload: %q", raw)
	}
	if m.Pane() != PaneFeedback {
		t.Fatalf("expected feedback pane, got %s", m.Pane())
	}
	if len(backend.lastHistory) != len(m.Transcript()) {
		t.Fatal("feedback request did not carry the whole transcript")
	}

	if err := m.CloseFeedback(); err != nil {
		t.Fatalf("CloseFeedback err: %v", err)
	}
	if m.View() != ViewMain {
		t.Fatalf("closing feedback should return to main, got %s", m.View())
	}
	if _, ok := m.Current(); ok {
		t.Fatal("scenario selection should be cleared")
	}
	_ = sc
}

func TestFeedbackFailureShownInline(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}
	if err := m.CloseChat(); err != nil {
		t.Fatalf("CloseChat err: %v", err)
	}

	backend.feedbackErr = errors.New("503")
	if _, err := m.RequestFeedback(context.Background()); err == nil {
		t.Fatal("expected the network error back for inline display")
	}
	if m.Pane() != PaneFeedback {
		t.Fatal("feedback pane should open even when the request fails")
	}
	if err := m.BackToDetails(); err != nil {
		t.Fatalf("BackToDetails err: %v", err)
	}
	if m.View() != ViewDetail || m.Pane() != PaneDetails {
		t.Fatalf("expected details pane, got %s/%s", m.View(), m.Pane())
	}
}

func TestScenarioRoundTripUnchanged(t *testing.T) {
	m, _, _ := newTestMachine(t)
	login(t, m)

	ids := m.Scenarios()
	a, err := m.SelectScenario(ids[0].ID)
	if err != nil {
		t.Fatalf("select A err: %v", err)
	}
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}
	if err := m.CloseChat(); err != nil {
		t.Fatalf("CloseChat err: %v", err)
	}

	if err := m.CloseScenario(); err != nil {
		t.Fatalf("CloseScenario err: %v", err)
	}

	if _, err := m.SelectScenario(ids[1].ID); err != nil {
		t.Fatalf("select B err: %v", err)
	}
	if err := m.CloseScenario(); err != nil {
		t.Fatalf("CloseScenario err: %v", err)
	}

	again, err := m.SelectScenario(ids[0].ID)
	if err != nil {
		t.Fatalf("re-select A err: %v", err)
	}

	if again.Title != a.Title || again.InitialFacts != a.InitialFacts {
		t.Fatalf("scenario content changed across selections: %+v vs %+v", again, a)
	}
	if len(again.Actor.GoalQuestions) != len(a.Actor.GoalQuestions) {
		t.Fatal("goal questions mutated")
	}
	for i := range a.Actor.GoalQuestions {
		if again.Actor.GoalQuestions[i] != a.Actor.GoalQuestions[i] {
			t.Fatalf("goal question %d mutated", i)
		}
	}
	if len(m.Transcript()) != 0 || m.SessionID() != "" {
		t.Fatal("selecting a scenario must reset session and transcript together")
	}
}

func TestAddScenarioFlow(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)

	if err := m.OpenAddScenario(); err != nil {
		t.Fatalf("OpenAddScenario err: %v", err)
	}

	sc := scenario.Scenario{
		Title: "Lost Parcel",
		Actor: scenario.Actor{
			CustomerName:  "Jo",
			Backstory:     "Parcel marked delivered but never arrived.",
			Tone:          "worried",
			GoalQuestions: []string{"Where is my parcel?"},
		},
	}
	msg, err := m.SubmitScenario(context.Background(), sc)
	if err != nil {
		t.Fatalf("SubmitScenario err: %v", err)
	}
	if msg == "" {
		t.Fatal("expected a confirmation message")
	}
	if backend.addCalls != 1 {
		t.Fatalf("expected one add_scenario call, got %d", backend.addCalls)
	}
	if m.View() != ViewMain {
		t.Fatalf("successful submit should return to main, got %s", m.View())
	}

	// Catalog refresh should include the new scenario with its generated id.
	found := false
	for _, item := range m.Scenarios() {
		if item.Title == "Lost Parcel" {
			found = true
			if !strings.HasPrefix(item.ID, "scn-") {
				t.Fatalf("expected generated id, got %q", item.ID)
			}
		}
	}
	if !found {
		t.Fatal("new scenario missing from refreshed catalog")
	}
}

func TestSubmitScenarioValidation(t *testing.T) {
	m, backend, _ := newTestMachine(t)
	login(t, m)
	if err := m.OpenAddScenario(); err != nil {
		t.Fatalf("OpenAddScenario err: %v", err)
	}

	var verr *ValidationError
	if _, err := m.SubmitScenario(context.Background(), scenario.Scenario{Title: "No actor"}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if backend.addCalls != 0 {
		t.Fatal("invalid scenario reached the backend")
	}
	if m.View() != ViewAddScenario {
		t.Fatal("form should stay up after a validation failure")
	}
}

func TestLogoutDropsEverything(t *testing.T) {
	m, _, flag := newTestMachine(t)
	login(t, m)
	selectFirst(t, m)
	if err := m.StartChat(context.Background()); err != nil {
		t.Fatalf("StartChat err: %v", err)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout err: %v", err)
	}
	if flag.set {
		t.Fatal("logout did not clear the persisted flag")
	}
	if m.View() != ViewLoggedOut || m.SessionID() != "" || len(m.Transcript()) != 0 {
		t.Fatal("logout left view state behind")
	}
	assertInvariant(t, m)
}
