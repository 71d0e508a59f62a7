// Command repcoach is the interactive trainer console: log in, pick a
// scenario, chat with the simulated customer, then request written feedback.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/avharris/repcoach/internal/api"
	"github.com/avharris/repcoach/internal/auth"
	"github.com/avharris/repcoach/internal/config"
	"github.com/avharris/repcoach/internal/feedback"
	"github.com/avharris/repcoach/internal/logging"
	"github.com/avharris/repcoach/internal/model/chat"
	"github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/internal/session"
)

func main() {
	// Missing .env is fine; the system environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Client.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.Client.BackendURL, cfg.Client.Timeout)
	gate := auth.NewStatic(cfg.Auth.Username, cfg.Auth.Password)
	flags := auth.NewFlagStore(cfg.Client.StateFile)
	machine := session.New(client, gate, flags, scenario.NewMemoryStore(nil), logger)

	app := &app{
		machine: machine,
		in:      bufio.NewScanner(os.Stdin),
		log:     logger,
	}
	app.run(context.Background())
}

type app struct {
	machine *session.Machine
	in      *bufio.Scanner
	log     *slog.Logger
}

func (a *app) run(ctx context.Context) {
	fmt.Println("RepCoach — customer service training simulator")

	a.machine.Resume(ctx)
	if a.machine.View() != session.ViewLoggedOut {
		fmt.Println("Welcome back, you are still logged in.")
	}

	for {
		switch a.machine.View() {
		case session.ViewLoggedOut:
			if !a.login(ctx) {
				return
			}
		case session.ViewMain:
			if !a.mainMenu(ctx) {
				return
			}
		case session.ViewDetail:
			a.detail(ctx)
		case session.ViewAddScenario:
			a.addScenarioForm(ctx)
		}
	}
}

// login blocks until valid credentials are submitted or input ends.
func (a *app) login(ctx context.Context) bool {
	for {
		username, ok := a.prompt("Username: ")
		if !ok {
			return false
		}
		password, ok := a.prompt("Password: ")
		if !ok {
			return false
		}

		err := a.machine.Login(ctx, username, password)
		if err == nil {
			return true
		}
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			fmt.Println("! " + verr.Reason)
			continue
		}
		a.fail("login failed", err)
		return false
	}
}

func (a *app) mainMenu(ctx context.Context) bool {
	fmt.Println()
	fmt.Println("Scenarios:")
	items := a.machine.Scenarios()
	if len(items) == 0 {
		fmt.Println("  (none available — is the backend reachable?)")
	}
	for i, sc := range items {
		fmt.Printf("  %d. %s\n", i+1, sc.Title)
	}
	fmt.Println("Commands: <number> select, add, logout, quit")

	line, ok := a.prompt("> ")
	if !ok {
		return false
	}

	switch strings.ToLower(line) {
	case "quit", "exit":
		return false
	case "logout":
		if err := a.machine.Logout(); err != nil {
			a.log.Warn("logout", "error", err)
		}
		fmt.Println("Logged out.")
		return true
	case "add":
		a.must(a.machine.OpenAddScenario())
		return true
	}

	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(items) {
		fmt.Println("! pick a scenario number from the list")
		return true
	}
	if _, err := a.machine.SelectScenario(items[idx-1].ID); err != nil {
		a.alert(err)
	}
	return true
}

func (a *app) detail(ctx context.Context) {
	sc, ok := a.machine.Current()
	if !ok {
		// Selection vanished (catalog refresh); fall back to the list.
		_ = a.machine.CloseScenario()
		return
	}

	switch a.machine.Pane() {
	case session.PaneChat:
		a.chatLoop(ctx)
		return
	case session.PaneFeedback:
		// Feedback is rendered by the action that opened it; closing
		// here covers resumption after odd input states.
		a.must(a.machine.CloseFeedback())
		return
	}

	fmt.Println()
	fmt.Println("## " + sc.Title)
	if sc.InitialFacts.Heading != "" {
		fmt.Println(sc.InitialFacts.Heading + ":")
	}
	fmt.Println(sc.InitialFacts.Content)
	fmt.Printf("Customer: %s (%s)\n", sc.Actor.CustomerName, sc.Actor.Tone)
	fmt.Println("Commands: chat, feedback, back")

	line, ok := a.prompt("> ")
	if !ok {
		os.Exit(0)
	}

	switch strings.ToLower(line) {
	case "chat":
		if err := a.machine.StartChat(ctx); err != nil {
			a.alert(err)
			return
		}
		if a.machine.Pane() != session.PaneChat {
			// The start request failed; the apology is in the transcript.
			a.printLastTurn()
			return
		}
		a.printLastTurn()
	case "feedback":
		a.feedbackPanel(ctx)
	case "back":
		a.must(a.machine.CloseScenario())
	default:
		fmt.Println("! unknown command")
	}
}

func (a *app) chatLoop(ctx context.Context) {
	fmt.Println("(chat open — type a message, or /close to end the chat)")
	for a.machine.Pane() == session.PaneChat {
		line, ok := a.prompt("you> ")
		if !ok {
			os.Exit(0)
		}
		if strings.EqualFold(strings.TrimSpace(line), "/close") {
			a.must(a.machine.CloseChat())
			fmt.Println("(chat closed — feedback is now available)")
			return
		}

		if err := a.machine.SendMessage(ctx, line); err != nil {
			a.alert(err)
			continue
		}
		a.printLastTurn()
	}
}

func (a *app) feedbackPanel(ctx context.Context) {
	raw, err := a.machine.RequestFeedback(ctx)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			fmt.Println("! " + verr.Reason)
			return
		}
		// Network failure: the panel is open, show the error inline.
		fmt.Println()
		fmt.Println("-- Feedback ----------------------------------")
		fmt.Printf("Could not fetch feedback: %v\n", err)
		fmt.Println("----------------------------------------------")
		a.closeFeedback()
		return
	}

	fmt.Println()
	fmt.Println("-- Feedback ----------------------------------")
	fmt.Println(feedback.Format(raw))
	fmt.Println("----------------------------------------------")
	a.closeFeedback()
}

// closeFeedback asks whether to stay on the scenario for another run.
func (a *app) closeFeedback() {
	line, ok := a.prompt("Type 'again' to retry this scenario, anything else to return: ")
	if !ok {
		os.Exit(0)
	}
	if strings.EqualFold(strings.TrimSpace(line), "again") {
		a.must(a.machine.BackToDetails())
		return
	}
	a.must(a.machine.CloseFeedback())
}

func (a *app) addScenarioForm(ctx context.Context) {
	fmt.Println()
	fmt.Println("New scenario (leave id empty to generate one, empty title cancels):")

	read := func(label string) (string, bool) {
		return a.prompt(label)
	}

	title, ok := read("Title: ")
	if !ok {
		os.Exit(0)
	}
	if strings.TrimSpace(title) == "" {
		a.must(a.machine.BackToMain())
		return
	}

	id, _ := read("Id: ")
	facts, _ := read("Initial facts: ")
	name, _ := read("Customer name: ")
	backstory, _ := read("Backstory: ")
	toneOfVoice, _ := read("Tone: ")

	var questions []string
	for {
		q, ok := read("Goal question (empty to finish): ")
		if !ok || strings.TrimSpace(q) == "" {
			break
		}
		questions = append(questions, q)
	}

	sc := scenario.Scenario{
		ID:           strings.TrimSpace(id),
		Title:        strings.TrimSpace(title),
		InitialFacts: scenario.InitialFacts{Content: facts},
		Actor: scenario.Actor{
			CustomerName:  strings.TrimSpace(name),
			Backstory:     backstory,
			Tone:          toneOfVoice,
			GoalQuestions: questions,
		},
	}

	msg, err := a.machine.SubmitScenario(ctx, sc)
	if err != nil {
		a.alert(err)
		return
	}
	fmt.Println(msg)
}

func (a *app) printLastTurn() {
	transcript := a.machine.Transcript()
	if len(transcript) == 0 {
		return
	}
	last := transcript[len(transcript)-1]
	if last.Sender == chat.SenderAI {
		fmt.Println("customer> " + last.Text)
	}
}

func (a *app) prompt(label string) (string, bool) {
	fmt.Print(label)
	if !a.in.Scan() {
		return "", false
	}
	return a.in.Text(), true
}

// alert prints guard failures inline and logs everything else.
func (a *app) alert(err error) {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		fmt.Println("! " + verr.Reason)
		return
	}
	fmt.Printf("! %v\n", err)
	a.log.Warn("action failed", "error", err)
}

func (a *app) must(err error) {
	if err != nil {
		a.log.Warn("unexpected transition failure", "error", err)
	}
}

func (a *app) fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	a.log.Error(msg, "error", err)
}
