// Package review composes the written coaching feedback served by the
// practice backend. The output uses the **Heading** section format the
// frontend formatter was built to parse.
package review

import (
	"fmt"
	"strings"

	"github.com/avharris/repcoach/internal/analysis/tone"
	"github.com/avharris/repcoach/internal/model/chat"
	"github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/internal/service/simulator"
)

// Service derives feedback from a transcript. Stateless.
type Service struct{}

// NewService returns the feedback composer.
func NewService() *Service {
	return &Service{}
}

// Compose builds the raw feedback text for a finished conversation.
func (s *Service) Compose(history chat.Transcript, sc scenario.Scenario) string {
	repMessages := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Sender == chat.SenderUser {
			repMessages = append(repMessages, turn.Text)
		}
	}

	decision := tone.AnalyzeAll(repMessages)
	answered, open := goalCoverage(repMessages, sc)

	var b strings.Builder

	b.WriteString("**Overall Impression**\n")
	fmt.Fprintf(&b, "You sent %d messages while handling %q. %s\n",
		len(repMessages), sc.Title, impressionSentence(decision))

	b.WriteString("**Strengths**\n")
	b.WriteString(strengthSentence(decision, answered))
	b.WriteString("\n")

	b.WriteString("**Areas To Improve**\n")
	b.WriteString(improvementSentence(decision, open))
	b.WriteString("\n")

	b.WriteString("**Goal Coverage**\n")
	fmt.Fprintf(&b, "The customer came in with %d questions and you addressed %d of them.",
		len(sc.Actor.GoalQuestions), answered)
	if len(open) > 0 {
		b.WriteString(" Still open: ")
		b.WriteString(strings.Join(open, " "))
	}
	b.WriteString("\n")

	return b.String()
}

// goalCoverage counts the goal questions the representative addressed and
// collects the ones left open, using the same keyword heuristic the
// simulated customer uses.
func goalCoverage(repMessages []string, sc scenario.Scenario) (int, []string) {
	joined := strings.Join(repMessages, " ")
	answered := 0
	var open []string
	for _, question := range sc.Actor.GoalQuestions {
		if simulator.MatchesGoal(question, joined) {
			answered++
		} else {
			open = append(open, question)
		}
	}
	return answered, open
}

func impressionSentence(d tone.Decision) string {
	switch d.Tone {
	case tone.Courteous:
		return "Your replies read as consistently courteous."
	case tone.Empathetic:
		return "You acknowledged the customer's feelings before problem-solving, which builds trust."
	case tone.Abrupt:
		return "Several replies read as abrupt, which risks escalating the customer."
	case tone.Dismissive:
		return "Some replies came across as dismissive of the customer's concern."
	default:
		return "Your tone stayed neutral throughout."
	}
}

func strengthSentence(d tone.Decision, answered int) string {
	parts := make([]string, 0, 2)
	if d.Scores[tone.Courteous] > 0 {
		parts = append(parts, "You used courteous language.")
	}
	if d.Scores[tone.Empathetic] > 0 {
		parts = append(parts, "You showed empathy for the customer's situation.")
	}
	if answered > 0 {
		parts = append(parts, fmt.Sprintf("You gave usable answers to %d question(s).", answered))
	}
	if len(parts) == 0 {
		return "You kept the conversation on topic."
	}
	return strings.Join(parts, " ")
}

func improvementSentence(d tone.Decision, open []string) string {
	parts := make([]string, 0, 2)
	if d.Scores[tone.Abrupt] > 0 || d.Scores[tone.Dismissive] > 0 {
		parts = append(parts, "Watch for phrasing that can read as curt or dismissive.")
	}
	if d.Scores[tone.Empathetic] == 0 {
		parts = append(parts, "Try acknowledging the customer's frustration explicitly before answering.")
	}
	if len(open) > 0 {
		parts = append(parts, "Make sure every question the customer raises gets an answer before closing.")
	}
	if len(parts) == 0 {
		return "Keep doing what you are doing. Consider summarizing the resolution at the end of the chat."
	}
	return strings.Join(parts, " ")
}
