// Package simulator plays the customer side of a training chat. It is a
// deterministic stand-in for the remote dialogue backend: it walks the
// scenario's goal questions in order and closes politely once the
// representative has answered all of them.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avharris/repcoach/internal/model/chat"
	"github.com/avharris/repcoach/internal/model/scenario"
)

var ErrSessionNotFound = errors.New("session not found")

// storedTurn keeps the per-session history for audit and feedback requests.
type storedTurn struct {
	ID        string
	Sender    chat.Sender
	Text      string
	CreatedAt time.Time
}

type customerSession struct {
	scenario      scenario.Scenario
	goalsAnswered []bool
	history       []storedTurn
	replies       int
}

// Service owns every live customer session. Safe for concurrent handlers.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*customerSession
}

// NewService bootstraps the in-memory session table.
func NewService() *Service {
	return &Service{sessions: make(map[string]*customerSession)}
}

// StartChat provisions (or resets) a session and returns the customer's
// opening turn: an introduction plus the first goal question.
func (s *Service) StartChat(_ context.Context, sessionID string, sc scenario.Scenario) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}

	sess := &customerSession{
		scenario:      sc.Clone(),
		goalsAnswered: make([]bool, len(sc.Actor.GoalQuestions)),
	}

	opening := fmt.Sprintf("Hi, I'm %s. %s", sc.Actor.CustomerName, sc.Actor.Backstory)
	if len(sc.Actor.GoalQuestions) > 0 {
		opening = fmt.Sprintf("%s %s", opening, sc.Actor.GoalQuestions[0])
	}
	sess.append(chat.SenderAI, opening)

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	return opening, nil
}

// Respond processes one representative message and produces the customer's
// next turn. An unknown session is provisioned lazily, matching the original
// backend which created a session on the first /chat call.
func (s *Service) Respond(ctx context.Context, sessionID string, sc scenario.Scenario, message string) (string, error) {
	if sessionID == "" {
		return "", ErrSessionNotFound
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		if _, err := s.StartChat(ctx, sessionID, sc); err != nil {
			return "", err
		}
		s.mu.Lock()
		sess = s.sessions[sessionID]
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess.append(chat.SenderUser, message)
	sess.updateGoals(message)
	reply := sess.nextReply()
	sess.append(chat.SenderAI, reply)
	return reply, nil
}

// GoalsAnswered reports which goal questions the representative has covered.
func (s *Service) GoalsAnswered(sessionID string) ([]bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]bool, len(sess.goalsAnswered))
	copy(out, sess.goalsAnswered)
	return out, true
}

// History returns the stored transcript for a session.
func (s *Service) History(sessionID string) (chat.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make(chat.Transcript, 0, len(sess.history))
	for _, turn := range sess.history {
		out = append(out, chat.Turn{Sender: turn.Sender, Text: turn.Text})
	}
	return out, nil
}

func (c *customerSession) append(sender chat.Sender, text string) {
	c.history = append(c.history, storedTurn{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
}

// updateGoals marks goal questions as answered when the representative's
// reply shares a keyword with them. Short common words are skipped.
func (c *customerSession) updateGoals(reply string) {
	for i, question := range c.scenario.Actor.GoalQuestions {
		if !c.goalsAnswered[i] && MatchesGoal(question, reply) {
			c.goalsAnswered[i] = true
		}
	}
}

var acknowledgements = []string{
	"Okay, that helps.",
	"Got it, thanks.",
	"Alright, noted.",
}

// nextReply acknowledges the representative and pushes the conversation
// toward the first unanswered goal question.
func (c *customerSession) nextReply() string {
	ack := acknowledgements[c.replies%len(acknowledgements)]
	c.replies++

	for i, answered := range c.goalsAnswered {
		if !answered {
			return fmt.Sprintf("%s One more thing: %s", ack, c.scenario.Actor.GoalQuestions[i])
		}
	}
	return fmt.Sprintf("%s That covers everything I needed. Thanks for your help, goodbye!", ack)
}

// MatchesGoal reports whether a reply addresses a goal question: any keyword
// of the question longer than three characters appearing in the reply counts.
// The same heuristic drives the feedback coverage report.
func MatchesGoal(question, reply string) bool {
	lowered := strings.ToLower(reply)
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, "?.,!")
		if len(word) > 3 && strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
