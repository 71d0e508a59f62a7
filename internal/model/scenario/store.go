package scenario

import (
	"errors"
	"sync"
)

var ErrDuplicateID = errors.New("scenario id already exists")

// Store exposes scenario retrieval for the state machine and HTTP handlers.
type Store interface {
	List() []Scenario
	FindByID(id string) (Scenario, bool)
	Add(s Scenario) error
	ReplaceAll(items []Scenario)
}

// MemoryStore implements Store with an in-memory slice guarded by a lock.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Scenario
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied scenarios.
func NewMemoryStore(items []Scenario) *MemoryStore {
	s := &MemoryStore{}
	s.ReplaceAll(items)
	return s
}

// List returns a copy of the catalog in insertion order.
func (s *MemoryStore) List() []Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Scenario, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	return out
}

// FindByID looks up a scenario by identifier.
func (s *MemoryStore) FindByID(id string) (Scenario, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item.Clone(), true
		}
	}
	return Scenario{}, false
}

// Add appends a new scenario, rejecting duplicate ids.
func (s *MemoryStore) Add(sc Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == sc.ID {
			return ErrDuplicateID
		}
	}
	s.items = append(s.items, sc.Clone())
	return nil
}

// ReplaceAll swaps the whole catalog, used when the backend list is refetched.
func (s *MemoryStore) ReplaceAll(items []Scenario) {
	copied := make([]Scenario, 0, len(items))
	for _, item := range items {
		copied = append(copied, item.Clone())
	}

	s.mu.Lock()
	s.items = copied
	s.mu.Unlock()
}

// Seed provides the default training scenarios served by the practice backend.
func Seed() []Scenario {
	return []Scenario{
		{
			ID:    "router-setup",
			Title: "New Router Setup",
			InitialFacts: InitialFacts{
				Heading: "Connectivity basics",
				Content: "The customer bought a dual-band home router yesterday. The modem is provided by the ISP and is already online. No outage is reported in the area.",
			},
			Actor: Actor{
				CustomerName: "Alice Tran",
				Backstory:    "Alice recently purchased a new smart home router and is having trouble connecting it. She also has a question about its warranty.",
				Tone:         "slightly frustrated but polite",
				GoalQuestions: []string{
					"How do I connect the cables?",
					"What is the default Wi-Fi password?",
					"How do I change the Wi-Fi password?",
					"Is there a mobile app for management?",
				},
			},
		},
		{
			ID:    "authenticity-scandal",
			Title: "Influencer Authenticity Scandal",
			InitialFacts: InitialFacts{
				Content: "A lifestyle influencer's 'humble beginnings' post was debunked online. Brand deals are paused and her management wants the agency's support line to handle inbound press questions.",
			},
			Actor: Actor{
				CustomerName: "Ava Sharma",
				Backstory:    "Ava runs the @AuthenticAva account. A viral thread exposed inconsistencies in her backstory and she is calling the PR support desk in a panic.",
				Tone:         "anxious and defensive",
				GoalQuestions: []string{
					"Should I publish a public apology statement today?",
					"How do I respond to the press requests in my inbox?",
					"Can the paused brand deals be recovered?",
				},
			},
		},
		{
			ID:    "billing-dispute",
			Title: "Unexpected Billing Charge",
			InitialFacts: InitialFacts{
				Content: "The customer's latest invoice includes a one-time equipment fee of $49.99. The fee is valid per contract but was never announced. Refunds under $60 can be issued by any representative.",
			},
			Actor: Actor{
				CustomerName: "Marcus Webb",
				Backstory:    "Marcus noticed an unfamiliar charge on his monthly statement and suspects he is being overbilled.",
				Tone:         "curt and suspicious",
				GoalQuestions: []string{
					"What is this equipment fee on my invoice?",
					"Can I get a refund for the charge?",
					"How do I avoid surprise fees in the future?",
				},
			},
		},
	}
}
