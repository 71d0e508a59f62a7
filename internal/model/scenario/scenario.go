package scenario

import (
	"encoding/json"
	"fmt"
)

// Actor describes the simulated customer the trainee talks to.
type Actor struct {
	CustomerName  string   `json:"customerName"`
	Backstory     string   `json:"backstory"`
	Tone          string   `json:"tone"`
	GoalQuestions []string `json:"goalQuestions"`
}

// InitialFacts carries the briefing shown before a chat starts. The catalog
// stores it either as a plain string or as a {heading, content} object, so
// decoding accepts both shapes.
type InitialFacts struct {
	Heading string `json:"heading,omitempty"`
	Content string `json:"content"`
}

func (f *InitialFacts) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = InitialFacts{Content: s}
		return nil
	}

	type plain InitialFacts
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("initialFacts must be a string or an object: %w", err)
	}
	*f = InitialFacts(obj)
	return nil
}

func (f InitialFacts) MarshalJSON() ([]byte, error) {
	if f.Heading == "" {
		return json.Marshal(f.Content)
	}
	type plain InitialFacts
	return json.Marshal(plain(f))
}

// Scenario is a named training case. Immutable once loaded into the store.
type Scenario struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	InitialFacts InitialFacts `json:"initialFacts"`
	Actor        Actor        `json:"chatActor"`
}

// UnmarshalJSON accepts both the nested chatActor shape and the legacy flat
// shape where customerName/backstory/tone/goalQuestions sit at the top level.
func (s *Scenario) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID           string       `json:"id"`
		Title        string       `json:"title"`
		InitialFacts InitialFacts `json:"initialFacts"`
		Actor        *Actor       `json:"chatActor"`

		CustomerName  string   `json:"customerName"`
		Backstory     string   `json:"backstory"`
		Tone          string   `json:"tone"`
		GoalQuestions []string `json:"goalQuestions"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.ID = aux.ID
	s.Title = aux.Title
	s.InitialFacts = aux.InitialFacts
	if aux.Actor != nil {
		s.Actor = *aux.Actor
	} else {
		s.Actor = Actor{
			CustomerName:  aux.CustomerName,
			Backstory:     aux.Backstory,
			Tone:          aux.Tone,
			GoalQuestions: aux.GoalQuestions,
		}
	}
	return nil
}

// Clone deep-copies the scenario so store reads never leak shared slices.
func (s Scenario) Clone() Scenario {
	copied := s
	copied.Actor.GoalQuestions = append([]string(nil), s.Actor.GoalQuestions...)
	return copied
}

// Validate reports whether the scenario carries everything a chat needs.
func (s Scenario) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("scenario id is required")
	case s.Title == "":
		return fmt.Errorf("scenario title is required")
	case s.Actor.CustomerName == "":
		return fmt.Errorf("customerName is required")
	case len(s.Actor.GoalQuestions) == 0:
		return fmt.Errorf("at least one goal question is required")
	}
	return nil
}
