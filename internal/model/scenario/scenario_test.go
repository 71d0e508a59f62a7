package scenario

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalNestedActor(t *testing.T) {
	raw := `{
		"id": "s1",
		"title": "Case One",
		"initialFacts": {"heading": "Facts", "content": "Some background."},
		"chatActor": {
			"customerName": "Dana",
			"backstory": "Long-time customer.",
			"tone": "neutral",
			"goalQuestions": ["Why was I charged?"]
		}
	}`

	var s Scenario
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if s.Actor.CustomerName != "Dana" {
		t.Fatalf("unexpected customer name: %q", s.Actor.CustomerName)
	}
	if s.InitialFacts.Heading != "Facts" || s.InitialFacts.Content != "Some background." {
		t.Fatalf("unexpected initial facts: %+v", s.InitialFacts)
	}
}

func TestUnmarshalLegacyFlatShape(t *testing.T) {
	raw := `{
		"id": "s2",
		"title": "Case Two",
		"initialFacts": "Plain string facts.",
		"customerName": "Omar",
		"backstory": "First contact.",
		"tone": "polite",
		"goalQuestions": ["How do I reset my password?"]
	}`

	var s Scenario
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if s.Actor.CustomerName != "Omar" {
		t.Fatalf("flat actor fields not picked up: %+v", s.Actor)
	}
	if s.InitialFacts.Content != "Plain string facts." || s.InitialFacts.Heading != "" {
		t.Fatalf("string initialFacts mishandled: %+v", s.InitialFacts)
	}
}

func TestInitialFactsMarshalRoundTrip(t *testing.T) {
	plain := InitialFacts{Content: "just text"}
	data, err := json.Marshal(plain)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if string(data) != `"just text"` {
		t.Fatalf("heading-less facts should marshal as a string, got %s", data)
	}

	withHeading := InitialFacts{Heading: "H", Content: "body"}
	data, err = json.Marshal(withHeading)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	var back InitialFacts
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if back != withHeading {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestStoreIsolationFromCallers(t *testing.T) {
	store := NewMemoryStore(Seed())

	first := store.List()[0]
	first.Actor.GoalQuestions[0] = "mutated"
	first.Title = "mutated"

	again, ok := store.FindByID(first.ID)
	if !ok {
		t.Fatalf("seed scenario disappeared")
	}
	if again.Title == "mutated" || again.Actor.GoalQuestions[0] == "mutated" {
		t.Fatal("store returned shared state; reads must be copies")
	}
}

func TestStoreAddRejectsDuplicate(t *testing.T) {
	store := NewMemoryStore(nil)
	sc := Seed()[0]

	if err := store.Add(sc); err != nil {
		t.Fatalf("first add err: %v", err)
	}
	if err := store.Add(sc); err != ErrDuplicateID {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	sc := Seed()[0]
	if err := sc.Validate(); err != nil {
		t.Fatalf("seed scenario should validate: %v", err)
	}

	sc.Actor.GoalQuestions = nil
	if err := sc.Validate(); err == nil {
		t.Fatal("expected validation error for missing goal questions")
	}
}
