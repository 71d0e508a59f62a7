package chat

import "encoding/json"

// Sender identifies which side of the conversation produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Turn is a single entry in a conversation transcript.
type Turn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Transcript is the append-only ordered history of the active session.
type Transcript []Turn

// Append returns the transcript with an extra turn.
func (t Transcript) Append(sender Sender, text string) Transcript {
	return append(t, Turn{Sender: sender, Text: text})
}

// Clone copies the transcript so callers cannot mutate the owner's history.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	copied := make(Transcript, len(t))
	copy(copied, t)
	return copied
}

// MarshalJSON keeps an empty transcript encoding as [] rather than null,
// which is what the feedback endpoint expects for the history field.
func (t Transcript) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Turn(t))
}
