// Package tone scores how a support representative comes across in writing.
// Deterministic keyword scoring; no model calls.
package tone

import "strings"

// Label classifies the representative's overall register.
type Label string

const (
	Neutral    Label = "neutral"
	Courteous  Label = "courteous"
	Empathetic Label = "empathetic"
	Abrupt     Label = "abrupt"
	Dismissive Label = "dismissive"
)

// Decision carries the dominant label and the raw scores behind it.
type Decision struct {
	Tone   Label
	Score  int
	Scores map[Label]int
}

var keywordBuckets = map[Label][]string{
	Courteous: {
		"please", "thank you", "thanks", "you're welcome", "happy to help",
		"glad to help", "of course", "certainly", "my pleasure", "welcome",
		"good morning", "good afternoon", "appreciate",
	},
	Empathetic: {
		"i understand", "i'm sorry", "i am sorry", "sorry to hear",
		"that must be", "i can imagine", "i hear you", "frustrating",
		"apologize", "we'll sort this out", "don't worry", "no rush",
		"take your time", "i know how",
	},
	Abrupt: {
		"no.", "can't", "cannot help", "not my problem", "impossible",
		"just read", "obviously", "as i said", "like i said", "already told",
		"hurry", "whatever",
	},
	Dismissive: {
		"calm down", "relax", "not a big deal", "you should have",
		"that's on you", "figure it out", "google it", "read the manual",
		"anything else", "are we done",
	},
}

// positive labels win ties so a mixed message is judged charitably.
var tieOrder = []Label{Courteous, Empathetic, Abrupt, Dismissive}

// Analyze scores a single message.
func Analyze(text string) Decision {
	scores := make(map[Label]int, len(keywordBuckets))
	score(text, scores)
	return decide(scores)
}

// AnalyzeAll scores a whole conversation's worth of representative messages.
func AnalyzeAll(messages []string) Decision {
	scores := make(map[Label]int, len(keywordBuckets))
	for _, msg := range messages {
		score(msg, scores)
	}
	return decide(scores)
}

func score(text string, scores map[Label]int) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return
	}

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	// Shouting reads as abrupt regardless of vocabulary.
	if strings.Count(text, "!") >= 2 {
		scores[Abrupt] += 2
	}
}

func decide(scores map[Label]int) Decision {
	best := Neutral
	bestScore := 0
	for _, label := range tieOrder {
		if s := scores[label]; s > bestScore {
			bestScore = s
			best = label
		}
	}
	return Decision{Tone: best, Score: bestScore, Scores: scores}
}
