// Package urgency scores a symptom description for the development backend,
// deciding whether a reply should be flagged URGENT with an escalation
// request.
package urgency

import (
	"strings"

	"github.com/pethealthai/advisor/internal/model/chat"
)

// Decision is the classification for one described situation.
type Decision struct {
	Urgency  chat.Urgency
	Escalate bool
	Score    int
}

// Keyword buckets by severity weight. Matching is substring-based on the
// lowercased input, so "bleeding heavily" also collects the "bleeding"
// score.
var criticalKeywords = []string{
	"seizure", "convulsing", "not breathing", "can't breathe", "cannot breathe",
	"struggling to breathe", "choking", "unconscious", "collapsed", "collapse",
	"poison", "antifreeze", "xylitol", "bloat", "hit by a car", "hit by car",
	"snake bite", "snakebite", "bleeding heavily", "pale gums", "heatstroke",
	"heat stroke",
}

var seriousKeywords = []string{
	"bleeding", "swallowed", "ingested", "vomiting blood", "blood in stool",
	"can't walk", "cannot walk", "won't wake", "crying in pain", "swollen belly",
	"chocolate",
}

var watchKeywords = []string{
	"vomiting", "diarrhea", "limping", "not eating", "won't eat", "lethargic",
	"itching", "scratching", "coughing", "sneezing", "shaking", "whining",
	"fever", "rash",
}

// escalateThreshold is the score at which a situation is classified URGENT.
const escalateThreshold = 3

// Classify scores the user's description. URGENT decisions always carry the
// escalation flag; the client still requires both signals before
// transferring control.
func Classify(text string) Decision {
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			score += 3
		}
	}
	for _, kw := range seriousKeywords {
		if strings.Contains(lower, kw) {
			score += 2
		}
	}
	for _, kw := range watchKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	// Repeated exclamation marks read as panic.
	if strings.Count(text, "!") >= 2 {
		score++
	}

	if score >= escalateThreshold {
		return Decision{Urgency: chat.UrgencyUrgent, Escalate: true, Score: score}
	}
	return Decision{Urgency: chat.UrgencyNormal, Escalate: false, Score: score}
}
