// Package fallback is the deterministic rule-based brain used whenever
// generation is unavailable. It is pure: no I/O, no state, no clocks.
package fallback

import "strings"

// Intent is the closed set of topics the fallback brain understands.
type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentHelp         Intent = "help"
	IntentPricing      Intent = "pricing"
	IntentHumanHandoff Intent = "human_handoff"
	IntentUnknown      Intent = "unknown"
)

// detector couples an intent with its trigger keywords and canned
// reply. Detection order is fixed: the first matching detector wins.
type detector struct {
	intent   Intent
	keywords []string
	reply    string
}

var detectors = []detector{
	{
		intent:   IntentHumanHandoff,
		keywords: []string{"human", "agent", "real person", "representative", "speak to someone", "talk to a person"},
		reply:    "Of course! I'll connect you with a member of our team. Someone will get back to you shortly. 😊",
	},
	{
		intent:   IntentPricing,
		keywords: []string{"price", "pricing", "cost", "how much", "fee", "subscription", "plan"},
		reply:    "Great question! Our pricing depends on what you need. Could you tell me a bit more about what you're looking for, or type 'human' to speak with our team?",
	},
	{
		intent:   IntentHelp,
		keywords: []string{"help", "support", "how do i", "how to", "problem", "issue", "not working"},
		reply:    "I'm happy to help! Could you describe what you need assistance with? The more detail you share, the better I can point you in the right direction.",
	},
	{
		intent:   IntentGreeting,
		keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "greetings"},
		reply:    "Hello! 👋 Welcome! How can I assist you today?",
	},
}

const unknownReply = "I'm here to help! Could you tell me a bit more about what you're looking for?"

// Respond detects the message's intent and returns the matching canned
// reply. An unmatched message yields IntentUnknown and a generic offer
// to help.
func Respond(messageText string) (string, Intent) {
	intent := DetectIntent(messageText)
	for _, d := range detectors {
		if d.intent == intent {
			return d.reply, intent
		}
	}
	return unknownReply, IntentUnknown
}

// DetectIntent returns the first intent whose keyword list matches the
// lower-cased message, in fixed priority order.
func DetectIntent(messageText string) Intent {
	text := strings.ToLower(strings.TrimSpace(messageText))
	if text == "" {
		return IntentUnknown
	}
	for _, d := range detectors {
		for _, kw := range d.keywords {
			if strings.Contains(text, kw) {
				return d.intent
			}
		}
	}
	return IntentUnknown
}
