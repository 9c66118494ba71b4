package fallback

import "testing"

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"greeting", "hi there", IntentGreeting},
		{"greeting phrase", "good morning!", IntentGreeting},
		{"help", "I have a problem with my order", IntentHelp},
		{"pricing", "how much does the premium plan cost", IntentPricing},
		{"handoff", "I want to speak to someone", IntentHumanHandoff},
		{"handoff beats pricing", "can a real person explain the price", IntentHumanHandoff},
		{"unknown", "the weather is nice", IntentUnknown},
		{"empty", "   ", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectIntent(tt.text); got != tt.want {
				t.Errorf("DetectIntent(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestRespondNeverEmpty(t *testing.T) {
	inputs := []string{"hi", "help", "pricing?", "human please", "zzz", ""}
	for _, in := range inputs {
		reply, intent := Respond(in)
		if reply == "" {
			t.Errorf("Respond(%q) returned empty reply", in)
		}
		if intent == "" {
			t.Errorf("Respond(%q) returned empty intent", in)
		}
	}
}

func TestRespondIsDeterministic(t *testing.T) {
	first, intentFirst := Respond("hello there")
	second, intentSecond := Respond("hello there")
	if first != second || intentFirst != intentSecond {
		t.Errorf("Respond is not deterministic: (%q,%s) vs (%q,%s)", first, intentFirst, second, intentSecond)
	}
	if intentFirst != IntentGreeting {
		t.Errorf("expected greeting intent, got %s", intentFirst)
	}
}
