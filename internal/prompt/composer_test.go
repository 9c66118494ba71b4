package prompt

import (
	"strings"
	"testing"

	"github.com/omnireplyhq/omnireply/internal/knowledge"
	"github.com/omnireplyhq/omnireply/internal/memory"
)

func TestComposeGuidelinesOnly(t *testing.T) {
	got := Compose(nil, nil, nil)

	if !strings.Contains(got, "IMPORTANT GUIDELINES:") {
		t.Error("guideline block missing")
	}
	for _, header := range []string{"BUSINESS-SPECIFIC RULES:", "KNOWLEDGE BASE", "CONVERSATION CONTEXT:"} {
		if strings.Contains(got, header) {
			t.Errorf("empty section %q must be omitted", header)
		}
	}
}

func TestComposeAllSections(t *testing.T) {
	rules := []string{"Always mention the return policy.", "Never promise same-day delivery."}
	entries := []knowledge.QA{{Question: "How do refunds work?", Answer: "Within 30 days."}}
	mem := &memory.Memory{MessageCount: 3, LastIntent: "pricing"}

	got := Compose(rules, entries, mem)

	checks := []string{
		"BUSINESS-SPECIFIC RULES:",
		"1. Always mention the return policy.",
		"2. Never promise same-day delivery.",
		"KNOWLEDGE BASE (Use this to answer questions):",
		"Q: How do refunds work?",
		"A: Within 30 days.",
		"CONVERSATION CONTEXT:",
		"- This is message #3 from this user",
		"- Previous topic: pricing",
	}
	for _, want := range checks {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Section order is fixed.
	rulesIdx := strings.Index(got, "BUSINESS-SPECIFIC RULES:")
	kbIdx := strings.Index(got, "KNOWLEDGE BASE")
	ctxIdx := strings.Index(got, "CONVERSATION CONTEXT:")
	if !(rulesIdx < kbIdx && kbIdx < ctxIdx) {
		t.Errorf("sections out of order: rules=%d kb=%d ctx=%d", rulesIdx, kbIdx, ctxIdx)
	}
}

func TestComposeFirstMessageHasNoContext(t *testing.T) {
	mem := &memory.Memory{MessageCount: 1, LastIntent: "greeting"}
	if strings.Contains(Compose(nil, nil, mem), "CONVERSATION CONTEXT:") {
		t.Error("context block must require message_count > 1")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	rules := []string{"Rule one."}
	entries := []knowledge.QA{{Question: "Q1", Answer: "A1"}}
	mem := &memory.Memory{MessageCount: 5, LastIntent: "help"}

	first := Compose(rules, entries, mem)
	for i := 0; i < 10; i++ {
		if Compose(rules, entries, mem) != first {
			t.Fatal("Compose must be deterministic for identical inputs")
		}
	}
}
