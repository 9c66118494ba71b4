// Package prompt assembles the system prompt for generation. The
// composer is pure: identical inputs always yield an identical prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/omnireplyhq/omnireply/internal/knowledge"
	"github.com/omnireplyhq/omnireply/internal/memory"
)

var guidelines = []string{
	"You are a helpful, professional AI assistant for a business communication platform.",
	"Your role is to assist customers with their questions, provide information, and help them achieve their goals.",
	"",
	"IMPORTANT GUIDELINES:",
	"- Be friendly, professional, and concise",
	"- Answer based on the knowledge provided below",
	"- If you don't know something, admit it and offer to connect them with support",
	"- Never make up information",
	"- Keep responses under 300 words",
	"- Use emojis sparingly (max 2 per message)",
	"",
}

// Compose builds the system prompt: fixed guidelines, then numbered
// business rules, then the knowledge base Q/A block, then conversation
// context. Sections with no content are omitted entirely, never
// rendered as empty headers.
func Compose(rules []string, entries []knowledge.QA, mem *memory.Memory) string {
	parts := make([]string, 0, len(guidelines)+len(rules)+3*len(entries)+6)
	parts = append(parts, guidelines...)

	if len(rules) > 0 {
		parts = append(parts, "BUSINESS-SPECIFIC RULES:")
		for i, rule := range rules {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, rule))
		}
		parts = append(parts, "")
	}

	if len(entries) > 0 {
		parts = append(parts, "KNOWLEDGE BASE (Use this to answer questions):")
		for _, qa := range entries {
			parts = append(parts, "Q: "+qa.Question)
			parts = append(parts, "A: "+qa.Answer)
			parts = append(parts, "")
		}
	}

	if mem != nil && mem.MessageCount > 1 {
		parts = append(parts, "CONVERSATION CONTEXT:")
		parts = append(parts, fmt.Sprintf("- This is message #%d from this user", mem.MessageCount))
		if mem.LastIntent != "" {
			parts = append(parts, "- Previous topic: "+mem.LastIntent)
		}
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n")
}
