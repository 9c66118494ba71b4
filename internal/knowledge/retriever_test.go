package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
)

type fakeSource struct {
	entriesByTenant map[int64][]Entry
	err             error
	calls           []int64
}

func (f *fakeSource) ListRecentActive(ctx context.Context, tenantID int64, limit int) ([]Entry, error) {
	f.calls = append(f.calls, tenantID)
	if f.err != nil {
		return nil, f.err
	}
	return f.entriesByTenant[tenantID], nil
}

func TestRetrieveKeywordMatch(t *testing.T) {
	source := &fakeSource{entriesByTenant: map[int64][]Entry{
		1: {
			{TenantID: 1, Question: "How do refunds work?", Answer: "Within 30 days.", Keywords: []string{"refund"}},
			{TenantID: 1, Question: "Shipping times?", Answer: "3-5 days.", Keywords: []string{"shipping", "delivery"}},
		},
	}}
	r := NewRetriever(slog.Default(), source, 50, 5)

	got := r.Retrieve(context.Background(), 1, "how do refunds work")
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if got[0].Answer != "Within 30 days." {
		t.Errorf("unexpected answer: %q", got[0].Answer)
	}
}

func TestRetrieveTenantIsolation(t *testing.T) {
	source := &fakeSource{entriesByTenant: map[int64][]Entry{
		1: {{TenantID: 1, Question: "How do refunds work?", Answer: "Within 30 days.", Keywords: []string{"refund"}}},
	}}
	r := NewRetriever(slog.Default(), source, 50, 5)

	if got := r.Retrieve(context.Background(), 2, "how do refunds work"); len(got) != 0 {
		t.Fatalf("tenant 2 must not see tenant 1 entries, got %d", len(got))
	}
	for _, tenantID := range source.calls {
		if tenantID != 2 {
			t.Errorf("lookup used tenant %d, want 2", tenantID)
		}
	}
}

func TestRetrieveDegradesOnError(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("connection refused")}
	r := NewRetriever(slog.Default(), source, 50, 5)

	if got := r.Retrieve(context.Background(), 1, "anything"); got != nil {
		t.Fatalf("expected empty result on store error, got %v", got)
	}
}

func TestMatchEntries(t *testing.T) {
	entries := []Entry{
		{Question: "Pricing?", Answer: "From $9.", Keywords: []string{"price", "cost"}},
		{Question: "Do you ship abroad", Answer: "Yes.", Keywords: []string{"international"}},
		{Question: "Support hours?", Answer: "9-5.", Keywords: []string{"support"}},
	}

	tests := []struct {
		name    string
		message string
		limit   int
		want    []string
	}{
		{"keyword substring", "what does it cost", 5, []string{"Pricing?"}},
		{"question substring dedup", "do you ship abroad and what is the price", 5, []string{"Pricing?", "Do you ship abroad"}},
		{"case insensitive", "SUPPORT please", 5, []string{"Support hours?"}},
		{"limit respected", "price international support", 2, []string{"Pricing?", "Do you ship abroad"}},
		{"no match", "unrelated text", 5, nil},
		{"empty message", "   ", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchEntries(entries, tt.message, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d matches, want %d (%v)", len(got), len(tt.want), got)
			}
			for i, qa := range got {
				if qa.Question != tt.want[i] {
					t.Errorf("match %d = %q, want %q", i, qa.Question, tt.want[i])
				}
			}
		})
	}
}

func TestMatchEntriesSkipsMalformedKeywords(t *testing.T) {
	entries := []Entry{
		{Question: "Broken entry", Answer: "still reachable", Keywords: nil},
	}
	got := matchEntries(entries, "this mentions the broken entry by name", 5)
	if len(got) != 1 || got[0].Question != "Broken entry" {
		t.Fatalf("question-substring signal should still apply, got %v", got)
	}
}
