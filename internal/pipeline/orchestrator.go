// Package pipeline orchestrates one inbound message into exactly one
// reply. Every stage is allowed to fail; the reply is not.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/omnireplyhq/omnireply/internal/edgecase"
	"github.com/omnireplyhq/omnireply/internal/fallback"
	"github.com/omnireplyhq/omnireply/internal/generation"
	"github.com/omnireplyhq/omnireply/internal/knowledge"
	"github.com/omnireplyhq/omnireply/internal/memory"
	"github.com/omnireplyhq/omnireply/internal/message"
	"github.com/omnireplyhq/omnireply/internal/prompt"
)

// SafeDefaultReply is the last-resort answer when the pipeline cannot
// even reach the fallback brain. It must never be empty.
const SafeDefaultReply = "I'm here to help! How can I assist you today?"

// generatedIntent is recorded in memory when the completion API, not
// the fallback brain, produced the reply.
const generatedIntent = "conversation"

// EdgeFilter screens messages before any retrieval work.
type EdgeFilter interface {
	Classify(userID, messageText string) *edgecase.ShortCircuit
}

// KnowledgeRetriever returns best-effort Q/A context for the message.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, tenantID int64, messageText string) []knowledge.QA
}

// RuleLoader returns the tenant's active behavior rules.
type RuleLoader interface {
	Load(ctx context.Context, tenantID int64) []string
}

// MemoryStore reads and advances per-user conversation state.
type MemoryStore interface {
	Get(ctx context.Context, tenantID int64, userID, channel string) (*memory.Memory, error)
	Touch(ctx context.Context, tenantID int64, userID, channel, intent string) error
}

// Generator produces a completion or a classified failure.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Orchestrator wires the stages together. Collaborators are interfaces
// so tests can observe and fail each stage independently.
type Orchestrator struct {
	filter    EdgeFilter
	retriever KnowledgeRetriever
	rules     RuleLoader
	memories  MemoryStore
	generator Generator
	logger    *slog.Logger
}

func NewOrchestrator(
	log *slog.Logger,
	filter EdgeFilter,
	retriever KnowledgeRetriever,
	rules RuleLoader,
	memories MemoryStore,
	generator Generator,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		filter:    filter,
		retriever: retriever,
		rules:     rules,
		memories:  memories,
		generator: generator,
		logger:    log.With(slog.String("service", "pipeline")),
	}
}

// Process turns one normalized message into one non-empty reply. The
// contract holds under every failure mode: a panic anywhere below
// yields SafeDefaultReply, never an empty string and never an error to
// the caller.
func (o *Orchestrator) Process(ctx context.Context, tenantID int64, msg message.NormalizedMessage) (reply string) {
	log := o.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.Int64("tenant_id", tenantID),
		slog.String("channel", msg.Channel),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic recovered", slog.Any("panic", r))
			reply = SafeDefaultReply
		}
		if reply == "" {
			reply = SafeDefaultReply
		}
	}()

	if msg.IsEmpty() {
		log.Info("empty message, returning safe default")
		return SafeDefaultReply
	}

	// Screening happens before retrieval, generation or memory writes:
	// a short-circuited message must cost nothing downstream.
	if sc := o.filter.Classify(msg.UserID, msg.Text); sc != nil {
		log.Info("message short-circuited", slog.String("reason", string(sc.Reason)))
		return sc.Reply
	}

	mem, err := o.memories.Get(ctx, tenantID, msg.UserID, msg.Channel)
	if err != nil {
		log.Warn("memory read degraded", slog.Any("error", err))
		mem = nil
	}

	entries := o.retriever.Retrieve(ctx, tenantID, msg.Text)
	ruleList := o.rules.Load(ctx, tenantID)
	systemPrompt := prompt.Compose(ruleList, entries, mem)

	generated, err := o.generator.Generate(ctx, systemPrompt, msg.Text)
	if err != nil {
		kind := generation.Classify(err)
		if kind == generation.FailureDisabled {
			log.Info("generation disabled, using fallback")
		} else {
			log.Warn("generation failed, using fallback",
				slog.String("kind", string(kind)),
				slog.Any("error", err),
			)
		}
		fbReply, intent := fallback.Respond(msg.Text)
		o.touch(ctx, log, tenantID, msg, string(intent))
		return fbReply
	}

	o.touch(ctx, log, tenantID, msg, generatedIntent)
	return generated
}

// touch advances conversation memory. A write failure loses context for
// the next turn but never the current reply.
func (o *Orchestrator) touch(ctx context.Context, log *slog.Logger, tenantID int64, msg message.NormalizedMessage, intent string) {
	if err := o.memories.Touch(ctx, tenantID, msg.UserID, msg.Channel, intent); err != nil {
		log.Warn("memory write failed", slog.Any("error", err))
	}
}
