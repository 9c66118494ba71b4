// Package edgecase screens inbound messages for abuse and unanswerable
// requests before any retrieval or generation work is spent on them.
package edgecase

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"
)

// Reason identifies which detector short-circuited the message.
type Reason string

const (
	ReasonSpam             Reason = "spam"
	ReasonTooLong          Reason = "too_long"
	ReasonSymbolOnly       Reason = "symbol_only"
	ReasonUnsupportedFile  Reason = "unsupported_file"
	ReasonUnsupportedVideo Reason = "unsupported_video"
)

// ShortCircuit is a canned, zero-cost exit. When returned, the
// pipeline must skip retrieval, generation and memory mutation.
type ShortCircuit struct {
	Reason Reason
	Reply  string
}

const (
	spamReply       = "I notice you're sending messages very quickly. Please slow down so I can help you better! 😊"
	tooLongReply    = "Your message is quite long! Could you break it down into smaller questions? I'm here to help! 😊"
	symbolOnlyReply = "I see you sent emojis! 😊 While I love emojis, I work best with text. How can I help you today?"
	fileReply       = "I can't receive files right now, but I can answer questions! What would you like to know?"
	videoCallReply  = "I'm a text-based assistant, so I can't do video calls. But I'm here to help! What can I assist you with?"
)

var fileKeywords = []string{
	"send you a file", "send a file", "upload a file", "attach", "attachment", "here is a file", "sending a document",
}

var videoCallKeywords = []string{
	"video call", "videocall", "video chat", "voice call", "can we call", "call me",
}

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Filter classifies messages into short-circuit categories. The spam
// window is tracked per user id, never globally.
type Filter struct {
	mu        sync.Mutex
	limiters  map[string]*userLimiter
	spamRate  rate.Limit
	spamBurst int
	maxLength int
	logger    *slog.Logger
}

// NewFilter builds a filter allowing messagesPerMinute sustained
// throughput with the given burst, and rejecting messages longer than
// maxLength runes.
func NewFilter(log *slog.Logger, messagesPerMinute, burst, maxLength int) *Filter {
	if log == nil {
		log = slog.Default()
	}
	if messagesPerMinute <= 0 {
		messagesPerMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	if maxLength <= 0 {
		maxLength = 4096
	}
	return &Filter{
		limiters:  make(map[string]*userLimiter),
		spamRate:  rate.Limit(float64(messagesPerMinute) / 60.0),
		spamBurst: burst,
		maxLength: maxLength,
		logger:    log.With(slog.String("service", "edgecase")),
	}
}

// Classify returns a short circuit when any detector triggers, nil
// otherwise. A detector failing internally counts as not triggered:
// screening must never abort the pipeline.
func (f *Filter) Classify(userID, messageText string) *ShortCircuit {
	if f.detect(func() bool { return f.isSpam(userID) }) {
		return &ShortCircuit{Reason: ReasonSpam, Reply: spamReply}
	}
	if f.detect(func() bool { return len([]rune(messageText)) > f.maxLength }) {
		return &ShortCircuit{Reason: ReasonTooLong, Reply: tooLongReply}
	}
	if f.detect(func() bool { return isSymbolOnly(messageText) }) {
		return &ShortCircuit{Reason: ReasonSymbolOnly, Reply: symbolOnlyReply}
	}
	lower := strings.ToLower(messageText)
	if f.detect(func() bool { return containsAny(lower, fileKeywords) }) {
		return &ShortCircuit{Reason: ReasonUnsupportedFile, Reply: fileReply}
	}
	if f.detect(func() bool { return containsAny(lower, videoCallKeywords) }) {
		return &ShortCircuit{Reason: ReasonUnsupportedVideo, Reply: videoCallReply}
	}
	return nil
}

func (f *Filter) detect(check func() bool) (triggered bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("edge case detector failed", slog.Any("panic", r))
			triggered = false
		}
	}()
	return check()
}

// isSpam consumes one token from the user's limiter; an empty bucket
// means the user is over the rolling rate window.
func (f *Filter) isSpam(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	ul, ok := f.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(f.spamRate, f.spamBurst)}
		f.limiters[userID] = ul
		f.evictIdleLocked(now)
	}
	ul.lastSeen = now
	return !ul.limiter.Allow()
}

// evictIdleLocked drops limiters for users not seen recently so the
// map does not grow without bound. Caller holds f.mu.
func (f *Filter) evictIdleLocked(now time.Time) {
	for id, ul := range f.limiters {
		if now.Sub(ul.lastSeen) > limiterIdleTTL {
			delete(f.limiters, id)
		}
	}
}

// isSymbolOnly reports whether the message has content but no
// alphanumeric characters at all, e.g. a string of emoji.
func isSymbolOnly(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
