package usecase

import (
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

// ConversationHistory is a bounded FIFO of turns. Turn numbers increase
// monotonically until Clear; eviction is the only removal path.
type ConversationHistory struct {
	mu       sync.Mutex
	capacity int
	turns    []domain.ConversationTurn
	counter  int
	now      func() time.Time
}

func NewConversationHistory(capacity int) *ConversationHistory {
	if capacity <= 0 {
		capacity = DefaultConfig().HistoryCapacity
	}
	return &ConversationHistory{
		capacity: capacity,
		turns:    make([]domain.ConversationTurn, 0, capacity),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h *ConversationHistory) Append(userMessage, botAnswer string, isFallback bool) domain.ConversationTurn {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counter++
	turn := domain.ConversationTurn{
		Turn:        h.counter,
		UserMessage: userMessage,
		BotAnswer:   botAnswer,
		IsFallback:  isFallback,
		Timestamp:   h.now(),
	}
	h.turns = append(h.turns, turn)
	if len(h.turns) > h.capacity {
		drop := len(h.turns) - h.capacity
		h.turns = append(h.turns[:0:0], h.turns[drop:]...)
	}
	return turn
}

// AsContext renders the last maxTurns turns oldest first as alternating
// "User:" and "Assistant:" lines.
func (h *ConversationHistory) AsContext(maxTurns int) string {
	recent := h.Recent(maxTurns)
	if len(recent) == 0 {
		return ""
	}

	lines := make([]string, 0, 2*len(recent))
	for _, t := range recent {
		lines = append(lines, "User: "+t.UserMessage, "Assistant: "+t.BotAnswer)
	}
	return strings.Join(lines, "\n")
}

// Recent returns a copy of the last n turns in chronological order.
func (h *ConversationHistory) Recent(n int) []domain.ConversationTurn {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || len(h.turns) == 0 {
		return []domain.ConversationTurn{}
	}
	if n > len(h.turns) {
		n = len(h.turns)
	}
	out := make([]domain.ConversationTurn, n)
	copy(out, h.turns[len(h.turns)-n:])
	return out
}

// Clear drops every turn and resets the turn counter to zero.
func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = make([]domain.ConversationTurn, 0, h.capacity)
	h.counter = 0
}
