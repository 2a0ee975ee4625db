package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports/mocks"
)

func TestRunAnswersUntilExitWord(t *testing.T) {
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockChatService(ctrl)
	chat.EXPECT().Chat(gomock.Any(), "What is the fee?").Return(domain.ChatReply{
		Answer:    "The fee is $100 [Section: Pricing].",
		Citations: []string{"Pricing"},
		Success:   true,
		Turn:      1,
	})

	var out bytes.Buffer
	in := strings.NewReader("What is the fee?\n\nBYE\nnever asked\n")
	if err := run(context.Background(), chat, in, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Assistant: The fee is $100") || !strings.Contains(text, "Sources: Pricing") {
		t.Fatalf("unexpected transcript %q", text)
	}
	if !strings.Contains(text, "Goodbye!") {
		t.Fatalf("expected farewell, got %q", text)
	}
}

func TestRunHandlesCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockChatService(ctrl)
	gomock.InOrder(
		chat.EXPECT().History(historyLines).Return([]domain.ConversationTurn{{Turn: 1, UserMessage: "hi there", BotAnswer: "hello"}}),
		chat.EXPECT().Clear(),
		chat.EXPECT().History(historyLines).Return(nil),
	)

	var out bytes.Buffer
	if err := run(context.Background(), chat, strings.NewReader("/history\n/clear\n/history\n"), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"[1] You: hi there", "History cleared.", "No turns yet."} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestIsExitWord(t *testing.T) {
	for _, word := range []string{"exit", "Quit", " bye ", "q"} {
		if !isExitWord(word) {
			t.Fatalf("expected %q to exit", word)
		}
	}
	if isExitWord("question") {
		t.Fatalf("question is not an exit word")
	}
}
