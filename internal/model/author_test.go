package model_test

import (
	"testing"

	"github.com/chikage/tgsearchbot/internal/model"
)

func TestAuthorDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		author   model.Author
		expected string
	}{
		{
			name:     "channel author uses the channel title",
			author:   model.ChatAuthor("News Channel"),
			expected: "News Channel",
		},
		{
			name:     "user author combines name and chat title",
			author:   model.UserAuthor("Alice", "Gophers"),
			expected: "Alice@Gophers",
		},
		{
			name:     "deleted account keeps the raw sender id",
			author:   model.DeletedAuthor("user123456", "Gophers"),
			expected: "已销号user123456@Gophers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.author.Display(); got != tt.expected {
				t.Errorf("Display() = %q, want %q", got, tt.expected)
			}
		})
	}
}
