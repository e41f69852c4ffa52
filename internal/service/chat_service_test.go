package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/dreadscale/internal/testsupport"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
		err     error
	}{
		{name: "trimmed", message: "  scary!  ", want: "scary!"},
		{name: "empty", message: "   ", err: ErrMessageEmpty},
		{name: "exact limit", message: strings.Repeat("a", MaxChatMessageLength), want: strings.Repeat("a", MaxChatMessageLength)},
		{name: "too long", message: strings.Repeat("a", MaxChatMessageLength+1), err: ErrMessageTooLong},
		{name: "multibyte counted as runes", message: strings.Repeat("恐", MaxChatMessageLength), want: strings.Repeat("恐", MaxChatMessageLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateMessage(tt.message)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestChatPostListDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testsupport.MustCreateUser(t, env.repos, "author@example.com", "Author")
	other := testsupport.MustCreateUser(t, env.repos, "other@example.com", "Other")

	anon, err := env.chat.Post(ctx, 155, "", "", "Why so serious?", sampleMovie(t, 155))
	if err != nil {
		t.Fatalf("anonymous post failed: %v", err)
	}
	if anon.Username != AnonymousUsername || anon.IsRegistered {
		t.Fatalf("expected anonymous message, got %+v", anon)
	}

	time.Sleep(5 * time.Millisecond)
	mine, err := env.chat.Post(ctx, 155, author.ID, author.DisplayName(), "  The interrogation scene is intense.  ", nil)
	if err != nil {
		t.Fatalf("registered post failed: %v", err)
	}
	if mine.Message != "The interrogation scene is intense." || !mine.IsRegistered || mine.Username != "Author" {
		t.Fatalf("unexpected message %+v", mine)
	}

	if _, err := env.chat.Post(ctx, 155, author.ID, "Author", "   ", nil); !errors.Is(err, ErrMessageEmpty) {
		t.Fatalf("expected ErrMessageEmpty, got %v", err)
	}

	list := env.chat.List(155)
	if len(list) != 2 || list[0].ID != anon.ID || list[1].ID != mine.ID {
		t.Fatalf("expected [anon, mine] in order, got %+v", list)
	}
	if env.chat.Count(155) != 2 {
		t.Fatalf("expected count 2, got %d", env.chat.Count(155))
	}

	if err := env.chat.Delete(ctx, mine.ID, other.ID); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if err := env.chat.Delete(ctx, anon.ID, author.ID); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("anonymous messages cannot be deleted, got %v", err)
	}
	if err := env.chat.Delete(ctx, "missing", author.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if err := env.chat.Delete(ctx, mine.ID, author.ID); err != nil {
		t.Fatalf("author delete failed: %v", err)
	}
	if list := env.chat.List(155); len(list) != 1 || list[0].ID != anon.ID {
		t.Fatalf("expected only anon message left, got %+v", list)
	}
}
