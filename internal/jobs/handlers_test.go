package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/contacts/internal/notifications"
)

type recordingNotifier struct {
	sent []notifications.Message
	err  error
}

func (r *recordingNotifier) Send(ctx context.Context, msg notifications.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestSendVerificationEmailHandler(t *testing.T) {
	n := &recordingNotifier{}
	h := SendVerificationEmailHandler(n, "https://contacts.example")

	j, err := New(JobSendVerificationEmail, SendVerificationEmailPayload{Email: "a@x.com", VerificationToken: "tok1"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := h(context.Background(), j); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if len(n.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(n.sent))
	}
	if n.sent[0].To != "a@x.com" || n.sent[0].Subject != notifications.VerificationSubject {
		t.Fatalf("unexpected message %+v", n.sent[0])
	}
}

func TestSendVerificationEmailHandler_ProviderError(t *testing.T) {
	down := errors.New("down")
	h := SendVerificationEmailHandler(&recordingNotifier{err: down}, "http://x")

	j, _ := New(JobSendVerificationEmail, SendVerificationEmailPayload{Email: "a@x.com", VerificationToken: "tok1"})

	err := h(context.Background(), j)
	if !errors.Is(err, down) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if errors.Is(err, ErrPermanent) {
		t.Fatalf("provider outages should be retried")
	}
}

func TestSendVerificationEmailHandler_RejectedIsPermanent(t *testing.T) {
	rejected := fmt.Errorf("%w: status 400", notifications.ErrRejected)
	h := SendVerificationEmailHandler(&recordingNotifier{err: rejected}, "http://x")

	j, _ := New(JobSendVerificationEmail, SendVerificationEmailPayload{Email: "a@x.com", VerificationToken: "tok1"})

	if err := h(context.Background(), j); !errors.Is(err, ErrPermanent) {
		t.Fatalf("expected permanent failure, got %v", err)
	}
}

func TestResizeAvatarHandler_MissingFile(t *testing.T) {
	h := ResizeAvatarHandler(50, slog.New(slog.NewTextHandler(io.Discard, nil)))

	j, _ := New(JobResizeAvatar, ResizeAvatarPayload{UserID: "u1", Path: "/does/not/exist.png"})

	if err := h(context.Background(), j); !errors.Is(err, ErrPermanent) {
		t.Fatalf("expected permanent failure for missing file, got %v", err)
	}
}

func TestHandlers_CoverEveryJobType(t *testing.T) {
	hs := Handlers(&recordingNotifier{}, "http://x", 50, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, jt := range []JobType{JobSendVerificationEmail, JobResizeAvatar} {
		if hs[jt] == nil {
			t.Fatalf("no handler for %s", jt)
		}
	}
}
