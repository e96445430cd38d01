package mailer

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func mustAddr(t *testing.T, s string) *mail.Address {
	t.Helper()
	a, err := mail.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return a
}

func TestCompose_PlainText(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", From: "noreply@example.com", FromName: "Standup"}, zap.NewNop())
	to := mustAddr(t, "amy@example.com")

	msg, err := m.compose(Email{To: "amy@example.com", Subject: "Hi", TextBody: "line one\nline two"}, to)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	s := string(msg)
	for _, want := range []string{
		"From: \"Standup\" <noreply@example.com>\r\n",
		"To: <amy@example.com>\r\n",
		"Subject: Hi\r\n",
		"Content-Type: text/plain; charset=\"utf-8\"\r\n",
		"line one\r\nline two",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "multipart") {
		t.Error("plain message should not be multipart")
	}
}

func TestCompose_MultipartAndOverrides(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", User: "bot@example.com", FromName: "Standup"}, zap.NewNop())
	to := mustAddr(t, "amy@example.com")

	msg, err := m.compose(Email{
		To:       "amy@example.com",
		Subject:  "Événement mis à jour",
		TextBody: "text",
		HTMLBody: "<p>html</p>",
		ReplyTo:  "olga@example.com",
		FromName: "Olga Host",
	}, to)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	s := string(msg)
	if !strings.Contains(s, "From: \"Olga Host\" <bot@example.com>") {
		t.Errorf("FromName override / User fallback not applied:\n%s", s)
	}
	if !strings.Contains(s, "Reply-To: olga@example.com") {
		t.Error("missing Reply-To header")
	}
	if !strings.Contains(s, "Subject: =?utf-8?q?") {
		t.Error("non-ASCII subject should be Q-encoded")
	}
	if !strings.Contains(s, "multipart/alternative") || !strings.Contains(s, "text/html") {
		t.Error("expected multipart/alternative with an HTML part")
	}
}

func TestSend_RejectsMissingRecipient(t *testing.T) {
	m := New(Config{Host: "localhost"}, zap.NewNop())
	if err := m.Send(Email{Subject: "x", TextBody: "y"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("got %v, want ErrNoRecipient", err)
	}
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []Email
	fail  bool
	block chan struct{}
}

func (f *fakeSender) Send(e Email) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, e)
	return nil
}

type countingObserver struct {
	mu   sync.Mutex
	seen map[string]int
}

func (o *countingObserver) Email(kind, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = map[string]int{}
	}
	o.seen[kind+"/"+outcome]++
}

func (o *countingObserver) get(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen[key]
}

func TestAsync_DeliversAndDrains(t *testing.T) {
	s := &fakeSender{}
	obs := &countingObserver{}
	a := NewAsync(s, zap.NewNop(), obs, 2, 10)

	for i := 0; i < 5; i++ {
		if !a.Enqueue(KindNewEvent, Email{To: "c@example.com"}) {
			t.Fatalf("Enqueue %d rejected", i)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if len(s.sent) != 5 {
		t.Errorf("sent: got %d, want 5", len(s.sent))
	}
	if got := obs.get(KindNewEvent + "/" + OutcomeSent); got != 5 {
		t.Errorf("sent outcomes: got %d, want 5", got)
	}
	if a.Enqueue(KindNewEvent, Email{To: "late@example.com"}) {
		t.Error("Enqueue after Shutdown should be rejected")
	}
}

func TestAsync_DropsWhenFull(t *testing.T) {
	s := &fakeSender{block: make(chan struct{})}
	obs := &countingObserver{}
	a := NewAsync(s, zap.NewNop(), obs, 1, 1)

	accepted := 0
	for i := 0; i < 4; i++ {
		if a.Enqueue(KindReminder, Email{To: "c@example.com"}) {
			accepted++
		}
	}
	close(s.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Shutdown(ctx)

	// One in flight plus one queued at most.
	if accepted > 2 || accepted < 1 {
		t.Errorf("accepted: got %d, want 1 or 2", accepted)
	}
	if dropped := obs.get(KindReminder + "/" + OutcomeDropped); dropped != 4-accepted {
		t.Errorf("dropped: got %d, want %d", dropped, 4-accepted)
	}
}

func TestAsync_FailuresAreCounted(t *testing.T) {
	obs := &countingObserver{}
	a := NewAsync(&fakeSender{fail: true}, zap.NewNop(), obs, 1, 4)

	a.Enqueue(KindStatus, Email{To: "c@example.com"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Shutdown(ctx)

	if got := obs.get(KindStatus + "/" + OutcomeFailed); got != 1 {
		t.Errorf("failed outcomes: got %d, want 1", got)
	}
	if err := a.Send(KindAdmin, Email{To: "c@example.com"}); err == nil {
		t.Error("synchronous Send should return the sender error")
	}
}

func TestAsync_NilIsSafe(t *testing.T) {
	var a *Async
	if a.Enqueue(KindNewEvent, Email{}) {
		t.Error("nil Async accepted a message")
	}
}
