package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (f *fakeEmail) Send(ctx context.Context, msg EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestNotifyPersistsAndEmails(t *testing.T) {
	store := NewInMemoryStore()
	email := &fakeEmail{}
	svc := NewService(store, email, nil)

	account := uuid.New()
	svc.Notify(context.Background(), account, KindSuccess, Payload{
		Title:   "Turno Aprobado",
		Message: "Inspección confirmada para el 2026-09-09.",
		Link:    "/portal/",
		Email:   "rosa@example.ec",
		Name:    "Rosa",
	})

	unread, err := svc.ListUnread(context.Background(), account, 10)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(unread))
	}
	if unread[0].Kind != KindSuccess || unread[0].Title != "Turno Aprobado" {
		t.Fatalf("unexpected notification: %+v", unread[0])
	}

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	msg := email.sent[0]
	if msg.To != "rosa@example.ec" {
		t.Fatalf("wrong recipient %q", msg.To)
	}
	if !strings.HasPrefix(msg.Subject, "[CBT] ") {
		t.Fatalf("subject missing prefix: %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "Rosa") {
		t.Fatal("HTML body missing recipient name")
	}
}

func TestNotifyWithoutEmailAddressSkipsDelivery(t *testing.T) {
	store := NewInMemoryStore()
	email := &fakeEmail{}
	svc := NewService(store, email, nil)

	account := uuid.New()
	svc.Notify(context.Background(), account, KindInfo, Payload{Title: "Aviso", Message: "Mensaje."})

	if len(email.sent) != 0 {
		t.Fatal("no recipient address, no email")
	}
	unread, _ := svc.ListUnread(context.Background(), account, 10)
	if len(unread) != 1 {
		t.Fatal("portal notification must still be persisted")
	}
}

func TestNotifyEmailFailureIsSwallowed(t *testing.T) {
	store := NewInMemoryStore()
	email := &fakeEmail{err: errors.New("smtp down")}
	svc := NewService(store, email, nil)

	account := uuid.New()
	// Must not panic or surface the error.
	svc.Notify(context.Background(), account, KindWarning, Payload{
		Title: "Turno Cancelado", Message: "Mensaje.", Email: "rosa@example.ec",
	})

	unread, _ := svc.ListUnread(context.Background(), account, 10)
	if len(unread) != 1 {
		t.Fatal("notification must persist despite email failure")
	}
}

func TestMarkReadScopedToAccount(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, nil, nil)

	account := uuid.New()
	svc.Notify(context.Background(), account, KindInfo, Payload{Title: "Aviso", Message: "Mensaje."})
	unread, _ := svc.ListUnread(context.Background(), account, 10)
	if len(unread) != 1 {
		t.Fatal("seed failed")
	}

	if err := svc.MarkRead(context.Background(), unread[0].ID, uuid.New()); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("foreign account must not mark read, got %v", err)
	}
	if err := svc.MarkRead(context.Background(), unread[0].ID, account); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	after, _ := svc.ListUnread(context.Background(), account, 10)
	if len(after) != 0 {
		t.Fatal("read notification still listed as unread")
	}
}

func TestListUnreadNewestFirstWithLimit(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, nil, nil)
	account := uuid.New()

	for i := 0; i < 8; i++ {
		svc.Notify(context.Background(), account, KindInfo, Payload{Title: "Aviso", Message: "Mensaje."})
	}
	unread, err := svc.ListUnread(context.Background(), account, 5)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 5 {
		t.Fatalf("limit not applied, got %d", len(unread))
	}
	for i := 1; i < len(unread); i++ {
		if unread[i].CreatedAt.After(unread[i-1].CreatedAt) {
			t.Fatal("not sorted newest first")
		}
	}
}
