package messages

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maxjeon97/friender/internal/repo/postgres"
)

type fakeMessageStore struct {
	nextID   int64
	byID     map[int64]postgres.MessageRecord
	readized []int64
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{nextID: 1, byID: make(map[int64]postgres.MessageRecord)}
}

func (f *fakeMessageStore) Create(_ context.Context, from, to, body string) (postgres.MessageRecord, error) {
	rec := postgres.MessageRecord{
		ID:           f.nextID,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now().UTC(),
	}
	f.byID[rec.ID] = rec
	f.nextID++
	return rec, nil
}

func (f *fakeMessageStore) GetByID(_ context.Context, id int64) (postgres.MessageRecord, error) {
	rec, ok := f.byID[id]
	if !ok {
		return postgres.MessageRecord{}, postgres.ErrMessageNotFound
	}
	return rec, nil
}

func (f *fakeMessageStore) MarkRead(_ context.Context, id int64) (postgres.MessageRecord, error) {
	rec, ok := f.byID[id]
	if !ok {
		return postgres.MessageRecord{}, postgres.ErrMessageNotFound
	}
	if rec.ReadAt == nil {
		now := time.Now().UTC()
		rec.ReadAt = &now
		f.byID[id] = rec
		f.readized = append(f.readized, id)
	}
	return rec, nil
}

func (f *fakeMessageStore) ListTo(_ context.Context, username string) ([]postgres.ThreadMessageRecord, error) {
	out := []postgres.ThreadMessageRecord{}
	for _, rec := range f.byID {
		if rec.ToUsername == username {
			out = append(out, postgres.ThreadMessageRecord{
				ID:                  rec.ID,
				CounterpartUsername: rec.FromUsername,
				Body:                rec.Body,
				SentAt:              rec.SentAt,
				ReadAt:              rec.ReadAt,
			})
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListFrom(_ context.Context, username string) ([]postgres.ThreadMessageRecord, error) {
	out := []postgres.ThreadMessageRecord{}
	for _, rec := range f.byID {
		if rec.FromUsername == username {
			out = append(out, postgres.ThreadMessageRecord{
				ID:                  rec.ID,
				CounterpartUsername: rec.ToUsername,
				Body:                rec.Body,
				SentAt:              rec.SentAt,
				ReadAt:              rec.ReadAt,
			})
		}
	}
	return out, nil
}

type fakeUsers struct {
	existing map[string]struct{}
}

func (f fakeUsers) Exists(_ context.Context, username string) (bool, error) {
	_, ok := f.existing[username]
	return ok, nil
}

func newTestMessageService(store *fakeMessageStore, usernames ...string) *Service {
	existing := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		existing[u] = struct{}{}
	}
	return NewService(store, fakeUsers{existing: existing})
}

func TestSend(t *testing.T) {
	store := newFakeMessageStore()
	svc := newTestMessageService(store, "alice", "bob")

	msg, err := svc.Send(context.Background(), "alice", "bob", "hello bob")
	if err != nil {
		t.Fatal(err)
	}
	if msg.FromUsername != "alice" || msg.ToUsername != "bob" {
		t.Fatalf("participants mismatch: %+v", msg)
	}
	if msg.ReadAt != nil {
		t.Fatal("new message must start unread")
	}
}

func TestSendValidation(t *testing.T) {
	svc := newTestMessageService(newFakeMessageStore(), "alice", "bob")
	ctx := context.Background()

	if _, err := svc.Send(ctx, "alice", "alice", "hi"); !errors.Is(err, ErrValidation) {
		t.Fatalf("self message: want ErrValidation, got %v", err)
	}
	if _, err := svc.Send(ctx, "alice", "bob", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank body: want ErrValidation, got %v", err)
	}
	if _, err := svc.Send(ctx, "alice", "bob", strings.Repeat("x", maxBodyLength+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("oversized body: want ErrValidation, got %v", err)
	}
	if _, err := svc.Send(ctx, "alice", "ghost", "hi"); !errors.Is(err, ErrRecipientAbsent) {
		t.Fatalf("unknown recipient: want ErrRecipientAbsent, got %v", err)
	}
}

func TestGetParticipantsOnly(t *testing.T) {
	store := newFakeMessageStore()
	svc := newTestMessageService(store, "alice", "bob", "eve")
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, msg.ID, "alice"); err != nil {
		t.Fatalf("sender read: %v", err)
	}
	if _, err := svc.Get(ctx, msg.ID, "bob"); err != nil {
		t.Fatalf("recipient read: %v", err)
	}
	if _, err := svc.Get(ctx, msg.ID, "eve"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider read: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, 999, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing message: want ErrNotFound, got %v", err)
	}
}

func TestMarkReadRecipientOnlyOnce(t *testing.T) {
	store := newFakeMessageStore()
	svc := newTestMessageService(store, "alice", "bob")
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "hello")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.MarkRead(ctx, msg.ID, "alice"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sender mark-read: want ErrForbidden, got %v", err)
	}

	first, err := svc.MarkRead(ctx, msg.ID, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if first.ReadAt == nil {
		t.Fatal("mark-read must set the timestamp")
	}

	second, err := svc.MarkRead(ctx, msg.ID, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !second.ReadAt.Equal(*first.ReadAt) {
		t.Fatal("repeat mark-read must keep the original timestamp")
	}
	if len(store.readized) != 1 {
		t.Fatalf("read must be stamped exactly once, got %d", len(store.readized))
	}
}

func TestListThreads(t *testing.T) {
	store := newFakeMessageStore()
	svc := newTestMessageService(store, "alice", "bob")
	ctx := context.Background()

	if _, err := svc.Send(ctx, "alice", "bob", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, "bob", "alice", "two"); err != nil {
		t.Fatal(err)
	}

	received, err := svc.ListReceived(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(received) != 1 || received[0].CounterpartUsername != "bob" {
		t.Fatalf("received thread mismatch: %+v", received)
	}

	sent, err := svc.ListSent(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].CounterpartUsername != "bob" {
		t.Fatalf("sent thread mismatch: %+v", sent)
	}
}
