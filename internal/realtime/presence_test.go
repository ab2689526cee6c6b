package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// fakeStore records durable-mirror calls and lets tests inject failures.
type fakeStore struct {
	mu sync.Mutex

	upserts []upsertCall
	typing  []typingCall

	statusRow  *domain.UserStatus
	offlineHit bool

	upsertErr error
	statusErr error
}

type upsertCall struct {
	userID   string
	isOnline bool
}

type typingCall struct {
	userID string
	to     *string
}

func (s *fakeStore) UpsertPresence(_ context.Context, userID string, isOnline bool, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, upsertCall{userID: userID, isOnline: isOnline})
	return s.upsertErr
}

func (s *fakeStore) SetStatus(_ context.Context, userID, status string, _ time.Time) (*domain.UserStatus, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	if s.statusRow != nil {
		return s.statusRow, nil
	}
	return &domain.UserStatus{UserID: userID, Status: status, IsOnline: true}, nil
}

func (s *fakeStore) SetOffline(_ context.Context, _ string, _ time.Time) (bool, error) {
	return s.offlineHit, nil
}

func (s *fakeStore) SetTyping(_ context.Context, userID string, to *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = append(s.typing, typingCall{userID: userID, to: to})
	return nil
}

func newTestPresence(store StatusStore) (*Presence, *Registry) {
	reg := NewRegistry()
	return NewPresence(reg, NewRouter(reg), store), reg
}

func TestHandleConnect_BroadcastsAndSendsSnapshot(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestPresence(store)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)

	joiner := &fakeConn{}
	p.HandleConnect(context.Background(), "joiner", joiner)

	// Everyone (joiner included) hears user_online.
	names := watcher.eventNames()
	if len(names) == 0 || names[len(names)-1] != EventUserOnline {
		t.Fatalf("watcher events = %v, want trailing %s", names, EventUserOnline)
	}

	// The newcomer additionally gets the online_users snapshot.
	got := joiner.sent()
	var snapshot []string
	for _, e := range got {
		if e.event == EventOnlineUsers {
			snapshot, _ = e.payload.([]string)
		}
	}
	if len(snapshot) != 2 {
		t.Fatalf("online_users snapshot = %v, want both users", snapshot)
	}

	// Durable mirror saw both transitions as online.
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.upserts) != 2 || !store.upserts[0].isOnline || !store.upserts[1].isOnline {
		t.Fatalf("upserts = %+v, want two online upserts", store.upserts)
	}
}

func TestHandleConnect_StoreFailureDoesNotBlockBroadcast(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("disk gone")}
	p, _ := newTestPresence(store)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)

	joiner := &fakeConn{}
	p.HandleConnect(context.Background(), "joiner", joiner)

	found := false
	for _, e := range watcher.sent() {
		if e.event == EventUserOnline {
			if ue, ok := e.payload.(UserEvent); ok && ue.UserID == "joiner" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("user_online broadcast missing despite store failure")
	}
}

func TestHandleDisconnect_ClearsTypingAndBroadcastsOffline(t *testing.T) {
	store := &fakeStore{}
	p, reg := newTestPresence(store)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)
	leaver := &fakeConn{}
	p.HandleConnect(context.Background(), "leaver", leaver)

	p.StartTyping(context.Background(), "leaver", "watcher")
	if len(reg.TypingEdges()) != 1 {
		t.Fatalf("typing edge not recorded")
	}

	p.HandleDisconnect(context.Background(), "leaver")

	if len(reg.TypingEdges()) != 0 {
		t.Fatalf("typing edge survived disconnect")
	}
	names := watcher.eventNames()
	if names[len(names)-1] != EventUserOffline {
		t.Fatalf("watcher events = %v, want trailing %s", names, EventUserOffline)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	last := store.upserts[len(store.upserts)-1]
	if last.userID != "leaver" || last.isOnline {
		t.Fatalf("last upsert = %+v, want leaver offline", last)
	}
}

func TestHandleDisconnectConn_DisplacedSessionLeavesReplacementAlone(t *testing.T) {
	store := &fakeStore{}
	p, reg := newTestPresence(store)

	old := &fakeConn{}
	p.HandleConnect(context.Background(), "u1", old)
	replacement := &fakeConn{}
	p.HandleConnect(context.Background(), "u1", replacement)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)
	watcherBefore := len(watcher.sent())

	// The stale transport closes after the replacement took over.
	p.HandleDisconnectConn(context.Background(), "u1", old)

	if _, ok := reg.Lookup("u1"); !ok {
		t.Fatalf("replacement session was knocked offline by the stale teardown")
	}
	if n := len(watcher.sent()); n != watcherBefore {
		t.Fatalf("stale teardown broadcast %d extra events", n-watcherBefore)
	}
}

func TestSetStatus_BroadcastsUnconditionally(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestPresence(store)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)

	// Same value twice: both calls must broadcast.
	for i := 0; i < 2; i++ {
		if _, err := p.SetStatus(context.Background(), "u1", domain.StatusBusy); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
	}

	updates := 0
	for _, e := range watcher.sent() {
		if e.event == EventUserStatusUpdate {
			updates++
		}
	}
	if updates != 2 {
		t.Fatalf("got %d user_status_update broadcasts, want 2", updates)
	}
}

func TestSetStatus_StoreErrorSuppressesBroadcast(t *testing.T) {
	store := &fakeStore{statusErr: errors.New("db down")}
	p, _ := newTestPresence(store)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)
	before := len(watcher.sent())

	if _, err := p.SetStatus(context.Background(), "u1", domain.StatusAway); err == nil {
		t.Fatalf("SetStatus swallowed the store error")
	}
	if n := len(watcher.sent()); n != before {
		t.Fatalf("broadcast fired despite failed persist")
	}
}

func TestSetOffline_NoRowNoBroadcast(t *testing.T) {
	store := &fakeStore{offlineHit: false}
	p, _ := newTestPresence(store)

	watcher := &fakeConn{}
	p.HandleConnect(context.Background(), "watcher", watcher)
	before := len(watcher.sent())

	if err := p.SetOffline(context.Background(), "stranger"); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	if n := len(watcher.sent()); n != before {
		t.Fatalf("user_offline broadcast for a user with no status row")
	}

	store.offlineHit = true
	if err := p.SetOffline(context.Background(), "known"); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	names := watcher.eventNames()
	if names[len(names)-1] != EventUserOffline {
		t.Fatalf("watcher events = %v, want trailing %s", names, EventUserOffline)
	}
}

func TestStartTyping_OfflineTargetDropped(t *testing.T) {
	store := &fakeStore{}
	p, reg := newTestPresence(store)

	typer := &fakeConn{}
	p.HandleConnect(context.Background(), "typer", typer)

	p.StartTyping(context.Background(), "typer", "offline-user")

	if len(reg.TypingEdges()) != 0 {
		t.Fatalf("typing edge recorded for an offline target")
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.typing) != 0 {
		t.Fatalf("typing persisted for an offline target: %+v", store.typing)
	}
}

func TestTyping_TargetOnlyDelivery(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestPresence(store)

	typer := &fakeConn{}
	target := &fakeConn{}
	bystander := &fakeConn{}
	p.HandleConnect(context.Background(), "typer", typer)
	p.HandleConnect(context.Background(), "target", target)
	p.HandleConnect(context.Background(), "bystander", bystander)
	bystanderBefore := len(bystander.sent())

	p.StartTyping(context.Background(), "typer", "target")
	p.StopTyping(context.Background(), "typer", "target")

	var names []string
	for _, e := range target.sent() {
		if e.event == EventTypingStart || e.event == EventTypingStop {
			names = append(names, e.event)
		}
	}
	if len(names) != 2 || names[0] != EventTypingStart || names[1] != EventTypingStop {
		t.Fatalf("target typing events = %v, want [typing_start typing_stop]", names)
	}

	for _, e := range bystander.sent()[bystanderBefore:] {
		if e.event == EventTypingStart || e.event == EventTypingStop {
			t.Fatalf("bystander received typing event %s", e.event)
		}
	}
}

func TestPrivateMessage_ReportsDelivery(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestPresence(store)

	target := &fakeConn{}
	p.HandleConnect(context.Background(), "target", target)

	if !p.PrivateMessage("sender", "target", "hi") {
		t.Fatalf("PrivateMessage reported drop for a connected target")
	}
	if p.PrivateMessage("sender", "nobody", "hi") {
		t.Fatalf("PrivateMessage reported delivery to an offline target")
	}

	got := target.sent()
	last := got[len(got)-1]
	if last.event != EventPrivateMessage {
		t.Fatalf("last event = %s, want %s", last.event, EventPrivateMessage)
	}
	pm, ok := last.payload.(PrivateMessageEvent)
	if !ok || pm.From != "sender" || pm.Message != "hi" {
		t.Fatalf("payload = %+v", last.payload)
	}
}

func TestProfileView_TargetOnly(t *testing.T) {
	store := &fakeStore{}
	p, _ := newTestPresence(store)

	target := &fakeConn{}
	p.HandleConnect(context.Background(), "target", target)

	if !p.ProfileView("viewer", "target") {
		t.Fatalf("ProfileView reported drop for a connected target")
	}
	got := target.sent()
	last := got[len(got)-1]
	if last.event != EventProfileViewed {
		t.Fatalf("last event = %s, want %s", last.event, EventProfileViewed)
	}
	pv, ok := last.payload.(ProfileViewedEvent)
	if !ok || pv.ViewerID != "viewer" {
		t.Fatalf("payload = %+v", last.payload)
	}
}
