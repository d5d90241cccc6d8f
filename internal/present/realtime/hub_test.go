package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

type fakeClient struct {
	mu       sync.Mutex
	key      string
	identity string
	staff    bool
	frames   [][]byte
	fail     bool
}

func (f *fakeClient) Key() string      { return f.key }
func (f *fakeClient) Identity() string { return f.identity }
func (f *fakeClient) IsStaff() bool    { return f.staff }

func (f *fakeClient) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errAlwaysFails
	}
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeClient) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

var errAlwaysFails = &sendError{}

type sendError struct{}

func (e *sendError) Error() string { return "send failed" }

func mustEvent(t *testing.T, kind, channel string, payload any) squadup.Event {
	t.Helper()
	event, err := squadup.NewEvent(kind, channel, payload)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	return event
}

func TestHubAttachJoinsPrivateAndStaffRooms(t *testing.T) {
	hub := NewHub()
	user := &fakeClient{key: "c1", identity: "alice"}
	mod := &fakeClient{key: "c2", identity: "mod-1", staff: true}
	hub.Attach(user)
	hub.Attach(mod)

	hub.Dispatch(mustEvent(t, squadup.EventNotification, squadup.IdentityChannel("alice"), squadup.NotificationPayload{Message: "hi"}))
	if user.received() != 1 || mod.received() != 0 {
		t.Fatalf("private event misrouted: user=%d mod=%d", user.received(), mod.received())
	}

	hub.Dispatch(mustEvent(t, squadup.EventStaffActivity, squadup.StaffChannel, squadup.StaffActivityPayload{Action: "mute_issued"}))
	if mod.received() != 1 || user.received() != 1 {
		t.Fatalf("staff event misrouted: user=%d mod=%d", user.received(), mod.received())
	}
}

func TestHubSessionRoomBroadcast(t *testing.T) {
	hub := NewHub()
	alice := &fakeClient{key: "c1", identity: "alice"}
	bob := &fakeClient{key: "c2", identity: "bob"}
	carol := &fakeClient{key: "c3", identity: "carol"}
	for _, c := range []*fakeClient{alice, bob, carol} {
		hub.Attach(c)
	}
	hub.JoinSession(alice, "s1")
	hub.JoinSession(bob, "s1")

	hub.Dispatch(mustEvent(t, squadup.EventMessage, squadup.SessionChannel("s1"), squadup.MessagePayload{Content: "gl hf"}))

	if alice.received() != 1 || bob.received() != 1 {
		t.Fatalf("room members must receive the broadcast")
	}
	if carol.received() != 0 {
		t.Fatalf("non-member must not receive the broadcast")
	}

	var event squadup.Event
	if err := json.Unmarshal(alice.frames[0], &event); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if event.Kind != squadup.EventMessage {
		t.Fatalf("unexpected frame kind %s", event.Kind)
	}
}

func TestHubSessionClosedEventEvictsRoom(t *testing.T) {
	hub := NewHub()
	alice := &fakeClient{key: "c1", identity: "alice"}
	hub.Attach(alice)
	hub.JoinSession(alice, "s1")

	hub.Dispatch(mustEvent(t, squadup.EventSessionState, squadup.SessionChannel("s1"), squadup.SessionStatePayload{
		SessionID: "s1",
		Status:    string(domain.SessionClosed),
		Reason:    "host_left",
	}))

	// The closure itself is delivered before the eviction.
	if alice.received() != 1 {
		t.Fatalf("closure event must reach room members")
	}
	if hub.RoomSize(squadup.SessionChannel("s1")) != 0 {
		t.Fatalf("room must be evicted after the closure broadcast")
	}

	hub.Dispatch(mustEvent(t, squadup.EventMessage, squadup.SessionChannel("s1"), squadup.MessagePayload{Content: "late"}))
	if alice.received() != 1 {
		t.Fatalf("evicted member must not receive further traffic")
	}
}

func TestHubLeaveSessionStopsDelivery(t *testing.T) {
	hub := NewHub()
	alice := &fakeClient{key: "c1", identity: "alice"}
	hub.Attach(alice)
	hub.JoinSession(alice, "s1")
	hub.LeaveSession(alice, "s1")

	hub.Dispatch(mustEvent(t, squadup.EventMessage, squadup.SessionChannel("s1"), squadup.MessagePayload{Content: "gone"}))
	if alice.received() != 0 {
		t.Fatalf("departed member must not receive room traffic")
	}
}

func TestHubDetachRemovesAllRooms(t *testing.T) {
	hub := NewHub()
	alice := &fakeClient{key: "c1", identity: "alice"}
	hub.Attach(alice)
	hub.JoinSession(alice, "s1")
	hub.Detach(alice)

	hub.Dispatch(mustEvent(t, squadup.EventMessage, squadup.SessionChannel("s1"), squadup.MessagePayload{Content: "bye"}))
	hub.Dispatch(mustEvent(t, squadup.EventNotification, squadup.IdentityChannel("alice"), squadup.NotificationPayload{Message: "bye"}))
	if alice.received() != 0 {
		t.Fatalf("detached connection must not receive anything")
	}
}

func TestHubFailedSendDetachesClient(t *testing.T) {
	hub := NewHub()
	broken := &fakeClient{key: "c1", identity: "alice", fail: true}
	hub.Attach(broken)
	hub.JoinSession(broken, "s1")

	hub.Dispatch(mustEvent(t, squadup.EventMessage, squadup.SessionChannel("s1"), squadup.MessagePayload{Content: "hello"}))
	if hub.RoomSize(squadup.SessionChannel("s1")) != 0 {
		t.Fatalf("client with a dead pipe must be detached")
	}
}

func TestHubJoinBeforeAttachIgnored(t *testing.T) {
	hub := NewHub()
	ghost := &fakeClient{key: "c1", identity: "ghost"}
	hub.JoinSession(ghost, "s1")
	if hub.RoomSize(squadup.SessionChannel("s1")) != 0 {
		t.Fatalf("unattached connection must not join rooms")
	}
}
