package orch

import (
	"errors"
	"testing"

	"github.com/castkit/signalhub/internal/app"
	"github.com/castkit/signalhub/internal/core"
	"github.com/castkit/signalhub/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func newOrch() *Orchestrator {
	return New(app.NewRegistry(), app.NewDirectory())
}

func (o *Orchestrator) register(t *testing.T) domain.ClientID {
	t.Helper()
	return o.Registry.Register(nopConn{}, "")
}

func TestJoinFirstMember(t *testing.T) {
	o := newOrch()
	a := o.register(t)

	res, dep, err := o.Join(a, "r1", domain.ModeCall, domain.RoleParticipant)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if dep != nil {
		t.Errorf("unexpected departure: %+v", dep)
	}
	if len(res.Participants) != 0 {
		t.Errorf("participants = %v, want empty", res.Participants)
	}
	cl, _ := o.Registry.Lookup(a)
	if cl.Room != "r1" || cl.Mode != domain.ModeCall || cl.Role != domain.RoleParticipant {
		t.Errorf("client state = %+v", cl)
	}
	if !o.Rooms.Contains("r1", a) {
		t.Error("a not a member of r1")
	}
}

func TestJoinSeesExistingMembers(t *testing.T) {
	o := newOrch()
	a := o.register(t)
	b := o.register(t)

	if _, _, err := o.Join(a, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}
	res, _, err := o.Join(b, "r1", domain.ModeCall, domain.RoleParticipant)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Participants) != 1 {
		t.Fatalf("participants = %v, want [a]", res.Participants)
	}
	if res.Participants[0].ClientID != a || res.Participants[0].Role != domain.RoleParticipant {
		t.Errorf("participant = %+v", res.Participants[0])
	}
}

func TestJoinModeConflict(t *testing.T) {
	o := newOrch()
	a := o.register(t)
	c := o.register(t)

	if _, _, err := o.Join(a, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}
	_, _, err := o.Join(c, "r1", domain.ModeStream, domain.RoleViewer)
	var mc *app.ModeConflictError
	if !errors.As(err, &mc) {
		t.Fatalf("want ModeConflictError, got %v", err)
	}
	if mc.Expected != domain.ModeCall || mc.Received != domain.ModeStream {
		t.Errorf("conflict = %+v", mc)
	}
	// No mutation: membership unchanged, c still unjoined.
	if n := o.Rooms.MemberCount("r1"); n != 1 {
		t.Errorf("member count = %d, want 1", n)
	}
	cl, _ := o.Registry.Lookup(c)
	if cl.Room != "" {
		t.Errorf("c joined despite conflict: %+v", cl)
	}
}

func TestRejoinLeavesOldRoomFirst(t *testing.T) {
	o := newOrch()
	a := o.register(t)
	b := o.register(t)

	if _, _, err := o.Join(a, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}
	if _, _, err := o.Join(b, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}

	res, dep, err := o.Join(b, "r2", domain.ModeCall, domain.RoleParticipant)
	if err != nil {
		t.Fatal(err)
	}
	if dep == nil || dep.Room != "r1" {
		t.Fatalf("departure = %+v, want from r1", dep)
	}
	if len(dep.Remaining) != 1 || dep.Remaining[0] != a {
		t.Errorf("remaining = %v, want [a]", dep.Remaining)
	}
	if res.Room != "r2" {
		t.Errorf("joined room = %s", res.Room)
	}

	// At most one room per connection.
	if o.Rooms.Contains("r1", b) {
		t.Error("b still in r1")
	}
	cl, _ := o.Registry.Lookup(b)
	if cl.Room != "r2" {
		t.Errorf("b recorded room = %s, want r2", cl.Room)
	}
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	o := newOrch()
	a := o.register(t)

	if _, _, err := o.Join(a, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}
	dep := o.Leave(a)
	if dep == nil || dep.Room != "r1" {
		t.Fatalf("departure = %+v", dep)
	}
	if len(dep.Remaining) != 0 {
		t.Errorf("remaining = %v, want none", dep.Remaining)
	}
	cl, _ := o.Registry.Lookup(a)
	if cl.Room != "" {
		t.Errorf("room not cleared: %+v", cl)
	}

	// Fresh join with a different mode now succeeds.
	if _, _, err := o.Join(a, "r1", domain.ModeStream, domain.RoleViewer); err != nil {
		t.Fatalf("recreate with new mode: %v", err)
	}
}

func TestLeaveWithoutRoomIsNoop(t *testing.T) {
	o := newOrch()
	a := o.register(t)
	if dep := o.Leave(a); dep != nil {
		t.Errorf("departure = %+v, want nil", dep)
	}
}

func TestDisconnectCleansUp(t *testing.T) {
	o := newOrch()
	a := o.register(t)
	b := o.register(t)

	if _, _, err := o.Join(a, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}
	if _, _, err := o.Join(b, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
		t.Fatal(err)
	}

	dep := o.Disconnect(b)
	if dep == nil || len(dep.Remaining) != 1 || dep.Remaining[0] != a {
		t.Fatalf("departure = %+v, want remaining [a]", dep)
	}
	if _, ok := o.Registry.Lookup(b); ok {
		t.Error("b still registered after disconnect")
	}
	if n := o.Rooms.MemberCount("r1"); n != 1 {
		t.Errorf("member count = %d, want 1", n)
	}
}

func TestRoute(t *testing.T) {
	o := newOrch()
	a := o.register(t)
	b := o.register(t)
	c := o.register(t)
	outsider := o.register(t)

	for _, id := range []domain.ClientID{a, b, c} {
		if _, _, err := o.Join(id, "r1", domain.ModeCall, domain.RoleParticipant); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("broadcast excludes sender", func(t *testing.T) {
		got, err := o.Route(a, "r1", nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("recipients = %v, want 2", got)
		}
		for _, id := range got {
			if id == a {
				t.Error("sender included in broadcast")
			}
		}
	})

	t.Run("targeted delivery", func(t *testing.T) {
		got, err := o.Route(a, "r1", &b)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != b {
			t.Errorf("recipients = %v, want [b]", got)
		}
	})

	t.Run("sender not a member", func(t *testing.T) {
		if _, err := o.Route(outsider, "r1", nil); !errors.Is(err, ErrNotInRoom) {
			t.Errorf("err = %v, want ErrNotInRoom", err)
		}
	})

	t.Run("sender in a different room", func(t *testing.T) {
		if _, _, err := o.Join(outsider, "r2", domain.ModeCall, domain.RoleParticipant); err != nil {
			t.Fatal(err)
		}
		if _, err := o.Route(outsider, "r1", nil); !errors.Is(err, ErrNotInRoom) {
			t.Errorf("err = %v, want ErrNotInRoom", err)
		}
	})

	t.Run("target not a member", func(t *testing.T) {
		if _, err := o.Route(a, "r1", &outsider); !errors.Is(err, ErrUnknownTarget) {
			t.Errorf("err = %v, want ErrUnknownTarget", err)
		}
	})
}
