package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/castkit/signalhub/internal/app"
	"github.com/castkit/signalhub/internal/app/orch"
	"github.com/castkit/signalhub/internal/app/turn"
	"github.com/castkit/signalhub/internal/config"
)

func newTestRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Mode:       "release",
		StaticPath: t.TempDir(),
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
		PublicURL:  "https://example.com",
		Turn:       config.TurnConfig{Secret: secret, Realm: "signalhub", Host: "turn.example.com", TTL: 600},
	}
	o := orch.New(app.NewRegistry(), app.NewDirectory())
	issuer := turn.NewIssuer(cfg.Turn.Secret, cfg.Turn.Realm, cfg.Turn.Host, cfg.Turn.TTL)
	return SetupRouter(context.Background(), cfg, o, issuer)
}

func TestICEMissingSecret(t *testing.T) {
	r := newTestRouter(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ice?uid=x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "TURN_SECRET not set" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestICECredentials(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	get := func() turn.Credential {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ice?uid=alice", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var cred turn.Credential
		if err := json.Unmarshal(w.Body.Bytes(), &cred); err != nil {
			t.Fatal(err)
		}
		return cred
	}

	first := get()
	if !strings.HasSuffix(first.Username, ":alice") {
		t.Errorf("username = %q", first.Username)
	}
	if first.Credential != turn.Sign("s3cret", first.Username) {
		t.Error("credential does not verify")
	}
	if first.Realm != "signalhub" || first.TTL != 600 {
		t.Errorf("realm/ttl = %q/%d", first.Realm, first.TTL)
	}
	if len(first.ICEServers) != 2 {
		t.Fatalf("ice servers = %d", len(first.ICEServers))
	}

	// Repeated requests inside the cache window are byte-identical.
	second := get()
	if second.Credential != first.Credential || second.Username != first.Username {
		t.Error("credential changed within the cache window")
	}
}

func TestAllocateCall(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/calls", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body callResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RoomID == "" {
		t.Error("empty roomId")
	}
	if body.URL != "https://example.com/call/"+body.RoomID {
		t.Errorf("url = %q", body.URL)
	}

	// Each allocation is a fresh id.
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/api/calls", nil))
	var body2 callResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &body2); err != nil {
		t.Fatal(err)
	}
	if body2.RoomID == body.RoomID {
		t.Error("room ids collide")
	}
}

func TestListRoomsEmpty(t *testing.T) {
	r := newTestRouter(t, "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Rooms []app.RoomInfo `json:"rooms"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Rooms) != 0 {
		t.Errorf("rooms = %v, want none", body.Rooms)
	}
}
