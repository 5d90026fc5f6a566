// Package turn issues time-boxed TURN credentials derived from a shared
// secret, the scheme coturn's use-auth-secret mode expects.
package turn

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTTL is the credential validity window in seconds.
	DefaultTTL = 86400

	maxIdentityLen  = 64
	defaultIdentity = "anonymous"
	cacheWindow     = 5 * time.Minute
)

// ErrNoSecret means the signing secret was never configured. This is a
// deployment error, not a per-request one.
var ErrNoSecret = errors.New("TURN_SECRET not set")

// Credential is the /ice response body.
type Credential struct {
	Username   string             `json:"username"`
	Credential string             `json:"credential"`
	Realm      string             `json:"realm"`
	TTL        int                `json:"ttl"`
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

type cacheEntry struct {
	cred *Credential
	at   time.Time
}

// Issuer computes HMAC-signed ephemeral credentials and memoizes them per
// caller identity for a short window, so repeated requests inside the
// window return byte-identical credentials. Entries are never evicted;
// staleness is checked at read time.
type Issuer struct {
	secret string
	realm  string
	host   string
	ttl    int

	now func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewIssuer(secret, realm, host string, ttl int) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: secret,
		realm:  realm,
		host:   host,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Credentials returns the ephemeral credential for the given caller
// identity. The identity is sanitized, never rejected.
func (i *Issuer) Credentials(uid string) (*Credential, error) {
	if i.secret == "" {
		return nil, ErrNoSecret
	}
	identity := normalizeIdentity(uid)

	i.mu.Lock()
	defer i.mu.Unlock()

	if e, ok := i.cache[identity]; ok && i.now().Sub(e.at) < cacheWindow {
		return e.cred, nil
	}

	expiry := i.now().Unix() + int64(i.ttl)
	username := fmt.Sprintf("%d:%s", expiry, identity)
	password := Sign(i.secret, username)
	cred := &Credential{
		Username:   username,
		Credential: password,
		Realm:      i.realm,
		TTL:        i.ttl,
		ICEServers: i.iceServers(username, password),
	}
	i.cache[identity] = cacheEntry{cred: cred, at: i.now()}
	log.Info().Str("module", "app.turn").Str("identity", identity).Int64("expiry", expiry).Msg("issued credential")
	return cred, nil
}

// Sign derives the TURN password for a username: base64(HMAC-SHA1(secret, username)).
// Pure function, re-derivable for verification.
func Sign(secret, username string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(username))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (i *Issuer) iceServers(username, password string) []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs: []string{fmt.Sprintf("stun:%s:3478", i.host)},
		},
		{
			URLs: []string{
				fmt.Sprintf("turn:%s:3478?transport=udp", i.host),
				fmt.Sprintf("turn:%s:3478?transport=tcp", i.host),
				fmt.Sprintf("turns:%s:5349?transport=tcp", i.host),
			},
			Username:   username,
			Credential: password,
		},
	}
}

func normalizeIdentity(uid string) string {
	s := strings.TrimSpace(uid)
	if len(s) > maxIdentityLen {
		s = s[:maxIdentityLen]
	}
	if s == "" {
		return defaultIdentity
	}
	return s
}
