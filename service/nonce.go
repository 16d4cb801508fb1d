package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// nonceLength is the number of hex characters kept from the MAC.
const nonceLength = 20

// NonceManager issues and verifies short-lived tokens proving a request came
// from a page the server rendered. A nonce is bound to an action and a session
// and stays valid for between half and all of its lifetime.
type NonceManager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewNonceManager creates a manager. The secret must not be empty and the
// lifetime must be at least two seconds.
func NewNonceManager(secret []byte, lifetime time.Duration) (*NonceManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("nonce secret is empty")
	}
	if lifetime < 2*time.Second {
		return nil, errors.Newf("nonce lifetime %s is too short", lifetime)
	}
	return &NonceManager{
		secret:   secret,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// tick counts half-lifetimes since the epoch.
func (m *NonceManager) tick() int64 {
	return m.now().UnixNano() / int64(m.lifetime/2)
}

func (m *NonceManager) mac(action, session string, tick int64) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(strconv.FormatInt(tick, 10)))
	h.Write([]byte{'|'})
	h.Write([]byte(action))
	h.Write([]byte{'|'})
	h.Write([]byte(session))
	return hex.EncodeToString(h.Sum(nil))[:nonceLength]
}

// Issue returns a nonce for action and session.
func (m *NonceManager) Issue(action, session string) string {
	return m.mac(action, session, m.tick())
}

// Verify reports whether nonce was issued for action and session during the
// current or the previous tick.
func (m *NonceManager) Verify(nonce, action, session string) bool {
	if len(nonce) != nonceLength {
		return false
	}
	tick := m.tick()
	for _, t := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(nonce), []byte(m.mac(action, session, t))) {
			return true
		}
	}
	return false
}
