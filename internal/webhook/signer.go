// Package webhook delivers signed record change notifications to an
// outbound HTTP endpoint.
//
// Every delivery carries an HMAC-SHA256 over "{unix seconds}.{body}" keyed
// with the shared secret. Receivers recompute it with Signer.Verify.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

var (
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	ErrInvalidSignature     = errors.New("invalid signature")
)

// DefaultReplayWindow is how far a delivery timestamp may drift from the
// receiver's clock.
const DefaultReplayWindow = 5 * time.Minute

// Signer signs and verifies delivery payloads with one secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer keyed with secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign returns the hex-encoded signature of payload at timestamp.
func (s *Signer) Sign(timestamp int64, payload []byte) string {
	return hex.EncodeToString(s.mac(timestamp, payload))
}

// Verify checks signature against payload and rejects timestamps further
// than window from now.
func (s *Signer) Verify(signature string, timestamp int64, payload []byte, window time.Duration) error {
	if skew := s.now().Sub(time.Unix(timestamp, 0)).Abs(); skew > window {
		return ErrReplayWindowExceeded
	}

	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(got, s.mac(timestamp, payload)) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Signer) mac(timestamp int64, payload []byte) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write(strconv.AppendInt(nil, timestamp, 10))
	m.Write([]byte{'.'})
	m.Write(payload)
	return m.Sum(nil)
}
