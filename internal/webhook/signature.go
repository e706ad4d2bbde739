package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureHeader = "X-CampusGuard-Signature"
	EventHeader     = "X-CampusGuard-Event"

	// DefaultTolerance is how old a signed delivery may be before receivers reject it
	DefaultTolerance = 5 * time.Minute
)

var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrSignatureExpired   = errors.New("signature timestamp outside tolerance")
)

// Sign returns the signature header value "t=<unix>,v1=<hex>". The MAC
// covers "<unix>.<event type>.<payload>" so a captured delivery cannot be
// replayed later or under another event type.
func Sign(secret, eventType string, payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac(secret, ts, eventType, payload)))
}

// Verify checks a signature header produced by Sign. Receivers pass their
// own clock and tolerance.
func Verify(secret, eventType string, payload []byte, header string, now time.Time, tolerance time.Duration) error {
	ts, sig, err := parseHeader(header)
	if err != nil {
		return err
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return ErrSignatureExpired
	}

	if !hmac.Equal(sig, mac(secret, ts, eventType, payload)) {
		return ErrSignatureMismatch
	}
	return nil
}

func mac(secret string, ts int64, eventType string, payload []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write([]byte(eventType))
	h.Write([]byte("."))
	h.Write(payload)
	return h.Sum(nil)
}

func parseHeader(header string) (int64, []byte, error) {
	var (
		ts     int64
		sig    []byte
		haveTS bool
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, nil, ErrMalformedSignature
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrMalformedSignature
			}
			ts, haveTS = parsed, true
		case "v1":
			decoded, err := hex.DecodeString(value)
			if err != nil {
				return 0, nil, ErrMalformedSignature
			}
			sig = decoded
		}
	}
	if !haveTS || sig == nil {
		return 0, nil, ErrMalformedSignature
	}
	return ts, sig, nil
}
