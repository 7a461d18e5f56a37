package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verification failure modes. Mismatch keeps the entry so the user can retry;
// the other two leave no entry behind.
var (
	ErrNotFound = errors.New("otp: no pending code for key")
	ErrExpired  = errors.New("otp: code expired")
	ErrMismatch = errors.New("otp: code does not match")
)

// entry is the stored shape of one pending code. ExpiresAt is embedded rather
// than relying on the Redis TTL alone so Verify can still distinguish an
// expired code from a missing one; the TTL (validity + grace) only garbage
// collects.
type entry struct {
	Code      string          `json:"code"`
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const expiredGrace = 10 * time.Minute

// Ledger issues, validates and expires short-lived numeric codes in Redis.
// Separate Ledger instances with distinct prefixes give independent namespaces,
// so an in-flight registration and an in-flight reset for the same email never
// collide.
type Ledger struct {
	client   *redis.Client
	prefix   string
	validity time.Duration
	now      func() time.Time
}

// NewLedger creates a ledger whose codes are valid for the given duration.
func NewLedger(client *redis.Client, prefix string, validity time.Duration) *Ledger {
	return &Ledger{
		client:   client,
		prefix:   prefix,
		validity: validity,
		now:      time.Now,
	}
}

func (l *Ledger) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, key)
}

// Issue generates a fresh 6-digit code for key, overwriting any prior entry,
// and stores the payload alongside it. The code is returned only to the
// caller; it reaches the user out-of-band via mail.
func (l *Ledger) Issue(ctx context.Context, key string, payload any) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	e := entry{
		Code:      code,
		ExpiresAt: l.now().Add(l.validity),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		e.Payload = raw
	}

	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	if err := l.client.Set(ctx, l.redisKey(key), data, l.validity+expiredGrace).Err(); err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks the supplied code against the pending entry for key. On
// success the entry is consumed and its payload returned. An expired entry is
// deleted as a side effect; a mismatched code leaves the entry in place so the
// user may retry.
func (l *Ledger) Verify(ctx context.Context, key, supplied string) (json.RawMessage, error) {
	data, err := l.client.Get(ctx, l.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}

	if l.now().After(e.ExpiresAt) {
		if err := l.client.Del(ctx, l.redisKey(key)).Err(); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	if e.Code != supplied {
		return nil, ErrMismatch
	}

	if err := l.client.Del(ctx, l.redisKey(key)).Err(); err != nil {
		return nil, err
	}

	return e.Payload, nil
}

// Revoke deletes any pending entry for key. Used to roll back an issued code
// when mail delivery fails, so no partial state survives a failed send.
func (l *Ledger) Revoke(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.redisKey(key)).Err()
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
