// Package session keeps the client's bearer token and decides whether it can
// still be trusted.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"example.com/storefront/internal/kv"
)

// SlotKey is the slot entry the token is persisted under.
const SlotKey = "token"

var ErrNoSession = errors.New("not authenticated")

type Store struct {
	slot kv.Slot
	now  func() time.Time
}

func NewStore(slot kv.Slot) *Store { return &Store{slot: slot, now: time.Now} }

func (s *Store) Save(token string) error { return s.slot.Set(SlotKey, []byte(token)) }

func (s *Store) Clear() error { return s.slot.Delete(SlotKey) }

// Token returns the stored token if it decodes and has not expired. An expired
// or undecodable token is removed. The signature is not checked here; only the
// server can do that.
func (s *Store) Token() (string, error) {
	raw, ok, err := s.slot.Get(SlotKey)
	if err != nil || !ok || len(raw) == 0 {
		return "", ErrNoSession
	}
	token := string(raw)
	claims, err := Decode(token)
	if err != nil || !claims.validAt(s.now()) {
		_ = s.Clear()
		return "", ErrNoSession
	}
	return token, nil
}

// Subject returns the user id carried by a valid stored token.
func (s *Store) Subject() (string, error) {
	token, err := s.Token()
	if err != nil {
		return "", err
	}
	claims, err := Decode(token)
	if err != nil {
		return "", ErrNoSession
	}
	return claims.Subject, nil
}

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

func (c Claims) validAt(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.Before(c.ExpiresAt)
}

// Decode reads the registered claims of token without verifying it. A token
// without an expiry is rejected.
func Decode(token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, err
	}
	if rc.ExpiresAt == nil {
		return Claims{}, errors.New("token has no expiry")
	}
	return Claims{Subject: rc.Subject, ExpiresAt: rc.ExpiresAt.Time}, nil
}
