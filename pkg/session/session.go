// Package session owns the token lifecycle: issuing a pair at login,
// rotating it on refresh, and revoking it at logout. Only a fingerprint of
// the refresh token is ever persisted, never the token itself.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/internal/util"
)

var (
	// ErrRefreshInvalid covers every way a refresh can fail other than
	// plain expiry: bad signature, unknown user, fingerprint mismatch,
	// lost rotation race. Collapsing them denies an attacker any signal
	// about which check tripped.
	ErrRefreshInvalid  = errors.New("refresh token rejected")
	ErrRefreshExpired  = errors.New("refresh token expired")
	ErrUserDeactivated = errors.New("user is deactivated")
)

// IdentityStore is the slice of the user table the session service needs.
type IdentityStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	SetRefreshFingerprint(ctx context.Context, id uuid.UUID, fp *string) error
	SwapRefreshFingerprint(ctx context.Context, id uuid.UUID, old, next string) (bool, error)
	RecordLogin(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	tokens *util.TokenManager
	store  IdentityStore
}

func NewService(tokens *util.TokenManager, store IdentityStore) *Service {
	return &Service{tokens: tokens, store: store}
}

// Fingerprint is the stored form of a refresh token.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login issues a fresh pair for an already-authenticated user, replacing any
// previously stored fingerprint so at most one refresh token is live per
// user, and appends a login log row.
func (s *Service) Login(ctx context.Context, user *model.User) (TokenPair, error) {
	if !user.IsActive {
		return TokenPair{}, ErrUserDeactivated
	}
	msg := &util.JWTMessage{UserID: user.ID, Email: user.Email, Role: user.Role}
	access, refresh, err := s.tokens.CreateTokens(msg)
	if err != nil {
		return TokenPair{}, err
	}
	fp := Fingerprint(refresh)
	if err := s.store.SetRefreshFingerprint(ctx, user.ID, &fp); err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RecordLogin(ctx, user.ID); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates the pair. The swap of the stored fingerprint is a
// compare-and-swap on the presented token's fingerprint, so when two
// refreshes race with the same token exactly one wins and the loser is
// rejected as invalid.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	msg, err := s.tokens.CheckRefreshToken(rawRefresh)
	if err != nil {
		if errors.Is(err, util.ErrRefreshExpired) {
			return TokenPair{}, ErrRefreshExpired
		}
		return TokenPair{}, ErrRefreshInvalid
	}

	user, err := s.store.GetUser(ctx, msg.UserID)
	if err != nil {
		return TokenPair{}, ErrRefreshInvalid
	}
	if !user.IsActive {
		return TokenPair{}, ErrUserDeactivated
	}

	// Re-read role and email from the row, not the old claims, so a role
	// change takes effect at the next rotation.
	next := &util.JWTMessage{UserID: user.ID, Email: user.Email, Role: user.Role}
	access, refresh, err := s.tokens.CreateTokens(next)
	if err != nil {
		return TokenPair{}, err
	}

	swapped, err := s.store.SwapRefreshFingerprint(ctx, user.ID, Fingerprint(rawRefresh), Fingerprint(refresh))
	if err != nil {
		return TokenPair{}, err
	}
	if !swapped {
		return TokenPair{}, ErrRefreshInvalid
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout clears the stored fingerprint. Outstanding access tokens keep
// working until they expire; only the refresh path is cut.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.store.SetRefreshFingerprint(ctx, userID, nil)
}
