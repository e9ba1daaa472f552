package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const bearerPrefix = "Bearer "

// Verifier resolves the Authorization header of a request to an active
// identity. It never mutates the account and writes nothing; its only job is
// to classify the credential and load who is calling.
type Verifier struct {
	tokens *TokenService
	users  IdentityStore
}

// NewVerifier constructs a Verifier.
func NewVerifier(tokens *TokenService, users IdentityStore) (*Verifier, error) {
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	if users == nil {
		return nil, errors.New("auth: identity store is required")
	}
	return &Verifier{tokens: tokens, users: users}, nil
}

// Authenticate validates the raw Authorization header value and resolves the
// account it names. Failures are classified: ErrMissingToken,
// ErrInvalidToken, ErrExpiredToken, ErrIdentityNotFound, or a wrapped store
// fault for anything unexpected while resolving the identity.
func (v *Verifier) Authenticate(ctx context.Context, header string) (Identity, error) {
	raw, err := bearerToken(header)
	if err != nil {
		return Identity{}, err
	}
	claims, err := v.tokens.Parse(raw)
	if err != nil {
		return Identity{}, err
	}

	identity, err := v.users.FindActiveByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("auth: resolve identity: %w", err)
	}
	if !identity.Active {
		return Identity{}, ErrIdentityNotFound
	}
	return identity, nil
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
