// Package auth provides password hashing for stored user credentials.
//
// bcrypt generates a random salt per call and embeds it, together with the
// cost, in the output:
//
//	$2a$12$<22-char salt><31-char hash>
//
// so the hash column is self-describing and no separate salt column exists.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
// Roughly 250ms per hash on current server hardware.
const DefaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer inputs would be
// truncated by the algorithm, so Hash rejects them instead.
const MaxPasswordBytes = 72

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt.
//
// The cost is a field so tests can run with bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// The cost must lie within [bcrypt.MinCost, bcrypt.MaxCost].
func NewPasswordServiceWithCost(cost int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// NewPasswordServiceForTest creates a PasswordService with the minimum
// bcrypt cost. Use this in tests in other packages to avoid the
// ~250ms overhead of DefaultCost per hashing operation.
//
// Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext is longer than MaxPasswordBytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil on a match, ErrMismatch on a wrong password, and a wrapped
// bcrypt error when the stored hash is malformed. The comparison is
// constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// Matches is the boolean form of Verify. Any failure, including a
// malformed hash, counts as "does not match".
func (p *PasswordService) Matches(hash, plaintext string) bool {
	return p.Verify(hash, plaintext) == nil
}
