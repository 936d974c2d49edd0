// Password hashing for email/password accounts.
//
// Hashes are bcrypt. bcrypt is deliberately slow and salts every hash, so
// two users with the same password store different strings, and the salt
// and cost travel inside the hash itself:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
//
// The users.password_hash column stores that string as is. GitHub accounts
// have no password and an empty hash, which never verifies.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// COST TUNING: pick the cost at which one hash takes roughly 200-300ms on
// the production machine. Lower makes offline cracking cheap; higher makes
// every login and registration slow and lets a burst of logins saturate
// the CPU. 12 lands in that window on current server hardware.
const defaultCost = 12

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt.
//
// The cost is a field rather than a constant so tests can hash at cost 4,
// the bcrypt minimum.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest allows a low cost so tests stay fast.
// Never use it in production code.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext, salt and cost included.
//
// bcrypt only reads the first 72 bytes of its input. Two long passwords
// sharing a 72-byte prefix would hash identically, so anything longer is
// rejected here instead of being silently truncated. Registration accepts
// passwords of 8 characters and up; this is the upper bound.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify compares plaintext against hash and returns ErrInvalidPassword on
// a mismatch. bcrypt.CompareHashAndPassword compares in constant time, so
// response timing does not leak how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
