package users

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"gallery-api/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored credentials.
var PasswordCost = 12

var ErrWeakPassword = apperr.New(apperr.InvalidInput, "Password must be at least 8 characters long and contain both letters and numbers")

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// ValidateNewPassword checks strength and that the confirmation matches.
func ValidateNewPassword(password, confirm string) error {
	if !isPasswordStrong(password) {
		return ErrWeakPassword
	}
	if password != confirm {
		return apperr.New(apperr.InvalidInput, "Passwords are not the same")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}
	return string(hashed), nil
}

func CheckPassword(u User, candidate string) bool {
	if !u.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(candidate)) == nil
}

// NewResetToken returns a random plaintext token and the hash to persist.
func NewResetToken() (plain, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(b)
	return plain, HashResetToken(plain), nil
}

func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
