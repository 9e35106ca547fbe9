package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is the account record returned by /auth/login, /auth/me and /auth/refresh.
// The same type is persisted client-side alongside the access token.
type User struct {
	ID           int64     `json:"id"`                   // Unique identifier for the user
	Username     string    `json:"username,omitempty"`   // Unique username used to log in
	Name         string    `json:"name,omitempty"`       // Display name, optional
	Email        string    `json:"email,omitempty"`      // User's email address
	IsAdmin      bool      `json:"is_admin,omitempty"`   // Administrators manage the reference data
	PasswordHash string    `json:"-"`                    // Hashed version of the user's password - never serialize
	DateJoined   time.Time `json:"date_joined,omitzero"` // Date and time when the user registered
}

// DisplayName returns the name to show for the user, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Username
}

// Valid reports whether the record identifies a user.
func (u *User) Valid() bool {
	return u != nil && (u.ID != 0 || u.Username != "")
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
// - Contains at least one symbol
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
		hasSymbol bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		} else {
			hasSymbol = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if !hasSymbol {
		return fmt.Errorf("password must contain at least one symbol")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
