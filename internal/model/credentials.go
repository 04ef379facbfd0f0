package model

import (
	"errors"
	"strings"
)

// MinUsernameLen is the shortest accepted login name (a phone number).
const MinUsernameLen = 10

// Credentials are the portal login pair. The portal takes them on every request.
type Credentials struct {
	Username string `toml:"username" json:"username"`
	Password string `toml:"password" json:"-"`
}

// Validate checks the credentials look usable before hitting the portal.
func (c Credentials) Validate() error {
	if len(strings.TrimSpace(c.Username)) < MinUsernameLen {
		return errors.New("username must be at least 10 characters")
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// Empty reports whether neither field is set.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}
