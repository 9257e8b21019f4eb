package valueobjects

import (
	"errors"
	"strconv"
)

// WordID identifies a word. Valid ids are positive.
type WordID int64

// VaultID identifies a vault. Valid ids are positive.
type VaultID int64

// UserID identifies the owner of vaults.
type UserID int64

var (
	ErrInvalidWordID  = errors.New("word ID must be a positive integer")
	ErrInvalidVaultID = errors.New("vault ID must be a positive integer")
	ErrInvalidUserID  = errors.New("user ID must be a positive integer")
)

// ParseWordID parses a decimal word id as found in URLs and CLI arguments.
func ParseWordID(s string) (WordID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidWordID
	}
	return WordID(n), nil
}

// ParseUserID parses a decimal user id, typically a token subject.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidUserID
	}
	return UserID(n), nil
}

func (id WordID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id WordID) IsZero() bool    { return id == 0 }
func (id WordID) Valid() bool     { return id > 0 }
func (id VaultID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id VaultID) Valid() bool    { return id > 0 }
func (id UserID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id UserID) Valid() bool     { return id > 0 }
