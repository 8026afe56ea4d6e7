package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Account is the credential store record. Email is the unique key and
// PasswordHash holds the credential verifier, never the plaintext.
// Username is optional.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Validate checks the required fields before the record reaches the store.
func (a *Account) Validate() error {
	switch {
	case a == nil:
		return common.ErrorInvalidAccount
	case a.ID == "":
		return common.ErrorInvalidAccount
	case strings.TrimSpace(a.Email) == "":
		return common.ErrorEmailRequired
	case a.PasswordHash == "":
		return common.ErrorPasswordRequired
	}
	return nil
}
