// Package accounts is the credential store: accounts keyed by unique email.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists accounts.
//
// Create returns common.ErrorDuplicateEmail when the email is taken.
// GetByEmail returns common.ErrorNotFound when no account matches.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}
