// Package thoughts stores per-user audit records.
package thoughts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, thought *models.Thought) error
}
