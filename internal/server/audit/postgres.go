package audit

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// PostgresSink appends thoughts to the thoughts table.
type PostgresSink struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewPostgresSink(db dbx.DBTX, m repomanager.RepositoryManager) *PostgresSink {
	return &PostgresSink{db: db, repomanager: m}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, thought *models.Thought) error {
	return s.repomanager.Thoughts(s.db).Create(ctx, thought)
}
