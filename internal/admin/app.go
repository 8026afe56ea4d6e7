package admin

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/audit"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type App struct {
	db     *sql.DB
	seeder *Seeder
	logger logging.Logger
}

// NewApp connects to the account store and migrates it. Audit writes are
// disabled: seeding never logs anyone in.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, c.LogLevel, os.Stderr)

	db, err := dbx.Open(ctx, repomanager.DriverName, c.DatabaseDSN, dbx.DefaultPoolOptions)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenService(c.SecretKey, c.TokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	recorder := audit.NewRecorder(audit.NopSink{}, logger, nil)
	sessions := services.NewSessionController(db, rm, cryptox.NewArgon2idHasher(), tokens, recorder, logger)

	return &App{
		db:     db,
		seeder: NewSeeder(sessions, os.Stdin, os.Stdout, int(os.Stdin.Fd())),
		logger: logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	if _, err := a.seeder.CreateAccount(ctx); err != nil {
		a.logger.Error(ctx, "account not created", "error", err)
		return err
	}
	return nil
}
