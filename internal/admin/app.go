// Package admin implements authctl, the operator command line: schema
// migrations, offline secret hashing, account activation and token
// introspection against a running server.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/accounts"
	"google.golang.org/grpc"
)

var ErrUsage = errors.New("usage: authctl <migrate up|down|status | hash [-algorithm bcrypt|argon2] | activate <username> | deactivate <username> | introspect [-addr host:port] <token>>")

// Manager is the part of repomanager.PostgresRepositoryManager authctl uses.
type Manager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	RollbackMigration(ctx context.Context, db *sql.DB) error
	MigrationStatus(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}

type App struct {
	out     io.Writer
	manager Manager

	// openDB is called only by commands that need the database.
	openDB func() (*sql.DB, error)
	// dial connects to the token service.
	dial func(addr string) (grpc.ClientConnInterface, io.Closer, error)

	grpcAddr   string
	bcryptCost int
}

func NewApp(out io.Writer, m Manager, openDB func() (*sql.DB, error), grpcAddr string, bcryptCost int) *App {
	return &App{
		out:        out,
		manager:    m,
		openDB:     openDB,
		dial:       dialInsecure,
		grpcAddr:   grpcAddr,
		bcryptCost: bcryptCost,
	}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return a.migrate(ctx, rest)
	case "hash":
		return a.hash(rest)
	case "activate":
		return a.setActive(ctx, rest, true)
	case "deactivate":
		return a.setActive(ctx, rest, false)
	case "introspect":
		return a.introspect(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}

// withDB opens the database for the duration of fn.
func (a *App) withDB(fn func(db *sql.DB) error) error {
	db, err := a.openDB()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	return fn(db)
}
