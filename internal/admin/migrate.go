package admin

import (
	"context"
	"database/sql"
	"fmt"
)

func (a *App) migrate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}

	var run func(ctx context.Context, db *sql.DB) error
	switch args[0] {
	case "up":
		run = a.manager.RunMigrations
	case "down":
		run = a.manager.RollbackMigration
	case "status":
		run = a.manager.MigrationStatus
	default:
		return fmt.Errorf("unknown migrate direction %q: %w", args[0], ErrUsage)
	}

	return a.withDB(func(db *sql.DB) error {
		if err := run(ctx, db); err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}
		fmt.Fprintf(a.out, "migrate %s: ok\n", args[0])
		return nil
	})
}
