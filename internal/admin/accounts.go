package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
)

// maxWriteAttempts bounds retries after a concurrent update.
const maxWriteAttempts = 3

// setActive enables or disables an account. Disabling also drops its live
// refresh token so the session cannot be renewed.
func (a *App) setActive(ctx context.Context, args []string, active bool) error {
	if len(args) != 1 {
		return ErrUsage
	}
	username := args[0]

	return a.withDB(func(db *sql.DB) error {
		repo := a.manager.Accounts(db)

		for attempt := 0; attempt < maxWriteAttempts; attempt++ {
			acc, err := repo.FindByUsername(ctx, username)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return fmt.Errorf("account %q not found", username)
				}
				return err
			}
			if acc.IsActive == active {
				fmt.Fprintf(a.out, "%s: unchanged\n", username)
				return nil
			}

			expected := acc.Version
			acc.IsActive = active
			if !active {
				acc.ClearRefreshToken()
			}

			err = repo.UpdateIfMatches(ctx, acc, expected)
			if errors.Is(err, common.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return err
			}

			state := "activated"
			if !active {
				state = "deactivated"
			}
			fmt.Fprintf(a.out, "%s: %s\n", username, state)
			return nil
		}
		return fmt.Errorf("account %q: %w", username, common.ErrVersionConflict)
	})
}
