// Command authctl is the operator tool for a credkeeper deployment.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/credkeeper/internal/admin"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	openDB := func() (*sql.DB, error) {
		return sql.Open("pgx", cfg.DatabaseDSN)
	}

	app := admin.NewApp(os.Stdout, repomanager.NewPostgresRepositoryManager(), openDB, cfg.GRPCAddr, cfg.BcryptCost)
	if err := app.Run(context.Background(), config.CommandArgs(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
