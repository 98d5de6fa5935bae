// Command adduser registers an account directly against the record store,
// for bootstrapping an installation without going through the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/adityakumar003/BrokeNoMore/internal/config"
	"github.com/adityakumar003/BrokeNoMore/internal/core"
	"github.com/adityakumar003/BrokeNoMore/internal/ledger"
	"github.com/adityakumar003/BrokeNoMore/internal/session"
	"github.com/adityakumar003/BrokeNoMore/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", "", "account password (required)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: adduser -email <email> -password <password>")
		os.Exit(2)
	}

	cfg := config.Load()

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to open record store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	svc := ledger.NewService(repo, session.NewManager(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.Register(ctx, *email, *password); err != nil {
		if errors.Is(err, core.ErrConflict) {
			fmt.Fprintf(os.Stderr, "account %s already exists\n", *email)
			os.Exit(1)
		}
		slog.Error("Failed to register account", "email", *email, "error", err)
		os.Exit(1)
	}

	fmt.Printf("account %s registered\n", *email)
}
