// Command list-registrations prints how many registrations are stored and
// shows the most recent ones. It uses the same environment as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"example.com/registration/internal/config"
	"example.com/registration/internal/domain"
	"example.com/registration/internal/logger"
	"example.com/registration/internal/storage"
)

func main() {
	limit := flag.Int("limit", 5, "number of recent registrations to show")
	flag.Parse()

	if err := run(*limit, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(limit int, out io.Writer) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.StoreBackend, err)
	}
	defer store.Close(context.Background())

	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	regs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	report(out, n, regs)
	return nil
}

func report(w io.Writer, total int64, regs []domain.Registration) {
	fmt.Fprintf(w, "Total registrations: %d\n\n", total)
	if total == 0 {
		fmt.Fprintln(w, "No registrations found yet.")
		return
	}

	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, "Recent registrations:")
	fmt.Fprintln(w, rule)
	for i, r := range regs {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, r.Name)
		fmt.Fprintf(w, "   Email:      %s\n", r.Email)
		fmt.Fprintf(w, "   Phone:      %s\n", r.Phone)
		fmt.Fprintf(w, "   College:    %s\n", r.College)
		fmt.Fprintf(w, "   Year:       %s\n", r.Year)
		fmt.Fprintf(w, "   Department: %s\n", r.Department)
		fmt.Fprintf(w, "   Team Size:  %s\n", r.TeamSize)
		fmt.Fprintf(w, "   Skills:     %s\n", domain.OrPlaceholder(r.Skills))
		fmt.Fprintf(w, "   Registered: %s\n", r.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "   ID:         %s\n", r.ID)
	}
	fmt.Fprintln(w, "\n"+rule)
}
