// Command storecheck verifies that the configured card store is reachable
// and prints the stored cards for the customer ids given as arguments.
// It never creates or modifies cards.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"seven-oz-loyalty/internal/config"
	"seven-oz-loyalty/internal/model"
	"seven-oz-loyalty/internal/repository"
	"seven-oz-loyalty/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeStore, err := store.Open(ctx, cfg, config.NewLogger(cfg.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open %s store: %v\n", cfg.Store.Backend, err)
		os.Exit(1)
	}
	defer closeStore()

	fmt.Printf("Successfully connected to %s store\n", cfg.Store.Backend)

	failed := false
	for _, id := range os.Args[1:] {
		card, err := repo.FindByUserID(ctx, model.UserID(id))
		switch {
		case errors.Is(err, repository.ErrCardNotFound):
			fmt.Printf("%s: no card\n", id)
		case err != nil:
			fmt.Fprintf(os.Stderr, "%s: lookup failed: %v\n", id, err)
			failed = true
		default:
			status := "ok"
			if err := card.Validate(); err != nil {
				status = err.Error()
				failed = true
			}
			fmt.Printf("%s: %d/%d stamps (%s)\n", id, card.Stamps, card.Capacity, status)
		}
	}

	if failed {
		closeStore()
		os.Exit(1)
	}
}
