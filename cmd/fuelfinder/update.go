package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/fulltobrim/fuelfinder/internal/snapshot"
	"github.com/fulltobrim/fuelfinder/pkg/feeds"
)

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Fetch all retailer feeds and store a fresh snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "retailers",
				Usage:   "Retailer registry file",
				Value:   "retailers.json",
				EnvVars: []string{"FUELFINDER_RETAILERS"},
			},
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Database file",
				Required: false,
				Value:    "fuel_prices.db",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Also write the snapshot JSON to this file",
			},
			&cli.IntFlag{
				Name:  "keep-days",
				Usage: "Delete snapshots older than this many days (0 keeps everything)",
			},
		},
		Action: updateAction,
	}
}

func updateAction(c *cli.Context) error {
	retailers, err := feeds.LoadRetailers(c.String("retailers"))
	if err != nil {
		return err
	}

	client := feeds.NewClient(retailers)
	snap := client.FetchAll(c.Context)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("error writing snapshot file: %w", err)
		}
	}

	storage, err := snapshot.NewStorage(c.Context, c.String("db"), slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.SaveSnapshot(c.Context, snap.Timestamp, data); err != nil {
		return err
	}

	if days := c.Int("keep-days"); days > 0 {
		deleted, err := storage.DeleteOldSnapshots(c.Context, days)
		if err != nil {
			return err
		}
		if deleted > 0 {
			fmt.Printf("Pruned %d old snapshots\n", deleted)
		}
	}

	ok, failed := 0, 0
	for _, res := range snap.Results {
		if res.Status == feeds.StatusSuccess {
			ok++
		} else {
			failed++
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", res.Retailer, res.Error)
		}
	}
	fmt.Printf("Snapshot saved: %d feeds fetched, %d failed\n", ok, failed)

	return nil
}
