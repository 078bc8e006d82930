package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/fulltobrim/fuelfinder/internal/snapshot"
)

func datesCommand() *cli.Command {
	return &cli.Command{
		Name:  "dates",
		Usage: "List stored snapshot dates and report missing days",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "Database file",
				Required: false,
				Value:    "fuel_prices.db",
			},
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Start date (YYYY-MM-DD)",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "end",
				Usage:    "End date (YYYY-MM-DD)",
				Required: false,
			},
		},
		Action: datesAction,
	}
}

func datesAction(c *cli.Context) error {
	storage, err := snapshot.NewStorage(c.Context, c.String("db"), slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	defer storage.Close()

	allDates, err := storage.AllDates(c.Context)
	if err != nil {
		return err
	}
	if len(allDates) == 0 {
		fmt.Println("No snapshots found in database.")
		return nil
	}

	fmt.Printf("Stored snapshots: %d (%s to %s)\n", len(allDates),
		allDates[0].Format("2006-01-02"), allDates[len(allDates)-1].Format("2006-01-02"))

	startDate := allDates[0]
	if c.String("start") != "" {
		startDate, err = time.Parse("2006-01-02", c.String("start"))
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
	}
	endDate := time.Now()
	if c.String("end") != "" {
		endDate, err = time.Parse("2006-01-02", c.String("end"))
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	dateSet := make(map[string]struct{}, len(allDates))
	for _, d := range allDates {
		dateSet[d.Format("2006-01-02")] = struct{}{}
	}

	var missing []string
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		ds := d.Format("2006-01-02")
		if _, ok := dateSet[ds]; !ok {
			missing = append(missing, ds)
		}
	}

	if len(missing) == 0 {
		fmt.Println("No missing days in the given range.")
	} else {
		fmt.Println("Missing days:")
		for _, m := range missing {
			fmt.Println(m)
		}
	}
	return nil
}
