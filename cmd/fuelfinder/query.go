package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/muesli/gominatim"
	"github.com/urfave/cli/v2"

	"github.com/fulltobrim/fuelfinder/internal/snapshot"
	"github.com/fulltobrim/fuelfinder/pkg/engine"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Find the closest cheapest stations around a point",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "location",
				Usage:    "Location to search",
				Required: false,
			},
			&cli.Float64Flag{
				Name:  "lat",
				Usage: "Latitude of the location",
			},
			&cli.Float64Flag{
				Name:  "long",
				Usage: "Longitude of the location",
			},
			&cli.StringFlag{
				Name:  "fuel",
				Usage: "Fuel selector (e.g. e10, e5, b7)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: engine.DefaultLimit,
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "Query a snapshot file instead of the database",
				EnvVars: []string{"FUELFINDER_DATA"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Database file",
				Value: "fuel_prices.db",
			},
		},
		Action: queryAction,
	}
}

func queryAction(c *cli.Context) error {
	lat := c.Float64("lat")
	lon := c.Float64("long")

	if loc := c.String("location"); loc != "" {
		var err error
		lat, lon, err = geocodeLocation(loc)
		if err != nil {
			return err
		}
	} else if lat == 0 && lon == 0 {
		return errors.New("location or latitude and longitude are required")
	}

	records, err := loadRecords(c.Context, c.String("data"), c.String("db"))
	if err != nil {
		return err
	}

	results, err := engine.ClosestCheapest(records, engine.LatLon{Lat: lat, Lon: lon}, c.String("fuel"), c.Int("limit"))
	if err != nil {
		if errors.Is(err, engine.ErrEmptySnapshot) {
			return errors.New("snapshot contains no records, run `fuelfinder update` first")
		}
		return err
	}

	if len(results) == 0 {
		fmt.Println("No stations with usable coordinates and prices found.")
		return nil
	}

	for i, res := range results {
		name := res.Name
		if name == "" {
			name = "(unnamed station)"
		}
		fmt.Printf("%d. %s\n", i+1, name)
		if res.Brand != "" {
			fmt.Printf("   Brand: %s\n", res.Brand)
		}
		if res.Address != "" {
			fmt.Printf("   Address: %s\n", res.Address)
		}
		fmt.Printf("   Price: %.3f\n", res.Price)
		fmt.Printf("   Distance: %.3f km\n", res.DistanceKm)
		fmt.Printf("   Coordinates: %.4f, %.4f\n\n", res.Lat, res.Lon)
	}

	return nil
}

func loadRecords(ctx context.Context, dataPath, dbPath string) ([]engine.Record, error) {
	if dataPath != "" {
		doc, err := snapshot.LoadFile(dataPath)
		if err != nil {
			return nil, err
		}
		return engine.Normalize(doc), nil
	}

	storage, err := snapshot.NewStorage(ctx, dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		return nil, fmt.Errorf("error initializing storage: %w", err)
	}
	defer storage.Close()

	doc, err := storage.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil, errors.New("no snapshot in database, run `fuelfinder update` first")
		}
		return nil, err
	}
	return engine.Normalize(doc), nil
}

func geocodeLocation(location string) (lat, lon float64, err error) {
	gominatim.SetServer("https://nominatim.openstreetmap.org/")

	query := gominatim.SearchQuery{
		Q: url.QueryEscape(location),
	}

	results, err := query.Get()
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding error: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no results found for location: %s", location)
	}
	fmt.Println("Location found:", results[0].DisplayName)

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing latitude: %w", err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing longitude: %w", err)
	}

	return lat, lon, nil
}
