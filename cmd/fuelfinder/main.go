package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine, real environment variables still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "fuelfinder",
		Usage: "Aggregate fuel price feeds and find the closest cheapest stations",
		Commands: []*cli.Command{
			updateCommand(),
			serveCommand(),
			queryCommand(),
			datesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
