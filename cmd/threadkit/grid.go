package main

import (
	"fmt"
	"os"

	"github.com/Swind/go-threadkit/internal/demo"
	"github.com/urfave/cli/v2"
)

func GridCommand() *cli.Command {
	return &cli.Command{
		Name:    "grid",
		Aliases: []string{"mandelbrot"},
		Usage:   "Compute a Mandelbrot grid with one pool task per cell",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "grid-size",
				Usage: "Side length of the grid",
			},
			&cli.IntFlag{
				Name:  "max-iterations",
				Usage: "Escape-time iteration cap",
			},
			&cli.Float64Flag{
				Name:  "bailout",
				Usage: "Squared magnitude treated as escaped",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not render the grid",
			},
		},

		Action: GridAction,
	}
}

func GridAction(c *cli.Context) error {
	// 1. Load config
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	env, err := newRuntimeEnv(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer env.close()

	// 2. Run workload
	res, err := demo.RunGrid(demo.GridOptions{
		PoolSize:      cfg.PoolSize,
		Side:          cfg.GridSize,
		MaxIterations: cfg.MaxIterations,
		Bailout:       cfg.Bailout,
		Pool:          env.poolConfig("grid"),
		OnPool:        env.trackPool,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	// 3. Format output
	if !c.Bool("quiet") {
		if err := res.Render(os.Stdout); err != nil {
			return err
		}
	}
	fmt.Printf("\nCells: %d, inside: %d, workers: %d\n", len(res.Cells), res.Inside(), cfg.PoolSize)
	fmt.Printf("Time taken: %s\n", res.Elapsed)
	return nil
}
