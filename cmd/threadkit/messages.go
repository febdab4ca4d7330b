package main

import (
	"context"
	"fmt"

	"github.com/Swind/go-threadkit/internal/demo"
	"github.com/urfave/cli/v2"
)

func MessagesCommand() *cli.Command {
	return &cli.Command{
		Name:    "messages",
		Aliases: []string{"pool"},
		Usage:   "Run producer tasks on a pool and drain their message queue",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Usage:   "Producer tasks per run",
			},
			&cli.IntFlag{
				Name:  "runs",
				Usage: "Independent pools run concurrently",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up draining after this long",
			},
		},

		Action: MessagesAction,
	}
}

func MessagesAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	env, err := newRuntimeEnv(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(c.Context, cfg.DrainTimeout)
	defer cancel()

	out, err := demo.RunMessages(ctx, demo.MessagesOptions{
		PoolSize:  cfg.PoolSize,
		TaskCount: cfg.TaskCount,
		Runs:      cfg.Runs,
		Pool:      env.poolConfig("messages"),
		OnPool:    env.trackPool,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	for _, msgs := range out {
		for _, m := range msgs {
			fmt.Printf("run=%d task=%d worker=%d value=%d\n", m.Run, m.Task, m.Worker, m.Value)
		}
	}
	return nil
}
