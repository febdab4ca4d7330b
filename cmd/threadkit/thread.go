package main

import (
	"context"
	"fmt"

	"github.com/Swind/go-threadkit/internal/demo"
	"github.com/urfave/cli/v2"
)

func ThreadCommand() *cli.Command {
	return &cli.Command{
		Name:  "thread",
		Usage: "Run producer tasks on a single detached thread",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Usage:   "Producer tasks",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up draining after this long",
			},
		},

		Action: ThreadAction,
	}
}

func ThreadAction(c *cli.Context) error {
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

	values, err := demo.RunThread(ctx, demo.ThreadOptions{
		TaskCount: cfg.TaskCount,
		Worker:    env.workerConfig("thread"),
		OnHandle:  env.trackHandle,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}

	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}
