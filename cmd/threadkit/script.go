package main

import (
	"context"
	"fmt"

	"github.com/Swind/go-threadkit/internal/demo"
	"github.com/urfave/cli/v2"
)

func ScriptCommand() *cli.Command {
	return &cli.Command{
		Name:      "script",
		Usage:     "Run a JavaScript file on a single detached thread",
		ArgsUsage: "<file> [args...]",

		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up draining after this long",
			},
		},

		Action: ScriptAction,
	}
}

func ScriptAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("script: missing <file>", 1)
	}
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

	messages, err := demo.RunScript(ctx, demo.ScriptOptions{
		Path:     c.Args().First(),
		Args:     c.Args().Tail(),
		Worker:   env.workerConfig("script"),
		OnHandle: env.trackHandle,
	})
	for _, m := range messages {
		fmt.Println(m)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	return nil
}
