// Command threadkit runs the canonical threadkit workloads: a Mandelbrot grid
// over a pool, message producers over a pool, and message producers on a
// single detached thread.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "threadkit",
		Usage: "Run thread pool and message queue workloads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a JSON config file",
				EnvVars: []string{"THREADKIT_CONFIG"},
			},
			&cli.IntFlag{
				Name:    "pool-size",
				Aliases: []string{"p"},
				Usage:   "Workers per pool",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
			},
			&cli.DurationFlag{
				Name:  "metrics-hold",
				Usage: "Keep serving metrics this long after the workload completes",
			},
		},
		Commands: []*cli.Command{
			GridCommand(),
			MessagesCommand(),
			ThreadCommand(),
			ScriptCommand(),
		},
	}
}
