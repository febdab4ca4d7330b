package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.ExitErrHandler = func(c *cli.Context, err error) {}
	return app.Run(append([]string{"threadkit"}, args...))
}

func TestApp_Grid(t *testing.T) {
	err := runApp(t, "--pool-size", "3", "grid", "--grid-size", "12", "--max-iterations", "50", "--quiet")
	assert.NoError(t, err)
}

func TestApp_Messages(t *testing.T) {
	err := runApp(t, "-p", "2", "messages", "-n", "6", "--runs", "2")
	assert.NoError(t, err)
}

func TestApp_Thread(t *testing.T) {
	err := runApp(t, "thread", "-n", "2")
	assert.NoError(t, err)
}

func TestApp_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.js")
	require.NoError(t, os.WriteFile(path, []byte(`args[0].Push("hello " + args[1]);`), 0o644))

	assert.NoError(t, runApp(t, "script", path, "world"))

	err := runApp(t, "script")
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
}

func TestApp_InvalidPoolSize(t *testing.T) {
	err := runApp(t, "--pool-size", "0", "messages")

	require.Error(t, err)
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
}

// TestApp_ConfigFileAndMetrics verifies file config, flag override and the
// metrics endpoint lifecycle
func TestApp_ConfigFileAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pool_size": 1, "task_count": 3, "log_level": "warn"}`), 0o600))

	err := runApp(t, "--config", path, "--pool-size", "2", "--metrics-addr", "127.0.0.1:0", "messages")

	assert.NoError(t, err)
}

func TestLoadConfig_Overrides(t *testing.T) {
	var got int
	app := &cli.App{
		Flags: newApp().Flags,
		Commands: []*cli.Command{{
			Name:  "overrides",
			Flags: []cli.Flag{&cli.IntFlag{Name: "tasks"}},
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				got = cfg.TaskCount*100 + cfg.PoolSize
				return nil
			},
		}},
	}

	require.NoError(t, app.Run([]string{"threadkit", "--pool-size", "7", "overrides", "--tasks", "3"}))
	assert.Equal(t, 307, got)
}
