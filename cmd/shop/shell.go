package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"
)

const shellHistory = ".shop_history"

// runShell reads commands line by line and dispatches each through the same
// cli app, so every line sees the catalog as left by the previous one.
func runShell(c *cli.Context, st *state) error {
	if err := os.MkdirAll(st.shop.cfg.TempDir, 0o755); err != nil {
		return err
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "shop> ",
		HistoryFile:     filepath.Join(st.shop.cfg.TempDir, shellHistory),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	app := newApp(st)
	app.Writer = rl.Stdout()
	app.ErrWriter = rl.Stderr()
	app.ExitErrHandler = func(*cli.Context, error) {}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			continue
		}

		if err := app.RunContext(c.Context, append([]string{service}, args...)); err != nil {
			fmt.Fprintln(rl.Stderr(), "error:", err)
		}
		if c.Context.Err() != nil {
			return nil
		}
	}
}
