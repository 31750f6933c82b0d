// Command xssh is the thinnest driver that exercises the job-control
// core end to end: construct, install signal handling, then the
// read-parse-launch-supervise loop, plus the handful of built-ins (exit,
// fg, bg, jobs) whose contract the core itself defines. Variable substitution
// and the rest of the built-ins belong to the surrounding shell, not
// here.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/gauravsingh81190/xssh/internal/config"
	"github.com/gauravsingh81190/xssh/internal/shell"
	"github.com/gauravsingh81190/xssh/internal/signalrouter"
	"github.com/gauravsingh81190/xssh/internal/xlog"
)

func main() {
	xlog.Init(os.Getenv("XSSH_DEBUG") != "")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "-xssh: config: %v\n", err)
		os.Exit(1)
	}

	ctx := shell.New(cfg)
	done := signalrouter.Install(ctx, func() { printPrompt(cfg) })
	defer close(done)

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if interactive {
			printPrompt(cfg)
		}
		ctx.Sweep()

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if len(line) > cfg.MaxLineLength {
			fmt.Fprintln(os.Stderr, "-xssh: input line too long")
			ctx.LastStatus = 1
			continue
		}

		if handled, code := handleBuiltin(ctx, line); handled {
			if code >= 0 {
				os.Exit(code)
			}
			continue
		}

		if _, err := ctx.Submit(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	os.Exit(ctx.LastStatus)
}

// handleBuiltin dispatches the built-ins whose contract the core itself
// defines (exit, fg, bg, jobs). Everything else (show, set, export, cd, pwd,
// help, wait, history) belongs to the surrounding shell. Returns
// (handled, exitCode); a negative exitCode means "handled, don't exit".
func handleBuiltin(ctx *shell.Context, line string) (bool, int) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return false, -1
	}

	switch fields[0] {
	case "exit":
		return true, exitCode(fields, ctx.LastStatus)
	case "fg":
		if err := ctx.Fg(specOf(fields)); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return true, -1
	case "bg":
		if err := ctx.Bg(specOf(fields)); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return true, -1
	case "jobs":
		for _, j := range ctx.Table.Jobs() {
			fmt.Printf("[%d] %s %s\n", j.Spec, j.State, j.Cmd)
		}
		return true, -1
	default:
		return false, -1
	}
}

func printPrompt(cfg *config.Config) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(os.Stdout, cfg.Prompt)
	}
}

func specOf(fields []string) int {
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(fields[1], "%"))
	if err != nil {
		return 0
	}
	return n
}

func exitCode(fields []string, last int) int {
	if len(fields) < 2 {
		return last
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		// Malformed argument exits with -1, which the kernel reports
		// as status byte 255.
		return 255
	}
	return n & 0xff
}
