//go:build linux

// Package shell ties the core together: a single Context value
// constructed at shell start, threading the job table and config through
// every operation the prompt loop and built-ins need. All mutable
// job-control state lives behind this one handle's method receivers.
package shell

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/rs/zerolog/log"

	"github.com/gauravsingh81190/xssh/internal/config"
	"github.com/gauravsingh81190/xssh/internal/debugproto"
	"github.com/gauravsingh81190/xssh/internal/job"
	"github.com/gauravsingh81190/xssh/internal/jobtable"
	"github.com/gauravsingh81190/xssh/internal/launch"
	"github.com/gauravsingh81190/xssh/internal/parser"
	"github.com/gauravsingh81190/xssh/internal/supervisor"
)

// TTYFd is the descriptor the shell treats as its controlling terminal.
const TTYFd = launch.TTYFd

// Context is the single process-wide handle pinned at shell startup.
// Signal routing closes over a stable reference to it.
type Context struct {
	Table  *jobtable.Table
	Config *config.Config

	ShellPgid  int
	LastStatus int
}

// New constructs a Context, capturing the shell's own process group so
// it can be reclaimed as the terminal's owner after every foreground job.
func New(cfg *config.Config) *Context {
	return &Context{
		Table:     jobtable.New(),
		Config:    cfg,
		ShellPgid: currentPgid(),
	}
}

func currentPgid() int {
	if pgid, err := unix.IoctlGetInt(TTYFd, unix.TIOCGPGRP); err == nil && pgid != 0 {
		return pgid
	}
	return syscall.Getpid()
}

// Foreground implements signalrouter.ForegroundSource.
func (c *Context) Foreground() *job.Job { return c.Table.Foreground() }

// Submit parses and launches one command line end to end: Parse then
// Run, composed for the common case. A no-op line returns (nil, nil).
func (c *Context) Submit(line string) (*job.Job, error) {
	j, err := parser.Parse(line)
	if err != nil {
		c.LastStatus = 1
		return nil, err
	}
	if j == nil {
		return nil, nil
	}
	if err := c.Run(j); err != nil {
		c.LastStatus = 1
		return nil, err
	}
	return j, nil
}

// Run launches j. Background jobs are registered in the table and return
// immediately; foreground jobs are supervised to completion or
// suspension before Run returns.
func (c *Context) Run(j *job.Job) error {
	if err := launch.Launch(j); err != nil {
		return err
	}

	if j.Background {
		c.Table.AddBackground(j)
		fmt.Printf("[%d] %s &\n", j.Spec, j.Cmd)
		return nil
	}

	c.Table.SetForeground(j)
	if err := supervisor.WaitForeground(j); err != nil {
		log.Error().Err(err).Msg("foreground wait failed")
	}
	return c.settleForeground(j)
}

// settleForeground runs once a foreground wait loop exits, whatever
// state the job landed in: a stopped job moves to the background table,
// a finished one is retired; either way the shell takes the terminal
// back.
func (c *Context) settleForeground(j *job.Job) error {
	switch j.State {
	case job.JobStopped:
		c.Table.AddBackground(j)
		c.reclaimTerminal()
		fmt.Printf("[%d] STOPPED %s\n", j.Spec, j.Cmd)
		c.Table.ClearForeground()
	case job.JobDone, job.JobKilled:
		c.reclaimTerminal()
		if j.State == job.JobKilled && j.Status == int(syscall.SIGINT) {
			fmt.Printf("-xssh: Exit pid %d\n", j.Pgid)
		}
		c.LastStatus = j.Status
		hadSpec := j.Spec != 0
		c.Table.ClearForeground()
		c.Table.Reindex(hadSpec)
	}
	return nil
}

// reclaimTerminal hands the controlling terminal back to the shell's own
// pgid. Called whenever the foreground job ends or suspends.
func (c *Context) reclaimTerminal() {
	if err := unix.IoctlSetPointerInt(TTYFd, unix.TIOCSPGRP, c.ShellPgid); err != nil {
		log.Error().Err(err).Msg("failed to reclaim controlling terminal")
	}
}

// Fg brings a background job to the foreground: it leaves the table,
// takes the terminal, gets SIGCONT, and is supervised until it stops or
// finishes. spec == 0 resumes the table's most-recently-touched job.
func (c *Context) Fg(spec int) error {
	j, ok := c.lookupOrLast(spec)
	if !ok {
		c.LastStatus = 1
		return fmt.Errorf("-xssh: fg: %s: no such job", specArg(spec))
	}

	c.Table.Remove(j.Spec)
	j.Background = false

	if err := unix.IoctlSetPointerInt(TTYFd, unix.TIOCSPGRP, j.Pgid); err != nil {
		return fmt.Errorf("fg: tcsetpgrp: %w", err)
	}
	if err := unix.Kill(-j.Pgid, syscall.SIGCONT); err != nil && err != unix.ESRCH {
		return fmt.Errorf("fg: %w", err)
	}
	resumeStoppedProcesses(j)

	c.Table.SetForeground(j)
	fmt.Println(j.Cmd)

	if err := supervisor.WaitForeground(j); err != nil {
		log.Error().Err(err).Msg("foreground wait failed")
	}
	return c.settleForeground(j)
}

// Bg resumes a stopped background job in place, without touching the
// terminal.
func (c *Context) Bg(spec int) error {
	j, ok := c.lookupOrLast(spec)
	if !ok {
		c.LastStatus = 1
		return fmt.Errorf("-xssh: bg: %s: no such job", specArg(spec))
	}

	if err := unix.Kill(-j.Pgid, syscall.SIGCONT); err != nil && err != unix.ESRCH {
		return fmt.Errorf("bg: %w", err)
	}
	resumeStoppedProcesses(j)

	c.Table.AddBackground(j)
	fmt.Printf("[%d] RUNNING %s &\n", j.Spec, j.Cmd)
	return nil
}

func resumeStoppedProcesses(j *job.Job) {
	for _, p := range j.Processes {
		if p.State == job.Stopped {
			j.Continued(p)
		}
	}
}

func (c *Context) lookupOrLast(spec int) (*job.Job, bool) {
	if spec == 0 {
		return c.Table.Last()
	}
	return c.Table.Lookup(spec)
}

func specArg(spec int) string {
	if spec == 0 {
		return "current"
	}
	return fmt.Sprintf("%%%d", spec)
}

// Sweep drains pending background-job status changes, printing a status
// line for each job that finished.
func (c *Context) Sweep() {
	supervisor.SweepBackground(c.Table, func(j *job.Job) {
		fmt.Printf("[%d] %s %d %s\n", j.Spec, j.State, j.Status, j.Cmd)
	})
}

// Wait implements the `wait` built-in's contract: -1 sweeps all known
// children, a positive pid blocks on exactly that pid.
func (c *Context) Wait(pid int) (int, error) {
	return supervisor.WaitPid(c.Table, c.Table.Foreground(), pid)
}

// Snapshot captures the job table's current foreground/background state
// for the debugproto introspection channel.
func (c *Context) Snapshot() debugproto.TableSnapshot {
	return debugproto.SnapshotTable(c.Table)
}
