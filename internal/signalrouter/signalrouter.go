//go:build linux

// Package signalrouter installs the shell's terminal-signal handling and
// forwards interrupt/suspend to the foreground job's process group.
// os/signal delivers the notification over a channel, and the single
// goroutine draining it does nothing beyond reading the stable
// foreground pointer and sending a kernel signal to a pgid; all
// job/process state mutation stays in the supervisor.
package signalrouter

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/gauravsingh81190/xssh/internal/job"
)

// ForegroundSource reports the shell's current foreground job. A
// *shell.Context satisfies this directly.
type ForegroundSource interface {
	Foreground() *job.Job
}

// Install installs handlers for SIGINT and SIGTSTP that forward to the
// foreground job's negated pgid, or call rePrompt when there is no
// foreground job. It never terminates the shell. Returns a channel whose
// closure stops the router; call this once at startup and close it at
// shell exit.
func Install(src ForegroundSource, rePrompt func()) chan<- struct{} {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTSTP)
	signal.Ignore(syscall.SIGTTOU, syscall.SIGTTIN)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigs:
				route(src, sig, rePrompt)
			case <-done:
				signal.Stop(sigs)
				return
			}
		}
	}()
	return done
}

func route(src ForegroundSource, sig os.Signal, rePrompt func()) {
	j := src.Foreground()
	if j == nil {
		if rePrompt != nil {
			rePrompt()
		}
		return
	}
	s, ok := sig.(syscall.Signal)
	if !ok {
		return
	}
	if err := unix.Kill(-j.Pgid, s); err != nil && err != unix.ESRCH {
		// Best-effort: a dead pgid here means the supervisor just
		// hasn't reaped it yet. Nothing else for a router to do.
		_ = err
	}
}
