//go:build linux

// Package supervisor reaps status changes for a Job's process group and
// advances the job.Job/job.Process state machine accordingly. It has two
// entry points: a blocking wait for the foreground job and a
// non-blocking sweep of every background job.
//
// Reaping goes through unix.Wait4 on the negated pgid with
// WUNTRACED|WCONTINUED so stops and resumes are observed, not just
// exits. The package is purely synchronous: transitions are applied in
// the order the kernel reports them, on the shell's main execution path.
package supervisor

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/rs/zerolog/log"

	"github.com/gauravsingh81190/xssh/internal/job"
	"github.com/gauravsingh81190/xssh/internal/jobtable"
)

// WaitForeground blocks on status changes for j's process group until
// j's state becomes Stopped, Done or Killed. The blocking wait is
// expected to be interrupted by the shell's own signal handling; EINTR
// simply re-enters the wait.
func WaitForeground(j *job.Job) error {
	for j.State == job.JobRunning {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-j.Pgid, &ws, unix.WUNTRACED|unix.WCONTINUED, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ECHILD) {
				// No child left to report on; treat the job as done.
				j.State = job.JobDone
				return nil
			}
			return fmt.Errorf("supervisor: wait4: %w", err)
		}
		applyStatus(j, pid, ws)
	}
	return nil
}

// SweepOne drains every pending, non-blocking status change for j
// without removing it from any table; used by WaitPid for the foreground
// job and by SweepBackground below.
func SweepOne(j *job.Job) {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-j.Pgid, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err != nil || pid <= 0 {
			return
		}
		applyStatus(j, pid, ws)
	}
}

// SweepBackground drains pending status changes for every job currently
// in t, in insertion order, removing and reporting (via report) any that
// reach Done or Killed.
func SweepBackground(t *jobtable.Table, report func(*job.Job)) {
	for _, j := range t.Jobs() {
		SweepOne(j)
		if j.State == job.JobDone || j.State == job.JobKilled {
			t.Remove(j.Spec)
			report(j)
		}
	}
}

// WaitPid implements the `wait` built-in's contract: wait(-1) drains
// every known child non-blockingly across all jobs; wait(pid) for
// pid > 0 blocks on exactly that pid, not its process group.
func WaitPid(t *jobtable.Table, fg *job.Job, pid int) (status int, err error) {
	if pid == -1 {
		if fg != nil {
			SweepOne(fg)
		}
		SweepBackground(t, func(*job.Job) {})
		return 0, nil
	}

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return 0, fmt.Errorf("wait: %w", err)
	}
	return ws.ExitStatus(), nil
}

// applyStatus locates pid within j and applies the matching transition;
// each transition method re-derives j.State afterward.
func applyStatus(j *job.Job, pid int, ws unix.WaitStatus) {
	p := j.Find(pid)
	if p == nil {
		return
	}
	switch {
	case ws.Exited():
		log.Info().Int("pid", pid).Int("code", ws.ExitStatus()).Msg("process exited")
		j.Exited(p, ws.ExitStatus())
	case ws.Signaled():
		log.Info().Int("pid", pid).Int("signal", int(ws.Signal())).Msg("process killed by signal")
		j.KilledBySignal(p, int(ws.Signal()))
	case ws.Stopped():
		log.Info().Int("pid", pid).Msg("process stopped")
		j.StoppedBySignal(p)
	case ws.Continued():
		log.Info().Int("pid", pid).Msg("process continued")
		j.Continued(p)
	}
}
