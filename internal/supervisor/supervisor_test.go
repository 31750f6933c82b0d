//go:build linux

package supervisor

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/gauravsingh81190/xssh/internal/job"
)

// encodeExited/Signaled/Stopped/Continued build a raw wait(2) status word
// following the kernel's own encoding (see <bits/waitstatus.h>), so
// applyStatus can be exercised without actually forking anything.
func encodeExited(code int) unix.WaitStatus  { return unix.WaitStatus(code << 8) }
func encodeSignaled(sig int) unix.WaitStatus { return unix.WaitStatus(sig) }
func encodeStopped(sig int) unix.WaitStatus  { return unix.WaitStatus(0x7f | (sig << 8)) }
func encodeContinued() unix.WaitStatus       { return unix.WaitStatus(0xffff) }

func TestApplyStatusExited(t *testing.T) {
	p := &job.Process{Argv: []string{"true"}, Pid: 42, State: job.Running}
	j := job.New("true", []*job.Process{p}, false)
	j.NRunning = 1

	applyStatus(j, 42, encodeExited(0))

	if j.State != job.JobDone {
		t.Fatalf("want JobDone, got %s", j.State)
	}
}

func TestApplyStatusSignaled(t *testing.T) {
	p := &job.Process{Argv: []string{"sleep", "30"}, Pid: 42, State: job.Running}
	j := job.New("sleep 30", []*job.Process{p}, false)
	j.NRunning = 1

	applyStatus(j, 42, encodeSignaled(int(unix.SIGINT)))

	if j.State != job.JobKilled {
		t.Fatalf("want JobKilled, got %s", j.State)
	}
	if j.Status != int(unix.SIGINT) {
		t.Fatalf("want status = SIGINT, got %d", j.Status)
	}
}

func TestApplyStatusStoppedThenContinued(t *testing.T) {
	p := &job.Process{Argv: []string{"sleep", "30"}, Pid: 42, State: job.Running}
	j := job.New("sleep 30", []*job.Process{p}, false)
	j.NRunning = 1

	applyStatus(j, 42, encodeStopped(int(unix.SIGTSTP)))
	if j.State != job.JobStopped {
		t.Fatalf("want JobStopped, got %s", j.State)
	}

	applyStatus(j, 42, encodeContinued())
	if j.State != job.JobRunning {
		t.Fatalf("want JobRunning, got %s", j.State)
	}
}

func TestApplyStatusUnknownPidIgnored(t *testing.T) {
	p := &job.Process{Argv: []string{"true"}, Pid: 42, State: job.Running}
	j := job.New("true", []*job.Process{p}, false)
	j.NRunning = 1

	applyStatus(j, 999, encodeExited(0))

	if j.State != job.JobRunning || len(j.Processes) != 1 {
		t.Fatalf("want job untouched by an unknown pid, got state=%s procs=%d", j.State, len(j.Processes))
	}
}
