//go:build linux

package signalrouter

import (
	"syscall"
	"testing"

	"github.com/gauravsingh81190/xssh/internal/job"
)

type fakeSource struct{ j *job.Job }

func (f fakeSource) Foreground() *job.Job { return f.j }

func TestRouteWithNoForegroundCallsRePrompt(t *testing.T) {
	called := false
	route(fakeSource{j: nil}, syscall.SIGINT, func() { called = true })
	if !called {
		t.Fatalf("want rePrompt called when there is no foreground job")
	}
}

func TestRouteWithForegroundDoesNotCallRePrompt(t *testing.T) {
	// Use this test process's own pgid so Kill(-pgid, 0-like signal)
	// exercises the real syscall path without disturbing the test run:
	// SIGCONT on our own group is a harmless no-op continuation signal.
	j := job.New("self", nil, false)
	j.Pgid, _ = syscall.Getpgid(0)

	called := false
	route(fakeSource{j: j}, syscall.SIGCONT, func() { called = true })
	if called {
		t.Fatalf("want rePrompt not called when a foreground job exists")
	}
}
