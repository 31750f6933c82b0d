//go:build linux

// Package launch starts pipelines: for a parsed Job it creates the pipes
// connecting its processes, forks and execs each one with the right
// process-group and file-descriptor wiring, and hands the controlling
// terminal to the pipeline when it is launched in the foreground.
//
// Each child's full descriptor table is built in the parent and handed
// to syscall.ForkExec via ProcAttr.Files. os/exec offers no hook to run
// code between fork and exec, so wiring pipes and redirections onto
// arbitrary fds has to happen through the descriptor table instead.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/gauravsingh81190/xssh/internal/job"
)

// TTYFd is the descriptor the shell's own process holds on its
// controlling terminal: its own fd 0. Foreground launches hand a copy of
// it to the first child at a dedicated table index for the terminal
// handover.
const TTYFd = 0

// Launch forks and execs every Process in j in pipeline order. On
// success every Process carries a pid and Running state, j carries its
// pgid and LastPid, and j.State is Running.
//
// Every pipe fd is closed in exactly one parent path and one child
// path: pipe ends are created close-on-exec, so at exec a child drops
// every inherited end and keeps only the copies dup'd in through its
// descriptor table; the parent closes each end explicitly as soon as
// the child that uses it has been spawned. Without
// O_CLOEXEC an upstream stage would keep a downstream pipe's write end
// open and its reader would never see EOF.
func Launch(j *job.Job) error {
	n := len(j.Processes)
	if n == 0 {
		return fmt.Errorf("launch: empty job")
	}

	pipes := make([][2]int, n-1)
	for i := range pipes {
		if err := syscall.Pipe2(pipes[i][:], syscall.O_CLOEXEC); err != nil {
			closePipes(pipes[:i])
			return fmt.Errorf("launch: pipe: %w", err)
		}
	}

	pgid := 0
	for i, p := range j.Processes {
		files, opened, err := buildFiles(i, n, pipes, p)
		if err != nil {
			closePipes(pipes)
			closeFiles(opened)
			return fmt.Errorf("launch: wiring descriptors for %q: %w", p.Argv[0], err)
		}

		path, lookErr := exec.LookPath(p.Argv[0])
		if lookErr != nil {
			// Let ForkExec itself fail and report the real ENOENT
			// rather than pre-validating the name.
			path = p.Argv[0]
		}

		sys := &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		}
		if i == 0 && !j.Background {
			// Foreground makes the runtime's fork/exec shim call
			// tcsetpgrp on Ctty after setting the group, so the new
			// pgid owns the terminal before any child reads it. Ctty
			// is an index into the child's descriptor table, and fd 0
			// may have been redirected to a plain file, so the
			// terminal rides along at a dedicated slot past anything
			// a redirection can clobber.
			files = append(files, uintptr(TTYFd))
			sys.Foreground = true
			sys.Ctty = len(files) - 1
		}
		attr := &syscall.ProcAttr{
			Env:   os.Environ(),
			Files: files,
			Sys:   sys,
		}

		pid, execErr := syscall.ForkExec(path, p.Argv, attr)
		closeFiles(opened)
		if execErr != nil {
			closePipes(pipes)
			return fmt.Errorf("launch: fork/exec %q: %w", p.Argv[0], execErr)
		}

		if i == 0 {
			pgid = pid
		}
		// The child has already set its own group via Setpgid/Pgid;
		// this duplicate call may lose the race against its exec and
		// fail benignly.
		if err := syscall.Setpgid(pid, pgid); err != nil && err != syscall.EACCES && err != syscall.ESRCH {
			log.Error().Err(err).Int("pid", pid).Msg("setpgid race")
		}

		p.Pid = pid
		p.State = job.Running
		j.NRunning++
		j.LastPid = pid
		j.Pgid = pgid

		if i > 0 {
			syscall.Close(pipes[i-1][0])
			pipes[i-1][0] = -1
		}
		if i < n-1 {
			syscall.Close(pipes[i][1])
			pipes[i][1] = -1
		}

		log.Info().Int("pid", pid).Strs("argv", p.Argv).Msg("spawned process")
	}

	j.State = job.JobRunning
	return nil
}

// closePipes closes whichever pipe ends are still open. Ends already
// handed back to the kernel are marked -1 so an error partway through a
// pipeline never closes an fd number a second time.
func closePipes(pipes [][2]int) {
	for _, fd := range pipes {
		if fd[0] >= 0 {
			syscall.Close(fd[0])
		}
		if fd[1] >= 0 {
			syscall.Close(fd[1])
		}
	}
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

// buildFiles constructs the child's descriptor table for process i of an
// n-process pipeline: the previous/next pipe ends at fd 0/1 (or the
// shell's own stdin/stdout at the pipeline's two open ends), fd 2 always
// the shell's stderr, then every Redirection applied in declared order.
// It returns the table to hand to syscall.ForkExec's ProcAttr.Files and
// the *os.File handles opened along the way, which the caller must close
// once ForkExec has dup'd them into the child.
func buildFiles(i, n int, pipes [][2]int, p *job.Process) ([]uintptr, []*os.File, error) {
	table := map[int]uintptr{2: os.Stderr.Fd()}
	if i == 0 {
		table[0] = os.Stdin.Fd()
	} else {
		table[0] = uintptr(pipes[i-1][0])
	}
	if i == n-1 {
		table[1] = os.Stdout.Fd()
	} else {
		table[1] = uintptr(pipes[i][1])
	}

	var opened []*os.File
	open := func(path string, flag int) (uintptr, error) {
		f, err := os.OpenFile(path, flag, 0o777)
		if err != nil {
			return 0, err
		}
		opened = append(opened, f)
		return f.Fd(), nil
	}

	for _, r := range p.Redirs {
		switch r.Mode {
		case job.WriteTrunc:
			fd, err := open(r.TargetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
			if err != nil {
				return nil, opened, fmt.Errorf("open %q: %w", r.TargetPath, err)
			}
			table[r.SrcFD] = fd
		case job.WriteAppend:
			fd, err := open(r.TargetPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
			if err != nil {
				return nil, opened, fmt.Errorf("open %q: %w", r.TargetPath, err)
			}
			table[r.SrcFD] = fd
		case job.ReadFile:
			fd, err := open(r.TargetPath, os.O_RDONLY)
			if err != nil {
				return nil, opened, fmt.Errorf("open %q: %w", r.TargetPath, err)
			}
			table[r.SrcFD] = fd
		case job.DupOut, job.DupIn:
			src, ok := table[r.TargetFD]
			if !ok {
				return nil, opened, fmt.Errorf("dup fd %d: not open in this process", r.TargetFD)
			}
			table[r.SrcFD] = src
		}
	}

	maxFd := 2
	for fd := range table {
		if fd > maxFd {
			maxFd = fd
		}
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, opened, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	opened = append(opened, devnull)

	files := make([]uintptr, maxFd+1)
	for fd := 0; fd <= maxFd; fd++ {
		if real, ok := table[fd]; ok {
			files[fd] = real
		} else {
			files[fd] = devnull.Fd()
		}
	}
	return files, opened, nil
}
