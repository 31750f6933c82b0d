// Package parser turns one logical command line into a job.Job: a
// pipeline of processes, each carrying argv and redirections.
//
// The scanner is a single left-to-right pass that tracks one pending
// redirection at a time and resolves, at each delimiter, whether the
// token just scanned is a digit-run fd prefix, a redirection target, or
// a plain argv word.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gauravsingh81190/xssh/internal/job"
)

// MaxLineLength is the largest command line the parser accepts: 127
// useful characters, one 128-byte buffer including the terminator.
const MaxLineLength = 127

// Parse converts one command line into a Job. It returns (nil, nil) for
// a no-op line (empty, all whitespace, or a comment starting with '#'),
// and a descriptive error for anything that fails to parse. No partial
// Job is ever returned alongside a non-nil error.
func Parse(line string) (*job.Job, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}
	if len(trimmed) > MaxLineLength {
		return nil, fmt.Errorf("-xssh: input line too long")
	}

	segments := strings.Split(trimmed, "|")
	procs := make([]*job.Process, 0, len(segments))
	var background bool
	for i, seg := range segments {
		p, err := parseProcess(seg)
		if err != nil {
			return nil, err
		}
		if len(p.Argv) == 0 {
			return nil, fmt.Errorf("-xssh: syntax error near unexpected token `|'")
		}
		if p.backgroundFlag && i != len(segments)-1 {
			return nil, fmt.Errorf("-xssh: syntax error near unexpected token `|'")
		}
		procs = append(procs, &p.Process)
		if i == len(segments)-1 {
			background = p.backgroundFlag
		}
	}

	cmd := trimmed
	if background {
		cmd = strings.TrimSpace(strings.TrimSuffix(trimmed, "&"))
	}

	j := job.New(cmd, procs, background)
	return j, nil
}

type parsedProcess struct {
	job.Process
	backgroundFlag bool
}

// parseProcess parses one pipeline segment (already split on '|').
func parseProcess(segment string) (*parsedProcess, error) {
	runes := []rune(segment)
	n := len(runes)
	i := 0

	var argv []string
	var redirs []job.Redirection
	var pending *job.Redirection
	background := false

	for {
		start := i
		for i < n && isWordChar(runes[i]) {
			i++
		}
		tok := string(runes[start:i])

		hasDelim := i < n
		var delim rune
		if hasDelim {
			delim = runes[i]
		}

		if pending != nil {
			if tok != "" {
				if err := finalizeTarget(pending, tok); err != nil {
					return nil, err
				}
				redirs = append(redirs, *pending)
				pending = nil
				tok = ""
			} else if !hasDelim {
				return nil, fmt.Errorf("-xssh: syntax error near unexpected token `newline'")
			}
		}

		if background && tok != "" {
			return nil, fmt.Errorf("-xssh: syntax error near unexpected token `%s'", tok)
		}

		prevTok := tok

		if !hasDelim {
			if prevTok != "" {
				argv = append(argv, prevTok)
			}
			break
		}

		switch {
		case delim == '<' || delim == '>':
			if pending != nil || background {
				return nil, fmt.Errorf("-xssh: syntax error near unexpected token `%c'", delim)
			}
			r, consumedPrefix, adv := newRedir(delim, prevTok, runes, i)
			pending = r
			i += adv
			if consumedPrefix {
				prevTok = ""
			}
		case delim == '&':
			if pending != nil {
				return nil, fmt.Errorf("-xssh: syntax error near unexpected token `&'")
			}
			background = true
			i++
		default:
			// whitespace: consumed below, nothing to dispatch.
			i++
		}

		if prevTok != "" {
			argv = append(argv, prevTok)
		}
	}

	if pending != nil {
		return nil, fmt.Errorf("-xssh: syntax error near unexpected token `newline'")
	}

	return &parsedProcess{
		Process: job.Process{
			Argv:   argv,
			Redirs: redirs,
			State:  job.Running,
		},
		backgroundFlag: background,
	}, nil
}

// isWordChar reports whether r can appear inside a bare word or a
// redirection's fd-prefix digit run: anything but whitespace, '<', '>'
// and '&' (pipe has already been split out by Parse).
func isWordChar(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '<', '>', '&':
		return false
	default:
		return true
	}
}

func tryFd(tok string) (int, bool) {
	if tok == "" {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	fd, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return fd, true
}

// newRedir builds the pending Redirection for the operator at runes[pos],
// consuming a second lookahead character for '>>', '>&' and '<&'.
// It returns the redirection, whether prevTok was consumed as its fd
// prefix, and how many runes (including the operator itself) to advance.
func newRedir(op rune, prevTok string, runes []rune, pos int) (*job.Redirection, bool, int) {
	fd, isFd := tryFd(prevTok)
	adv := 1

	if op == '>' {
		r := &job.Redirection{Mode: job.WriteTrunc, SrcFD: 1}
		if isFd {
			r.SrcFD = fd
		}
		if pos+1 < len(runes) {
			switch runes[pos+1] {
			case '>':
				r.Mode = job.WriteAppend
				adv = 2
			case '&':
				r.Mode = job.DupOut
				adv = 2
			}
		}
		return r, isFd, adv
	}

	r := &job.Redirection{Mode: job.ReadFile, SrcFD: 0}
	if isFd {
		r.SrcFD = fd
	}
	if pos+1 < len(runes) && runes[pos+1] == '&' {
		r.Mode = job.DupIn
		adv = 2
	}
	return r, isFd, adv
}

// finalizeTarget resolves the token following a redirection operator
// into the Redirection's path or destination fd.
func finalizeTarget(r *job.Redirection, tok string) error {
	switch r.Mode {
	case job.WriteTrunc, job.WriteAppend, job.ReadFile:
		r.TargetPath = tok
		return nil
	case job.DupOut:
		if fd, ok := tryFd(tok); ok {
			r.TargetFD = fd
			return nil
		}
		// Shell convention leniency: `cmd >& file` with no explicit
		// source fd (so SrcFD defaulted to 1) means `cmd >file`.
		if r.SrcFD == 1 {
			r.Mode = job.WriteTrunc
			r.TargetPath = tok
			return nil
		}
		return fmt.Errorf("-xssh:%s ambiguous redirect", tok)
	case job.DupIn:
		if fd, ok := tryFd(tok); ok {
			r.TargetFD = fd
			return nil
		}
		return fmt.Errorf("-xssh:%s ambiguous redirect", tok)
	default:
		return fmt.Errorf("-xssh:%s ambiguous redirect", tok)
	}
}

// Format renders the canonical display form of a Job: the form that,
// re-parsed, yields an equal Job. It never includes the trailing '&'.
func Format(j *job.Job) string {
	parts := make([]string, len(j.Processes))
	for i, p := range j.Processes {
		parts[i] = formatProcess(p)
	}
	return strings.Join(parts, " | ")
}

func formatProcess(p *job.Process) string {
	var b strings.Builder
	b.WriteString(strings.Join(p.Argv, " "))
	for _, r := range p.Redirs {
		b.WriteByte(' ')
		b.WriteString(formatRedir(r))
	}
	return b.String()
}

func formatRedir(r job.Redirection) string {
	switch r.Mode {
	case job.WriteTrunc:
		return fdPrefix(r.SrcFD, 1) + ">" + r.TargetPath
	case job.WriteAppend:
		return fdPrefix(r.SrcFD, 1) + ">>" + r.TargetPath
	case job.DupOut:
		return fmt.Sprintf("%s>&%d", fdPrefix(r.SrcFD, 1), r.TargetFD)
	case job.ReadFile:
		return fdPrefix(r.SrcFD, 0) + "<" + r.TargetPath
	case job.DupIn:
		return fmt.Sprintf("%s<&%d", fdPrefix(r.SrcFD, 0), r.TargetFD)
	default:
		return ""
	}
}

func fdPrefix(fd, defaultFd int) string {
	if fd == defaultFd {
		return ""
	}
	return strconv.Itoa(fd)
}
