package parser

import (
	"testing"

	"github.com/gauravsingh81190/xssh/internal/job"
)

func TestParseNoOp(t *testing.T) {
	for _, line := range []string{"", "   ", "# a comment", "   # comment with leading space"} {
		j, err := Parse(line)
		if err != nil || j != nil {
			t.Fatalf("Parse(%q) = %v, %v; want nil, nil", line, j, err)
		}
	}
}

func TestParseSimple(t *testing.T) {
	j, err := Parse("echo hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(j.Processes) != 1 {
		t.Fatalf("want 1 process, got %d", len(j.Processes))
	}
	want := []string{"echo", "hello"}
	if got := j.Processes[0].Argv; !equal(got, want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	if j.Background {
		t.Fatalf("want foreground")
	}
}

func TestParseBackground(t *testing.T) {
	j, err := Parse("sleep 10 &")
	if err != nil {
		t.Fatal(err)
	}
	if !j.Background {
		t.Fatalf("want background job")
	}
	if j.Cmd != "sleep 10" {
		t.Fatalf("want cmd %q without trailing &, got %q", "sleep 10", j.Cmd)
	}
}

func TestParsePipeline(t *testing.T) {
	j, err := Parse("cat file.txt | wc -l")
	if err != nil {
		t.Fatal(err)
	}
	if len(j.Processes) != 2 {
		t.Fatalf("want 2 processes, got %d", len(j.Processes))
	}
	if !equal(j.Processes[0].Argv, []string{"cat", "file.txt"}) {
		t.Fatalf("argv[0] = %v", j.Processes[0].Argv)
	}
	if !equal(j.Processes[1].Argv, []string{"wc", "-l"}) {
		t.Fatalf("argv[1] = %v", j.Processes[1].Argv)
	}
}

func TestParseBackgroundOnNonLastIsError(t *testing.T) {
	_, err := Parse("sleep 10 & | wc -l")
	if err == nil {
		t.Fatal("want error for background flag on non-last pipeline segment")
	}
}

func TestParseRedirections(t *testing.T) {
	j, err := Parse("cmd >a >b")
	if err != nil {
		t.Fatal(err)
	}
	p := j.Processes[0]
	if len(p.Redirs) != 2 {
		t.Fatalf("want 2 redirections, got %d", len(p.Redirs))
	}
	if p.Redirs[0].Mode != job.WriteTrunc || p.Redirs[0].TargetPath != "a" {
		t.Fatalf("redir[0] = %+v", p.Redirs[0])
	}
	if p.Redirs[1].Mode != job.WriteTrunc || p.Redirs[1].TargetPath != "b" {
		t.Fatalf("redir[1] = %+v", p.Redirs[1])
	}
}

func TestParseStderrToStdoutThenFile(t *testing.T) {
	j, err := Parse("cmd 2>&1 >file")
	if err != nil {
		t.Fatal(err)
	}
	p := j.Processes[0]
	if len(p.Redirs) != 2 {
		t.Fatalf("want 2 redirections, got %d: %+v", len(p.Redirs), p.Redirs)
	}
	if p.Redirs[0].Mode != job.DupOut || p.Redirs[0].SrcFD != 2 || p.Redirs[0].TargetFD != 1 {
		t.Fatalf("redir[0] = %+v", p.Redirs[0])
	}
	if p.Redirs[1].Mode != job.WriteTrunc || p.Redirs[1].SrcFD != 1 || p.Redirs[1].TargetPath != "file" {
		t.Fatalf("redir[1] = %+v", p.Redirs[1])
	}
}

func TestParseAmbiguousRedirectLeniency(t *testing.T) {
	j, err := Parse("cmd >&file")
	if err != nil {
		t.Fatal(err)
	}
	p := j.Processes[0]
	if len(p.Redirs) != 1 {
		t.Fatalf("want 1 redirection, got %d", len(p.Redirs))
	}
	if p.Redirs[0].Mode != job.WriteTrunc || p.Redirs[0].TargetPath != "file" {
		t.Fatalf("redir = %+v, want WriteTrunc to 'file'", p.Redirs[0])
	}
}

func TestParseAmbiguousRedirectOnInputIsAlwaysError(t *testing.T) {
	_, err := Parse("cmd <&file")
	if err == nil {
		t.Fatal("want ambiguous redirect error for `<&file`")
	}
}

func TestParseAmbiguousRedirectWithExplicitSrcFd(t *testing.T) {
	_, err := Parse("cmd 2>&file")
	if err == nil {
		t.Fatal("want ambiguous redirect error when an explicit non-1 src fd precedes >&nonnumeric")
	}
}

func TestParseSyntaxErrorAfterBackground(t *testing.T) {
	_, err := Parse("cmd & foo")
	if err == nil {
		t.Fatal("want syntax error for a word following background &")
	}
}

func TestParseMissingRedirectTarget(t *testing.T) {
	_, err := Parse("cmd >")
	if err == nil {
		t.Fatal("want syntax error for a redirection with no target")
	}
}

func TestParseEmptySegmentIsError(t *testing.T) {
	_, err := Parse("cmd1 || cmd2")
	if err == nil {
		t.Fatal("want syntax error for an empty pipeline segment")
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"echo hello world",
		"cat file.txt | wc -l",
		"cmd >a",
		"cmd 2>&1",
		"cmd <in >>out",
		"a | b | c",
	}
	for _, line := range cases {
		j1, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		formatted := Format(j1)
		j2, err := Parse(formatted)
		if err != nil {
			t.Fatalf("re-Parse(%q) (from %q): %v", formatted, line, err)
		}
		if len(j1.Processes) != len(j2.Processes) {
			t.Fatalf("%q: pipeline length changed across round trip: %d vs %d", line, len(j1.Processes), len(j2.Processes))
		}
		for i := range j1.Processes {
			if !equal(j1.Processes[i].Argv, j2.Processes[i].Argv) {
				t.Fatalf("%q: argv[%d] changed: %v vs %v", line, i, j1.Processes[i].Argv, j2.Processes[i].Argv)
			}
			if len(j1.Processes[i].Redirs) != len(j2.Processes[i].Redirs) {
				t.Fatalf("%q: redirs[%d] changed length", line, i)
			}
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
