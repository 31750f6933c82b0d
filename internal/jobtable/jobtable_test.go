package jobtable

import (
	"testing"

	"github.com/gauravsingh81190/xssh/internal/job"
)

func TestAddBackgroundAssignsMonotonicSpecs(t *testing.T) {
	tab := New()
	a := job.New("sleep 10", nil, true)
	b := job.New("sleep 20", nil, true)

	tab.AddBackground(a)
	tab.AddBackground(b)

	if a.Spec != 1 || b.Spec != 2 {
		t.Fatalf("want specs 1,2, got %d,%d", a.Spec, b.Spec)
	}
	if got, _ := tab.Last(); got != b {
		t.Fatalf("want b as last, got %v", got)
	}
	if got := tab.LastBackgroundPgid(); got != b.Pgid {
		t.Fatalf("want last bg pgid %d, got %d", b.Pgid, got)
	}
}

func TestRemoveThenReindexResetsCounter(t *testing.T) {
	tab := New()
	a := job.New("sleep 10", nil, true)
	tab.AddBackground(a)

	tab.Remove(a.Spec)
	tab.Reindex(true)

	c := job.New("sleep 30", nil, true)
	tab.AddBackground(c)
	if c.Spec != 1 {
		t.Fatalf("want spec reset to 1 after table emptied, got %d", c.Spec)
	}
}

func TestReindexSkippedWhileTableNonEmpty(t *testing.T) {
	tab := New()
	a := job.New("sleep 10", nil, true)
	b := job.New("sleep 20", nil, true)
	tab.AddBackground(a)
	tab.AddBackground(b)

	tab.Remove(a.Spec)
	tab.Reindex(true) // b is still background, so no reset

	c := job.New("sleep 30", nil, true)
	tab.AddBackground(c)
	if c.Spec != 3 {
		t.Fatalf("want spec 3 (no reset while non-empty), got %d", c.Spec)
	}
}

func TestLookupMiss(t *testing.T) {
	tab := New()
	if _, ok := tab.Lookup(5); ok {
		t.Fatalf("expected lookup miss")
	}
}

func TestJobsInsertionOrder(t *testing.T) {
	tab := New()
	a := job.New("a", nil, true)
	b := job.New("b", nil, true)
	c := job.New("c", nil, true)
	tab.AddBackground(a)
	tab.AddBackground(b)
	tab.AddBackground(c)

	got := tab.Jobs()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("want insertion order [a b c], got %v", got)
	}
}

func TestForegroundSlot(t *testing.T) {
	tab := New()
	if tab.Foreground() != nil {
		t.Fatalf("want empty foreground slot initially")
	}
	j := job.New("echo hi", nil, false)
	tab.SetForeground(j)
	if tab.Foreground() != j {
		t.Fatalf("want j as foreground")
	}
	tab.ClearForeground()
	if tab.Foreground() != nil {
		t.Fatalf("want foreground cleared")
	}
}
