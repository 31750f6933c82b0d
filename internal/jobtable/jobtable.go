// Package jobtable holds process-wide job-control state: the background
// job map keyed by job-spec, the single foreground slot, and the job-spec
// counters that assign and retire those specs.
package jobtable

import "github.com/gauravsingh81190/xssh/internal/job"

// Table is created once at shell start and destroyed at exit.
// Background jobs are held in insertion order; job-spec values are
// strictly increasing while any background job lives, and 0 is never
// assigned.
type Table struct {
	order []int
	jobs  map[int]*job.Job
	fg    *job.Job

	maxBgJobIndex  int
	lastBgJobIndex int
}

// New returns an empty Table.
func New() *Table {
	return &Table{jobs: make(map[int]*job.Job)}
}

// Foreground returns the job currently holding the foreground slot, or
// nil. Signal routing reads this pointer without allocating.
func (t *Table) Foreground() *job.Job { return t.fg }

// SetForeground installs j as the foreground job.
func (t *Table) SetForeground(j *job.Job) { t.fg = j }

// ClearForeground empties the foreground slot.
func (t *Table) ClearForeground() { t.fg = nil }

// AddBackground inserts j into the background table, assigning it a
// fresh job-spec (max-so-far + 1) if it doesn't already have one, the
// case for a job suspended from the foreground. j also becomes the
// default fg/bg target.
func (t *Table) AddBackground(j *job.Job) {
	if j.Spec == 0 {
		t.maxBgJobIndex++
		j.Spec = t.maxBgJobIndex
	}
	j.Background = true
	t.lastBgJobIndex = j.Spec
	if _, exists := t.jobs[j.Spec]; !exists {
		t.order = append(t.order, j.Spec)
	}
	t.jobs[j.Spec] = j
}

// Lookup finds a background job by job-spec.
func (t *Table) Lookup(spec int) (*job.Job, bool) {
	j, ok := t.jobs[spec]
	return j, ok
}

// Last returns the most recently added or resumed background job, the
// default argument for `fg`/`bg` with no explicit spec.
func (t *Table) Last() (*job.Job, bool) {
	if t.lastBgJobIndex == 0 {
		return nil, false
	}
	return t.Lookup(t.lastBgJobIndex)
}

// Remove deletes spec from the table. Called once a job's state becomes
// Done or Killed, or when it is pulled out for `fg`.
func (t *Table) Remove(spec int) {
	if _, ok := t.jobs[spec]; !ok {
		return
	}
	delete(t.jobs, spec)
	for i, s := range t.order {
		if s == spec {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Jobs returns background jobs in insertion order.
func (t *Table) Jobs() []*job.Job {
	out := make([]*job.Job, 0, len(t.order))
	for _, s := range t.order {
		out = append(out, t.jobs[s])
	}
	return out
}

// Len reports how many background jobs are currently tracked.
func (t *Table) Len() int { return len(t.jobs) }

// Reindex resets the spec counters once the shell has no background
// jobs left: when the just-terminated foreground job had ever been given
// a job-spec and the table is now empty, the counters drop back to 0 so
// the next backgrounded job gets spec 1 again instead of N+1.
func (t *Table) Reindex(terminatedJobHadSpec bool) {
	if terminatedJobHadSpec && len(t.jobs) == 0 {
		t.maxBgJobIndex = 0
		t.lastBgJobIndex = 0
	}
}

// LastBackgroundPgid is the value `show $!` reports: the process-group
// id of the most recent background job, not a raw pid.
func (t *Table) LastBackgroundPgid() int {
	if j, ok := t.Last(); ok {
		return j.Pgid
	}
	return 0
}
