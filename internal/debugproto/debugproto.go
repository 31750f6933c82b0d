// Package debugproto is a diagnostic/introspection channel for job-table
// state: length-prefixed, tag-dispatched msgpack frames carrying
// JobSnapshot/ProcessSnapshot values over any io.Writer/io.Reader pair.
// It does not sit on the hot path of launching or supervising a job, and
// it persists nothing to disk.
package debugproto

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gauravsingh81190/xssh/internal/job"
	"github.com/gauravsingh81190/xssh/internal/jobtable"
)

// ProcessSnapshot is a serializable view of one job.Process.
type ProcessSnapshot struct {
	Pid   int
	Argv  []string
	State string
}

// JobSnapshot is a serializable view of one job.Job.
type JobSnapshot struct {
	Spec       int
	Pgid       int
	Cmd        string
	Background bool
	State      string
	Status     int
	Processes  []ProcessSnapshot
}

// SnapshotJob captures j's current, externally-observable state.
func SnapshotJob(j *job.Job) JobSnapshot {
	procs := make([]ProcessSnapshot, len(j.Processes))
	for i, p := range j.Processes {
		procs[i] = ProcessSnapshot{
			Pid:   p.Pid,
			Argv:  append([]string(nil), p.Argv...),
			State: p.State.String(),
		}
	}
	return JobSnapshot{
		Spec:       j.Spec,
		Pgid:       j.Pgid,
		Cmd:        j.Cmd,
		Background: j.Background,
		State:      j.State.String(),
		Status:     j.Status,
		Processes:  procs,
	}
}

// TableSnapshot captures the whole job table.
type TableSnapshot struct {
	Foreground *JobSnapshot
	Background []JobSnapshot
}

// SnapshotTable captures t's current foreground slot and background jobs.
func SnapshotTable(t *jobtable.Table) TableSnapshot {
	var fg *JobSnapshot
	if f := t.Foreground(); f != nil {
		s := SnapshotJob(f)
		fg = &s
	}
	bg := t.Jobs()
	out := make([]JobSnapshot, len(bg))
	for i, j := range bg {
		out[i] = SnapshotJob(j)
	}
	return TableSnapshot{Foreground: fg, Background: out}
}

const tagTableSnapshot uint8 = 1

var tagToType = map[uint8]reflect.Type{
	tagTableSnapshot: reflect.TypeOf(TableSnapshot{}),
}

var typeToTag = buildTypeToTag(tagToType)

func buildTypeToTag(m map[uint8]reflect.Type) map[reflect.Type]uint8 {
	out := make(map[reflect.Type]uint8, len(m))
	for tag, ty := range m {
		out[ty] = tag
	}
	return out
}

// Encoder writes length-prefixed, tag-dispatched msgpack frames: a
// 1-byte type tag, a 4-byte big-endian length, then the msgpack body.
type Encoder struct {
	w     io.Writer
	order binary.ByteOrder
}

// NewEncoder wraps w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, order: binary.BigEndian}
}

// Encode writes one frame. v must be a registered snapshot type.
func (e *Encoder) Encode(v any) error {
	buf, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("debugproto: marshal: %w", err)
	}
	if len(buf) > math.MaxUint32 {
		return fmt.Errorf("debugproto: message too large")
	}
	tag, ok := typeToTag[reflect.TypeOf(v)]
	if !ok {
		return fmt.Errorf("debugproto: unknown snapshot type %T", v)
	}

	header := make([]byte, 5)
	header[0] = tag
	e.order.PutUint32(header[1:], uint32(len(buf)))

	if _, err := e.w.Write(header); err != nil {
		return fmt.Errorf("debugproto: write header: %w", err)
	}
	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("debugproto: write body: %w", err)
	}
	return nil
}

// Decoder reads frames written by an Encoder.
type Decoder struct {
	r     io.Reader
	order binary.ByteOrder
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, order: binary.BigEndian}
}

// Decode reads and unmarshals one frame, returning a pointer to the
// registered snapshot type it was tagged with.
func (d *Decoder) Decode() (any, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(d.r, header); err != nil {
		return nil, fmt.Errorf("debugproto: read header: %w", err)
	}
	length := d.order.Uint32(header[1:])

	body := make([]byte, length)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, fmt.Errorf("debugproto: read body: %w", err)
	}

	ty, ok := tagToType[header[0]]
	if !ok {
		return nil, fmt.Errorf("debugproto: unknown tag %d", header[0])
	}

	val := reflect.New(ty).Interface()
	if err := msgpack.Unmarshal(body, val); err != nil {
		return nil, fmt.Errorf("debugproto: unmarshal %s: %w", ty.Name(), err)
	}
	return val, nil
}
