package workload

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/mem"
	"github.com/joshuapare/poolkit/mem/flist"
)

// ErrBadWorkload indicates a malformed workload file.
var ErrBadWorkload = errors.New("workload: invalid workload")

// Step operations.
const (
	OpAlloc  = "alloc"
	OpFree   = "free"
	OpRepeat = "repeat"
)

// maxSteps bounds the total number of steps a workload may expand to.
const maxSteps = 50_000_000

// Workload is an allocation trace replayed against a fresh allocator.
//
// Example:
//
//	pool_size: 4096
//	steps:
//	  - {op: alloc, id: hdr, size: 64}
//	  - op: repeat
//	    count: 100
//	    steps:
//	      - {op: alloc, id: "item{i}", size: 24}
//	      - {op: free, id: "item{i}"}
//	  - {op: free, id: hdr}
//
// Inside a repeat, "{i}" in an id expands to the iteration index.
type Workload struct {
	PoolSize    int    `yaml:"pool_size"`
	MinPoolSize int    `yaml:"min_pool_size,omitempty"`
	MaxBytes    int64  `yaml:"max_bytes,omitempty"`
	Poison      bool   `yaml:"poison,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one trace operation.
type Step struct {
	Op    string `yaml:"op"`
	ID    string `yaml:"id,omitempty"`
	Size  int    `yaml:"size,omitempty"`
	Count int    `yaml:"count,omitempty"`
	Steps []Step `yaml:"steps,omitempty"`
}

// Report summarises a replay.
type Report struct {
	Allocs       int         `json:"allocs"`
	Frees        int         `json:"frees"`
	Failed       int         `json:"failed"`        // allocations that returned nil
	UnknownFrees int         `json:"unknown_frees"` // frees naming no live id
	Corrupted    int         `json:"corrupted"`     // payloads modified while live
	Leaked       int         `json:"leaked"`        // ids still live at the end
	Pools        int         `json:"pools"`
	Stats        flist.Stats `json:"stats"`
}

// Parse decodes and validates a YAML workload. Unknown fields are rejected.
func Parse(r io.Reader) (*Workload, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var w Workload
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrBadWorkload)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadWorkload, err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Load reads and parses the workload file at path.
func Load(path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks the workload's structure and expanded size.
func (w *Workload) Validate() error {
	if w.PoolSize <= 0 {
		return fmt.Errorf("%w: pool_size must be positive", ErrBadWorkload)
	}
	total, err := validateSteps(w.Steps, "steps")
	if err != nil {
		return err
	}
	if total > maxSteps {
		return fmt.Errorf("%w: expands to %d steps (limit %d)", ErrBadWorkload, total, maxSteps)
	}
	return nil
}

// validateSteps returns the number of steps the list expands to.
func validateSteps(steps []Step, path string) (int, error) {
	total := 0
	for i, s := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch s.Op {
		case OpAlloc:
			if s.ID == "" {
				return 0, fmt.Errorf("%w: %s: alloc needs an id", ErrBadWorkload, at)
			}
			if s.Size < 0 {
				return 0, fmt.Errorf("%w: %s: negative size", ErrBadWorkload, at)
			}
			total++
		case OpFree:
			if s.ID == "" {
				return 0, fmt.Errorf("%w: %s: free needs an id", ErrBadWorkload, at)
			}
			total++
		case OpRepeat:
			if s.Count <= 0 {
				return 0, fmt.Errorf("%w: %s: repeat needs a positive count", ErrBadWorkload, at)
			}
			if len(s.Steps) == 0 {
				return 0, fmt.Errorf("%w: %s: repeat needs steps", ErrBadWorkload, at)
			}
			inner, err := validateSteps(s.Steps, at+".steps")
			if err != nil {
				return 0, err
			}
			if inner > 0 && s.Count > maxSteps/inner {
				return 0, fmt.Errorf("%w: %s: repeat expands past %d steps", ErrBadWorkload, at, maxSteps)
			}
			total += s.Count * inner
		default:
			return 0, fmt.Errorf("%w: %s: unknown op %q", ErrBadWorkload, at, s.Op)
		}
		if total > maxSteps {
			return total, nil
		}
	}
	return total, nil
}

// Options returns allocator options carrying the workload's settings.
func (w *Workload) Options() *flist.Options {
	return &flist.Options{
		MinPoolSize: w.MinPoolSize,
		MaxBytes:    w.MaxBytes,
		Poison:      w.Poison,
	}
}

// Replay runs the workload against a fresh allocator configured by base
// (may be nil) overlaid with the workload's own settings. Every live payload
// carries a pattern that is checked when it is freed.
func (w *Workload) Replay(base *flist.Options) (Report, error) {
	opts := w.Options()
	if base != nil {
		opts.Backing, opts.Logger = base.Backing, base.Logger
		opts.Poison = opts.Poison || base.Poison
	}

	a, err := flist.New(w.PoolSize, opts)
	if err != nil {
		return Report{}, err
	}
	defer a.Destroy()

	r := newReplayer(a)
	r.run(w.Steps, -1)
	return r.finish()
}

type allocation struct {
	ptr  unsafe.Pointer
	size int
	seed byte
}

type replayer struct {
	a    *flist.Allocator
	live map[string]allocation
	seq  int
	rep  Report
}

func newReplayer(a *flist.Allocator) *replayer {
	return &replayer{a: a, live: make(map[string]allocation)}
}

// finish checks the payloads still live and fills in the final figures.
func (r *replayer) finish() (Report, error) {
	for _, id := range slices.Sorted(maps.Keys(r.live)) {
		r.check(id, r.live[id])
	}
	r.rep.Leaked = len(r.live)
	r.rep.Pools = r.a.Pools()
	r.rep.Stats = r.a.Stats()
	if err := r.a.Verify(); err != nil {
		return r.rep, err
	}
	return r.rep, nil
}

func (r *replayer) run(steps []Step, iter int) {
	for _, s := range steps {
		switch s.Op {
		case OpAlloc:
			r.alloc(expandID(s.ID, iter), s.Size)
		case OpFree:
			r.free(expandID(s.ID, iter))
		case OpRepeat:
			for i := range s.Count {
				r.run(s.Steps, i)
			}
		}
	}
}

func (r *replayer) alloc(id string, size int) {
	if old, ok := r.live[id]; ok {
		// Re-allocating a live id drops the old block, like overwriting the
		// only pointer to it.
		logger.Debug("workload: id reallocated while live", "id", id)
		r.check(id, old)
		r.a.Free(old.ptr)
		delete(r.live, id)
	}
	r.rep.Allocs++
	ptr := r.a.Allocate(size)
	if ptr == nil {
		r.rep.Failed++
		return
	}
	r.seq++
	al := allocation{ptr: ptr, size: size, seed: byte(r.seq)}
	b := mem.Bytes(ptr, size)
	for i := range b {
		b[i] = al.seed + byte(i)
	}
	r.live[id] = al
}

func (r *replayer) free(id string) {
	al, ok := r.live[id]
	if !ok {
		r.rep.UnknownFrees++
		return
	}
	r.check(id, al)
	r.a.Free(al.ptr)
	delete(r.live, id)
	r.rep.Frees++
}

func (r *replayer) check(id string, al allocation) {
	b := mem.Bytes(al.ptr, al.size)
	for i := range b {
		if b[i] != al.seed+byte(i) {
			r.rep.Corrupted++
			logger.Warn("workload: payload corrupted", "id", id, "offset", i)
			return
		}
	}
}

func expandID(id string, iter int) string {
	if iter < 0 {
		return id
	}
	return strings.ReplaceAll(id, "{i}", strconv.Itoa(iter))
}
