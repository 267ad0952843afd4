// Package workload drives allocators with canned scenarios and replayable
// traces. It backs the poolctl command and the allocator smoke tests.
package workload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joshuapare/poolkit/mem/flist"
	"github.com/joshuapare/poolkit/mem/vec"
)

// Result reports one scenario run.
type Result struct {
	Name     string        `json:"name"`
	N        int           `json:"n"`
	Failures int           `json:"failures"` // requests that returned nil
	Pools    int           `json:"pools"`
	Sum      int64         `json:"sum,omitempty"`
	Want     int64         `json:"want,omitempty"`
	Stats    flist.Stats   `json:"stats"`
	Elapsed  time.Duration `json:"elapsed"`
	Passed   bool          `json:"passed"`
	Detail   string        `json:"detail,omitempty"`
}

// Scenario is a named, self-checking allocator workload.
type Scenario struct {
	Name        string
	Description string
	DefaultN    int
	run         func(n int, opts *flist.Options) (Result, error)
}

// Run executes the scenario with n operations; n <= 0 uses DefaultN. The
// returned error is reserved for setup failures; a scenario whose checks fail
// returns a Result with Passed false.
func (s Scenario) Run(n int, opts *flist.Options) (Result, error) {
	if n <= 0 {
		n = s.DefaultN
	}
	start := time.Now()
	res, err := s.run(n, opts)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	res.Name, res.N = s.Name, n
	res.Elapsed = time.Since(start)
	return res, nil
}

// Scenarios lists the built-in scenarios in run order.
var Scenarios = []Scenario{
	{
		Name:        "a",
		Description: "single 6000 byte pool, word-sized requests, every 4th freed",
		DefaultN:    500,
		run:         runPoolChurn,
	},
	{
		Name:        "b",
		Description: "200 byte allocator, word-sized requests, every 11th freed, chain grows",
		DefaultN:    2000,
		run:         runChainChurn,
	},
	{
		Name:        "c",
		Description: "vector of ints pushed one at a time through a free-list allocator, summed",
		DefaultN:    1_000_000,
		run:         runVectorSum,
	},
	{
		Name:        "d",
		Description: "oversized request: a 10 byte pool refuses 100 bytes, an allocator grows",
		DefaultN:    1,
		run:         runOversized,
	},
}

// Lookup returns the scenario called name (case-insensitive).
func Lookup(name string) (Scenario, bool) {
	for _, s := range Scenarios {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Scenario{}, false
}

func runPoolChurn(n int, opts *flist.Options) (Result, error) {
	p, err := flist.NewPool(6000, opts)
	if err != nil {
		return Result{}, err
	}
	defer p.Release()

	var res Result
	for i := range n {
		ptr, err := p.Allocate(8)
		if err != nil {
			res.Failures++
			continue
		}
		*(*int64)(ptr) = int64(i)
		if i%4 == 0 {
			p.Free(ptr)
		}
	}
	res.Pools = 1
	res.Stats.Pools = 1
	res.Stats.PoolStats = p.Stats()
	res.Passed = res.Failures == 0
	if err := p.Verify(); err != nil {
		res.Passed, res.Detail = false, err.Error()
	}
	return res, nil
}

func runChainChurn(n int, opts *flist.Options) (Result, error) {
	a, err := flist.New(200, opts)
	if err != nil {
		return Result{}, err
	}
	defer a.Destroy()

	var res Result
	for i := range n {
		ptr := a.Allocate(8)
		if ptr == nil {
			res.Failures++
			continue
		}
		*(*int64)(ptr) = int64(i)
		if i%11 == 0 {
			a.Free(ptr)
		}
	}
	res.Pools = a.Pools()
	res.Stats = a.Stats()
	res.Passed = res.Failures == 0 && (n < 100 || res.Pools > 1)
	if err := a.Verify(); err != nil {
		res.Passed, res.Detail = false, err.Error()
	}
	return res, nil
}

func runVectorSum(n int, opts *flist.Options) (Result, error) {
	a, err := flist.New(4096, opts)
	if err != nil {
		return Result{}, err
	}
	defer a.Destroy()

	v := vec.New[int64](a)
	defer v.Release()

	var res Result
	for i := range n {
		if err := v.Push(int64(i)); err != nil {
			res.Failures++
			res.Detail = err.Error()
			break
		}
	}
	for _, x := range v.Items() {
		res.Sum += x
	}
	res.Want = int64(n) * int64(n-1) / 2
	res.Pools = a.Pools()
	res.Stats = a.Stats()
	res.Passed = res.Failures == 0 && res.Sum == res.Want
	return res, nil
}

func runOversized(_ int, opts *flist.Options) (Result, error) {
	p, err := flist.NewPool(10, opts)
	if err != nil {
		return Result{}, err
	}
	defer p.Release()

	var res Result
	if _, err := p.Allocate(100); !errors.Is(err, flist.ErrExhausted) {
		res.Detail = fmt.Sprintf("pool: want %v, got %v", flist.ErrExhausted, err)
		return res, nil
	}

	a, err := flist.New(10, opts)
	if err != nil {
		return Result{}, err
	}
	defer a.Destroy()

	if a.Allocate(100) == nil {
		res.Failures++
		res.Detail = "allocator did not grow"
	}
	res.Pools = a.Pools()
	res.Stats = a.Stats()
	res.Passed = res.Failures == 0 && res.Pools == 2
	return res, nil
}
