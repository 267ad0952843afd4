package workload

import "github.com/joshuapare/poolkit/mem/flist"

// ChurnResult counts the operations of a Churn run.
type ChurnResult struct {
	Allocs int `json:"allocs"`
	Frees  int `json:"frees"`
	Failed int `json:"failed"`
}

// Churn performs count allocations of size bytes on a, freeing every
// freeEvery-th allocation right away (freeEvery <= 0 frees nothing). The
// remaining allocations stay live so the caller can inspect a.Stats.
func Churn(a *flist.Allocator, size, count, freeEvery int) ChurnResult {
	var res ChurnResult
	for i := range count {
		ptr := a.Allocate(size)
		if ptr == nil {
			res.Failed++
			continue
		}
		res.Allocs++
		if freeEvery > 0 && i%freeEvery == 0 {
			a.Free(ptr)
			res.Frees++
		}
	}
	return res
}
