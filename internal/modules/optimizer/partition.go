// README: Exact-cover solver choosing the cheapest set of driver paths.
package optimizer

import (
	"log"
	"math/bits"
	"time"

	"flock/internal/types"
)

// maxSolverRiders bounds rider sets to one uint64 mask.
const maxSolverRiders = 63

type candidate struct {
	path Path
	mask uint64
	cost time.Duration
}

type memoKey struct {
	covered uint64
	used    int
}

type memoEntry struct {
	cost time.Duration
	next int
	ok   bool
}

// Solve picks paths that together cover every rider exactly once with the
// smallest summed travel time. In specified mode only paths driven by
// flagged drivers count and exactly requiredDrivers paths must be used; in
// suggested mode any number of paths may be used. Among equal totals the
// first combination in path order wins. When no combination exists the
// result has no paths and InfiniteTime.
//
// The search always branches on the lowest uncovered rider, so each cover
// is visited once, and memoizes on the covered set.
func Solve(paths []Path, riders []*Node, mode Mode, requiredDrivers int) *OptimizedTrip {
	result := noSolution("", mode)
	n := len(riders)
	if n == 0 {
		return result
	}
	if n > maxSolverRiders {
		log.Printf("[OPTIMIZER] %d riders exceeds solver limit %d", n, maxSolverRiders)
		return result
	}
	if mode == ModeSpecified && (requiredDrivers < 1 || requiredDrivers > n) {
		return result
	}

	index := make(map[types.ID]int, n)
	for i, r := range riders {
		index[r.ID] = i
	}
	full := uint64(1)<<uint(n) - 1

	var cands []candidate
	byRider := make([][]int, n)
nextPath:
	for _, p := range paths {
		if len(p.Edges) == 0 {
			continue
		}
		if mode == ModeSpecified && !p.Driver().IsDriver {
			continue
		}
		var mask uint64
		for _, r := range p.Riders() {
			i, ok := index[r.ID]
			if !ok {
				continue nextPath
			}
			mask |= 1 << uint(i)
		}
		// Paths visiting another flagged driver as a pickup can never be part
		// of a specified-mode cover, since that driver also needs its own path.
		if mode == ModeSpecified && containsOtherDriver(p) {
			continue
		}
		ci := len(cands)
		cands = append(cands, candidate{path: p, mask: mask, cost: p.TotalTime()})
		for m := mask; m != 0; m &= m - 1 {
			i := bits.TrailingZeros64(m)
			byRider[i] = append(byRider[i], ci)
		}
	}

	memo := make(map[memoKey]memoEntry)
	keyFor := func(covered uint64, used int) memoKey {
		if mode == ModeSuggested {
			used = 0
		}
		return memoKey{covered: covered, used: used}
	}

	var best func(covered uint64, used int) memoEntry
	best = func(covered uint64, used int) memoEntry {
		if covered == full {
			return memoEntry{next: -1, ok: mode == ModeSuggested || used == requiredDrivers}
		}
		if mode == ModeSpecified && used >= requiredDrivers {
			return memoEntry{next: -1}
		}
		key := keyFor(covered, used)
		if e, ok := memo[key]; ok {
			return e
		}
		r := bits.TrailingZeros64(^covered & full)
		res := memoEntry{next: -1}
		for _, ci := range byRider[r] {
			c := cands[ci]
			if c.mask&covered != 0 {
				continue
			}
			sub := best(covered|c.mask, used+1)
			if !sub.ok {
				continue
			}
			total := c.cost + sub.cost
			if !res.ok || total < res.cost {
				res = memoEntry{cost: total, next: ci, ok: true}
			}
		}
		memo[key] = res
		return res
	}

	top := best(0, 0)
	if !top.ok {
		return result
	}
	result.TotalTime = top.cost
	covered, used := uint64(0), 0
	for e := top; e.next >= 0; {
		c := cands[e.next]
		result.Paths = append(result.Paths, c.path)
		covered |= c.mask
		used++
		e = best(covered, used)
	}
	return result
}

func containsOtherDriver(p Path) bool {
	for _, e := range p.Edges {
		if e.To.IsDriver {
			return true
		}
	}
	return false
}
