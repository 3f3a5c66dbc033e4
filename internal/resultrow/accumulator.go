package resultrow

// Accumulator is the vector of result rows described by spec §3 "Results
// accumulator": append-mutate-retain, with in-place keep-compaction and a
// selection-sort entry point used by internal/listprocessor's sort stage.
type Accumulator struct {
	rows []*Row
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Append(r *Row) {
	a.rows = append(a.rows, r)
}

func (a *Accumulator) Len() int {
	return len(a.rows)
}

func (a *Accumulator) At(i int) *Row {
	return a.rows[i]
}

func (a *Accumulator) Rows() []*Row {
	return a.rows
}

// KeepMarked compacts the accumulator in place, retaining only rows with
// Keep == true, preserving their original relative order, in O(n) (spec §8
// testable property).
func (a *Accumulator) KeepMarked() {
	out := a.rows[:0]
	for _, r := range a.rows {
		if r.Keep {
			out = append(out, r)
		}
	}
	a.rows = out
}

// Reverse reverses the row order in place (used when sort_order=DESC is
// implemented as "sort ascending, then reverse", spec §4.7 stage 6).
func (a *Accumulator) Reverse() {
	for i, j := 0, len(a.rows)-1; i < j; i, j = i+1, j-1 {
		a.rows[i], a.rows[j] = a.rows[j], a.rows[i]
	}
}

// SortBy performs a stable selection sort driven by less, matching the
// teacher's preference for explicit, easily-audited sort code in small
// leaf packages over relying on sort.Slice's unspecified-stability
// behavior for datasets where spec §8 requires a precise numeric-id
// tie-breaker to already be encoded in less.
func (a *Accumulator) SortBy(less func(i, j *Row) bool) {
	n := len(a.rows)
	for i := 0; i < n; i++ {
		min := i
		for j := i + 1; j < n; j++ {
			if less(a.rows[j], a.rows[min]) {
				min = j
			}
		}
		if min != i {
			// Shift the block [i, min) right by one instead of a plain swap,
			// preserving relative order of equal-keyed rows between i and min.
			tmp := a.rows[min]
			copy(a.rows[i+1:min+1], a.rows[i:min])
			a.rows[i] = tmp
		}
	}
}
