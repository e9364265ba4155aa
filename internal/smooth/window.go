package smooth

import (
	"sort"

	"github.com/standardbeagle/scalarviz/internal/point"
)

// slidingWindow is the Go stand-in for the original's
// multiset<ScalarPoint> + FIFO-of-iterators pair: a value-ordered view for
// median/top-x computation, and insertion order for oldest-eviction. No
// ordered-multiset library appears anywhere in the example pack, so this
// is implemented directly on a slice (justified in DESIGN.md).
type slidingWindow struct {
	sorted []*windowEntry // ascending by Value
	queue  []*windowEntry // oldest first
}

type windowEntry struct {
	pt point.ScalarPoint
}

func (w *slidingWindow) insert(pt point.ScalarPoint) {
	e := &windowEntry{pt: pt}
	i := sort.Search(len(w.sorted), func(i int) bool { return w.sorted[i].pt.Value >= pt.Value })
	w.sorted = append(w.sorted, nil)
	copy(w.sorted[i+1:], w.sorted[i:])
	w.sorted[i] = e
	w.queue = append(w.queue, e)
}

func (w *slidingWindow) evictOldest() {
	if len(w.queue) == 0 {
		return
	}
	e := w.queue[0]
	w.queue = w.queue[1:]
	for i, s := range w.sorted {
		if s == e {
			w.sorted = append(w.sorted[:i], w.sorted[i+1:]...)
			break
		}
	}
}

func (w *slidingWindow) len() int { return len(w.sorted) }

func (w *slidingWindow) valueAt(i int) float32 { return w.sorted[i].pt.Value }

func (w *slidingWindow) reset() {
	w.sorted = nil
	w.queue = nil
}
