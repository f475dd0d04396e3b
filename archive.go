package cpso

import (
	"crypto/sha1"

	"github.com/petar/GoLLRB/llrb"
)

type archived struct {
	Point
	seq int
	key [sha1.Size]byte
}

// Less orders archived points by rank, falling back to insertion order so
// that the tree sees a strict total order.
func (a archived) Less(than llrb.Item) bool {
	b := than.(archived)
	if Better(a.Point, b.Point) {
		return true
	} else if Better(b.Point, a.Point) {
		return false
	}
	return a.seq < b.seq
}

// Archive keeps the best Size distinct positions offered to it, ranked with
// Better.  Failed evaluations are ignored.
type Archive struct {
	Size int
	tree *llrb.LLRB
	seen map[[sha1.Size]byte]struct{}
	seq  int
}

func NewArchive(size int) *Archive {
	return &Archive{
		Size: size,
		tree: llrb.New(),
		seen: map[[sha1.Size]byte]struct{}{},
	}
}

// Add offers points to the archive and drops the worst entries beyond Size.
func (a *Archive) Add(points ...Point) {
	if a.Size <= 0 {
		return
	}

	for _, p := range points {
		if p.Failed() {
			continue
		}
		key := hashPoint(p)
		if _, ok := a.seen[key]; ok {
			continue
		}

		a.seq++
		a.tree.InsertNoReplace(archived{Point: p, seq: a.seq, key: key})
		a.seen[key] = struct{}{}
		for a.tree.Len() > a.Size {
			worst := a.tree.DeleteMax().(archived)
			delete(a.seen, worst.key)
		}
	}
}

func (a *Archive) Len() int { return a.tree.Len() }

// Points returns the archived points, best first.
func (a *Archive) Points() []Point {
	points := make([]Point, 0, a.tree.Len())
	first := a.tree.Min()
	if first == nil {
		return points
	}
	a.tree.AscendGreaterOrEqual(first, func(item llrb.Item) bool {
		points = append(points, item.(archived).Point)
		return true
	})
	return points
}
