// Package itree implements an N-dimensional interval tree.
//
// A Tree stores axis-aligned boxes and answers which of them contain a point.
// Every node splits its space at the center of each dimension. An item moves
// down into the child orthant that wholly holds its box and stays at the first
// node whose center it straddles, so a point query follows exactly one path
// from the root.
//
// A Tree is not safe for concurrent mutation. Add, Pop and Remove need
// exclusive access. Query, All, Count and Stats may run concurrently with each
// other as long as no mutation is in flight.
package itree

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
)

// maxDepth bounds descent for boxes that never straddle a center, such as
// zero-size boxes or boxes lying outside the space.
const maxDepth = 64

var (
	// ErrNoDimensions is returned when a tree is created over an empty space.
	ErrNoDimensions = errors.New("space has no dimensions")
	// ErrInvalidRange is returned when a space range is not finite or is reversed.
	ErrInvalidRange = errors.New("invalid space range")
	// ErrNilBoxFunc is returned by NewFunc when no box func is given.
	ErrNilBoxFunc = errors.New("nil box func")
	// ErrDimensionMismatch is returned when a box or point does not have the
	// tree's number of dimensions.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidBox is returned when a box has a NaN bound or min > max.
	ErrInvalidBox = errors.New("invalid box")
)

// Interval is a closed range on one dimension.
type Interval struct {
	Min, Max float64
}

// Space is the extent covered by a tree, one range per dimension.
type Space []Interval

// Box is the extent of a stored item, one range per dimension.
type Box []Interval

// Point is a position, one coordinate per dimension.
type Point []float64

// Contains reports whether p lies in b. Bounds are inclusive and a NaN
// coordinate is never contained.
func (b Box) Contains(p Point) bool {
	if len(b) != len(p) {
		return false
	}
	for i, iv := range b {
		if !(p[i] >= iv.Min && p[i] <= iv.Max) {
			return false
		}
	}
	return true
}

// Boxer is an item that carries its own box.
type Boxer interface {
	Box() Box
}

type slot[T any] struct {
	box  Box
	item T
}

// orthant packs one bit per dimension. A set bit means the low side of the
// node's center.
type orthant string

func (o orthant) low(i int) bool {
	return o[i>>3]&(1<<(i&7)) != 0
}

// Tree is a node of the interval tree. The root is created with New or
// NewFunc and covers the whole space; children cover one orthant of their
// parent and are created on first use.
type Tree[T any] struct {
	space  Space
	center Point
	depth  int
	boxOf  func(T) Box
	items  []slot[T]
	nodes  map[orthant]*Tree[T]
	order  []orthant // first-use order of nodes
}

// New creates an empty tree over space for items that carry their own box.
func New[T Boxer](space Space) (*Tree[T], error) {
	return NewFunc(space, func(item T) Box { return item.Box() })
}

// NewFunc creates an empty tree over space. The box func decides the box of
// every added item and is fixed for the life of the tree.
func NewFunc[T any](space Space, box func(T) Box) (*Tree[T], error) {
	if box == nil {
		return nil, ErrNilBoxFunc
	}
	if err := checkSpace(space); err != nil {
		return nil, err
	}
	return newNode(slices.Clone(space), 0, box), nil
}

func checkSpace(space Space) error {
	if len(space) == 0 {
		return ErrNoDimensions
	}
	for i, iv := range space {
		if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) || math.IsInf(iv.Min, 0) || math.IsInf(iv.Max, 0) {
			return fmt.Errorf("%w: dimension %d is [%v, %v]", ErrInvalidRange, i, iv.Min, iv.Max)
		}
		if iv.Min > iv.Max {
			return fmt.Errorf("%w: dimension %d low %v is above high %v", ErrInvalidRange, i, iv.Min, iv.Max)
		}
	}
	return nil
}

func newNode[T any](space Space, depth int, box func(T) Box) *Tree[T] {
	center := make(Point, len(space))
	for i, iv := range space {
		c := (iv.Min + iv.Max) / 2
		if math.IsInf(c, 0) {
			// the sum overflowed
			c = iv.Min/2 + iv.Max/2
		}
		center[i] = c
	}
	return &Tree[T]{space: space, center: center, depth: depth, boxOf: box}
}

// Dims returns the number of dimensions.
func (tr *Tree[T]) Dims() int {
	return len(tr.space)
}

// Space returns a copy of the space covered by the node.
func (tr *Tree[T]) Space() Space {
	return slices.Clone(tr.space)
}

// Center returns a copy of the node's center.
func (tr *Tree[T]) Center() Point {
	return slices.Clone(tr.center)
}

func (tr *Tree[T]) checkBox(box Box) error {
	if len(box) != len(tr.space) {
		return fmt.Errorf("%w: box has %d dimensions, expect %d", ErrDimensionMismatch, len(box), len(tr.space))
	}
	for i, iv := range box {
		if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) || iv.Min > iv.Max {
			return fmt.Errorf("%w: dimension %d is [%v, %v]", ErrInvalidBox, i, iv.Min, iv.Max)
		}
	}
	return nil
}

func (tr *Tree[T]) checkPoint(point Point) error {
	if len(point) != len(tr.space) {
		return fmt.Errorf("%w: point has %d dimensions, expect %d", ErrDimensionMismatch, len(point), len(tr.space))
	}
	return nil
}

func keyLen(dims int) int {
	return (dims + 7) >> 3
}

// bucket returns the orthant that wholly holds box. It reports false when the
// box straddles the center of some dimension, that is min < c <= max.
func (tr *Tree[T]) bucket(box Box) (orthant, bool) {
	key := make([]byte, keyLen(len(tr.center)))
	for i, c := range tr.center {
		iv := box[i]
		if iv.Min < c && c <= iv.Max {
			return "", false
		}
		if iv.Max < c {
			key[i>>3] |= 1 << (i & 7)
		}
	}
	return orthant(key), true
}

// pointBucket returns the orthant a point falls in. Points on the center
// belong to the high side.
func (tr *Tree[T]) pointBucket(point Point) orthant {
	key := make([]byte, keyLen(len(tr.center)))
	for i, c := range tr.center {
		if point[i] < c {
			key[i>>3] |= 1 << (i & 7)
		}
	}
	return orthant(key)
}

// child returns the node for key, creating it when missing.
func (tr *Tree[T]) child(key orthant) *Tree[T] {
	if node, ok := tr.nodes[key]; ok {
		return node
	}
	space := make(Space, len(tr.space))
	for i, iv := range tr.space {
		if key.low(i) {
			space[i] = Interval{iv.Min, tr.center[i]}
		} else {
			space[i] = Interval{tr.center[i], iv.Max}
		}
	}
	node := newNode(space, tr.depth+1, tr.boxOf)
	if tr.nodes == nil {
		tr.nodes = make(map[orthant]*Tree[T])
	}
	tr.nodes[key] = node
	tr.order = append(tr.order, key)
	return node
}

// Add inserts an item. Its box is taken from the tree's box func and must
// have one valid range per dimension.
func (tr *Tree[T]) Add(item T) error {
	box := tr.boxOf(item)
	if err := tr.checkBox(box); err != nil {
		return err
	}
	insert(tr, slices.Clone(box), item)
	return nil
}

func insert[T any](node *Tree[T], box Box, item T) {
	for {
		key, ok := node.bucket(box)
		if !ok || node.depth >= maxDepth {
			node.items = append(node.items, slot[T]{box: box, item: item})
			return
		}
		node = node.child(key)
	}
}

// Query returns the items whose box contains point. The sequence is lazy and
// may be ranged over more than once; each pass reflects the tree at that time.
func (tr *Tree[T]) Query(point Point) (iter.Seq[T], error) {
	if err := tr.checkPoint(point); err != nil {
		return nil, err
	}
	point = slices.Clone(point)
	return func(yield func(T) bool) {
		for node := tr; node != nil; node = node.nodes[node.pointBucket(point)] {
			for _, s := range node.items {
				if s.box.Contains(point) && !yield(s.item) {
					return
				}
			}
		}
	}, nil
}

// Pop returns the items whose box contains point and removes every item it
// yields. Nothing is removed until the sequence is ranged over. When the
// caller stops early, only the items already yielded are removed. The tree
// must not be mutated from inside the loop body.
func (tr *Tree[T]) Pop(point Point) (iter.Seq[T], error) {
	if err := tr.checkPoint(point); err != nil {
		return nil, err
	}
	point = slices.Clone(point)
	return func(yield func(T) bool) {
		for node := tr; node != nil; node = node.nodes[node.pointBucket(point)] {
			if !node.pop(point, yield) {
				return
			}
		}
	}, nil
}

// pop yields and removes the node's items that contain point. It reports
// false when yield asked to stop.
func (tr *Tree[T]) pop(point Point, yield func(T) bool) bool {
	var kept []slot[T]
	popped := false
	for i, s := range tr.items {
		if !s.box.Contains(point) {
			if popped {
				kept = append(kept, s)
			}
			continue
		}
		if !popped {
			kept = append(make([]slot[T], 0, len(tr.items)-1), tr.items[:i]...)
			popped = true
		}
		if !yield(s.item) {
			tr.items = append(kept, tr.items[i+1:]...)
			return false
		}
	}
	if popped {
		tr.items = kept
	}
	return true
}

// Remove deletes the first item for which match returns true, looking only
// along the path that item's box was added on. The item must still have the
// box it was added with. Remove reports whether an item was deleted.
func (tr *Tree[T]) Remove(item T, match func(T) bool) (bool, error) {
	box := tr.boxOf(item)
	if err := tr.checkBox(box); err != nil {
		return false, err
	}
	node := tr
	for node != nil {
		for i, s := range node.items {
			if match(s.item) {
				node.items = slices.Delete(node.items, i, i+1)
				return true, nil
			}
		}
		key, ok := node.bucket(box)
		if !ok || node.depth >= maxDepth {
			break
		}
		node = node.nodes[key]
	}
	return false, nil
}

// All returns every stored item: a node's own items first, then each child
// subtree in the order the children were created.
func (tr *Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		all(tr, yield)
	}
}

func all[T any](node *Tree[T], yield func(T) bool) bool {
	for _, s := range node.items {
		if !yield(s.item) {
			return false
		}
	}
	for _, key := range node.order {
		if !all(node.nodes[key], yield) {
			return false
		}
	}
	return true
}

// Count returns the number of items stored in the tree.
func (tr *Tree[T]) Count() int {
	return count(tr, 0)
}

func count[T any](node *Tree[T], counter int) int {
	counter += len(node.items)
	for _, key := range node.order {
		counter = count(node.nodes[key], counter)
	}
	return counter
}

// Stats describes the shape of a tree.
type Stats struct {
	Nodes     int // nodes, including the root
	Items     int // stored items
	RootItems int // items held by the root
	MaxDepth  int // depth of the deepest node, root is 0
}

// Stats walks the tree and reports its shape.
func (tr *Tree[T]) Stats() Stats {
	st := Stats{RootItems: len(tr.items)}
	stats(tr, &st)
	st.MaxDepth -= tr.depth
	return st
}

func stats[T any](node *Tree[T], st *Stats) {
	st.Nodes++
	st.Items += len(node.items)
	if node.depth > st.MaxDepth {
		st.MaxDepth = node.depth
	}
	for _, key := range node.order {
		stats(node.nodes[key], st)
	}
}
