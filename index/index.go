package index

import (
	"github.com/zycbobby/regiontree/index/itree"
)

// Item represents an index item.
type Item interface {
	Rect() (minX, minY, maxX, maxY float64)
}

// FlexItem can represent a point or a rectangle
type FlexItem struct {
	MinX, MinY, MaxX, MaxY float64
}

// Rect returns the rectangle
func (item *FlexItem) Rect() (minX, minY, maxX, maxY float64) {
	return item.MinX, item.MinY, item.MaxX, item.MaxY
}

// Index is a planar hit-test index over rectangles.
type Index struct {
	tr *itree.Tree[Item]
}

func rectBox(item Item) itree.Box {
	minX, minY, maxX, maxY := item.Rect()
	return itree.Box{{Min: minX, Max: maxX}, {Min: minY, Max: maxY}}
}

// New creates an index covering the given bounds. Rectangles outside the
// bounds are still accepted; they just sink deeper into the tree.
func New(minX, minY, maxX, maxY float64) (*Index, error) {
	tr, err := itree.NewFunc(itree.Space{{Min: minX, Max: maxX}, {Min: minY, Max: maxY}}, rectBox)
	if err != nil {
		return nil, err
	}
	return &Index{tr: tr}, nil
}

// Insert inserts an item into the index
func (ix *Index) Insert(item Item) error {
	return ix.tr.Add(item)
}

// Remove removes an item from the index. The item must report the same
// rectangle it was inserted with. An error is returned when that rectangle
// is invalid.
func (ix *Index) Remove(item Item) (bool, error) {
	return ix.tr.Remove(item, func(other Item) bool {
		return other == item
	})
}

// Search calls iterator for every item whose rectangle contains x,y.
// Returning false from iterator stops the search.
func (ix *Index) Search(x, y float64, iterator func(item Item) bool) {
	// the index is always 2D, so the point cannot be rejected
	seq, _ := ix.tr.Query(itree.Point{x, y})
	seq(iterator)
}

// Pop is like Search but also removes every item passed to iterator.
func (ix *Index) Pop(x, y float64, iterator func(item Item) bool) {
	// the index is always 2D, so the point cannot be rejected
	seq, _ := ix.tr.Pop(itree.Point{x, y})
	seq(iterator)
}

// Scan calls iterator for every item in the index.
func (ix *Index) Scan(iterator func(item Item) bool) {
	ix.tr.All()(iterator)
}

// Count counts all items in the index.
func (ix *Index) Count() int {
	return ix.tr.Count()
}

// Bounds returns the area covered by the index.
func (ix *Index) Bounds() (minX, minY, maxX, maxY float64) {
	space := ix.tr.Space()
	return space[0].Min, space[1].Min, space[0].Max, space[1].Max
}
