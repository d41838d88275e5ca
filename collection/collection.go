package collection

import (
	"math"
	"slices"

	"github.com/google/btree"
	"github.com/zycbobby/regiontree/index/itree"
)

type itemT struct {
	ID     string
	Box    itree.Box
	Fields []float64
}

func (i *itemT) Less(item btree.Item) bool {
	return i.ID < item.(*itemT).ID
}

func boxOf(i *itemT) itree.Box {
	return i.Box
}

// Collection represents a collection of boxes keyed by id.
type Collection struct {
	items    *btree.BTree
	index    *itree.Tree[*itemT]
	fieldMap map[string]int
	weight   int
	objects  int
}

// New creates an empty collection covering space.
func New(space itree.Space) (*Collection, error) {
	index, err := itree.NewFunc(space, boxOf)
	if err != nil {
		return nil, err
	}
	col := &Collection{
		index:    index,
		items:    btree.New(16),
		fieldMap: make(map[string]int),
	}
	return col, nil
}

// Count returns the number of objects in collection.
func (c *Collection) Count() int {
	return c.objects
}

// Space returns the space covered by the collection's index.
func (c *Collection) Space() itree.Space {
	return c.index.Space()
}

// Stats returns the shape of the collection's index.
func (c *Collection) Stats() itree.Stats {
	return c.index.Stats()
}

// TotalWeight calculates the in-memory cost of the collection in bytes.
func (c *Collection) TotalWeight() int {
	return c.weight + c.overheadWeight()
}

func (c *Collection) overheadWeight() int {
	// the field map.
	mapweight := 0
	for field := range c.fieldMap {
		mapweight += len(field) + 8 // key + value
	}
	mapweight = int((float64(mapweight) * 1.05) + 28.0) // about an 8% pad plus golang 28 byte map overhead.
	// the btree and the tree slot each hold one pointer per item.
	btreeweight := (c.objects * 8) * 2
	// also the btree header weight
	btreeweight += 24
	return mapweight + btreeweight
}

func itemWeight(item *itemT) int {
	return len(item.ID) + len(item.Box)*16 + len(item.Fields)*8
}

// ReplaceOrInsert adds or replaces an object in the collection and returns the fields array.
// If an item with the same id is already in the collection then the new item will adopt the old item's fields.
// The fields argument is optional.
// The return values are the old box, the old fields, and the new fields.
func (c *Collection) ReplaceOrInsert(id string, box itree.Box, fields []string, values []float64) (oldBox itree.Box, oldFields []float64, newFields []float64, err error) {
	nitem := &itemT{ID: id, Box: slices.Clone(box)}
	// validate before touching the old item so a bad box leaves it in place
	if err := c.index.Add(nitem); err != nil {
		return nil, nil, nil, err
	}
	oldItem, ok := c.remove(id)
	c.items.ReplaceOrInsert(nitem)
	c.objects++
	if ok {
		oldBox = oldItem.Box
		oldFields = oldItem.Fields
		nitem.Fields = append([]float64(nil), oldFields...)
	}
	for i, field := range fields {
		c.setField(nitem, field, values[i])
	}
	c.weight += itemWeight(nitem)
	return oldBox, oldFields, nitem.Fields, nil
}

func (c *Collection) remove(id string) (item *itemT, ok bool) {
	i := c.items.Delete(&itemT{ID: id})
	if i == nil {
		return nil, false
	}
	item = i.(*itemT)
	c.index.Remove(item, func(other *itemT) bool {
		return other == item
	})
	c.weight -= itemWeight(item)
	c.objects--
	return item, true
}

// Remove removes an object and returns it.
// If the object does not exist then the 'ok' return value will be false.
func (c *Collection) Remove(id string) (box itree.Box, fields []float64, ok bool) {
	item, ok := c.remove(id)
	if !ok {
		return nil, nil, false
	}
	return item.Box, item.Fields, true
}

// Get returns an object.
// If the object does not exist then the 'ok' return value will be false.
func (c *Collection) Get(id string) (box itree.Box, fields []float64, ok bool) {
	i := c.items.Get(&itemT{ID: id})
	if i == nil {
		return nil, nil, false
	}
	item := i.(*itemT)
	return item.Box, item.Fields, true
}

// SetField set a field value for an object and returns that object.
// If the object does not exist then the 'ok' return value will be false.
func (c *Collection) SetField(id, field string, value float64) (box itree.Box, fields []float64, updated bool, ok bool) {
	i := c.items.Get(&itemT{ID: id})
	if i == nil {
		ok = false
		return
	}
	item := i.(*itemT)
	c.weight -= itemWeight(item)
	updated = c.setField(item, field, value)
	c.weight += itemWeight(item)
	return item.Box, item.Fields, updated, true
}

func (c *Collection) setField(item *itemT, field string, value float64) (updated bool) {
	idx, ok := c.fieldMap[field]
	if !ok {
		idx = len(c.fieldMap)
		c.fieldMap[field] = idx
	}
	for idx >= len(item.Fields) {
		item.Fields = append(item.Fields, math.NaN())
	}
	ovalue := item.Fields[idx]
	if math.IsNaN(ovalue) {
		ovalue = 0
	}
	item.Fields[idx] = value
	return ovalue != value
}

// FieldMap return a maps of the field names.
func (c *Collection) FieldMap() map[string]int {
	return c.fieldMap
}

// FieldArr return an array representation of the field names.
func (c *Collection) FieldArr() []string {
	arr := make([]string, len(c.fieldMap))
	for field, i := range c.fieldMap {
		arr[i] = field
	}
	return arr
}

// Scan iterates though the collection in id order. A cursor can be used for paging.
func (c *Collection) Scan(cursor uint64, iterator func(id string, box itree.Box, fields []float64) bool) (ncursor uint64) {
	var i uint64
	var active = true
	c.items.Ascend(func(item btree.Item) bool {
		if i >= cursor {
			iitm := item.(*itemT)
			active = iterator(iitm.ID, iitm.Box, iitm.Fields)
		}
		i++
		return active
	})
	return i
}

// ScanGreaterOrEqual iterates though the collection starting with specified id. A cursor can be used for paging.
func (c *Collection) ScanGreaterOrEqual(id string, cursor uint64, iterator func(id string, box itree.Box, fields []float64) bool) (ncursor uint64) {
	var i uint64
	var active = true
	c.items.AscendGreaterOrEqual(&itemT{ID: id}, func(item btree.Item) bool {
		if i >= cursor {
			iitm := item.(*itemT)
			active = iterator(iitm.ID, iitm.Box, iitm.Fields)
		}
		i++
		return active
	})
	return i
}

// Hit iterates over every object whose box contains point.
func (c *Collection) Hit(point itree.Point, iterator func(id string, box itree.Box, fields []float64) bool) error {
	seq, err := c.index.Query(point)
	if err != nil {
		return err
	}
	for item := range seq {
		if !iterator(item.ID, item.Box, item.Fields) {
			break
		}
	}
	return nil
}

// Pop is like Hit but every object passed to iterator is also removed from
// the collection.
func (c *Collection) Pop(point itree.Point, iterator func(id string, box itree.Box, fields []float64) bool) error {
	seq, err := c.index.Pop(point)
	if err != nil {
		return err
	}
	var popped []*itemT
	for item := range seq {
		popped = append(popped, item)
		if !iterator(item.ID, item.Box, item.Fields) {
			break
		}
	}
	for _, item := range popped {
		c.items.Delete(item)
		c.weight -= itemWeight(item)
		c.objects--
	}
	return nil
}
