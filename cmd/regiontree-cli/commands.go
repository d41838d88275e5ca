package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/zycbobby/regiontree/collection"
	"github.com/zycbobby/regiontree/index/itree"
)

const defaultScanLimit = 100

// controller runs commands against a single collection.
type controller struct {
	col *collection.Collection
}

func newController(space itree.Space) (*controller, error) {
	col, err := collection.New(space)
	if err != nil {
		return nil, err
	}
	return &controller{col: col}, nil
}

// exec runs one command line and returns its json reply.
func (c *controller) exec(line string) (string, error) {
	start := time.Now()
	vs, cmd := tokenlc(strings.TrimSpace(line))
	vs = strings.TrimSpace(vs)
	log.Debugf("exec: %s %s", cmd, vs)
	var res string
	var err error
	switch cmd {
	default:
		return "", fmt.Errorf("unknown command '%s'", cmd)
	case "set":
		res, err = c.cmdSet(vs)
	case "get":
		res, err = c.cmdGet(vs)
	case "del":
		res, err = c.cmdDel(vs)
	case "fset":
		res, err = c.cmdFset(vs)
	case "scan":
		res, err = c.cmdScan(vs)
	case "hit":
		res, err = c.cmdHit(vs, false)
	case "pop":
		res, err = c.cmdHit(vs, true)
	case "count":
		res, err = c.cmdCount(vs)
	case "stats":
		res, err = c.cmdStats(vs)
	case "space":
		res, err = c.cmdSpace(vs)
	}
	if err != nil {
		return "", err
	}
	res, _ = sjson.Set(res, "elapsed", time.Since(start).String())
	return res, nil
}

// errorReply renders err the way every failed command replies.
func errorReply(err error) string {
	res, _ := sjson.Set(`{"ok":false}`, "err", err.Error())
	return res
}

// boxPairs converts intervals to the [[min,max],...] form used in replies.
func boxPairs(ivs []itree.Interval) [][2]float64 {
	pairs := make([][2]float64, len(ivs))
	for i, iv := range ivs {
		pairs[i] = [2]float64{iv.Min, iv.Max}
	}
	return pairs
}

func (c *controller) fieldsJSON(fields []float64) string {
	out := "{}"
	for i, name := range c.col.FieldArr() {
		if i < len(fields) && !math.IsNaN(fields[i]) {
			out, _ = sjson.Set(out, gjson.Escape(name), fields[i])
		}
	}
	return out
}

func (c *controller) objectJSON(id string, box itree.Box, fields []float64) string {
	out, _ := sjson.Set("{}", "id", id)
	out, _ = sjson.Set(out, "box", boxPairs(box))
	if len(fields) > 0 {
		out, _ = sjson.SetRaw(out, "fields", c.fieldsJSON(fields))
	}
	return out
}

func (c *controller) cmdSet(line string) (string, error) {
	var id string
	if line, id = token(line); id == "" {
		return "", errInvalidNumberOfArguments
	}
	var fields []string
	var values []float64
	for {
		nline, arg := tokenlc(line)
		if arg != "field" {
			break
		}
		var name string
		var value float64
		var err error
		if nline, name = token(nline); name == "" {
			return "", errInvalidNumberOfArguments
		}
		for _, f := range fields {
			if f == name {
				return "", errDuplicateArgument(name)
			}
		}
		if nline, value, err = tokenFloat(nline); err != nil {
			return "", err
		}
		fields = append(fields, name)
		values = append(values, value)
		line = nline
	}
	if strings.TrimSpace(line) == "" {
		return "", errInvalidNumberOfArguments
	}
	box, err := parseBox(line)
	if err != nil {
		return "", err
	}
	oldBox, _, _, err := c.col.ReplaceOrInsert(id, box, fields, values)
	if err != nil {
		return "", err
	}
	res := `{"ok":true}`
	if oldBox != nil {
		res, _ = sjson.Set(res, "replaced", true)
	}
	return res, nil
}

func (c *controller) cmdGet(line string) (string, error) {
	var id string
	if line, id = token(line); id == "" || line != "" {
		return "", errInvalidNumberOfArguments
	}
	box, fields, ok := c.col.Get(id)
	if !ok {
		return "", errIDNotFound
	}
	res, _ := sjson.SetRaw(`{"ok":true}`, "object", c.objectJSON(id, box, fields))
	return res, nil
}

func (c *controller) cmdDel(line string) (string, error) {
	var id string
	if line, id = token(line); id == "" || line != "" {
		return "", errInvalidNumberOfArguments
	}
	if _, _, ok := c.col.Remove(id); !ok {
		return "", errIDNotFound
	}
	return `{"ok":true}`, nil
}

func (c *controller) cmdFset(line string) (string, error) {
	var id, field string
	var value float64
	var err error
	if line, id = token(line); id == "" {
		return "", errInvalidNumberOfArguments
	}
	if line, field = token(line); field == "" {
		return "", errInvalidNumberOfArguments
	}
	if line, value, err = tokenFloat(line); err != nil {
		return "", err
	}
	if line != "" {
		return "", errInvalidNumberOfArguments
	}
	_, _, updated, ok := c.col.SetField(id, field, value)
	if !ok {
		return "", errIDNotFound
	}
	res, _ := sjson.Set(`{"ok":true}`, "updated", updated)
	return res, nil
}

func (c *controller) cmdScan(line string) (string, error) {
	var cursor uint64
	limit := uint64(defaultScanLimit)
	pattern := "*"
	var sawCursor, sawLimit, sawMatch bool
	for line != "" {
		var arg string
		var err error
		line, arg = tokenlc(line)
		switch arg {
		default:
			return "", errInvalidArgument(arg)
		case "cursor":
			if sawCursor {
				return "", errDuplicateArgument(arg)
			}
			sawCursor = true
			if line, cursor, err = tokenUint(line); err != nil {
				return "", err
			}
		case "limit":
			if sawLimit {
				return "", errDuplicateArgument(arg)
			}
			sawLimit = true
			if line, limit, err = tokenUint(line); err != nil {
				return "", err
			}
		case "match":
			if sawMatch {
				return "", errDuplicateArgument(arg)
			}
			sawMatch = true
			if line, pattern = token(line); pattern == "" {
				return "", errInvalidNumberOfArguments
			}
		}
	}
	everything := pattern == "*"
	pivot := globPivot(pattern)
	res := `{"ok":true,"objects":[]}`
	var n uint64
	var stopped bool
	iterator := func(id string, box itree.Box, fields []float64) bool {
		if pivot != "" && !strings.HasPrefix(id, pivot) {
			return false
		}
		if !everything {
			if ok, _ := globMatch(pattern, id); !ok {
				return true
			}
		}
		res, _ = sjson.SetRaw(res, "objects.-1", c.objectJSON(id, box, fields))
		n++
		if n >= limit {
			stopped = true
			return false
		}
		return true
	}
	var ncursor uint64
	if limit > 0 {
		if pivot != "" {
			ncursor = c.col.ScanGreaterOrEqual(pivot, cursor, iterator)
		} else {
			ncursor = c.col.Scan(cursor, iterator)
		}
	}
	if !stopped {
		ncursor = 0
	}
	res, _ = sjson.Set(res, "count", n)
	res, _ = sjson.Set(res, "cursor", ncursor)
	return res, nil
}

func (c *controller) cmdHit(line string, pop bool) (string, error) {
	var point itree.Point
	for line != "" {
		var v float64
		var err error
		if line, v, err = tokenFloat(line); err != nil {
			return "", err
		}
		point = append(point, v)
	}
	if len(point) == 0 {
		return "", errInvalidNumberOfArguments
	}
	res := `{"ok":true,"objects":[]}`
	count := 0
	iterator := func(id string, box itree.Box, fields []float64) bool {
		res, _ = sjson.SetRaw(res, "objects.-1", c.objectJSON(id, box, fields))
		count++
		return true
	}
	var err error
	if pop {
		err = c.col.Pop(point, iterator)
	} else {
		err = c.col.Hit(point, iterator)
	}
	if err != nil {
		return "", err
	}
	if pop && count > 0 {
		log.Infof("popped %d objects at %v", count, point)
	}
	res, _ = sjson.Set(res, "count", count)
	return res, nil
}

func (c *controller) cmdCount(line string) (string, error) {
	if line != "" {
		return "", errInvalidNumberOfArguments
	}
	res, _ := sjson.Set(`{"ok":true}`, "count", c.col.Count())
	return res, nil
}

func (c *controller) cmdStats(line string) (string, error) {
	if line != "" {
		return "", errInvalidNumberOfArguments
	}
	st := c.col.Stats()
	res := `{"ok":true}`
	res, _ = sjson.Set(res, "stats.num_objects", c.col.Count())
	res, _ = sjson.Set(res, "stats.num_nodes", st.Nodes)
	res, _ = sjson.Set(res, "stats.root_objects", st.RootItems)
	res, _ = sjson.Set(res, "stats.max_depth", st.MaxDepth)
	res, _ = sjson.Set(res, "stats.in_memory_size", c.col.TotalWeight())
	return res, nil
}

func (c *controller) cmdSpace(line string) (string, error) {
	if line != "" {
		return "", errInvalidNumberOfArguments
	}
	space := c.col.Space()
	res, _ := sjson.Set(`{"ok":true}`, "space", boxPairs(space))
	res, _ = sjson.Set(res, "dims", len(space))
	return res, nil
}
