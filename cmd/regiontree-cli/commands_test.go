package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
)

func newTestController(t *testing.T) *controller {
	space, err := parseSpace("0,300,0,300")
	if err != nil {
		t.Fatal(err)
	}
	c, err := newController(space)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func mustExec(t *testing.T, c *controller, line string) gjson.Result {
	t.Helper()
	msg, err := c.exec(line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	res := gjson.Parse(msg)
	if !res.Get("ok").Bool() {
		t.Fatalf("%s: not ok: %s", line, msg)
	}
	if !res.Get("elapsed").Exists() {
		t.Fatalf("%s: missing elapsed: %s", line, msg)
	}
	return res
}

func ids(res gjson.Result) []string {
	var arr []string
	for _, v := range res.Get("objects.#.id").Array() {
		arr = append(arr, v.String())
	}
	return arr
}

func TestSetHitPop(t *testing.T) {
	c := newTestController(t)
	mustExec(t, c, "SET up-left [[10,100],[10,100]]")
	mustExec(t, c, "SET up-right [[10,100],[170,280]]")
	mustExec(t, c, `set center-center {"box":[[140,170],[140,170]]}`)

	res := mustExec(t, c, "HIT 11 11")
	if got := ids(res); len(got) != 1 || got[0] != "up-left" {
		t.Fatalf("hit == %v, expect [up-left]", got)
	}
	res = mustExec(t, c, "HIT 150 150")
	if got := ids(res); len(got) != 1 || got[0] != "center-center" {
		t.Fatalf("hit == %v, expect [center-center]", got)
	}
	res = mustExec(t, c, "HIT 3 5")
	if n := res.Get("count").Int(); n != 0 {
		t.Fatalf("count == %d, expect 0", n)
	}
	res = mustExec(t, c, "POP 11 11")
	if n := res.Get("count").Int(); n != 1 {
		t.Fatalf("count == %d, expect 1", n)
	}
	res = mustExec(t, c, "COUNT")
	if n := res.Get("count").Int(); n != 2 {
		t.Fatalf("count == %d, expect 2", n)
	}
	if _, err := c.exec("GET up-left"); err != errIDNotFound {
		t.Fatalf("error == %v, expect %v", err, errIDNotFound)
	}
}

func TestSetFields(t *testing.T) {
	c := newTestController(t)
	mustExec(t, c, "SET a FIELD speed 55 FIELD dir 90 [[10,20],[10,20]]")
	res := mustExec(t, c, "GET a")
	if v := res.Get("object.fields.speed").Float(); v != 55 {
		t.Fatalf("speed == %v, expect 55", v)
	}
	if v := res.Get("object.box").Raw; v != "[[10,20],[10,20]]" {
		t.Fatalf("box == %s", v)
	}
	res = mustExec(t, c, "FSET a speed 60")
	if !res.Get("updated").Bool() {
		t.Fatal("expected updated")
	}
	res = mustExec(t, c, "SET a [[30,40],[30,40]]")
	if !res.Get("replaced").Bool() {
		t.Fatal("expected replaced")
	}
	res = mustExec(t, c, "GET a")
	if v := res.Get("object.fields.speed").Float(); v != 60 {
		t.Fatalf("speed == %v, expect 60", v)
	}
	if _, err := c.exec("SET a FIELD speed 1 FIELD speed 2 [[1,2],[1,2]]"); err == nil {
		t.Fatal("expected duplicate field error")
	}
}

func TestReplyJSON(t *testing.T) {
	c := newTestController(t)
	mustExec(t, c, "SET a FIELD a.b 1 FIELD x=y 2 FIELD [0] 3 [[0.5,20.25],[10,20]]")
	res := mustExec(t, c, "GET a")
	if v := res.Get("object.box").Raw; v != "[[0.5,20.25],[10,20]]" {
		t.Fatalf("box == %s", v)
	}
	fields := make(map[string]float64)
	res.Get("object.fields").ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value.Float()
		return true
	})
	if len(fields) != 3 || fields["a.b"] != 1 || fields["x=y"] != 2 || fields["[0]"] != 3 {
		t.Fatalf("fields == %v", fields)
	}
	res = mustExec(t, c, "SPACE")
	if v := res.Get("space").Raw; v != "[[0,300],[0,300]]" {
		t.Fatalf("space == %s", v)
	}
}

func TestScan(t *testing.T) {
	c := newTestController(t)
	for _, id := range []string{"c", "a", "b", "d"} {
		mustExec(t, c, "SET "+id+" [[1,2],[1,2]]")
	}
	res := mustExec(t, c, "SCAN LIMIT 3")
	if got := ids(res); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("scan == %v", got)
	}
	if cur := res.Get("cursor").Int(); cur != 3 {
		t.Fatalf("cursor == %d, expect 3", cur)
	}
	res = mustExec(t, c, "SCAN CURSOR 3")
	if got := ids(res); len(got) != 1 || got[0] != "d" {
		t.Fatalf("scan == %v", got)
	}
	if cur := res.Get("cursor").Int(); cur != 0 {
		t.Fatalf("cursor == %d, expect 0", cur)
	}
}

func TestScanMatch(t *testing.T) {
	c := newTestController(t)
	for _, id := range []string{"truck1", "truck2", "car1", "truck10", "bike"} {
		mustExec(t, c, "SET "+id+" [[1,2],[1,2]]")
	}
	res := mustExec(t, c, "SCAN MATCH truck*")
	if got := ids(res); len(got) != 3 || got[0] != "truck1" || got[1] != "truck10" || got[2] != "truck2" {
		t.Fatalf("scan == %v", got)
	}
	res = mustExec(t, c, "SCAN MATCH *1")
	if got := ids(res); len(got) != 2 || got[0] != "car1" || got[1] != "truck1" {
		t.Fatalf("scan == %v", got)
	}
	res = mustExec(t, c, "SCAN MATCH bike")
	if got := ids(res); len(got) != 1 || got[0] != "bike" {
		t.Fatalf("scan == %v", got)
	}
	res = mustExec(t, c, "SCAN MATCH truck* LIMIT 2")
	if cur := res.Get("cursor").Int(); cur != 2 {
		t.Fatalf("cursor == %d, expect 2", cur)
	}
	res = mustExec(t, c, "SCAN MATCH truck* CURSOR 2")
	if got := ids(res); len(got) != 1 || got[0] != "truck2" {
		t.Fatalf("scan == %v", got)
	}
	mustExec(t, c, "SET a* [[1,2],[1,2]]")
	mustExec(t, c, "SET ab [[1,2],[1,2]]")
	res = mustExec(t, c, `SCAN MATCH a\*`)
	if got := ids(res); len(got) != 1 || got[0] != "a*" {
		t.Fatalf("scan == %v, expect [a*]", got)
	}
}

func TestDelStatsSpace(t *testing.T) {
	c := newTestController(t)
	mustExec(t, c, "SET a [[100,200],[100,200]]")
	mustExec(t, c, "SET b [[10,20],[10,20]]")
	res := mustExec(t, c, "STATS")
	if n := res.Get("stats.num_objects").Int(); n != 2 {
		t.Fatalf("num_objects == %d, expect 2", n)
	}
	if n := res.Get("stats.root_objects").Int(); n != 1 {
		t.Fatalf("root_objects == %d, expect 1", n)
	}
	mustExec(t, c, "DEL a")
	if _, err := c.exec("DEL a"); err != errIDNotFound {
		t.Fatalf("error == %v, expect %v", err, errIDNotFound)
	}
	res = mustExec(t, c, "SPACE")
	if v := res.Get("space").Raw; v != "[[0,300],[0,300]]" {
		t.Fatalf("space == %s", v)
	}
	if n := res.Get("dims").Int(); n != 2 {
		t.Fatalf("dims == %d, expect 2", n)
	}
}

func TestExecErrors(t *testing.T) {
	c := newTestController(t)
	for _, line := range []string{
		"NOPE",
		"SET a",
		"SET a [[1,2]]",
		"SET a [[2,1],[1,2]]",
		"SET a {bad json",
		"HIT",
		"HIT 1",
		"HIT 1 x",
		"GET",
		"SCAN LIMIT x",
		"SCAN CURSOR 1 CURSOR 2",
		"COUNT 1",
	} {
		if _, err := c.exec(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
	}
	reply := gjson.Parse(errorReply(errIDNotFound))
	if reply.Get("ok").Bool() || reply.Get("err").String() != "id not found" {
		t.Fatalf("error reply == %s", reply.Raw)
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	err := os.WriteFile(path, []byte(`{"space":[[0,10],[0,20],[0,30]],"history":"/tmp/h"}`), 0600)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Space) != 3 || cfg.Space[2].Max != 30 {
		t.Fatalf("space == %v", cfg.Space)
	}
	if cfg.History != "/tmp/h" {
		t.Fatalf("history == %q", cfg.History)
	}
	if err := os.WriteFile(path, []byte(`{"space":[[0,10],[0]]}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error")
	}
	if _, err := parseSpace("0,1,2"); err == nil {
		t.Fatal("expected error for odd space")
	}
	if _, err := parseSpace("0,x"); err == nil {
		t.Fatal("expected error for bad number")
	}
}
