package index

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/zycbobby/regiontree/index/itree"
)

func randf(min, max float64) float64 {
	return rand.Float64()*(max-min) + min
}

func randPoint() (lat float64, lon float64) {
	return randf(-90, 90), randf(-180, 180)
}

func randRect() (swLat, swLon, neLat, neLon float64) {
	swLat, swLon = randPoint()
	neLat = randf(swLat-10, swLat+10)
	neLon = randf(swLon-10, swLon+10)
	return math.Min(swLat, neLat), math.Min(swLon, neLon), math.Max(swLat, neLat), math.Max(swLon, neLon)
}

func wp(swLat, swLon, neLat, neLon float64) *FlexItem {
	return &FlexItem{
		MinX: swLon,
		MinY: swLat,
		MaxX: neLon,
		MaxY: neLat,
	}
}

func world(t testing.TB) *Index {
	tr, err := New(-180, -90, 180, 90)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestRandomInserts(t *testing.T) {
	rand.Seed(0)
	l := 100000
	tr := world(t)
	var items []*FlexItem
	start := time.Now()
	for i := 0; i < l; i++ {
		swLat, swLon, neLat, neLon := randRect()
		item := wp(swLat, swLon, neLat, neLon)
		if err := tr.Insert(item); err != nil {
			t.Fatal(err)
		}
		items = append(items, item)
	}
	insdur := time.Since(start)

	count := tr.Count()
	if count != l {
		t.Fatalf("count == %d, expect %d", count, l)
	}
	count = 0
	tr.Scan(func(item Item) bool {
		count++
		return true
	})
	if count != l {
		t.Fatalf("count == %d, expect %d", count, l)
	}

	start = time.Now()
	count = 0
	tr.Search(-114.5, 33.5, func(item Item) bool {
		count++
		return true
	})
	searchdur := time.Since(start)
	expect := 0
	for _, item := range items {
		if item.MinX <= -114.5 && -114.5 <= item.MaxX && item.MinY <= 33.5 && 33.5 <= item.MaxY {
			expect++
		}
	}
	if count != expect {
		t.Fatalf("count == %d, expect %d", count, expect)
	}
	fmt.Printf("Randomly inserted %d rects in %s.\n", l, insdur.String())
	fmt.Printf("Hit %d items in %s.\n", count, searchdur.String())
}

func TestInsertVarious(t *testing.T) {
	var count int
	tr := world(t)
	item := wp(33, -115, 33, -115)
	tr.Insert(item)
	count = tr.Count()
	if count != 1 {
		t.Fatalf("count = %d, expect 1", count)
	}
	if ok, err := tr.Remove(item); !ok || err != nil {
		t.Fatalf("remove == %v, %v, expect true", ok, err)
	}
	count = tr.Count()
	if count != 0 {
		t.Fatalf("count = %d, expect 0", count)
	}
	tr.Insert(item)
	count = tr.Count()
	if count != 1 {
		t.Fatalf("count = %d, expect 1", count)
	}
	found := false
	tr.Search(-115, 33, func(item2 Item) bool {
		if item2 == item {
			found = true
		}
		return true
	})
	if !found {
		t.Fatal("did not find item")
	}
}

func TestRemoveInvalid(t *testing.T) {
	tr := world(t)
	item := wp(33, -115, 34, -114)
	if err := tr.Insert(item); err != nil {
		t.Fatal(err)
	}
	item.MaxX = math.NaN()
	if ok, err := tr.Remove(item); ok || !errors.Is(err, itree.ErrInvalidBox) {
		t.Fatalf("remove == %v, %v, expect false, %v", ok, err, itree.ErrInvalidBox)
	}
	if tr.Count() != 1 {
		t.Fatalf("count == %d, expect 1", tr.Count())
	}
}

func TestSearchStop(t *testing.T) {
	tr := world(t)
	for i := 0; i < 10; i++ {
		tr.Insert(wp(-10, -10, 10, 10))
	}
	count := 0
	tr.Search(0, 0, func(item Item) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Fatalf("count = %d, expect 3", count)
	}
}

func TestPop(t *testing.T) {
	tr := world(t)
	a := wp(-10, -10, 10, 10)
	b := wp(20, 20, 30, 30)
	tr.Insert(a)
	tr.Insert(b)
	var popped []Item
	tr.Pop(5, 5, func(item Item) bool {
		popped = append(popped, item)
		return true
	})
	if len(popped) != 1 || popped[0] != a {
		t.Fatalf("popped = %v, expect [%v]", popped, a)
	}
	if tr.Count() != 1 {
		t.Fatalf("count = %d, expect 1", tr.Count())
	}
}

func TestBounds(t *testing.T) {
	tr := world(t)
	minX, minY, maxX, maxY := tr.Bounds()
	if minX != -180 || minY != -90 || maxX != 180 || maxY != 90 {
		t.Fatalf("bounds = %v %v %v %v", minX, minY, maxX, maxY)
	}
	if _, err := New(10, 0, 0, 10); err == nil {
		t.Fatal("expected error for reversed bounds")
	}
}

func BenchmarkInsertRect(b *testing.B) {
	rand.Seed(time.Now().UnixNano())
	tr := world(b)
	for i := 0; i < b.N; i++ {
		swLat, swLon, neLat, neLon := randRect()
		tr.Insert(wp(swLat, swLon, neLat, neLon))
	}
}

func BenchmarkInsertPoint(b *testing.B) {
	rand.Seed(time.Now().UnixNano())
	tr := world(b)
	for i := 0; i < b.N; i++ {
		swLat, swLon, _, _ := randRect()
		tr.Insert(wp(swLat, swLon, swLat, swLon))
	}
}

func BenchmarkSearch(b *testing.B) {
	rand.Seed(0)
	tr := world(b)
	for i := 0; i < 100000; i++ {
		swLat, swLon, neLat, neLon := randRect()
		tr.Insert(wp(swLat, swLon, neLat, neLon))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lat, lon := randPoint()
		tr.Search(lon, lat, func(item Item) bool {
			return true
		})
	}
}
