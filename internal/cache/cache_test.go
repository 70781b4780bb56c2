package cache

import (
	"sync"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	if got := Key("Deals", "load"); got != "Deals:load()" {
		t.Errorf("Key = %q", got)
	}
	if got := Key("Transactions", "totals", 7, "x"); got != "Transactions:totals(7,x)" {
		t.Errorf("Key with args = %q", got)
	}
}

func TestTableCacheGetSetExpire(t *testing.T) {
	c := NewTableCache(50 * time.Millisecond)
	c.Set(Key("Deals", "load"), []int{1, 2})

	v, ok := Lookup[[]int](c, Key("Deals", "load"))
	if !ok || len(v) != 2 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}
	if _, ok := Lookup[string](c, Key("Deals", "load")); ok {
		t.Fatal("wrong type should be a miss")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get(Key("Deals", "load")); ok {
		t.Fatal("entry should have expired")
	}
}

func TestTableCacheInvalidateIsPerTable(t *testing.T) {
	c := NewTableCache(time.Minute)
	c.Set(Key("Deals", "load"), 1)
	c.Set(Key("Deals", "byID", 3), 2)
	c.Set(Key("Transactions", "load"), 3)
	c.Set(Key("DealsArchive", "load"), 4)

	if n := c.Invalidate("Deals"); n != 2 {
		t.Fatalf("Invalidate removed %d entries, want 2", n)
	}
	if _, ok := c.Get(Key("Transactions", "load")); !ok {
		t.Fatal("other tables must survive invalidation")
	}
	if _, ok := c.Get(Key("DealsArchive", "load")); !ok {
		t.Fatal("prefix match must stop at the separator")
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d, want 2", c.Size())
	}
}

func TestTableCacheDisabled(t *testing.T) {
	c := NewTableCache(0)
	c.Set("Deals:load()", 1)
	if _, ok := c.Get("Deals:load()"); ok {
		t.Fatal("disabled cache must always miss")
	}
}

func TestTableCacheObserver(t *testing.T) {
	var mu sync.Mutex
	seen := map[string][]bool{}
	c := NewTableCache(time.Minute, WithObserver(func(table string, hit bool) {
		mu.Lock()
		defer mu.Unlock()
		seen[table] = append(seen[table], hit)
	}))

	c.Get(Key("Deals", "load"))
	c.Set(Key("Deals", "load"), 1)
	c.Get(Key("Deals", "load"))

	if got := seen["Deals"]; len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("observer saw %v, want [miss hit]", got)
	}
}

func TestTableCacheConcurrentAccess(t *testing.T) {
	c := NewTableCache(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(Key("Deals", "load", i), i)
			c.Get(Key("Deals", "load", i))
			if i%5 == 0 {
				c.Invalidate("Deals")
			}
		}(i)
	}
	wg.Wait()
	c.Flush()
	if c.Size() != 0 {
		t.Fatalf("Flush left %d items", c.Size())
	}
}
