package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sandrolain/goscheme/pkg/cache"
	"github.com/sandrolain/goscheme/pkg/types"
)

func program(src string) *types.Program {
	return types.NewProgram([]types.Value{src}, src)
}

func TestCacheEviction(t *testing.T) {
	c := cache.New(2)
	c.Set("a", program("a"))
	c.Set("b", program("b"))
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", program("c"))
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	if got := cache.New(0).Capacity(); got != 256 {
		t.Errorf("Capacity() = %d, want 256", got)
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("a", program("a"))
	c.Set("b", program("b"))
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be gone")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestGetOrCompile(t *testing.T) {
	c := cache.New(4)
	calls := 0
	compile := func() (*types.Program, error) {
		calls++
		return program("x"), nil
	}
	p1, err := c.GetOrCompile("x", compile)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.GetOrCompile("x", compile)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("expected the cached program")
	}
	if calls != 1 {
		t.Errorf("compile called %d times, want 1", calls)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestGetOrCompileErrorNotCached(t *testing.T) {
	c := cache.New(4)
	boom := errors.New("boom")
	if _, err := c.GetOrCompile("bad", func() (*types.Program, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed compile must not be cached")
	}
}

func TestGetOrCompileConcurrent(t *testing.T) {
	c := cache.New(4)
	var calls atomic.Int32
	start := make(chan struct{})
	compile := func() (*types.Program, error) {
		calls.Add(1)
		<-start
		return program("shared"), nil
	}

	var wg sync.WaitGroup
	results := make([]*types.Program, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.GetOrCompile("shared", compile)
			if err != nil {
				t.Error(err)
			}
			results[i] = p
		}(i)
	}
	close(start)
	wg.Wait()

	for _, p := range results {
		if p != results[0] {
			t.Fatal("callers received different programs")
		}
	}
	if n := calls.Load(); n < 1 || n > int32(len(results)) {
		t.Errorf("compile called %d times", n)
	}
}
