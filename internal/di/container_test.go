package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type pricer struct{ name string }

func TestContainer_RegisterAndGet(t *testing.T) {
	c := NewContainer()
	c.Register("config", 42)

	if got := c.Get("config").(int); got != 42 {
		t.Errorf("Get(config) = %d, want 42", got)
	}
	if !c.Has("config") || c.Has("missing") {
		t.Error("Has() reported the wrong membership")
	}
}

func TestRegisterToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	token := NewToken[*pricer]("curve.Pricer")

	var builds atomic.Int32
	RegisterToken(c, token, func(sr ServiceRegistry) *pricer {
		builds.Add(1)
		return &pricer{name: "float64"}
	})

	if builds.Load() != 0 {
		t.Fatal("factory should not run before first Get")
	}

	var wg sync.WaitGroup
	results := make([]*pricer, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetToken(c, token)
		}(i)
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", builds.Load())
	}
	for _, p := range results {
		if p != results[0] {
			t.Fatal("GetToken returned different instances")
		}
	}
}

func TestGet_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown service")
		}
	}()
	NewContainer().Get("nope")
}
