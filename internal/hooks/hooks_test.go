package hooks

import (
	"sync"
	"testing"
)

func TestDoActionRunsInPriorityOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var order []string

	r.AddAction("save", 20, func(args ...interface{}) { order = append(order, "late") })
	r.AddAction("save", 10, func(args ...interface{}) { order = append(order, "early") })
	r.AddAction("save", 10, func(args ...interface{}) { order = append(order, "early-second") })

	r.DoAction("save")

	want := []string{"early", "early-second", "late"}
	if len(order) != len(want) {
		t.Fatalf("ran %d actions, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestDoActionPassesArgs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var got string

	r.AddAction(EventUploadComplete, 10, func(args ...interface{}) {
		if len(args) == 1 {
			got, _ = args[0].(string)
		}
	})
	r.DoAction(EventUploadComplete, "/uploads/photo.avif")

	if got != "/uploads/photo.avif" {
		t.Errorf("got %q", got)
	}
}

func TestApplyFiltersChains(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.AddFilter("label", 10, func(v interface{}, args ...interface{}) interface{} {
		return v.(string) + "-a"
	})
	r.AddFilter("label", 20, func(v interface{}, args ...interface{}) interface{} {
		return v.(string) + "-b"
	})

	got := r.ApplyFilters("label", "base")
	if got != "base-a-b" {
		t.Errorf("ApplyFilters = %v, want base-a-b", got)
	}
}

func TestApplyFiltersNoSubscribers(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if got := r.ApplyFilters("missing", 42); got != 42 {
		t.Errorf("value changed with no subscribers: %v", got)
	}
}

func TestDoActionNoSubscribersIsNoOp(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.DoAction("missing", 1, 2, 3)
}

func TestConcurrentDispatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var mu sync.Mutex
	count := 0
	r.AddAction("tick", 10, func(args ...interface{}) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.DoAction("tick")
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}
