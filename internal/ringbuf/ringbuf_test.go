package ringbuf

import (
	"reflect"
	"testing"
)

func TestRing_PushWithinCapacity(t *testing.T) {
	r := New[float64](5)

	for _, v := range []float64{1, 2, 3} {
		if _, ok := r.Push(v); ok {
			t.Fatalf("push %v should not evict", v)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("expected len=3, got %d", r.Len())
	}
	last, ok := r.Last()
	if !ok || last != 3 {
		t.Fatalf("expected last=3, got %v ok=%v", last, ok)
	}
	if got := r.Values(); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Fatalf("values = %v", got)
	}
}

func TestRing_EvictsOldestFIFO(t *testing.T) {
	r := New[int](5)

	for i := 1; i <= 8; i++ {
		r.Push(i)
		if r.Len() > 5 {
			t.Fatalf("len %d exceeds cap after push %d", r.Len(), i)
		}
	}

	if got := r.Values(); !reflect.DeepEqual(got, []int{4, 5, 6, 7, 8}) {
		t.Fatalf("expected [4 5 6 7 8], got %v", got)
	}
	if r.Evicted() != 3 {
		t.Fatalf("expected 3 evictions, got %d", r.Evicted())
	}

	evicted, ok := r.Push(9)
	if !ok || evicted != 4 {
		t.Fatalf("expected 4 evicted, got %v ok=%v", evicted, ok)
	}
}

func TestRing_Empty(t *testing.T) {
	r := New[string](2)
	if _, ok := r.Last(); ok {
		t.Fatal("Last on empty ring should return false")
	}
	if len(r.Values()) != 0 {
		t.Fatal("expected no values")
	}
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := New[int](0)
	if r.Cap() != 1 {
		t.Fatalf("expected cap=1, got %d", r.Cap())
	}
	r.Push(1)
	r.Push(2)
	if got := r.Values(); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("values = %v", got)
	}
}

func TestRing_From(t *testing.T) {
	r := From(3, []int{1, 2, 3, 4})
	if got := r.Values(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Fatalf("values = %v", got)
	}
}

func TestRing_Newest(t *testing.T) {
	r := From(4, []int{1, 2, 3, 4, 5})
	if got := r.Newest(2); !reflect.DeepEqual(got, []int{5, 4}) {
		t.Fatalf("newest(2) = %v", got)
	}
	if got := r.Newest(10); !reflect.DeepEqual(got, []int{5, 4, 3, 2}) {
		t.Fatalf("newest(10) = %v", got)
	}
}

func TestRing_ValuesIsCopy(t *testing.T) {
	r := From(3, []int{1, 2})
	vals := r.Values()
	vals[0] = 99
	if got := r.Values(); got[0] != 1 {
		t.Fatalf("mutating Values() leaked into ring: %v", got)
	}
}
