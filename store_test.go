package mmm

import (
	"sync"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if _, ok := store.Latest("Earth"); ok {
		t.Fatal("empty store has no solution")
	}
	store.Put(ImpactSolution{BodyID: "Earth", Epoch: 1, Valid: true})
	store.Put(ImpactSolution{BodyID: "Moon", Epoch: 2, Valid: true})
	store.Put(ImpactSolution{BodyID: "Earth", Epoch: 3})
	if latest, ok := store.Latest("Earth"); !ok || latest.Epoch != 3 || latest.Valid {
		t.Fatalf("invalid latest solution %s", latest)
	}
	history := store.History()
	if len(history) != 3 || history[0].Epoch != 1 {
		t.Fatalf("invalid history %v", history)
	}
	history[0].Epoch = 42
	if store.History()[0].Epoch != 1 {
		t.Fatal("History should return a copy")
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Put(ImpactSolution{BodyID: "Earth", Epoch: float64(i*100 + j)})
				store.Latest("Earth")
			}
		}(i)
	}
	wg.Wait()
	if store.Len() != 800 {
		t.Fatalf("expected 800 solutions, got %d", store.Len())
	}
}

func TestStoreFunc(t *testing.T) {
	var got []ImpactSolution
	var store ImpactStore = StoreFunc(func(s ImpactSolution) { got = append(got, s) })
	store.Put(ImpactSolution{BodyID: "Mars"})
	if len(got) != 1 || got[0].BodyID != "Mars" {
		t.Fatal("StoreFunc did not forward the solution")
	}
}
