package tle

import (
	"testing"
	"time"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	if store.Get() != nil {
		t.Error("new store should be empty")
	}
	if store.Lookup(25544) != nil {
		t.Error("Lookup on empty store should return nil")
	}
	if store.AgeSeconds() != -1 {
		t.Errorf("AgeSeconds on empty store = %v, want -1", store.AgeSeconds())
	}

	iss, err := ParseElements(issName, issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}
	store.Set(NewDataset("test", time.Now().Add(-time.Minute), []*Elements{iss}))

	if got := store.Lookup(25544); got == nil || got.Name != issName {
		t.Errorf("Lookup(25544) = %v", got)
	}
	if age := store.AgeSeconds(); age < 59 || age > 120 {
		t.Errorf("AgeSeconds = %v, want about 60", age)
	}

	// Replacement swaps the whole dataset.
	store.Set(NewDataset("test2", time.Now(), nil))
	if store.Lookup(25544) != nil {
		t.Error("Lookup should miss after dataset replacement")
	}
}
