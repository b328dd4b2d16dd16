package tle

import (
	"testing"
	"time"
)

func TestNewDatasetEpochRange(t *testing.T) {
	iss, err := ParseElements(issName, issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}

	// A second object with a later epoch.
	later := *iss
	later.CatalogNum = 99999
	later.Epoch = iss.Epoch.Add(2.5)

	ds := NewDataset("test", time.Now(), []*Elements{iss, &later})

	if ds.EpochRange.Min != iss.Epoch {
		t.Errorf("EpochRange.Min = %v, want %v", ds.EpochRange.Min, iss.Epoch)
	}
	if ds.EpochRange.Max != later.Epoch {
		t.Errorf("EpochRange.Max = %v, want %v", ds.EpochRange.Max, later.Epoch)
	}
	if len(ds.Satellites) != 2 {
		t.Fatalf("satellite count = %d, want 2", len(ds.Satellites))
	}

	if got := ds.ByCatalog(99999); got == nil || got.CatalogNum != 99999 {
		t.Errorf("ByCatalog(99999) = %v", got)
	}
	if got := ds.ByCatalog(11111); got != nil {
		t.Errorf("ByCatalog(11111) = %v, want nil", got)
	}
}

func TestNewDatasetEmpty(t *testing.T) {
	ds := NewDataset("test", time.Now(), nil)
	if len(ds.Satellites) != 0 {
		t.Errorf("satellite count = %d, want 0", len(ds.Satellites))
	}
	if ds.EpochRange.Min.DN != 0 || ds.EpochRange.Max.DN != 0 {
		t.Errorf("empty dataset epoch range = %+v, want zero", ds.EpochRange)
	}
}
