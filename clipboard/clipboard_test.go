package clipboard

import (
	"errors"
	"testing"
)

func TestFakeSinkRecords(t *testing.T) {
	f := NewFakeSink(nil)
	if err := f.Deliver("one"); err != nil {
		t.Fatal(err)
	}
	if err := f.Deliver("two"); err != nil {
		t.Fatal(err)
	}
	got := f.Delivered()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("Delivered = %v", got)
	}
}

func TestFakeSinkError(t *testing.T) {
	boom := errors.New("no display")
	f := NewFakeSink(boom)
	if err := f.Deliver("text"); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped error", err)
	}
	if len(f.Delivered()) != 0 {
		t.Fatal("failed delivery was recorded")
	}
}
