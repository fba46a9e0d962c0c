package navigator

import (
	"errors"
	"testing"
)

var dates = []string{"d0", "d1", "d2"}

func current(t *testing.T, n *Navigator) string {
	t.Helper()
	d, ok := n.Current()
	if !ok {
		t.Fatal("Expected a current date")
	}
	return d
}

func TestNewDefaultsToFirstDate(t *testing.T) {
	n := New(dates)
	if got := current(t, n); got != "d0" {
		t.Errorf("Expected d0, got %s", got)
	}
}

func TestSelectKnownDates(t *testing.T) {
	n := New(dates)
	for _, d := range dates {
		if err := n.Select(d); err != nil {
			t.Fatalf("Select(%s) failed: %v", d, err)
		}
		if got := current(t, n); got != d {
			t.Errorf("Expected %s, got %s", d, got)
		}
	}
}

func TestSelectUnknownDateLeavesStateUnchanged(t *testing.T) {
	n := New(dates)
	n.Advance()

	err := n.Select("1999-01-01")
	if !errors.Is(err, ErrUnknownDate) {
		t.Errorf("Expected ErrUnknownDate, got %v", err)
	}
	if got := current(t, n); got != "d1" {
		t.Errorf("Expected cursor to stay on d1, got %s", got)
	}
}

func TestAdvanceClampsAtLastDate(t *testing.T) {
	n := New(dates)
	n.Advance()
	n.Advance()
	n.Advance()
	if got := current(t, n); got != "d2" {
		t.Errorf("Expected d2, got %s", got)
	}
	if !n.AtEnd() {
		t.Error("Expected AtEnd to be true")
	}

	n.Advance()
	if got := current(t, n); got != "d2" {
		t.Errorf("Expected advance at last date to be a no-op, got %s", got)
	}
}

func TestRetreatClampsAtFirstDate(t *testing.T) {
	n := New(dates)
	if err := n.Select("d2"); err != nil {
		t.Fatal(err)
	}
	n.Retreat()
	n.Retreat()
	n.Retreat()
	n.Retreat()
	if got := current(t, n); got != "d0" {
		t.Errorf("Expected d0, got %s", got)
	}
	if !n.AtStart() {
		t.Error("Expected AtStart to be true")
	}
}

func TestEmptyNavigator(t *testing.T) {
	n := New(nil)
	if _, ok := n.Current(); ok {
		t.Error("Expected no current date")
	}

	n.Advance()
	n.Retreat()
	if _, ok := n.Current(); ok {
		t.Error("Expected advance/retreat on empty navigator to be no-ops")
	}
	if err := n.Select("d0"); !errors.Is(err, ErrUnknownDate) {
		t.Errorf("Expected ErrUnknownDate, got %v", err)
	}
}

func TestNewDeduplicates(t *testing.T) {
	n := New([]string{"a", "b", "a", "c"})
	if got := n.Dates(); len(got) != 3 || got[2] != "c" {
		t.Errorf("Expected [a b c], got %v", got)
	}
}
