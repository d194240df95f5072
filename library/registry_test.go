package library

import (
	"errors"
	"testing"
)

func TestRegistryAddDuplicate(t *testing.T) {
	r := newRegistry()
	if _, err := r.add("B1", "Title", "Author", "Cat", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.add("B1", "Other", "Other", "Cat", 1); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
	if _, err := r.add("B2", "Neg", "Author", "Cat", -1); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict for negative copies, got %v", err)
	}
}

func TestRegistryResize(t *testing.T) {
	r := newRegistry()
	r.add("B1", "Title", "Author", "Cat", 3)

	// Simulate two copies out on loan.
	r.decrementAvailable("B1")
	r.decrementAvailable("B1")

	// Growing adds to availability.
	five := 5
	if err := r.update("B1", BookUpdate{TotalCopies: &five}); err != nil {
		t.Fatalf("grow: %v", err)
	}
	b, _ := r.get("B1")
	if b.AvailableCopies != 3 {
		t.Fatalf("want 3 available after grow, got %d", b.AvailableCopies)
	}

	// Shrinking below the on-loan count clamps at zero.
	one := 1
	if err := r.update("B1", BookUpdate{TotalCopies: &one}); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	b, _ = r.get("B1")
	if b.AvailableCopies != 0 {
		t.Fatalf("want clamp to 0, got %d", b.AvailableCopies)
	}
}

func TestRegistryCounterBounds(t *testing.T) {
	r := newRegistry()
	r.add("B1", "Title", "Author", "Cat", 1)

	if err := r.decrementAvailable("B1"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := r.decrementAvailable("B1"); !errors.Is(err, ErrNoCopiesAvailable) {
		t.Fatalf("want ErrNoCopiesAvailable at zero, got %v", err)
	}

	r.incrementAvailable("B1")
	r.incrementAvailable("B1") // capped at total
	b, _ := r.get("B1")
	if b.AvailableCopies != 1 {
		t.Fatalf("increment must cap at total, got %d", b.AvailableCopies)
	}
}

func TestRegistryQueue(t *testing.T) {
	r := newRegistry()
	r.add("B1", "Title", "Author", "Cat", 0)

	if _, ok := r.dequeueReservation("B1"); ok {
		t.Fatalf("empty queue must report empty")
	}

	r.enqueueReservation("B1", "A")
	r.enqueueReservation("B1", "B")
	if err := r.enqueueReservation("B1", "A"); !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("want ErrAlreadyReserved, got %v", err)
	}

	head, ok := r.dequeueReservation("B1")
	if !ok || head != "A" {
		t.Fatalf("want A first, got %q", head)
	}
	head, _ = r.dequeueReservation("B1")
	if head != "B" {
		t.Fatalf("want B second, got %q", head)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := newRegistry()
	r.add("B1", "Title", "Author", "Cat", 2)
	r.decrementAvailable("B1")

	if err := r.remove("B1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict while copies out, got %v", err)
	}
	r.incrementAvailable("B1")
	if err := r.remove("B1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.remove("B1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
