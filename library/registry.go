package library

import (
	"fmt"
	"sort"
)

// BookUpdate carries the optional fields of a catalog update. Nil fields
// keep their current value.
type BookUpdate struct {
	Title       *string
	Author      *string
	Category    *string
	TotalCopies *int
}

// registry owns the catalog: titles, copy counts and per-title reservation
// queues. It is not safe for concurrent use on its own; the engine's lock
// serializes access.
type registry struct {
	books map[string]*Book
}

func newRegistry() *registry {
	return &registry{books: make(map[string]*Book)}
}

func (r *registry) add(isbn, title, author, category string, copies int) (*Book, error) {
	if copies < 0 {
		return nil, fmt.Errorf("total copies must be non-negative: %w", ErrConflict)
	}
	if _, ok := r.books[isbn]; ok {
		return nil, fmt.Errorf("book %s: %w", isbn, ErrDuplicateKey)
	}
	b := &Book{
		ISBN:            isbn,
		Title:           title,
		Author:          author,
		Category:        category,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	r.books[isbn] = b
	return b, nil
}

func (r *registry) get(isbn string) (*Book, error) {
	b, ok := r.books[isbn]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", isbn, ErrNotFound)
	}
	return b, nil
}

// update applies the non-nil fields. Resizing TotalCopies shifts
// AvailableCopies by the same delta; copies already out on loan are never
// reclaimed, so the result is clamped at zero.
func (r *registry) update(isbn string, upd BookUpdate) error {
	b, err := r.get(isbn)
	if err != nil {
		return err
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.Category != nil {
		b.Category = *upd.Category
	}
	if upd.TotalCopies != nil {
		if *upd.TotalCopies < 0 {
			return fmt.Errorf("total copies must be non-negative: %w", ErrConflict)
		}
		diff := *upd.TotalCopies - b.TotalCopies
		b.TotalCopies = *upd.TotalCopies
		b.AvailableCopies += diff
		if b.AvailableCopies < 0 {
			b.AvailableCopies = 0
		}
	}
	return nil
}

// remove deletes a title. Refused while any copy is still on loan.
func (r *registry) remove(isbn string) error {
	b, err := r.get(isbn)
	if err != nil {
		return err
	}
	if b.AvailableCopies < b.TotalCopies {
		return fmt.Errorf("book %s has copies on loan: %w", isbn, ErrConflict)
	}
	delete(r.books, isbn)
	return nil
}

func (r *registry) decrementAvailable(isbn string) error {
	b, err := r.get(isbn)
	if err != nil {
		return err
	}
	if b.AvailableCopies == 0 {
		return fmt.Errorf("book %s: %w", isbn, ErrNoCopiesAvailable)
	}
	b.AvailableCopies--
	return nil
}

func (r *registry) incrementAvailable(isbn string) error {
	b, err := r.get(isbn)
	if err != nil {
		return err
	}
	if b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	return nil
}

func (r *registry) enqueueReservation(isbn, memberID string) error {
	b, err := r.get(isbn)
	if err != nil {
		return err
	}
	for _, queued := range b.ReservationQueue {
		if queued == memberID {
			return fmt.Errorf("member %s on book %s: %w", memberID, isbn, ErrAlreadyReserved)
		}
	}
	b.ReservationQueue = append(b.ReservationQueue, memberID)
	return nil
}

// dequeueReservation pops the FIFO head. The second result is false when
// the queue is empty or the book is unknown.
func (r *registry) dequeueReservation(isbn string) (string, bool) {
	b, ok := r.books[isbn]
	if !ok || len(b.ReservationQueue) == 0 {
		return "", false
	}
	head := b.ReservationQueue[0]
	b.ReservationQueue = b.ReservationQueue[1:]
	return head, true
}

// cancelReservation removes a member's pending entry wherever it sits in
// the queue, preserving the order of everyone else.
func (r *registry) cancelReservation(isbn, memberID string) error {
	b, err := r.get(isbn)
	if err != nil {
		return err
	}
	for i, queued := range b.ReservationQueue {
		if queued == memberID {
			b.ReservationQueue = append(b.ReservationQueue[:i], b.ReservationQueue[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no reservation for member %s on book %s: %w", memberID, isbn, ErrNotFound)
}

// all returns the catalog ordered by ISBN for stable listings.
func (r *registry) all() []*Book {
	books := make([]*Book, 0, len(r.books))
	for _, b := range r.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ISBN < books[j].ISBN })
	return books
}
