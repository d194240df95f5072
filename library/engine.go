package library

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Engine orchestrates issue, return and reservation operations against the
// catalog and the loan ledger. One mutex covers both, so every operation
// (including the auto-issue cascade inside Return) runs as a single
// serialized transaction and either fully applies or leaves state
// untouched. The caller supplies `today` on date-sensitive operations; the
// engine never reads the clock itself.
type Engine struct {
	mu  sync.Mutex
	reg *registry
	led *ledger
}

// NewEngine returns an empty lending engine.
func NewEngine() *Engine {
	return &Engine{reg: newRegistry(), led: newLedger()}
}

// IssueResult describes a successful issue.
type IssueResult struct {
	LoanID  string
	DueDate time.Time
}

// AutoIssue describes the loan created for the reservation queue head
// during a return.
type AutoIssue struct {
	MemberID string
	LoanID   string
	DueDate  time.Time
}

// ReturnResult describes a processed return. Fine is informational only;
// nothing is collected here. AutoIssued is nil when the freed copy went
// back on the shelf.
type ReturnResult struct {
	MemberID    string
	OverdueDays int
	Fine        float64
	AutoIssued  *AutoIssue
}

// OverdueEntry is one row of the overdue report.
type OverdueEntry struct {
	Loan        LoanRecord
	OverdueDays int
	Fine        float64
}

// ------------------ catalog administration ------------------

// AddBook registers a new title with the given number of copies.
func (e *Engine) AddBook(isbn, title, author, category string, copies int) (Book, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.reg.add(isbn, title, author, category, copies)
	if err != nil {
		return Book{}, err
	}
	return copyBook(b), nil
}

// UpdateBook applies the non-nil fields of upd to the title.
func (e *Engine) UpdateBook(isbn string, upd BookUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.update(isbn, upd)
}

// RemoveBook deletes a title. Refused while copies are on loan.
func (e *Engine) RemoveBook(isbn string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.remove(isbn)
}

// GetBook returns a copy of the title's current state.
func (e *Engine) GetBook(isbn string) (Book, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.reg.get(isbn)
	if err != nil {
		return Book{}, err
	}
	return copyBook(b), nil
}

// Books lists the catalog ordered by ISBN.
func (e *Engine) Books() []Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	books := e.reg.all()
	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = copyBook(b)
	}
	return out
}

// SearchBooks filters the catalog by a case-insensitive substring match on
// title, author or category.
func (e *Engine) SearchBooks(keyword string) []Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	kw := strings.ToLower(strings.TrimSpace(keyword))
	var out []Book
	for _, b := range e.reg.all() {
		if strings.Contains(strings.ToLower(b.Title), kw) ||
			strings.Contains(strings.ToLower(b.Author), kw) ||
			strings.Contains(strings.ToLower(b.Category), kw) {
			out = append(out, copyBook(b))
		}
	}
	return out
}

// ------------------ circulation ------------------

// Issue lends a copy of isbn to the member, due LoanDays from today.
// ErrNoCopiesAvailable is the normal "fully lent out" outcome; callers are
// expected to offer a reservation instead. A member cannot hold two live
// loans of the same title.
func (e *Engine) Issue(isbn, memberID string, today time.Time) (IssueResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.reg.get(isbn)
	if err != nil {
		return IssueResult{}, err
	}
	if b.AvailableCopies == 0 {
		return IssueResult{}, fmt.Errorf("book %s: %w", isbn, ErrNoCopiesAvailable)
	}
	if e.led.memberHolds(isbn, memberID) {
		return IssueResult{}, fmt.Errorf("member %s already holds book %s: %w", memberID, isbn, ErrConflict)
	}
	res, err := e.issueLocked(isbn, memberID, today)
	if err != nil {
		return IssueResult{}, err
	}
	// A direct issue satisfies any reservation the member had pending for
	// this title; a holder must never remain queued, or the return cascade
	// would hand them a second copy.
	_ = e.reg.cancelReservation(isbn, memberID)
	return res, nil
}

// issueLocked creates the loan once all guards have passed. Caller holds
// the lock and has verified availability.
func (e *Engine) issueLocked(isbn, memberID string, today time.Time) (IssueResult, error) {
	rec := &LoanRecord{
		LoanID:    e.led.nextLoanID(),
		ISBN:      isbn,
		MemberID:  memberID,
		IssueDate: today,
	}
	if err := e.led.record(rec); err != nil {
		return IssueResult{}, err
	}
	if err := e.reg.decrementAvailable(isbn); err != nil {
		// Unreachable when availability was checked; undo the insert so a
		// failed operation leaves no trace.
		e.led.close(rec.LoanID)
		return IssueResult{}, err
	}
	return IssueResult{LoanID: rec.LoanID, DueDate: rec.DueDate()}, nil
}

// Return closes the loan, reports the accrued fine, and puts the freed
// copy back in circulation. Only the loan's holder or an admin may return
// it. If the title has a reservation queue the head member is immediately
// issued the copy, dated today; at most one reservation is satisfied per
// return, since exactly one copy was freed.
func (e *Engine) Return(loanID, actingMemberID string, isAdmin bool, today time.Time) (ReturnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.led.get(loanID)
	if err != nil {
		return ReturnResult{}, err
	}
	if rec.MemberID != actingMemberID && !isAdmin {
		return ReturnResult{}, fmt.Errorf("member %s cannot return loan %s: %w", actingMemberID, loanID, ErrUnauthorized)
	}

	res := ReturnResult{
		MemberID:    rec.MemberID,
		OverdueDays: rec.OverdueDays(today),
		Fine:        rec.Fine(today),
	}

	if _, err := e.led.close(loanID); err != nil {
		return ReturnResult{}, err
	}
	// The title may have been removed while the loan was live (resize to
	// zero copies makes RemoveBook pass its on-loan check). The return
	// still completes; there is just no availability to restore and no
	// queue to serve.
	if err := e.reg.incrementAvailable(rec.ISBN); err != nil {
		if errors.Is(err, ErrNotFound) {
			return res, nil
		}
		return ReturnResult{}, err
	}

	if next, ok := e.reg.dequeueReservation(rec.ISBN); ok {
		issued, err := e.issueLocked(rec.ISBN, next, today)
		if err != nil {
			return ReturnResult{}, err
		}
		res.AutoIssued = &AutoIssue{MemberID: next, LoanID: issued.LoanID, DueDate: issued.DueDate}
	}
	return res, nil
}

// Reserve appends the member to the title's FIFO waitlist. Reserving a
// title that currently has available copies is allowed; callers are
// expected to attempt Issue first and fall back here. A member holding a
// live loan of the title cannot also queue for it: the cascade would
// otherwise issue them a second simultaneous copy.
func (e *Engine) Reserve(isbn, memberID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.reg.get(isbn); err != nil {
		return err
	}
	if e.led.memberHolds(isbn, memberID) {
		return fmt.Errorf("member %s already holds book %s: %w", memberID, isbn, ErrConflict)
	}
	return e.reg.enqueueReservation(isbn, memberID)
}

// CancelReservation drops the member's pending entry. Only the entry's
// owner or an admin may cancel it.
func (e *Engine) CancelReservation(isbn, memberID, actingMemberID string, isAdmin bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if memberID != actingMemberID && !isAdmin {
		return fmt.Errorf("member %s cannot cancel reservation of %s: %w", actingMemberID, memberID, ErrUnauthorized)
	}
	return e.reg.cancelReservation(isbn, memberID)
}

// Reservations returns the title's queue in FIFO order.
func (e *Engine) Reservations(isbn string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.reg.get(isbn)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), b.ReservationQueue...), nil
}

// ------------------ reports ------------------

// LoansFor lists the member's active loans.
func (e *Engine) LoansFor(memberID string) []LoanRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyLoans(e.led.loansFor(memberID))
}

// AllLoans lists every active loan.
func (e *Engine) AllLoans() []LoanRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyLoans(e.led.all())
}

// OverdueReport yields every active loan past its due date as of today.
// Pure query: running it twice with the same date gives identical results.
func (e *Engine) OverdueReport(today time.Time) []OverdueEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []OverdueEntry
	for _, rec := range e.led.all() {
		if days := rec.OverdueDays(today); days > 0 {
			out = append(out, OverdueEntry{
				Loan:        *rec,
				OverdueDays: days,
				Fine:        rec.Fine(today),
			})
		}
	}
	return out
}

// ------------------ persistence boundary ------------------

// Snapshot deep-copies the complete lending state. The encoding and
// destination are the caller's business.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := &Snapshot{
		Books:      make(map[string]*Book, len(e.reg.books)),
		Loans:      make(map[string]*LoanRecord, len(e.led.loans)),
		NextLoanID: e.led.nextID,
	}
	for isbn, b := range e.reg.books {
		cp := copyBook(b)
		snap.Books[isbn] = &cp
	}
	for id, rec := range e.led.loans {
		cp := *rec
		snap.Loans[id] = &cp
	}
	return snap
}

// Restore replaces the engine's state with the snapshot's. The snapshot is
// deep-copied, so later mutations of either side are independent.
func (e *Engine) Restore(snap *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg = newRegistry()
	e.led = newLedger()
	for isbn, b := range snap.Books {
		cp := copyBook(b)
		e.reg.books[isbn] = &cp
	}
	for id, rec := range snap.Loans {
		cp := *rec
		e.led.loans[id] = &cp
	}
	e.led.nextID = snap.NextLoanID
}

// ------------------ helpers ------------------

func copyBook(b *Book) Book {
	cp := *b
	cp.ReservationQueue = append([]string(nil), b.ReservationQueue...)
	return cp
}

func copyLoans(recs []*LoanRecord) []LoanRecord {
	out := make([]LoanRecord, len(recs))
	for i, rec := range recs {
		out[i] = *rec
	}
	return out
}
