package library

import (
	"fmt"
	"sort"
	"strconv"
)

// ledger owns the active loan records and the sequential loan id counter.
// Identifiers are never reused, even after a loan closes. Like the
// registry, it relies on the engine's lock for serialization.
type ledger struct {
	loans  map[string]*LoanRecord
	nextID int
}

func newLedger() *ledger {
	return &ledger{loans: make(map[string]*LoanRecord), nextID: 1}
}

// nextLoanID hands out the next identifier and advances the counter.
func (l *ledger) nextLoanID() string {
	id := "I" + strconv.Itoa(l.nextID)
	l.nextID++
	return id
}

// record inserts a loan. A collision on the identifier means the counter
// was corrupted somewhere; it is surfaced as ErrLoanIDCollision rather
// than a plain duplicate so callers can tell the two apart.
func (l *ledger) record(rec *LoanRecord) error {
	if _, ok := l.loans[rec.LoanID]; ok {
		return fmt.Errorf("loan %s: %w", rec.LoanID, ErrLoanIDCollision)
	}
	l.loans[rec.LoanID] = rec
	return nil
}

// close removes and returns the record for loanID.
func (l *ledger) close(loanID string) (*LoanRecord, error) {
	rec, ok := l.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}
	delete(l.loans, loanID)
	return rec, nil
}

func (l *ledger) get(loanID string) (*LoanRecord, error) {
	rec, ok := l.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}
	return rec, nil
}

func (l *ledger) loansFor(memberID string) []*LoanRecord {
	var recs []*LoanRecord
	for _, rec := range l.loans {
		if rec.MemberID == memberID {
			recs = append(recs, rec)
		}
	}
	sortLoans(recs)
	return recs
}

func (l *ledger) all() []*LoanRecord {
	recs := make([]*LoanRecord, 0, len(l.loans))
	for _, rec := range l.loans {
		recs = append(recs, rec)
	}
	sortLoans(recs)
	return recs
}

// activeCount counts live loans of one title. The registry invariant
// available + activeCount == total leans on this.
func (l *ledger) activeCount(isbn string) int {
	n := 0
	for _, rec := range l.loans {
		if rec.ISBN == isbn {
			n++
		}
	}
	return n
}

// memberHolds reports whether the member already has a live loan of isbn.
func (l *ledger) memberHolds(isbn, memberID string) bool {
	for _, rec := range l.loans {
		if rec.ISBN == isbn && rec.MemberID == memberID {
			return true
		}
	}
	return false
}

// sortLoans orders by numeric loan id so listings are stable.
func sortLoans(recs []*LoanRecord) {
	sort.Slice(recs, func(i, j int) bool {
		a, _ := strconv.Atoi(recs[i].LoanID[1:])
		b, _ := strconv.Atoi(recs[j].LoanID[1:])
		return a < b
	})
}
