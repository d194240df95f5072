package library

import (
	"errors"
	"testing"
)

func TestLedgerIDsMonotonic(t *testing.T) {
	l := newLedger()
	first := l.nextLoanID()
	second := l.nextLoanID()
	if first != "I1" || second != "I2" {
		t.Fatalf("want I1,I2 got %s,%s", first, second)
	}

	// Closing a loan never recycles its id.
	l.record(&LoanRecord{LoanID: second, ISBN: "B1", MemberID: "M1", IssueDate: day(0)})
	if _, err := l.close(second); err != nil {
		t.Fatalf("close: %v", err)
	}
	if next := l.nextLoanID(); next != "I3" {
		t.Fatalf("id reused: got %s", next)
	}
}

func TestLedgerCollisionIsDistinct(t *testing.T) {
	l := newLedger()
	rec := &LoanRecord{LoanID: "I1", ISBN: "B1", MemberID: "M1", IssueDate: day(0)}
	if err := l.record(rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	err := l.record(&LoanRecord{LoanID: "I1", ISBN: "B2", MemberID: "M2", IssueDate: day(0)})
	if !errors.Is(err, ErrLoanIDCollision) {
		t.Fatalf("want ErrLoanIDCollision, got %v", err)
	}
	// Must not look like an ordinary NotFound/Duplicate outcome.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("collision must be a distinct error")
	}
}

func TestLedgerProjections(t *testing.T) {
	l := newLedger()
	l.record(&LoanRecord{LoanID: l.nextLoanID(), ISBN: "B1", MemberID: "M1", IssueDate: day(0)})
	l.record(&LoanRecord{LoanID: l.nextLoanID(), ISBN: "B1", MemberID: "M2", IssueDate: day(1)})
	l.record(&LoanRecord{LoanID: l.nextLoanID(), ISBN: "B2", MemberID: "M1", IssueDate: day(2)})

	if got := len(l.loansFor("M1")); got != 2 {
		t.Fatalf("want 2 loans for M1, got %d", got)
	}
	if got := l.activeCount("B1"); got != 2 {
		t.Fatalf("want 2 active on B1, got %d", got)
	}
	if !l.memberHolds("B2", "M1") || l.memberHolds("B2", "M2") {
		t.Fatalf("memberHolds wrong")
	}
	if got := len(l.all()); got != 3 {
		t.Fatalf("want 3 total, got %d", got)
	}

	if _, err := l.close("I99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
