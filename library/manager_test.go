package library

import (
	"errors"
	"path/filepath"
	"testing"
)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	mgr, err := NewLibraryManager(filepath.Join(t.TempDir(), "lib.db"))
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestManagerBootstrapsAdmin(t *testing.T) {
	mgr := newManager(t)
	admin, err := mgr.Authenticate("admin", "admin123")
	if err != nil {
		t.Fatalf("default admin login: %v", err)
	}
	if !admin.IsAdmin() {
		t.Fatalf("bootstrap account must be admin")
	}
}

func TestManagerAuthFlow(t *testing.T) {
	mgr := newManager(t)

	if _, err := mgr.RegisterMember("alice", "Alice A.", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := mgr.RegisterMember("alice", "Imposter", "other"); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}

	if _, err := mgr.Authenticate("alice", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	m, err := mgr.Authenticate("alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if m.FullName != "Alice A." || m.IsAdmin() {
		t.Fatalf("unexpected member: %+v", m)
	}

	if err := mgr.ResetMemberPassword("alice", "newpw"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := mgr.Authenticate("alice", "s3cret"); err == nil {
		t.Fatalf("old password must stop working")
	}
	if _, err := mgr.Authenticate("alice", "newpw"); err != nil {
		t.Fatalf("new password: %v", err)
	}
}

func TestManagerRejectsUnknownMember(t *testing.T) {
	mgr := newManager(t)
	mgr.AddBook("B1", "Title", "Author", "Fiction", 1)

	if _, err := mgr.IssueBook("B1", "ghost", day(0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown member, got %v", err)
	}
	if err := mgr.ReserveBook("B1", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown member, got %v", err)
	}
}

func TestManagerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.db")

	mgr, err := NewLibraryManager(path)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	mgr.RegisterMember("alice", "Alice", "pw")
	mgr.AddBook("B1", "Survivor", "Author", "Fiction", 1)
	res, err := mgr.IssueBook("B1", "alice", day(0))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mgr2, err := NewLibraryManager(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer mgr2.Close()

	if _, err := mgr2.Authenticate("alice", "pw"); err != nil {
		t.Fatalf("member lost across reopen: %v", err)
	}
	b, err := mgr2.GetBook("B1")
	if err != nil {
		t.Fatalf("book lost: %v", err)
	}
	if b.AvailableCopies != 0 {
		t.Fatalf("loan state lost: available=%d", b.AvailableCopies)
	}

	// Returning the persisted loan still works and fines correctly.
	ret, err := mgr2.ReturnBook(res.LoanID, "alice", false, day(20))
	if err != nil {
		t.Fatalf("return after reopen: %v", err)
	}
	if ret.OverdueDays != 6 || ret.Fine != 6*FinePerDay {
		t.Fatalf("want 6 days / %.2f fine, got %d / %.2f", 6*FinePerDay, ret.OverdueDays, ret.Fine)
	}
}

func TestManagerWorkflow(t *testing.T) {
	mgr := newManager(t)
	mgr.RegisterMember("alice", "Alice", "pw")
	mgr.RegisterMember("bob", "Bob", "pw")
	mgr.AddBook("B1", "Popular Book", "Famous Author", "Fiction", 1)

	res, err := mgr.IssueBook("B1", "alice", day(0))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.ReserveBook("B1", "bob"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	ret, err := mgr.ReturnBook(res.LoanID, "alice", false, day(5))
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if ret.AutoIssued == nil || ret.AutoIssued.MemberID != "bob" {
		t.Fatalf("want auto-issue to bob, got %+v", ret.AutoIssued)
	}

	loans := mgr.MemberLoans("bob")
	if len(loans) != 1 || loans[0].LoanID != ret.AutoIssued.LoanID {
		t.Fatalf("bob's loan missing: %+v", loans)
	}
}
