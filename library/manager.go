package library

import (
	"fmt"
	"time"
)

// LibraryManager is a thin façade over the lending engine, the member
// directory and the store, keeping CLI code simple. State loads from
// SQLite when the manager opens and saves back when it closes; in
// between, everything runs in memory behind the engine's lock.
type LibraryManager struct {
	engine  *Engine
	members *MemberDirectory
	store   *Store
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath,
// restores the persisted state and makes sure the default admin exists.
func NewLibraryManager(dbPath string) (*LibraryManager, error) {
	store, err := OpenStore(dbPath)
	if err != nil {
		return nil, err
	}
	snap, members, err := store.LoadState()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	lm := &LibraryManager{
		engine:  NewEngine(),
		members: NewMemberDirectory(),
		store:   store,
	}
	lm.engine.Restore(snap)
	lm.members.restore(members)
	if err := lm.members.BootstrapAdmin(); err != nil {
		store.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	return lm, nil
}

// Close saves the current state and closes the database.
func (lm *LibraryManager) Close() error {
	if err := lm.store.SaveState(lm.engine.Snapshot(), lm.members.All()); err != nil {
		lm.store.Close()
		return fmt.Errorf("save state: %w", err)
	}
	return lm.store.Close()
}

// ------------------ Members & auth ------------------

func (lm *LibraryManager) RegisterMember(username, fullName, password string) (*Member, error) {
	return lm.members.Register(username, fullName, password, RoleMember)
}

func (lm *LibraryManager) Authenticate(username, password string) (*Member, error) {
	return lm.members.Authenticate(username, password)
}

func (lm *LibraryManager) ResetMemberPassword(username, newPassword string) error {
	return lm.members.ResetPassword(username, newPassword)
}

func (lm *LibraryManager) UpdateMemberName(username, fullName string) error {
	return lm.members.UpdateFullName(username, fullName)
}

func (lm *LibraryManager) GetMember(username string) (*Member, error) { return lm.members.Get(username) }
func (lm *LibraryManager) AllMembers() []*Member                      { return lm.members.All() }

// ------------------ Catalog ------------------

func (lm *LibraryManager) AddBook(isbn, title, author, category string, copies int) (Book, error) {
	return lm.engine.AddBook(isbn, title, author, category, copies)
}

func (lm *LibraryManager) UpdateBook(isbn string, upd BookUpdate) error {
	return lm.engine.UpdateBook(isbn, upd)
}

func (lm *LibraryManager) RemoveBook(isbn string) error      { return lm.engine.RemoveBook(isbn) }
func (lm *LibraryManager) GetBook(isbn string) (Book, error) { return lm.engine.GetBook(isbn) }
func (lm *LibraryManager) AllBooks() []Book                  { return lm.engine.Books() }
func (lm *LibraryManager) SearchBooks(keyword string) []Book {
	return lm.engine.SearchBooks(keyword)
}

// ------------------ Circulation ------------------

// IssueBook lends a copy to the member. The member must be registered;
// the engine itself only deals in identifiers.
func (lm *LibraryManager) IssueBook(isbn, memberID string, today time.Time) (IssueResult, error) {
	if _, err := lm.members.Get(memberID); err != nil {
		return IssueResult{}, err
	}
	return lm.engine.Issue(isbn, memberID, today)
}

func (lm *LibraryManager) ReturnBook(loanID, actingMemberID string, isAdmin bool, today time.Time) (ReturnResult, error) {
	return lm.engine.Return(loanID, actingMemberID, isAdmin, today)
}

func (lm *LibraryManager) ReserveBook(isbn, memberID string) error {
	if _, err := lm.members.Get(memberID); err != nil {
		return err
	}
	return lm.engine.Reserve(isbn, memberID)
}

func (lm *LibraryManager) CancelReservation(isbn, memberID, actingMemberID string, isAdmin bool) error {
	return lm.engine.CancelReservation(isbn, memberID, actingMemberID, isAdmin)
}

func (lm *LibraryManager) Reservations(isbn string) ([]string, error) {
	return lm.engine.Reservations(isbn)
}

// ------------------ Reports ------------------

func (lm *LibraryManager) MemberLoans(memberID string) []LoanRecord {
	return lm.engine.LoansFor(memberID)
}

func (lm *LibraryManager) AllLoans() []LoanRecord { return lm.engine.AllLoans() }

func (lm *LibraryManager) OverdueReport(today time.Time) []OverdueEntry {
	return lm.engine.OverdueReport(today)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-14s %-30s %-22s %-12s %5d %9d", b.ISBN, b.Title, b.Author, b.Category, b.TotalCopies, b.AvailableCopies)
}
