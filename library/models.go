package library

import "time"

// LoanDays is the fixed lending window. A loan becomes overdue once more
// than LoanDays have elapsed since its issue date.
const LoanDays = 14

// FinePerDay is the charge accrued per overdue day, in rupees. Fines are
// computed and reported; collection happens outside this package.
const FinePerDay = 5.0

// Book represents one catalog title. AvailableCopies counts copies on the
// shelf right now; the rest are out on loan. ReservationQueue holds member
// usernames in strict FIFO order.
type Book struct {
	ISBN             string   `json:"isbn"`
	Title            string   `json:"title"`
	Author           string   `json:"author"`
	Category         string   `json:"category"`
	TotalCopies      int      `json:"total_copies"`
	AvailableCopies  int      `json:"available_copies"`
	ReservationQueue []string `json:"reservation_queue"`
}

// Role distinguishes administrators from ordinary members.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Member represents a registered library member.
type Member struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"` // Don't serialize password hash
}

// IsAdmin reports whether the member holds the admin role.
func (m *Member) IsAdmin() bool { return m.Role == RoleAdmin }

// LoanRecord is one active loan. Due date, overdue days and fine are
// derived from the issue date rather than stored.
type LoanRecord struct {
	LoanID    string    `json:"loan_id"`
	ISBN      string    `json:"isbn"`
	MemberID  string    `json:"member_id"`
	IssueDate time.Time `json:"issue_date"`
}

// DueDate is the last day the loan can be returned without a fine.
func (lr *LoanRecord) DueDate() time.Time {
	return lr.IssueDate.AddDate(0, 0, LoanDays)
}

// OverdueDays counts whole days past the due date, never negative.
func (lr *LoanRecord) OverdueDays(today time.Time) int {
	days := daysBetween(lr.IssueDate, today) - LoanDays
	if days < 0 {
		return 0
	}
	return days
}

// Fine is the accrued charge as of today.
func (lr *LoanRecord) Fine(today time.Time) float64 {
	return float64(lr.OverdueDays(today)) * FinePerDay
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Snapshot captures the complete lending state for persistence. Restoring
// a snapshot reproduces an observably identical engine.
type Snapshot struct {
	Books      map[string]*Book       `json:"books"`
	Loans      map[string]*LoanRecord `json:"loans"`
	NextLoanID int                    `json:"next_loan_id"`
}
