package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"digital-library/library"

	"golang.org/x/term"
)

const dbFile = "library.db"

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func main() {
	manager, err := library.NewLibraryManager(dbFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving library data: %v\n", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("=== DIGITAL LIBRARY SYSTEM ===")
	for {
		fmt.Println("\n1. Login")
		fmt.Println("2. Register (new member)")
		fmt.Println("3. Exit")
		fmt.Print("Choose: ")
		if !scanner.Scan() {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			handleLogin(scanner, manager)
		case "2":
			handleRegister(scanner, manager)
		case "3":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func handleRegister(sc *bufio.Scanner, mgr *library.LibraryManager) {
	username, ok := prompt(sc, "Choose username: ")
	if !ok {
		return
	}
	name, ok := prompt(sc, "Your full name: ")
	if !ok {
		return
	}
	password, err := readPassword("Choose password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if _, err := mgr.RegisterMember(username, name, password); err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		return
	}
	fmt.Println("Registration successful. You can now login.")
}

func handleLogin(sc *bufio.Scanner, mgr *library.LibraryManager) {
	username, ok := prompt(sc, "Username: ")
	if !ok {
		return
	}
	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	member, err := mgr.Authenticate(username, password)
	if err != nil {
		fmt.Println("Invalid credentials.")
		return
	}
	fmt.Printf("Welcome, %s (%s)\n", member.FullName, member.Role)
	if member.IsAdmin() {
		adminMenu(sc, mgr, member)
	} else {
		memberMenu(sc, mgr, member)
	}
}

// ------------------ admin menu ------------------

func adminMenu(sc *bufio.Scanner, mgr *library.LibraryManager, admin *library.Member) {
	for {
		fmt.Println("\n--- Admin Menu ---")
		fmt.Println("1. Add Book")
		fmt.Println("2. Update Book")
		fmt.Println("3. Delete Book")
		fmt.Println("4. View Reports")
		fmt.Println("5. List Members")
		fmt.Println("6. Reset Member Password")
		fmt.Println("7. Return a Loan (on behalf of member)")
		fmt.Println("8. Logout")
		choice, ok := prompt(sc, "Choose: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			handleAddBook(sc, mgr)
		case "2":
			handleUpdateBook(sc, mgr)
		case "3":
			handleDeleteBook(sc, mgr)
		case "4":
			reportsMenu(sc, mgr)
		case "5":
			handleListMembers(mgr)
		case "6":
			handleResetPassword(sc, mgr)
		case "7":
			handleReturn(sc, mgr, admin)
		case "8":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func handleAddBook(sc *bufio.Scanner, mgr *library.LibraryManager) {
	isbn, ok := prompt(sc, "ISBN (unique): ")
	if !ok {
		return
	}
	title, ok := prompt(sc, "Title: ")
	if !ok {
		return
	}
	author, ok := prompt(sc, "Author: ")
	if !ok {
		return
	}
	category, ok := prompt(sc, "Category: ")
	if !ok {
		return
	}
	copiesStr, ok := prompt(sc, "Total copies: ")
	if !ok {
		return
	}
	copies, err := strconv.Atoi(copiesStr)
	if err != nil || copies < 0 {
		fmt.Println("Enter a valid non-negative integer.")
		return
	}
	if _, err := mgr.AddBook(isbn, title, author, category, copies); err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Println("Book added.")
}

func handleUpdateBook(sc *bufio.Scanner, mgr *library.LibraryManager) {
	isbn, ok := prompt(sc, "Enter ISBN: ")
	if !ok {
		return
	}
	book, err := mgr.GetBook(isbn)
	if err != nil {
		fmt.Println("Book not found.")
		return
	}
	fmt.Println("Current: " + library.PrettyBook(book))

	var upd library.BookUpdate
	if title, ok := prompt(sc, "New title (leave blank to keep): "); ok && title != "" {
		upd.Title = &title
	}
	if author, ok := prompt(sc, "New author (leave blank to keep): "); ok && author != "" {
		upd.Author = &author
	}
	if category, ok := prompt(sc, "New category (leave blank to keep): "); ok && category != "" {
		upd.Category = &category
	}
	if copiesStr, ok := prompt(sc, "New total copies (-1 to keep): "); ok {
		if copies, err := strconv.Atoi(copiesStr); err == nil && copies >= 0 {
			upd.TotalCopies = &copies
		}
	}
	if err := mgr.UpdateBook(isbn, upd); err != nil {
		fmt.Printf("Error updating book: %v\n", err)
		return
	}
	fmt.Println("Book updated.")
}

func handleDeleteBook(sc *bufio.Scanner, mgr *library.LibraryManager) {
	isbn, ok := prompt(sc, "Enter ISBN: ")
	if !ok {
		return
	}
	if err := mgr.RemoveBook(isbn); err != nil {
		if errors.Is(err, library.ErrConflict) {
			fmt.Println("Cannot delete. Some copies are currently issued.")
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}
	fmt.Println("Book removed.")
}

func handleListMembers(mgr *library.LibraryManager) {
	members := mgr.AllMembers()
	if len(members) == 0 {
		fmt.Println("No members registered.")
		return
	}
	fmt.Printf("%-20s %-30s %-10s\n", "Username", "Name", "Role")
	fmt.Println(strings.Repeat("-", 62))
	for _, m := range members {
		fmt.Printf("%-20s %-30s %-10s\n", m.Username, m.FullName, m.Role)
	}
}

func handleResetPassword(sc *bufio.Scanner, mgr *library.LibraryManager) {
	username, ok := prompt(sc, "Username: ")
	if !ok {
		return
	}
	member, err := mgr.GetMember(username)
	if err != nil {
		fmt.Printf("Error: member %s not found\n", username)
		return
	}
	newPassword, err := readPassword(fmt.Sprintf("Enter new password for %s: ", member.FullName))
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if err := mgr.ResetMemberPassword(username, newPassword); err != nil {
		fmt.Printf("Error resetting password: %v\n", err)
		return
	}
	fmt.Printf("Password successfully reset for %s\n", member.FullName)
}

// ------------------ reports ------------------

func reportsMenu(sc *bufio.Scanner, mgr *library.LibraryManager) {
	for {
		fmt.Println("\n--- Reports ---")
		fmt.Println("1. All Books")
		fmt.Println("2. Issued Books")
		fmt.Println("3. Overdue Books")
		fmt.Println("4. Reservations")
		fmt.Println("5. Back")
		choice, ok := prompt(sc, "Choose: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			reportAllBooks(mgr)
		case "2":
			reportIssuedBooks(mgr)
		case "3":
			reportOverdueBooks(mgr)
		case "4":
			reportReservations(mgr)
		case "5":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func reportAllBooks(mgr *library.LibraryManager) {
	books := mgr.AllBooks()
	if len(books) == 0 {
		fmt.Println("No books in library.")
		return
	}
	fmt.Printf("%-14s %-30s %-22s %-12s %5s %9s\n", "ISBN", "Title", "Author", "Category", "Total", "Available")
	fmt.Println(strings.Repeat("-", 96))
	for _, b := range books {
		fmt.Println(library.PrettyBook(b))
	}
}

func reportIssuedBooks(mgr *library.LibraryManager) {
	loans := mgr.AllLoans()
	if len(loans) == 0 {
		fmt.Println("None.")
		return
	}
	for _, lr := range loans {
		fmt.Printf("LoanID:%s | ISBN:%s | Member:%s | Issued:%s | Due:%s\n",
			lr.LoanID, lr.ISBN, lr.MemberID,
			lr.IssueDate.Format("2006-01-02"), lr.DueDate().Format("2006-01-02"))
	}
}

func reportOverdueBooks(mgr *library.LibraryManager) {
	entries := mgr.OverdueReport(today())
	if len(entries) == 0 {
		fmt.Println("No overdue books.")
		return
	}
	for _, e := range entries {
		fmt.Printf("LoanID:%s | ISBN:%s | Member:%s | Overdue by %d days | Fine: ₹%.2f\n",
			e.Loan.LoanID, e.Loan.ISBN, e.Loan.MemberID, e.OverdueDays, e.Fine)
	}
}

func reportReservations(mgr *library.LibraryManager) {
	any := false
	for _, b := range mgr.AllBooks() {
		if len(b.ReservationQueue) > 0 {
			any = true
			fmt.Printf("ISBN: %s Title: %s | Queue: %s\n", b.ISBN, b.Title, strings.Join(b.ReservationQueue, ", "))
		}
	}
	if !any {
		fmt.Println("No active reservations.")
	}
}

// ------------------ member menu ------------------

func memberMenu(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	for {
		fmt.Println("\n--- Member Menu ---")
		fmt.Println("1. Search books by title/author/category")
		fmt.Println("2. Browse all books")
		fmt.Println("3. Issue a book")
		fmt.Println("4. Return a book")
		fmt.Println("5. Reserve a book (advance booking)")
		fmt.Println("6. Cancel a reservation")
		fmt.Println("7. My issued books")
		fmt.Println("8. Update profile/password")
		fmt.Println("9. Logout")
		choice, ok := prompt(sc, "Choose: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			handleSearch(sc, mgr)
		case "2":
			reportAllBooks(mgr)
		case "3":
			handleIssue(sc, mgr, member)
		case "4":
			handleReturn(sc, mgr, member)
		case "5":
			handleReserve(sc, mgr, member)
		case "6":
			handleCancelReservation(sc, mgr, member)
		case "7":
			handleMyLoans(mgr, member)
		case "8":
			handleUpdateProfile(sc, mgr, member)
		case "9":
			return
		default:
			fmt.Println("Invalid choice.")
		}
	}
}

func handleSearch(sc *bufio.Scanner, mgr *library.LibraryManager) {
	keyword, ok := prompt(sc, "Enter search keyword: ")
	if !ok {
		return
	}
	books := mgr.SearchBooks(keyword)
	if len(books) == 0 {
		fmt.Println("No books found.")
		return
	}
	for _, b := range books {
		fmt.Println(library.PrettyBook(b))
	}
}

func handleIssue(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	isbn, ok := prompt(sc, "Enter ISBN to issue: ")
	if !ok {
		return
	}
	res, err := mgr.IssueBook(isbn, member.Username, today())
	if err != nil {
		if errors.Is(err, library.ErrNoCopiesAvailable) {
			fmt.Println("No copies available. You may reserve the book (advance booking).")
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}
	fmt.Printf("Issued successfully. Loan ID: %s | Due date: %s\n", res.LoanID, res.DueDate.Format("2006-01-02"))
}

func handleReturn(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	loanID, ok := prompt(sc, "Enter Loan ID to return: ")
	if !ok {
		return
	}
	res, err := mgr.ReturnBook(loanID, member.Username, member.IsAdmin(), today())
	if err != nil {
		if errors.Is(err, library.ErrUnauthorized) {
			fmt.Println("You are not authorized to return this loan.")
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}
	fmt.Printf("Returning book. Overdue days: %d | Fine: ₹%.2f\n", res.OverdueDays, res.Fine)
	if res.AutoIssued != nil {
		fmt.Printf("Book reserved by %s — auto-issued to them. New Loan ID: %s | Due: %s\n",
			res.AutoIssued.MemberID, res.AutoIssued.LoanID, res.AutoIssued.DueDate.Format("2006-01-02"))
	}
	fmt.Println("Return processed. Please collect any fine (if applicable).")
}

func handleReserve(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	isbn, ok := prompt(sc, "Enter ISBN to reserve: ")
	if !ok {
		return
	}
	if err := mgr.ReserveBook(isbn, member.Username); err != nil {
		if errors.Is(err, library.ErrAlreadyReserved) {
			fmt.Println("You already reserved this book.")
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}
	fmt.Println("Reservation successful. You will be auto-issued when a copy returns.")
}

func handleCancelReservation(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	isbn, ok := prompt(sc, "Enter ISBN: ")
	if !ok {
		return
	}
	if err := mgr.CancelReservation(isbn, member.Username, member.Username, member.IsAdmin()); err != nil {
		fmt.Printf("Error cancelling reservation: %v\n", err)
		return
	}
	fmt.Println("Reservation cancelled.")
}

func handleMyLoans(mgr *library.LibraryManager, member *library.Member) {
	loans := mgr.MemberLoans(member.Username)
	if len(loans) == 0 {
		fmt.Println("No issued books.")
		return
	}
	now := today()
	for _, lr := range loans {
		title := lr.ISBN
		if b, err := mgr.GetBook(lr.ISBN); err == nil {
			title = b.Title
		}
		fmt.Printf("LoanID:%s | ISBN:%s | Title:%s | Issued:%s | Due:%s | Overdue:%d | Fine:₹%.2f\n",
			lr.LoanID, lr.ISBN, title,
			lr.IssueDate.Format("2006-01-02"), lr.DueDate().Format("2006-01-02"),
			lr.OverdueDays(now), lr.Fine(now))
	}
}

func handleUpdateProfile(sc *bufio.Scanner, mgr *library.LibraryManager, member *library.Member) {
	if name, ok := prompt(sc, "New full name (blank to keep): "); ok && name != "" {
		if err := mgr.UpdateMemberName(member.Username, name); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		member.FullName = name
	}
	password, err := readPassword("New password (blank to keep): ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if password != "" {
		if err := mgr.ResetMemberPassword(member.Username, password); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}
	fmt.Println("Profile updated.")
}
