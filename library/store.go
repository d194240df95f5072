package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// dateLayout is how issue dates are stored; loans carry calendar dates
// with no time component.
const dateLayout = "2006-01-02"

// Store persists snapshots and the member directory in SQLite. It runs
// only at process boundaries: LoadState at startup, SaveState at
// shutdown. Nothing here executes inside the engine's lock.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func OpenStore(dbPath string) (*Store, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the DB.
func (s *Store) Close() error { return s.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            isbn TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            category TEXT NOT NULL,
            total_copies INTEGER NOT NULL,
            available_copies INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            isbn TEXT NOT NULL REFERENCES books(isbn),
            member_id TEXT NOT NULL,
            position INTEGER NOT NULL,
            PRIMARY KEY (isbn, member_id)
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            loan_id TEXT PRIMARY KEY,
            isbn TEXT NOT NULL,
            member_id TEXT NOT NULL,
            issue_date TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            username TEXT PRIMARY KEY,
            full_name TEXT NOT NULL,
            role TEXT NOT NULL,
            password_hash TEXT NOT NULL
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Load / save
// ---------------------------------------------------------------------------

// LoadState reads the persisted snapshot and member list. An empty
// database yields an empty snapshot, not an error.
func (s *Store) LoadState() (*Snapshot, []*Member, error) {
	snap := &Snapshot{
		Books:      make(map[string]*Book),
		Loans:      make(map[string]*LoanRecord),
		NextLoanID: 1,
	}

	var next string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key='next_loan_id'`).Scan(&next)
	if err == nil {
		snap.NextLoanID, err = strconv.Atoi(next)
		if err != nil {
			// A silent reset to 1 here would reuse loan ids.
			return nil, nil, fmt.Errorf("parse next_loan_id %q: %w", next, err)
		}
	} else if err != sql.ErrNoRows {
		return nil, nil, err
	}

	rows, err := s.db.Query(`SELECT isbn,title,author,category,total_copies,available_copies FROM books ORDER BY isbn`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Category, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return nil, nil, err
		}
		snap.Books[b.ISBN] = &b
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	resRows, err := s.db.Query(`SELECT isbn, member_id FROM reservations ORDER BY isbn, position`)
	if err != nil {
		return nil, nil, err
	}
	defer resRows.Close()
	for resRows.Next() {
		var isbn, member string
		if err := resRows.Scan(&isbn, &member); err != nil {
			return nil, nil, err
		}
		if b, ok := snap.Books[isbn]; ok {
			b.ReservationQueue = append(b.ReservationQueue, member)
		}
	}
	if err := resRows.Err(); err != nil {
		return nil, nil, err
	}

	loanRows, err := s.db.Query(`SELECT loan_id, isbn, member_id, issue_date FROM loans`)
	if err != nil {
		return nil, nil, err
	}
	defer loanRows.Close()
	for loanRows.Next() {
		var rec LoanRecord
		var issued string
		if err := loanRows.Scan(&rec.LoanID, &rec.ISBN, &rec.MemberID, &issued); err != nil {
			return nil, nil, err
		}
		rec.IssueDate, err = time.Parse(dateLayout, issued)
		if err != nil {
			return nil, nil, fmt.Errorf("parse issue date of %s: %w", rec.LoanID, err)
		}
		snap.Loans[rec.LoanID] = &rec
	}
	if err := loanRows.Err(); err != nil {
		return nil, nil, err
	}

	memRows, err := s.db.Query(`SELECT username, full_name, role, password_hash FROM members ORDER BY username`)
	if err != nil {
		return nil, nil, err
	}
	defer memRows.Close()
	var members []*Member
	for memRows.Next() {
		var m Member
		if err := memRows.Scan(&m.Username, &m.FullName, &m.Role, &m.PasswordHash); err != nil {
			return nil, nil, err
		}
		members = append(members, &m)
	}
	if err := memRows.Err(); err != nil {
		return nil, nil, err
	}

	return snap, members, nil
}

// SaveState writes the whole snapshot and member list in one transaction,
// replacing whatever was persisted before.
func (s *Store) SaveState(snap *Snapshot, members []*Member) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"reservations", "loans", "books", "members"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	bookStmt, err := tx.Prepare(`INSERT INTO books(isbn,title,author,category,total_copies,available_copies) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer bookStmt.Close()
	resStmt, err := tx.Prepare(`INSERT INTO reservations(isbn,member_id,position) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer resStmt.Close()

	for _, b := range snap.Books {
		if _, err := bookStmt.Exec(b.ISBN, b.Title, b.Author, b.Category, b.TotalCopies, b.AvailableCopies); err != nil {
			return err
		}
		for i, member := range b.ReservationQueue {
			if _, err := resStmt.Exec(b.ISBN, member, i); err != nil {
				return err
			}
		}
	}

	loanStmt, err := tx.Prepare(`INSERT INTO loans(loan_id,isbn,member_id,issue_date) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer loanStmt.Close()
	for _, rec := range snap.Loans {
		if _, err := loanStmt.Exec(rec.LoanID, rec.ISBN, rec.MemberID, rec.IssueDate.Format(dateLayout)); err != nil {
			return err
		}
	}

	memStmt, err := tx.Prepare(`INSERT INTO members(username,full_name,role,password_hash) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer memStmt.Close()
	for _, m := range members {
		if _, err := memStmt.Exec(m.Username, m.FullName, m.Role, m.PasswordHash); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('next_loan_id',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, fmt.Sprintf("%d", snap.NextLoanID)); err != nil {
		return err
	}

	return tx.Commit()
}
