package library

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Default administrator created on first run. Change the password after
// the first login.
const (
	defaultAdminUser     = "admin"
	defaultAdminPassword = "admin123"
	defaultAdminName     = "Administrator"
)

// MemberDirectory holds the registered members and their bcrypt password
// hashes. Authentication stays here, at the boundary; the lending engine
// only ever sees a resolved username and an isAdmin flag.
type MemberDirectory struct {
	mu      sync.Mutex
	members map[string]*Member
}

// NewMemberDirectory returns an empty directory.
func NewMemberDirectory() *MemberDirectory {
	return &MemberDirectory{members: make(map[string]*Member)}
}

// Register creates a member with a hashed password.
func (d *MemberDirectory) Register(username, fullName, password string, role Role) (*Member, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty: %w", ErrConflict)
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("password cannot be empty: %w", ErrConflict)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.members[username]; ok {
		return nil, fmt.Errorf("member %s: %w", username, ErrDuplicateKey)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	m := &Member{Username: username, FullName: fullName, Role: role, PasswordHash: string(hash)}
	d.members[username] = m
	cp := *m
	return &cp, nil
}

// Authenticate verifies the password and returns the member on success.
func (d *MemberDirectory) Authenticate(username, password string) (*Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[username]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", username, ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials for %s: %w", username, ErrUnauthorized)
	}
	cp := *m
	return &cp, nil
}

// ResetPassword replaces the member's password hash.
func (d *MemberDirectory) ResetPassword(username, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("password cannot be empty: %w", ErrConflict)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[username]
	if !ok {
		return fmt.Errorf("member %s: %w", username, ErrNotFound)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	m.PasswordHash = string(hash)
	return nil
}

// UpdateFullName changes the member's display name.
func (d *MemberDirectory) UpdateFullName(username, fullName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[username]
	if !ok {
		return fmt.Errorf("member %s: %w", username, ErrNotFound)
	}
	m.FullName = fullName
	return nil
}

// Get fetches a single member.
func (d *MemberDirectory) Get(username string) (*Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.members[username]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", username, ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

// All returns every member ordered by username.
func (d *MemberDirectory) All() []*Member {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Member, 0, len(d.members))
	for _, m := range d.members {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// BootstrapAdmin ensures the default admin account exists.
func (d *MemberDirectory) BootstrapAdmin() error {
	d.mu.Lock()
	exists := false
	if _, ok := d.members[defaultAdminUser]; ok {
		exists = true
	}
	d.mu.Unlock()
	if exists {
		return nil
	}
	_, err := d.Register(defaultAdminUser, defaultAdminName, defaultAdminPassword, RoleAdmin)
	return err
}

// restore replaces the directory's contents, keeping stored hashes as-is.
func (d *MemberDirectory) restore(members []*Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members = make(map[string]*Member, len(members))
	for _, m := range members {
		cp := *m
		d.members[m.Username] = &cp
	}
}
