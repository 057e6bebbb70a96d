package service

import "github.com/insureline/portal/internal/core/domain"

// ShellEntry is a navigation entry as rendered in the rail.
type ShellEntry struct {
	domain.NavEntry
	Active bool
}

// Shell is the persistent frame around every authenticated page: the role's
// navigation rail and a top bar with the user and a sign-out action.
type Shell struct {
	Entries   []ShellEntry
	Username  string
	Role      domain.Role
	Path      string
	Collapsed bool
}

// NewShell builds the shell for sess at path. Entries come from the role
// registry so the rail always matches the session's role.
func NewShell(sess *domain.Session, path string) *Shell {
	s := &Shell{Path: path}
	if sess == nil {
		return s
	}
	s.Username = sess.Username
	s.Role = sess.Role

	menu := domain.MenuFor(sess.Role)
	active := domain.ActiveEntry(menu, path)
	s.Entries = make([]ShellEntry, len(menu))
	for i, e := range menu {
		s.Entries[i] = ShellEntry{NavEntry: e, Active: i == active}
	}
	return s
}

// Toggle flips the rail between expanded and collapsed.
func (s *Shell) Toggle() {
	s.Collapsed = !s.Collapsed
}
