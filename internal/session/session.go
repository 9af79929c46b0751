// Package session is the participant's local state: who they are, which
// tree is theirs, and the last wish they wrote. It is built once at start-up
// and passed to whatever needs identity, instead of being read ad hoc.
//
// The store is a flat JSON object of string keys, written atomically. The
// key names match the ones the web client keeps in localStorage so the two
// can be compared side by side.
package session

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sakif/wellwishers/internal/model"
)

const (
	KeyUserName  = "christmas_userName"
	KeyUserEmail = "christmas_userEmail"
	KeyUserID    = "userId"
	KeyTreeID    = "treeId"
	KeyIsAdmin   = "isAdmin"
	KeyToken     = "token"

	KeyLastWish      = "lastWish"
	KeyLastWishTree  = "lastWishTree"
	KeyLastWishState = "lastWishState"
)

// Session is safe for concurrent use. Setters change memory only; call Save
// to persist.
type Session struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	newID  func() string
}

// DefaultPath is $HOME/.wellwishers/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: locating home directory: %w", err)
	}
	return filepath.Join(home, ".wellwishers", "session.json"), nil
}

// Open loads the session at path. A missing file is an empty session.
func Open(path string) (*Session, error) {
	s := &Session{
		path:   path,
		values: make(map[string]string),
		newID:  uuid.NewString,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("session: decoding %s: %w", path, err)
	}
	return s, nil
}

// Save writes the session through a temp file and rename, so a crash never
// leaves half a file behind.
func (s *Session) Save() error {
	s.mu.Lock()
	snapshot := maps.Clone(s.values)
	s.mu.Unlock()

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("session: writing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: writing: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("session: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("session: replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *Session) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *Session) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.values, key)
		return
	}
	s.values[key] = value
}

func (s *Session) Name() string   { return s.get(KeyUserName) }
func (s *Session) TreeID() string { return s.get(KeyTreeID) }
func (s *Session) Token() string  { return s.get(KeyToken) }

// Email is case-folded on the way out.
func (s *Session) Email() string {
	return strings.ToLower(strings.TrimSpace(s.get(KeyUserEmail)))
}

func (s *Session) IsAdmin() bool {
	b, _ := strconv.ParseBool(s.get(KeyIsAdmin))
	return b
}

// SignedIn reports whether a session token is stored.
func (s *Session) SignedIn() bool { return s.Token() != "" }

// ParticipantID is the id placements are tagged with: the one the server
// returned at signup, or, before any signup, a random id generated once and
// kept. The second return is true when a new id was generated and the
// session needs saving.
func (s *Session) ParticipantID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.values[KeyUserID]; id != "" {
		return id, false
	}
	id := s.newID()
	s.values[KeyUserID] = id
	return id, true
}

// SignIn records the participant the server returned and their token. The
// server's id replaces any locally generated one.
func (s *Session) SignIn(p *model.Participant, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[KeyUserName] = p.Name
	s.values[KeyUserEmail] = p.Email
	s.values[KeyUserID] = p.ID
	s.values[KeyIsAdmin] = strconv.FormatBool(p.Admin)
	if p.TreeID != "" {
		s.values[KeyTreeID] = p.TreeID
	}
	if token != "" {
		s.values[KeyToken] = token
	}
}

// SetTreeID remembers treeID as the participant's own tree.
func (s *Session) SetTreeID(treeID string) { s.set(KeyTreeID, treeID) }

func (s *Session) SetAdmin(admin bool) { s.set(KeyIsAdmin, strconv.FormatBool(admin)) }

// LastWish is the most recent wish text, its tree and its delivery state.
func (s *Session) LastWish() (text, treeID, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[KeyLastWish], s.values[KeyLastWishTree], s.values[KeyLastWishState]
}

func (s *Session) SetLastWish(text, treeID, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyLastWish] = text
	s.values[KeyLastWishTree] = treeID
	s.values[KeyLastWishState] = state
}

// Clear forgets everything, as logout does.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
}

// Path is where Save writes.
func (s *Session) Path() string { return s.path }
