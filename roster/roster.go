/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package roster holds the ordered list of chapter members.
package roster

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	ErrEmptyRoster = errors.New("roster has no members")
	ErrDuplicateID = errors.New("duplicate member id")
	ErrMissingID   = errors.New("member is missing an id")
	ErrMissingName = errors.New("member is missing a name")
)

//go:embed members.yaml
var defaultRoster []byte

// palette colors members that do not set one.
var palette = []string{
	"#b91c1c", "#c2410c", "#a16207", "#15803d",
	"#0f766e", "#0369a1", "#1d4ed8", "#6d28d9",
	"#a21caf", "#be185d", "#4d7c0f", "#475569",
}

// Member is one person on the roster.
type Member struct {
	ID       string `mapstructure:"id" json:"id"`
	Name     string `mapstructure:"name" json:"name"`
	Category string `mapstructure:"category" json:"category"`
	Company  string `mapstructure:"company" json:"company"`
	Color    string `mapstructure:"color" json:"color"`
	Phone    string `mapstructure:"phone" json:"phone,omitempty"`
}

// Initial is the first letter of the member's name, shown on avatars.
func (m Member) Initial() string {
	for _, r := range m.Name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

type document struct {
	Members []Member `mapstructure:"members"`
}

// Logger receives reload notices.
type Logger interface {
	Printf(format string, args ...any)
}

// Store is a concurrency-safe, ordered roster.
type Store struct {
	mu      sync.RWMutex
	members []Member

	v         *viper.Viper
	listeners []func([]Member)
	log       Logger
}

// New returns a store holding members, which are validated first.
func New(members []Member) (*Store, error) {
	members = slices.Clone(members)
	if err := prepare(members); err != nil {
		return nil, err
	}

	return &Store{members: members}, nil
}

// Default returns the store built from the embedded roster.
func Default() (*Store, error) {
	members, err := Parse(bytes.NewReader(defaultRoster))
	if err != nil {
		return nil, fmt.Errorf("embedded roster: %w", err)
	}

	return New(members)
}

// Parse reads a YAML roster.
func Parse(r io.Reader) ([]Member, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	return decode(v)
}

// Open loads the roster file at path. The file format is chosen from its
// extension (yaml, toml, or json).
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Store, error) {
	members, err := decode(v)
	if err != nil {
		return nil, err
	}

	return &Store{members: members, v: v}, nil
}

func decode(v *viper.Viper) ([]Member, error) {
	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	if err := prepare(doc.Members); err != nil {
		return nil, err
	}

	return doc.Members, nil
}

func prepare(members []Member) error {
	if len(members) == 0 {
		return ErrEmptyRoster
	}

	seen := make(map[string]bool, len(members))
	for i := range members {
		m := &members[i]
		m.ID = strings.TrimSpace(m.ID)
		m.Name = strings.TrimSpace(m.Name)
		m.Phone = strings.TrimSpace(m.Phone)

		switch {
		case m.ID == "":
			return fmt.Errorf("%w (entry %d)", ErrMissingID, i+1)
		case m.Name == "":
			return fmt.Errorf("%w (id %q)", ErrMissingName, m.ID)
		case seen[m.ID]:
			return fmt.Errorf("%w: %q", ErrDuplicateID, m.ID)
		}
		seen[m.ID] = true

		if m.Color == "" {
			m.Color = palette[i%len(palette)]
		}
	}

	return nil
}

// Members returns a copy of the roster in order.
func (s *Store) Members() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.members)
}

// Len is the number of members.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.members)
}

// Get looks a member up by id.
func (s *Store) Get(id string) (Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Filter returns the members matching pred, in roster order.
func (s *Store) Filter(pred func(Member) bool) []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Filter(s.members, pred)
}

// Search returns the members whose name or category contains query,
// ignoring case. An empty query matches everyone.
func (s *Store) Search(query string) []Member {
	return s.Filter(Matches(query))
}

// Replace swaps in a new roster and notifies listeners.
func (s *Store) Replace(members []Member) error {
	members = slices.Clone(members)
	if err := prepare(members); err != nil {
		return err
	}

	s.mu.Lock()
	s.members = members
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(slices.Clone(members))
	}

	return nil
}

// OnChange registers fn to run with the new roster after every replacement.
func (s *Store) OnChange(fn func([]Member)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// Watch reloads the roster whenever its file changes. A reload that fails
// validation keeps the previous roster. Stores not backed by a file ignore
// the call.
func (s *Store) Watch(log Logger) {
	if s.v == nil || s.v.ConfigFileUsed() == "" {
		return
	}

	s.log = log

	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		members, err := decode(s.v)
		if err != nil {
			s.logf("ROSTER: Ignoring change to %s: %v", e.Name, err)
			return
		}

		if err := s.Replace(members); err != nil {
			s.logf("ROSTER: Ignoring change to %s: %v", e.Name, err)
			return
		}

		s.logf("ROSTER: Reloaded %d members from %s", len(members), e.Name)
	})
	s.v.WatchConfig()
}

func (s *Store) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

// Filter returns the members matching pred, in order.
func Filter(members []Member, pred func(Member) bool) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// Except matches everyone but the member with id.
func Except(id string) func(Member) bool {
	return func(m Member) bool {
		return m.ID != id
	}
}

// Matches is a case-insensitive name or category search.
func Matches(query string) func(Member) bool {
	q := strings.ToLower(strings.TrimSpace(query))

	return func(m Member) bool {
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Category), q)
	}
}
