// Package history keeps a copy of every log cuprism has parsed so it can be
// viewed again later.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// HistoryDir is the directory, under the user's home, that holds history
	HistoryDir = ".cuprism/history"

	// DefaultMaxFiles is the number of entries kept when no limit is set
	DefaultMaxFiles = 100

	timestampLayout = "2006-01-02_15-04-05"
	fileExt         = ".log"
)

// ErrNotFound is returned when a history reference matches no entry
var ErrNotFound = errors.New("history entry not found")

// Entry represents a history file entry
type Entry struct {
	Path      string
	Filename  string
	Timestamp time.Time
	Source    string // base name of the parsed input, "stdin" for a pipe
	Hash      string // xxhash of the content, hex
}

// Store is a directory of saved logs, one file per distinct content
type Store struct {
	dir      string
	maxFiles int
	now      func() time.Time
}

// New returns a store rooted at dir that keeps at most maxFiles entries
func New(dir string, maxFiles int) *Store {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Store{dir: dir, maxFiles: maxFiles, now: time.Now}
}

// DefaultDir returns the path to the history directory
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, HistoryDir), nil
}

// Dir returns the directory of the store
func (s *Store) Dir() string {
	return s.dir
}

// Save stores lines under source unless identical content is already
// saved, in which case the existing entry's path is returned with
// created false. Older entries beyond the limit are removed.
func (s *Store) Save(source string, lines []string) (path string, created bool, err error) {
	content := strings.Join(lines, "\n") + "\n"
	hash := strconv.FormatUint(xxhash.Sum64String(content), 16)

	entries, err := s.Entries()
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Hash == hash {
			return e.Path, false, nil
		}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create history directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s%s",
		s.now().Format(timestampLayout),
		sanitizeSource(source),
		hash,
		fileExt,
	)
	path = filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", false, fmt.Errorf("failed to write history file: %w", err)
	}

	if _, err := s.Cleanup(); err != nil {
		return path, true, err
	}
	return path, true, nil
}

// sanitizeSource makes an input name safe for filenames.
// Underscores are the filename delimiter, so they are replaced too.
func sanitizeSource(name string) string {
	if name == "" || name == "-" {
		return "stdin"
	}
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	replacer := strings.NewReplacer(
		"_", "-",
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		".", "-",
	)
	name = replacer.Replace(name)

	if len(name) > 30 {
		name = name[:30]
	}
	if name == "" {
		name = "log"
	}
	return name
}

// Entries returns all history entries, newest first
func (s *Store) Entries() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), fileExt) {
			continue
		}

		entry, err := parseFilename(f.Name())
		if err != nil {
			continue
		}
		entry.Path = filepath.Join(s.dir, f.Name())
		entry.Filename = f.Name()
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Filename > entries[j].Filename
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}

// parseFilename parses YYYY-MM-DD_HH-MM-SS_<source>_<hash>.log
func parseFilename(filename string) (Entry, error) {
	base := strings.TrimSuffix(filename, fileExt)
	parts := strings.Split(base, "_")
	if len(parts) != 4 {
		return Entry{}, fmt.Errorf("invalid filename format")
	}

	timestamp, err := time.ParseInLocation(timestampLayout, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	if _, err := strconv.ParseUint(parts[3], 16, 64); err != nil {
		return Entry{}, fmt.Errorf("invalid hash: %w", err)
	}

	return Entry{
		Timestamp: timestamp,
		Source:    parts[2],
		Hash:      parts[3],
	}, nil
}

// Cleanup removes the oldest entries beyond the store's limit and returns
// how many were removed.
func (s *Store) Cleanup() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	if len(entries) <= s.maxFiles {
		return 0, nil
	}

	removed := 0
	for _, e := range entries[s.maxFiles:] {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Filename, err)
		}
		removed++
	}
	return removed, nil
}

// Clear removes every entry and returns how many were removed
func (s *Store) Clear() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return i, fmt.Errorf("failed to remove %s: %w", e.Filename, err)
		}
	}
	return len(entries), nil
}

// Resolve finds an entry by 1-based position in Entries (optionally
// prefixed with '#'), by filename, or by path.
func (s *Store) Resolve(ref string) (Entry, error) {
	entries, err := s.Entries()
	if err != nil {
		return Entry{}, err
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if n < 1 || n > len(entries) {
			return Entry{}, fmt.Errorf("%w: #%d (have %d)", ErrNotFound, n, len(entries))
		}
		return entries[n-1], nil
	}

	for _, e := range entries {
		if e.Filename == ref || e.Path == ref || e.Filename == filepath.Base(ref) {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// FormatEntry formats an entry for display
func FormatEntry(e Entry) string {
	source := e.Source
	if len(source) > 20 {
		source = source[:17] + "..."
	}
	return fmt.Sprintf("%s  %-20s  %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		source,
		e.Hash,
	)
}
