package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
)

const (
	baseHistory = "history.utf8"

	// maxHistory is the number of entries kept in the history file.
	maxHistory = 1000
)

// Mode markers prefixed to each line of the history file.
const (
	evalMarker = "E:"
	ctrlMarker = "C:"
)

// HistoryEntry represents a single history entry with its mode.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

func (e HistoryEntry) String() string {
	if e.Mode == modeCtrl {
		return ctrlMarker + e.Line
	}

	return evalMarker + e.Line
}

func parseEntry(line string) HistoryEntry {
	if s, ok := strings.CutPrefix(line, ctrlMarker); ok {
		return HistoryEntry{Line: s, Mode: modeCtrl}
	}

	s, _ := strings.CutPrefix(line, evalMarker)

	return HistoryEntry{Line: s, Mode: modeEval}
}

// History manages input history with file persistence. Entries are kept in
// order of last use with no duplicates.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory creates a new History instance with the given file path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load reads history entries from the history file. A missing file is an
// empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		h.entries = append(h.entries, parseEntry(line))
	}

	return scanner.Err()
}

// WriteWithMode appends a new entry to the history with the specified mode.
// An earlier identical entry is moved to the end.
func (h *History) WriteWithMode(entry string, mode inputMode) (int, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e := HistoryEntry{Line: entry, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return len(entry), nil
	}

	needsRewrite := false

	for i := range h.entries {
		if h.entries[i] == e {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			needsRewrite = true

			break
		}
	}

	h.entries = append(h.entries, e)

	if over := len(h.entries) - maxHistory; over > 0 {
		h.entries = h.entries[over:]
		needsRewrite = true
	}

	if needsRewrite {
		return h.rewriteFile()
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return file.WriteString(e.String() + "\n")
}

// GetEntry retrieves a historic entry (line and mode) by index.
// Index 0 is the oldest entry.
func (h *History) GetEntry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of history entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns all history entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]HistoryEntry, len(h.entries))
	copy(result, h.entries)

	return result
}

// rewriteFile rewrites the entire history file with current entries.
// Must be called with h.mu held.
func (h *History) rewriteFile() (int, error) {
	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	total := 0

	for _, entry := range h.entries {
		n, err := w.WriteString(entry.String() + "\n")
		total += n

		if err != nil {
			return total, err
		}
	}

	return total, w.Flush()
}
