package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/m2c2kit/m2c2"
)

const fileExt = ".jsonl"

// FileLog stores each session as a JSON Lines file, one event per line,
// in a directory.
type FileLog struct {
	dir string
	mu  sync.Mutex
}

// NewFileLog returns a log in dir, creating the directory if needed.
func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: create %s: %w", dir, err)
	}
	return &FileLog{dir: dir}, nil
}

func (l *FileLog) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("eventlog: invalid session id %q", sessionID)
	}
	return filepath.Join(l.dir, sessionID+fileExt), nil
}

func (l *FileLog) Append(ctx context.Context, sessionID string, events ...m2c2.Event) error {
	p, err := l.path(sessionID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open session %s: %w", sessionID, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			f.Close()
			return fmt.Errorf("eventlog: encode %s event: %w", e.Type, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("eventlog: write session %s: %w", sessionID, err)
	}
	return f.Close()
}

func (l *FileLog) Load(ctx context.Context, sessionID string) ([]m2c2.Event, error) {
	p, err := l.path(sessionID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("eventlog: open session %s: %w", sessionID, err)
	}
	defer f.Close()

	var events []m2c2.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e m2c2.Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("eventlog: %s line %d: %w", sessionID, line, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: read session %s: %w", sessionID, err)
	}
	sortBySequence(events)
	return events, nil
}

// Sessions lists sessions by file modification time, oldest first.
func (l *FileLog) Sessions(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("eventlog: list %s: %w", l.dir, err)
	}
	type session struct {
		id      string
		modUnix int64
	}
	var found []session
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, session{strings.TrimSuffix(name, fileExt), info.ModTime().UnixNano()})
	}
	slices.SortStableFunc(found, func(a, b session) int {
		switch {
		case a.modUnix < b.modUnix:
			return -1
		case a.modUnix > b.modUnix:
			return 1
		}
		return strings.Compare(a.id, b.id)
	})
	ids := make([]string, len(found))
	for i, s := range found {
		ids[i] = s.id
	}
	return ids, nil
}

func (l *FileLog) Close() error { return nil }
