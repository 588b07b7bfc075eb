// Package gps keeps the location log fed by the external GPS collaborator
// and resolves the latest usable position from it.
package gps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Burrun/Arduino/internal/poll"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	// mtimePollInterval paces the freshness probe on the log file.
	mtimePollInterval = 100 * time.Millisecond
)

// Record is one parsed line of the location log.
type Record struct {
	Timestamp string
	Sentence  string
}

// Store appends collaborator location reports to a line-oriented log file
// (gps/gps_data.txt under the data folder) and reads them back.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithNowTime overrides the wall clock used for log timestamps (tests).
func WithNowTime(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store writing under dataFolder.
func NewStore(dataFolder string, opts ...StoreOption) *Store {
	s := &Store{
		path: filepath.Join(dataFolder, "gps", "gps_data.txt"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append writes one report line, `[2006-01-02 15:04:05] <sentence>`.
func (s *Store) Append(sentence string) error {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return errors.New("[Append] empty location report")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "[Append] create log directory")
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "[Append] open log")
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", s.now().Format(timestampLayout), sentence); err != nil {
		return errors.Wrap(err, "[Append] write log")
	}
	return nil
}

// Tail returns the parseable records among the last n lines of the log, in
// file order. A missing log is an empty log.
func (s *Store) Tail(n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Tail] read log")
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if rec, ok := parseRecord(line); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// UpdatedWithin reports whether the collaborator writes to the log within
// the given window, by watching the file's modification time.
func (s *Store) UpdatedWithin(ctx context.Context, window time.Duration) bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	initial := info.ModTime()

	err = poll.Until(ctx, mtimePollInterval, window, func() (bool, error) {
		info, err := os.Stat(s.path)
		if err != nil {
			return false, nil
		}
		return info.ModTime().After(initial), nil
	})
	return err == nil
}

func parseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return Record{}, false
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return Record{}, false
	}
	sentence := strings.TrimSpace(line[end+1:])
	if sentence == "" {
		return Record{}, false
	}
	return Record{Timestamp: line[1:end], Sentence: sentence}, true
}
