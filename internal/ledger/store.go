package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FileName is the ledger file inside the data directory.
const FileName = "forecasts.jsonl"

// Store provides thread-safe, chronological storage for forecast records.
type Store struct {
	mu   sync.RWMutex
	recs map[string][]Record // Partitioned by requisition
	seen map[string]bool
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		recs: make(map[string][]Record),
		seen: make(map[string]bool),
	}
}

// Append adds records, skipping ones already present, and keeps each requisition's
// records ordered by issue time.
func (s *Store) Append(records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, r := range records {
		id := r.identity()
		if s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.recs[r.ReqID] = append(s.recs[r.ReqID], r)
		touched[r.ReqID] = true
	}

	for reqID := range touched {
		recs := s.recs[reqID]
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].IssuedAt != recs[j].IssuedAt {
				return recs[i].IssuedAt < recs[j].IssuedAt
			}
			return recs[i].Kind < recs[j].Kind
		})
	}
}

// Load reads records from the JSONL ledger in dir. A missing file is not an error.
func (s *Store) Load(dir string) error {
	path := filepath.Join(dir, FileName)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in ledger")
			continue
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ledger: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(records)).Msg("Loaded forecast ledger")
	s.Append(records...)
	return nil
}

// Save persists every record to the JSONL ledger in dir through an atomic rename.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	reqIDs := make([]string, 0, len(s.recs))
	for id := range s.recs {
		reqIDs = append(reqIDs, id)
	}
	sort.Strings(reqIDs)
	var all []Record
	for _, id := range reqIDs {
		all = append(all, s.recs[id]...)
	}
	s.mu.RUnlock()

	if len(all) == 0 {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, r := range all {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename ledger file: %w", err)
	}

	log.Info().Str("path", path).Int("count", len(all)).Msg("Forecast ledger saved")
	return nil
}

// Count returns the number of records for a requisition.
func (s *Store) Count(reqID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs[reqID])
}

// Latest returns the most recently issued record of the given kind for a requisition.
func (s *Store) Latest(reqID string, kind Kind) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.recs[reqID]
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Kind == kind {
			return recs[i], true
		}
	}
	return Record{}, false
}

// IssuedBetween returns a copy of a requisition's records issued within the window.
// A zero end means open-ended.
func (s *Store) IssuedBetween(reqID string, start, end time.Time) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startTs := start.UnixMicro()
	endTs := end.UnixMicro()

	var result []Record
	for _, r := range s.recs[reqID] {
		if r.IssuedAt >= startTs && (end.IsZero() || r.IssuedAt <= endTs) {
			result = append(result, r)
		}
	}
	return result
}
