package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ResultStore accumulates per-account outcomes and keeps them crash
// safe: every Record rewrites the snapshot file, so an interrupted run
// loses at most the accounts that were still in flight.
type ResultStore struct {
	mu        sync.Mutex
	results   map[string]*Account
	tempPath  string
	finalPath string
}

func NewResultStore(tempPath, finalPath string) *ResultStore {
	return &ResultStore{
		results:   make(map[string]*Account),
		tempPath:  tempPath,
		finalPath: finalPath,
	}
}

// LoadPrior replays a previous run into the in-memory index. The temp
// snapshot wins over the finalized output since it is always the more
// recent of the two. Unreadable files are warnings, never fatal.
func (s *ResultStore) LoadPrior() {
	for _, path := range []string{s.tempPath, s.finalPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf(T("prior_load_failed")+"\n", err)
			continue
		}

		var accounts []*Account
		if err := json.Unmarshal(data, &accounts); err != nil {
			fmt.Printf(T("prior_load_failed")+"\n", err)
			continue
		}

		s.mu.Lock()
		for _, acc := range accounts {
			if acc.ID != "" {
				s.results[acc.ID] = acc
			}
		}
		count := len(s.results)
		s.mu.Unlock()

		fmt.Printf(T("prior_loaded")+"\n", count, path)
		return
	}
}

// Done reports whether the account was fully processed in a prior run.
// Only an exact boolean check counts; a failure string stays retryable.
func (s *ResultStore) Done(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.results[id]
	return ok && acc.Check.Done()
}

// Record upserts one completed account and flushes the snapshot before
// returning. Write failures are reported but do not stop the run; the
// record is still held in memory for Finalize.
func (s *ResultStore) Record(acc *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[acc.ID] = acc

	if err := writeJSONAtomic(s.tempPath, s.valuesLocked()); err != nil {
		fmt.Printf(T("snapshot_save_failed")+"\n", err)
	}
}

// Finalize writes the final output in the original input order. Any id
// the run never completed is substituted with a copy of its input
// record carrying the skipped marker. On success the temp snapshot is
// removed; on failure the in-memory records come back unordered so no
// data is lost.
func (s *ResultStore) Finalize(original []*Account) []*Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*Account, 0, len(original))
	for _, acc := range original {
		if done, ok := s.results[acc.ID]; ok {
			sorted = append(sorted, done)
			continue
		}
		skipped := acc.Clone()
		skipped.Check = CheckMessage(checkSkipped)
		sorted = append(sorted, skipped)
	}

	if err := writeJSONAtomic(s.finalPath, sorted); err != nil {
		fmt.Printf(T("finalize_save_failed")+"\n", err)
		return s.valuesLocked()
	}

	os.Remove(s.tempPath)

	return sorted
}

// Count returns the number of indexed accounts.
func (s *ResultStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *ResultStore) valuesLocked() []*Account {
	values := make([]*Account, 0, len(s.results))
	for _, acc := range s.results {
		values = append(values, acc)
	}
	return values
}

// writeJSONAtomic writes via a sibling temp file and rename, so a
// reader never observes a partially written snapshot.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
