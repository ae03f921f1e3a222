package scraper

import (
	"github.com/consultape/registro-scraper/internal/models"
)

// Store is the accumulated state of one run: the per-key status ledger and
// the extracted payloads. The batch loop is the only writer, on the single
// control-flow goroutine, so no locking is needed.
//
// Invariant: a key's payload is present if and only if its record status is
// success. MarkSuccess and MarkFailed are the only mutators.
type Store struct {
	records  []models.Record
	payloads map[string]interface{}

	// Registry-dump mode accumulates flat rows instead of keyed payloads.
	columns []string
	rows    [][]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{payloads: make(map[string]interface{})}
}

// LoadKeys seeds the ledger with one pending record per input key, in input
// order.
func (s *Store) LoadKeys(keys []string) {
	s.records = make([]models.Record, len(keys))
	for i, key := range keys {
		s.records[i] = models.Record{Key: key, Status: models.StatusPending}
	}
}

// Records returns a copy of the ledger in input order.
func (s *Store) Records() []models.Record {
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// MarkSuccess records a terminal success for the record at index i and
// stores its payload.
func (s *Store) MarkSuccess(i int, payload interface{}) {
	s.records[i].Status = models.StatusSuccess
	s.payloads[s.records[i].Key] = payload
}

// MarkFailed records a terminal failure for the record at index i. No
// payload is stored; the record stays in the ledger for audit.
func (s *Store) MarkFailed(i int) {
	s.records[i].Status = models.StatusFailed
}

// Payloads returns the key-to-payload mapping for all successful records.
func (s *Store) Payloads() map[string]interface{} {
	return s.payloads
}

// SetColumns declares the column names for registry-dump rows.
func (s *Store) SetColumns(columns []string) {
	s.columns = columns
}

// Columns returns the registry-dump column names.
func (s *Store) Columns() []string {
	return s.columns
}

// AppendRows appends one page's flat row lists in traversal order.
func (s *Store) AppendRows(rows [][]string) {
	s.rows = append(s.rows, rows...)
}

// Rows returns the accumulated registry-dump rows.
func (s *Store) Rows() [][]string {
	return s.rows
}

// DumpMode reports whether this store accumulates registry rows rather than
// keyed payloads.
func (s *Store) DumpMode() bool {
	return s.columns != nil
}
