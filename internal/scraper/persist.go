package scraper

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Persister shapes the accumulated store into durable output files. Called
// with no suffix on normal completion and with a timestamped partial suffix
// on the failure path.
type Persister struct {
	dir       string
	baseName  string
	keyColumn string
	logger    *logrus.Entry

	now func() time.Time
}

// NewPersister creates a persister writing under dir. baseName prefixes
// every file (e.g. "sunat_scraper"); keyColumn is the ledger CSV key header.
func NewPersister(dir, baseName, keyColumn string, logger *logrus.Logger) *Persister {
	return &Persister{
		dir:       dir,
		baseName:  baseName,
		keyColumn: keyColumn,
		logger:    logger.WithField("component", "persister"),
		now:       time.Now,
	}
}

// Save writes the full result artifacts.
func (p *Persister) Save(store *Store) error {
	return p.save(store, "")
}

// SavePartial writes partial result artifacts tagged with a run timestamp.
// Used on the failure path so progress survives the crash.
func (p *Persister) SavePartial(store *Store) error {
	suffix := "_partial_" + p.now().Format("20060102_150405")
	if err := p.save(store, suffix); err != nil {
		return err
	}
	p.logger.WithField("suffix", suffix).Info("Partial results saved")
	return nil
}

func (p *Persister) save(store *Store, suffix string) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if store.DumpMode() {
		return p.saveRows(store, suffix)
	}
	return p.saveLookups(store, suffix)
}

// saveLookups writes the structured JSON dump plus the status ledger CSV.
func (p *Persister) saveLookups(store *Store, suffix string) error {
	jsonPath := p.path("results"+suffix, "json")
	data, err := json.MarshalIndent(store.Payloads(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := p.writeFile(jsonPath, append(data, '\n')); err != nil {
		return err
	}
	p.logger.WithField("path", jsonPath).Info("Scraping results data saved")

	ledgerPath := p.path("status"+suffix, "csv")
	if err := p.writeCSV(ledgerPath, []string{p.keyColumn, "result"}, ledgerRows(store)); err != nil {
		return err
	}
	p.logger.WithField("path", ledgerPath).Info("Scraping result statuses saved")
	return nil
}

// saveRows writes the registry-dump rows as both a plain text file and a CSV
// with column headers.
func (p *Persister) saveRows(store *Store, suffix string) error {
	txtPath := p.path("results"+suffix, "txt")
	var sb strings.Builder
	for _, row := range store.Rows() {
		sb.WriteString(strings.Join(row, ","))
		sb.WriteByte('\n')
	}
	if err := p.writeFile(txtPath, []byte(sb.String())); err != nil {
		return err
	}
	p.logger.WithField("path", txtPath).Info("Registry rows saved")

	csvPath := p.path("results"+suffix, "csv")
	if err := p.writeCSV(csvPath, store.Columns(), store.Rows()); err != nil {
		return err
	}
	p.logger.WithField("path", csvPath).Info("Registry rows saved")
	return nil
}

func ledgerRows(store *Store) [][]string {
	records := store.Records()
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{rec.Key, string(rec.Status)}
	}
	return rows
}

func (p *Persister) path(kind, ext string) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s_%s.%s", p.baseName, kind, ext))
}

func (p *Persister) writeCSV(path string, header []string, rows [][]string) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return p.writeFile(path, []byte(sb.String()))
}

// writeFile writes atomically via a temp file and rename, so a crash mid-
// write never leaves a truncated artifact behind.
func (p *Persister) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}
