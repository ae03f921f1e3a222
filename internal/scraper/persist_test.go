package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupStore() *Store {
	store := NewStore()
	store.LoadKeys([]string{"20100047218", "20100047219", "20100047220"})
	store.MarkSuccess(0, map[string]interface{}{"razon_social": "EMPRESA UNO S.A.", "estado": "ACTIVO"})
	store.MarkFailed(1)
	return store
}

func TestPersisterSaveLookups(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "sunat_scraper", "ruc", testLogger())
	store := lookupStore()

	require.NoError(t, p.Save(store))

	data, err := os.ReadFile(filepath.Join(dir, "sunat_scraper_results.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"20100047218"`)
	assert.Contains(t, string(data), `"EMPRESA UNO S.A."`)
	// Only successful keys carry a payload.
	assert.NotContains(t, string(data), `"20100047219"`)

	ledger, err := os.ReadFile(filepath.Join(dir, "sunat_scraper_status.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"ruc,result\n20100047218,success\n20100047219,fail\n20100047220,\n",
		string(ledger))
}

func TestPersisterSaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "sunat_scraper", "ruc", testLogger())
	store := lookupStore()

	require.NoError(t, p.Save(store))
	first, err := os.ReadFile(filepath.Join(dir, "sunat_scraper_results.json"))
	require.NoError(t, err)
	firstLedger, err := os.ReadFile(filepath.Join(dir, "sunat_scraper_status.csv"))
	require.NoError(t, err)

	require.NoError(t, p.Save(store))
	second, err := os.ReadFile(filepath.Join(dir, "sunat_scraper_results.json"))
	require.NoError(t, err)
	secondLedger, err := os.ReadFile(filepath.Join(dir, "sunat_scraper_status.csv"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstLedger, secondLedger)
}

func TestPersisterSavePartialNaming(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "redjum_scraper", "dni", testLogger())
	p.now = func() time.Time {
		return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	}
	store := lookupStore()

	require.NoError(t, p.SavePartial(store))

	_, err := os.Stat(filepath.Join(dir, "redjum_scraper_results_partial_20250314_150926.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "redjum_scraper_status_partial_20250314_150926.csv"))
	assert.NoError(t, err)

	// The partial write must not touch the final artifact names.
	_, err = os.Stat(filepath.Join(dir, "redjum_scraper_results.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestPersisterSaveRows(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "reinfo_scraper", "", testLogger())

	store := NewStore()
	store.SetColumns([]string{"id", "ruc", "nombre"})
	store.AppendRows([][]string{
		{"1", "20100047218", "MINERA UNO"},
		{"2", "20100047219", "MINERA DOS"},
	})

	require.NoError(t, p.Save(store))

	txt, err := os.ReadFile(filepath.Join(dir, "reinfo_scraper_results.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1,20100047218,MINERA UNO\n2,20100047219,MINERA DOS\n", string(txt))

	csvData, err := os.ReadFile(filepath.Join(dir, "reinfo_scraper_results.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,ruc,nombre\n1,20100047218,MINERA UNO\n2,20100047219,MINERA DOS\n", string(csvData))
}

func TestPersisterLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewPersister(dir, "sunat_scraper", "ruc", testLogger())

	require.NoError(t, p.Save(lookupStore()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
