package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePager serves canned pages; the "next" control disables on the last one.
type fakePager struct {
	pages    [][][]string
	total    string
	totalErr error

	page     int
	opened   bool
	advances int

	rowsErrOnPage int
	rowsErr       error
}

func (f *fakePager) Name() string { return "fake-registry" }

func (f *fakePager) Open(ctx context.Context) error {
	f.opened = true
	f.page = 0
	return nil
}

func (f *fakePager) ExpectedTotal(ctx context.Context) (string, error) {
	return f.total, f.totalErr
}

func (f *fakePager) CurrentRows(ctx context.Context) ([][]string, error) {
	if f.rowsErr != nil && f.page+1 == f.rowsErrOnPage {
		return nil, f.rowsErr
	}
	return f.pages[f.page], nil
}

func (f *fakePager) NextEnabled(ctx context.Context) (bool, error) {
	return f.page < len(f.pages)-1, nil
}

func (f *fakePager) Advance(ctx context.Context) error {
	f.advances++
	f.page++
	return nil
}

func threePages() [][][]string {
	return [][][]string{
		{{"1", "20100047218", "EMPRESA UNO"}, {"2", "20100047219", "EMPRESA DOS"}},
		{{"3", "20100047220", "EMPRESA TRES"}},
		{{"4", "20100047221", "EMPRESA CUATRO"}},
	}
}

func TestTraversalStopsOnDisabledControl(t *testing.T) {
	// The site reports a wrong total; the control state alone decides when
	// the walk ends.
	pager := &fakePager{pages: threePages(), total: "99"}
	store := NewStore()
	store.SetColumns([]string{"id", "ruc", "nombre"})

	trav := NewTraversal(pager, store, testLogger())
	require.NoError(t, trav.Run(context.Background()))

	assert.True(t, pager.opened)
	assert.Equal(t, 2, pager.advances)

	rows := store.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "20100047218", rows[0][1])
	assert.Equal(t, "20100047221", rows[3][1])
}

func TestTraversalToleratesMissingTotal(t *testing.T) {
	pager := &fakePager{pages: threePages(), totalErr: errors.New("label not found")}
	store := NewStore()
	store.SetColumns([]string{"id", "ruc", "nombre"})

	trav := NewTraversal(pager, store, testLogger())
	require.NoError(t, trav.Run(context.Background()))
	assert.Len(t, store.Rows(), 4)
}

func TestTraversalStructuralFailureIsFatal(t *testing.T) {
	pager := &fakePager{
		pages:         threePages(),
		total:         "3",
		rowsErrOnPage: 3,
		rowsErr:       errors.New("grid not found"),
	}
	store := NewStore()
	store.SetColumns([]string{"id", "ruc", "nombre"})

	trav := NewTraversal(pager, store, testLogger())
	err := trav.Run(context.Background())
	require.Error(t, err)

	var transition *PageTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, 3, transition.Page)
	assert.True(t, IsFatal(err))

	// The first two pages survived and can still be flushed partially.
	assert.Len(t, store.Rows(), 3)
}

func TestTraversalInterruptPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pager := &fakePager{pages: threePages(), total: "3"}
	store := NewStore()
	store.SetColumns([]string{"id", "ruc", "nombre"})

	trav := NewTraversal(pager, store, testLogger())
	err := trav.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Rows())
}

func TestTraversalSinglePage(t *testing.T) {
	pager := &fakePager{
		pages: [][][]string{{{"1", "20100047218", "EMPRESA UNO"}}},
		total: "1",
	}
	store := NewStore()
	store.SetColumns([]string{"id", "ruc", "nombre"})

	trav := NewTraversal(pager, store, testLogger())
	require.NoError(t, trav.Run(context.Background()))
	assert.Zero(t, pager.advances)
	assert.Len(t, store.Rows(), 1)
}
