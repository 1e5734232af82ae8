package txn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidwell-embeddb/embeddb/alloc"
	"github.com/tidwell-embeddb/embeddb/group"
	"github.com/tidwell-embeddb/embeddb/schema"
)

// TestTxnScenarioS4 exercises spec.md scenario S4.
func TestTxnScenarioS4(t *testing.T) {
	g := group.New(alloc.NewDefault(), 16)
	spec := schema.New()
	spec.AddColumn(schema.Column{Type: schema.Int, Name: "v"})
	_, err := g.AddTable("t", spec)
	require.NoError(t, err)

	history := &History{}

	w := BeginWrite(g, history)
	w.AddRows("t", 10)
	require.NoError(t, w.Commit())
	require.EqualValues(t, 1, g.Version())

	readerA := NewReader(g, history)
	readerB := NewReader(g, history)
	require.Equal(t, 10, readerA.RowCount("t"))
	require.Equal(t, 10, readerB.RowCount("t"))

	w2 := BeginWrite(g, history)
	w2.AddRows("t", 5)
	require.NoError(t, w2.Rollback())

	tbl, ok := g.TableByName("t")
	require.True(t, ok)
	require.Equal(t, 10, tbl.Size())
	require.Equal(t, 10, readerA.RowCount("t"))
	require.Equal(t, 10, readerB.RowCount("t"))

	w3 := BeginWrite(g, history)
	w3.AddRows("t", 5)
	require.NoError(t, w3.Commit())
	require.EqualValues(t, 2, g.Version())

	require.Equal(t, 15, tbl.Size())
	require.Equal(t, 10, readerA.RowCount("t"))
	require.Equal(t, 10, readerB.RowCount("t"))

	require.NoError(t, readerA.AdvanceRead(g.Version()))
	require.NoError(t, readerB.AdvanceRead(g.Version()))
	require.Equal(t, 15, readerA.RowCount("t"))
	require.Equal(t, 15, readerB.RowCount("t"))
}

func TestTxnAdvanceReadRejectsGoingBackwards(t *testing.T) {
	g := group.New(alloc.NewDefault(), 16)
	history := &History{}
	r := NewReader(g, history)
	err := r.AdvanceRead(0)
	require.NoError(t, err) // version is already 0, advancing to the same version is fine

	w := BeginWrite(g, history)
	require.NoError(t, w.Commit())
	r2 := NewReader(g, history)
	require.EqualValues(t, 1, r2.Version())
	require.Error(t, r2.AdvanceRead(0))
}
