package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpecAddInsertRemoveColumn(t *testing.T) {
	s := New()
	s.AddColumn(Column{Type: Int, Name: "a"})
	s.AddColumn(Column{Type: StringCol, Name: "c"})

	require.NoError(t, s.InsertColumn(1, Column{Type: Bool, Name: "b"}))
	require.Equal(t, []string{"a", "b", "c"}, names(s))

	require.Equal(t, 1, s.ColumnIndex("b"))

	require.NoError(t, s.RemoveColumn(0))
	require.Equal(t, []string{"b", "c"}, names(s))

	require.Error(t, s.RemoveColumn(10))
}

func TestSpecCloneIsDeepForSubSpecs(t *testing.T) {
	sub := New()
	sub.AddColumn(Column{Type: Int, Name: "nested"})

	s := New()
	s.AddColumn(Column{Type: Subtable, Name: "t", SubSpec: sub})

	clone := s.Clone()
	clone.Columns[0].SubSpec.Columns[0].Name = "renamed"

	require.Equal(t, "nested", s.Columns[0].SubSpec.Columns[0].Name)
	require.Equal(t, "renamed", clone.Columns[0].SubSpec.Columns[0].Name)
}

func TestSpecFingerprintStableAndSensitiveToShape(t *testing.T) {
	a := New()
	a.AddColumn(Column{Type: Int, Name: "x"})
	b := New()
	b.AddColumn(Column{Type: Int, Name: "x"})

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fa, fb)

	b.AddColumn(Column{Type: Bool, Name: "y"})
	fb2, err := b.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fa, fb2)
}

func names(s *Spec) []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}
