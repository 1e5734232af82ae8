package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultAllocatorAllocTranslate(t *testing.T) {
	a := NewDefault()

	ref, err := a.Alloc(16)
	require.NoError(t, err)
	require.NotEqual(t, NullRef, ref)

	b, err := a.Translate(ref)
	require.NoError(t, err)
	require.Len(t, b, 16)
}

func TestDefaultAllocatorFreeIsDeferred(t *testing.T) {
	a := NewDefault()

	ref, err := a.Alloc(8)
	require.NoError(t, err)

	a.Free(ref, 5)

	// not yet reclaimed: the ref must not be handed back out.
	ref2, err := a.Alloc(8)
	require.NoError(t, err)
	require.NotEqual(t, ref, ref2)

	// reclaim with a pinned version younger than the free: still held.
	a.Reclaim(3)
	ref3, err := a.Alloc(8)
	require.NoError(t, err)
	require.NotEqual(t, ref, ref3)

	// reclaim past the oldest pinned reader: now reusable.
	a.Reclaim(6)
	ref4, err := a.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, ref, ref4)
}

func TestDefaultAllocatorRejectsZeroSize(t *testing.T) {
	a := NewDefault()
	_, err := a.Alloc(0)
	require.Error(t, err)
}

func TestDefaultIsSingleton(t *testing.T) {
	require.Same(t, Default(), Default())
}
