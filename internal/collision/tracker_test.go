package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerCountsDistinctNameCollisions(t *testing.T) {
	tr := NewTracker()
	require.False(t, tr.HasCollision())
	require.Zero(t, tr.Count())

	tr.Track(0xABCD, "one")
	tr.Track(0x1234, "two")
	require.Zero(t, tr.Count())

	// Same hash, same name: re-adding an identical name is not a collision.
	tr.Track(0xABCD, "one")
	require.Zero(t, tr.Count())

	// Same hash, different name: that is the collision.
	tr.Track(0xABCD, "three")
	require.Equal(t, 1, tr.Count())
	require.True(t, tr.HasCollision())

	tr.Track(0xABCD, "four")
	require.Equal(t, 2, tr.Count())
}
