package plant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubReplaysBacklog(t *testing.T) {
	h := NewHub(3)
	defer h.Close()
	for i := 1; i <= 5; i++ {
		h.Publish(Snapshot{Step: i})
	}

	ch, cancel := h.Subscribe(1)
	defer cancel()
	for _, want := range []int{3, 4, 5} {
		assert.Equal(t, want, (<-ch).Step)
	}
	h.Publish(Snapshot{Step: 6})
	assert.Equal(t, 6, (<-ch).Step)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe(2)
	for i := 1; i <= 5; i++ {
		h.Publish(Snapshot{Step: i})
	}
	assert.Equal(t, 3, h.Dropped())
	assert.Equal(t, 1, (<-ch).Step)
	assert.Equal(t, 2, (<-ch).Step)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe(1)
	h.Close()
	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, _ := h.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
	h.Publish(Snapshot{Step: 1})
}

func TestTrajectoryIsMonotonic(t *testing.T) {
	tr := NewTrajectory(uuid.New())
	require.NoError(t, tr.Append(Snapshot{Step: 1, Time: 1}))
	require.NoError(t, tr.Append(Snapshot{Step: 2, Time: 2}))
	assert.ErrorIs(t, tr.Append(Snapshot{Step: 3, Time: 2}), ErrNonMonotonic)
	assert.Equal(t, 2, tr.Len())

	since := tr.Since(1)
	require.Len(t, since, 1)
	assert.Equal(t, 2, since[0].Step)
	assert.Nil(t, tr.Since(2))
	assert.Len(t, tr.Snapshots(), 2)

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.Step)
	_, ok = NewTrajectory(uuid.Nil).Last()
	assert.False(t, ok)
}

func TestModeText(t *testing.T) {
	b, err := LoadFollowing.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "load_following", string(b))
	assert.Equal(t, "steady_state", SteadyState.String())
}
