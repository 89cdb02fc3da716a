package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	r := NewRecorder(8)
	r.Observe("deposit", time.Millisecond, true)
	r.Observe("deposit", 3*time.Millisecond, false)
	r.Observe("withdraw", 2*time.Millisecond, true)

	snap := r.Snapshot(false)
	require.Len(t, snap, 2)
	assert.Equal(t, uint64(1), snap["deposit"].Succeeded)
	assert.Equal(t, uint64(1), snap["deposit"].Failed)
	assert.Equal(t, uint64(2), snap["deposit"].Total())
	assert.Equal(t, 3*time.Millisecond, snap["deposit"].Max)
	assert.Equal(t, uint64(1), snap["withdraw"].Total())
}

func TestRecorderPercentilesOverWindow(t *testing.T) {
	r := NewRecorder(4)
	for i := 1; i <= 6; i++ {
		r.Observe("commit", time.Duration(i)*time.Millisecond, true)
	}
	s := r.Snapshot(false)["commit"]
	// 窗口只保留最近 4 个样本：3 4 5 6
	assert.Equal(t, 4*time.Millisecond, s.P50)
	assert.Equal(t, 6*time.Millisecond, s.Max)
	assert.Equal(t, uint64(6), s.Succeeded)
}

func TestRecorderReset(t *testing.T) {
	r := NewRecorder(4)
	r.Observe("toggle_lock", time.Millisecond, true)
	require.Len(t, r.Snapshot(true), 1)
	assert.Empty(t, r.Snapshot(false))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Observe("deposit", time.Millisecond, true)
	assert.Nil(t, r.Snapshot(false))
}
