package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSample(t *testing.T) {
	tests := []struct {
		name     string
		target   uint32
		canister uint32
		want     int64
	}{
		{name: "canister lags", target: 700000, canister: 699950, want: 50},
		{name: "in sync", target: 100, canister: 100, want: 0},
		{name: "canister ahead", target: 80, canister: 100, want: -20},
		{name: "full range", target: 0, canister: 4294967295, want: -4294967295},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSample(tt.target, tt.canister)
			assert.Equal(t, tt.target, s.Target)
			assert.Equal(t, tt.canister, s.Canister)
			assert.Equal(t, tt.want, s.Difference)
		})
	}
}

func TestRegistry_Setters(t *testing.T) {
	r := NewRegistry()

	r.SetTargetHeight(100)
	r.SetCanisterHeight(80)
	r.SetHeightDifference(20)

	assert.Equal(t, float64(100), testutil.ToFloat64(r.targetHeight))
	assert.Equal(t, float64(80), testutil.ToFloat64(r.canisterHeight))
	assert.Equal(t, float64(20), testutil.ToFloat64(r.heightDifference))

	// last write wins
	r.SetTargetHeight(101)
	r.SetHeightDifference(-3)
	assert.Equal(t, float64(101), testutil.ToFloat64(r.targetHeight))
	assert.Equal(t, float64(-3), testutil.ToFloat64(r.heightDifference))
}

func TestRegistry_Observe(t *testing.T) {
	r := NewRegistry()
	fixed := time.Unix(1668084050, 0)
	r.now = func() time.Time { return fixed }

	r.Observe(NewSample(700000, 699950))

	assert.Equal(t, float64(700000), testutil.ToFloat64(r.targetHeight))
	assert.Equal(t, float64(699950), testutil.ToFloat64(r.canisterHeight))
	assert.Equal(t, float64(50), testutil.ToFloat64(r.heightDifference))
	assert.Equal(t, float64(1668084050), testutil.ToFloat64(r.lastSuccess))
}

func TestRegistry_CycleFailures(t *testing.T) {
	r := NewRegistry()

	r.IncCycleFailures()
	r.IncCycleFailures()

	assert.Equal(t, float64(2), testutil.ToFloat64(r.cycleFailures))
}

func TestRegistry_Exposition(t *testing.T) {
	r := NewRegistry()
	r.SetTargetHeight(100)
	r.SetCanisterHeight(80)
	r.SetHeightDifference(20)

	expected := `
# HELP bitcoin_block_height Block height of the canonical Bitcoin chain.
# TYPE bitcoin_block_height gauge
bitcoin_block_height 100
# HELP bitcoin_canister_block_height Block height reported by the Bitcoin canister.
# TYPE bitcoin_canister_block_height gauge
bitcoin_canister_block_height 80
# HELP block_height_difference Target block height minus canister block height.
# TYPE block_height_difference gauge
block_height_difference 20
`
	err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected),
		TargetHeightName, CanisterHeightName, HeightDifferenceName)
	require.NoError(t, err)
}

func TestRegistry_Independent(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.SetTargetHeight(5)

	assert.Equal(t, float64(5), testutil.ToFloat64(a.targetHeight))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.targetHeight))
}
