package sim

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pid(v int64) *int64 { return &v }

// allocSeq allocates sizes in order with default process ids and fails the
// test on any error.
func allocSeq(t *testing.T, m *MemorySimulator, sizes ...int64) {
	t.Helper()
	for _, s := range sizes {
		_, err := m.Allocate(s, nil)
		require.NoError(t, err, "allocate %d", s)
	}
}

func TestMemorySimulator_FreeCreatesFragmentation(t *testing.T) {
	// GIVEN 1024 units under first fit with 300 and 200 allocated
	m := NewMemorySimulator(1024, FirstFit)
	a1, err := m.Allocate(300, nil)
	require.NoError(t, err)
	a2, err := m.Allocate(200, nil)
	require.NoError(t, err)
	assert.Equal(t, Allocation{Address: 0, ProcessID: 1, Size: 300}, a1)
	assert.Equal(t, Allocation{Address: 300, ProcessID: 2, Size: 200}, a2)

	// WHEN the first block is freed
	rel, err := m.Free(0)
	require.NoError(t, err)
	assert.Equal(t, Release{Address: 0, FreedPID: 1}, rel)

	// THEN two free fragments surround the surviving allocation
	assert.Equal(t, []MemoryBlock{
		{StartAddress: 0, Size: 300},
		{StartAddress: 300, Size: 200, IsAllocated: true, ProcessID: 2},
		{StartAddress: 500, Size: 524},
	}, m.Blocks())
	assert.Equal(t, MemoryAnalysis{
		FragmentationCount:         2,
		ExternalFragmentationRatio: 0.6667,
		TotalFreeMemory:            824,
		TotalAllocatedMemory:       200,
		LargestFreeBlock:           524,
		AllocatedBlockCount:        1,
	}, m.Analyze())
}

// twoHoles returns a simulator with free holes of 50@100 and 80@350 and a
// 494-unit tail at 530.
func twoHoles(t *testing.T, strategy AllocationStrategy) *MemorySimulator {
	t.Helper()
	m := NewMemorySimulator(1024, strategy)
	allocSeq(t, m, 100, 50, 200, 80, 100)
	_, err := m.Free(100)
	require.NoError(t, err)
	_, err = m.Free(350)
	require.NoError(t, err)
	return m
}

func TestMemorySimulator_StrategyChoosesBlock(t *testing.T) {
	tests := []struct {
		strategy AllocationStrategy
		size     int64
		want     int64
	}{
		{FirstFit, 40, 100},
		{FirstFit, 60, 350},
		{BestFit, 40, 100},
		{BestFit, 60, 350},
		{WorstFit, 40, 530},
		{WorstFit, 60, 530},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			m := twoHoles(t, tt.strategy)
			a, err := m.Allocate(tt.size, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Address)
		})
	}
}

func TestMemorySimulator_BestFitTie_LowestAddressWins(t *testing.T) {
	// GIVEN two equal 50-unit holes at 100 and 250
	m := NewMemorySimulator(1024, BestFit)
	allocSeq(t, m, 100, 50, 100, 50, 100)
	_, err := m.Free(100)
	require.NoError(t, err)
	_, err = m.Free(250)
	require.NoError(t, err)

	// WHEN 50 units are requested
	a, err := m.Allocate(50, nil)

	// THEN the lower hole is used
	require.NoError(t, err)
	assert.Equal(t, int64(100), a.Address)
}

func TestMemorySimulator_InvalidSize(t *testing.T) {
	m := NewMemorySimulator(1024, FirstFit)
	for _, size := range []int64{0, -5, 2000} {
		_, err := m.Allocate(size, nil)
		var ae *ActionError
		require.ErrorAs(t, err, &ae, "size %d", size)
		assert.Equal(t, FailureInvalidParameter, ae.Kind)
		assert.Equal(t, "Invalid size", ae.Message)
	}
	assert.Len(t, m.Blocks(), 1, "failed allocations must not change blocks")
}

func TestMemorySimulator_NoContiguousBlock_ThenCompact(t *testing.T) {
	// GIVEN 600 free units split into two 300-unit holes
	m := NewMemorySimulator(1024, FirstFit)
	allocSeq(t, m, 300, 100, 300, 100, 224)
	_, err := m.Free(0)
	require.NoError(t, err)
	_, err = m.Free(400)
	require.NoError(t, err)

	// WHEN 500 units are requested
	_, err = m.Allocate(500, nil)

	// THEN the failure reports the fragmentation
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, FailureNoContiguousBlock, ae.Kind)
	assert.Equal(t, "No contiguous block of 500KB available. Total free: 600KB (fragmented).", ae.Message)
	assert.Equal(t, map[string]any{"totalFree": int64(600), "fragmentationHint": true}, ae.Details)

	// WHEN memory is compacted
	assert.Equal(t, int64(1), m.Compact())

	// THEN allocations keep their order and one free tail remains
	assert.Equal(t, []MemoryBlock{
		{StartAddress: 0, Size: 100, IsAllocated: true, ProcessID: 2},
		{StartAddress: 100, Size: 100, IsAllocated: true, ProcessID: 4},
		{StartAddress: 200, Size: 224, IsAllocated: true, ProcessID: 5},
		{StartAddress: 424, Size: 600},
	}, m.Blocks())

	// AND the failed allocation did not consume a default process id
	a, err := m.Allocate(500, nil)
	require.NoError(t, err)
	assert.Equal(t, Allocation{Address: 424, ProcessID: 6, Size: 500}, a)
}

func TestMemorySimulator_FreeMergesBothNeighbours(t *testing.T) {
	m := NewMemorySimulator(1024, FirstFit)
	allocSeq(t, m, 100, 100, 100)
	for _, addr := range []int64{0, 200, 100} {
		_, err := m.Free(addr)
		require.NoError(t, err)
	}
	assert.Equal(t, []MemoryBlock{{StartAddress: 0, Size: 1024}}, m.Blocks())
}

func TestMemorySimulator_FreeUnallocated(t *testing.T) {
	m := NewMemorySimulator(1024, FirstFit)
	allocSeq(t, m, 100)

	for _, addr := range []int64{50, 100, 5000} {
		_, err := m.Free(addr)
		var ae *ActionError
		require.ErrorAs(t, err, &ae, "address %d", addr)
		assert.Equal(t, FailureNotAllocated, ae.Kind)
	}
	_, err := m.Free(50)
	assert.EqualError(t, err, "No allocated block at address 50")
}

func TestMemorySimulator_ExplicitProcessID(t *testing.T) {
	m := NewMemorySimulator(1024, FirstFit)
	a, err := m.Allocate(10, pid(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), a.ProcessID)

	// explicit ids leave the default counter alone
	b, err := m.Allocate(10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ProcessID)
}

func TestMemorySimulator_Compact_EmptyMemory(t *testing.T) {
	m := NewMemorySimulator(512, WorstFit)
	assert.Equal(t, int64(1), m.Compact())
	assert.Equal(t, int64(2), m.Compact())
	assert.Equal(t, []MemoryBlock{{StartAddress: 0, Size: 512}}, m.Blocks())
}

func TestMemorySimulator_FullMemory(t *testing.T) {
	m := NewMemorySimulator(256, FirstFit)
	allocSeq(t, m, 256)
	a := m.Analyze()
	assert.Equal(t, 0, a.FragmentationCount)
	assert.Equal(t, 0.0, a.ExternalFragmentationRatio)
	assert.Equal(t, int64(0), a.LargestFreeBlock)
}

// TestMemorySimulator_RandomOps_PreserveInvariants drives a long random
// sequence of operations and checks the block list after each one.
func TestMemorySimulator_RandomOps_PreserveInvariants(t *testing.T) {
	for _, strategy := range []AllocationStrategy{FirstFit, BestFit, WorstFit} {
		t.Run(string(strategy), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, 11))
			m := NewMemorySimulator(2048, strategy)
			for i := 0; i < 1000; i++ {
				switch rng.IntN(5) {
				case 0, 1, 2:
					_, _ = m.Allocate(rng.Int64N(300)+1, nil)
				case 3:
					blocks := m.Blocks()
					b := blocks[rng.IntN(len(blocks))]
					_, _ = m.Free(b.StartAddress)
				case 4:
					if rng.IntN(10) == 0 {
						m.Compact()
					}
				}
				require.NoError(t, checkBlocks(m.TotalMemory(), m.Blocks()), "after op %d", i)
			}
		})
	}
}

func TestParseAllocationStrategy(t *testing.T) {
	for in, want := range map[string]AllocationStrategy{
		"":            FirstFit,
		"first_fit":   FirstFit,
		"BEST_FIT":    BestFit,
		" worst_fit ": WorstFit,
	} {
		got, err := ParseAllocationStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAllocationStrategy("NEXT_FIT")
	assert.ErrorIs(t, err, ErrMalformedState)
}

func TestNewMemorySimulator_PanicsOnBadInput(t *testing.T) {
	assert.Panics(t, func() { NewMemorySimulator(0, FirstFit) })
	assert.Panics(t, func() { NewMemorySimulator(10, "NEXT_FIT") })
}
