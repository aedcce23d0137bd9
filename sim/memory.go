package sim

import (
	"fmt"
	"strings"
)

// AllocationStrategy picks which free block serves an allocation.
type AllocationStrategy string

const (
	FirstFit AllocationStrategy = "FIRST_FIT"
	BestFit  AllocationStrategy = "BEST_FIT"
	WorstFit AllocationStrategy = "WORST_FIT"
)

// ParseAllocationStrategy accepts a strategy name case-insensitively.
// An empty name defaults to FirstFit.
func ParseAllocationStrategy(s string) (AllocationStrategy, error) {
	switch AllocationStrategy(strings.ToUpper(strings.TrimSpace(s))) {
	case "", FirstFit:
		return FirstFit, nil
	case BestFit:
		return BestFit, nil
	case WorstFit:
		return WorstFit, nil
	default:
		return "", malformed("strategy", "unknown allocation strategy %q", s)
	}
}

// MemoryBlock is one contiguous address range of simulated memory.
type MemoryBlock struct {
	StartAddress int64
	Size         int64
	IsAllocated  bool
	ProcessID    int64 // owner; 0 for free blocks
}

// EndAddress is the first address past the block.
func (b MemoryBlock) EndAddress() int64 {
	return b.StartAddress + b.Size
}

// Allocation is the outcome of a successful Allocate.
type Allocation struct {
	Address   int64 `json:"address"`
	ProcessID int64 `json:"processId"`
	Size      int64 `json:"size"`
}

// Release is the outcome of a successful Free.
type Release struct {
	Address  int64 `json:"address"`
	FreedPID int64 `json:"freedPid"`
}

// MemoryAnalysis summarizes fragmentation of the block list.
type MemoryAnalysis struct {
	FragmentationCount         int     `json:"fragmentationCount"`
	ExternalFragmentationRatio float64 `json:"externalFragmentationRatio"`
	TotalFreeMemory            int64   `json:"totalFreeMemory"`
	TotalAllocatedMemory       int64   `json:"totalAllocatedMemory"`
	LargestFreeBlock           int64   `json:"largestFreeBlock"`
	AllocatedBlockCount        int     `json:"allocatedBlockCount"`
}

// MemorySimulator simulates a linear memory space under a placement strategy.
//
// Invariants, held after every operation:
//   - blocks are ordered by address, contiguous from 0, with no gaps or overlaps
//   - the block sizes sum to TotalMemory
//   - no two address-adjacent blocks are both free
type MemorySimulator struct {
	totalMemory     int64
	strategy        AllocationStrategy
	blocks          []MemoryBlock
	compactionCount int64
	nextProcessID   int64 // owner id handed out when the caller supplies none
}

// NewMemorySimulator creates a simulator with one free block spanning all memory.
// Panics if totalMemory is not positive or the strategy is unknown.
func NewMemorySimulator(totalMemory int64, strategy AllocationStrategy) *MemorySimulator {
	if totalMemory <= 0 {
		panic(fmt.Sprintf("MemorySimulator: totalMemory must be > 0, got %d", totalMemory))
	}
	if _, err := ParseAllocationStrategy(string(strategy)); err != nil {
		panic(fmt.Sprintf("MemorySimulator: %v", err))
	}
	return &MemorySimulator{
		totalMemory:   totalMemory,
		strategy:      strategy,
		blocks:        []MemoryBlock{{StartAddress: 0, Size: totalMemory}},
		nextProcessID: 1,
	}
}

// TotalMemory returns the simulated memory size.
func (m *MemorySimulator) TotalMemory() int64 { return m.totalMemory }

// Strategy returns the active placement strategy.
func (m *MemorySimulator) Strategy() AllocationStrategy { return m.strategy }

// CompactionCount returns how many times Compact has run.
func (m *MemorySimulator) CompactionCount() int64 { return m.compactionCount }

// Blocks returns a copy of the block list in address order.
func (m *MemorySimulator) Blocks() []MemoryBlock {
	return append([]MemoryBlock(nil), m.blocks...)
}

// Allocate reserves size units for processID, or for the next default owner
// id when processID is nil.
func (m *MemorySimulator) Allocate(size int64, processID *int64) (Allocation, error) {
	if size <= 0 || size > m.totalMemory {
		return Allocation{}, newActionError(FailureInvalidParameter, "Invalid size")
	}

	idx := m.findBlock(size)
	if idx < 0 {
		free := m.totalFree()
		err := newActionError(FailureNoContiguousBlock,
			"No contiguous block of %dKB available. Total free: %dKB (fragmented).", size, free)
		err.Details = map[string]any{
			"totalFree":         free,
			"fragmentationHint": free >= size,
		}
		return Allocation{}, err
	}

	pid := m.nextProcessID
	if processID != nil {
		pid = *processID
	} else {
		m.nextProcessID++
	}

	blk := m.blocks[idx]
	leftover := blk.Size - size
	m.blocks[idx] = MemoryBlock{StartAddress: blk.StartAddress, Size: size, IsAllocated: true, ProcessID: pid}
	if leftover > 0 {
		// the remainder stays free right after the new allocation
		rest := MemoryBlock{StartAddress: blk.StartAddress + size, Size: leftover}
		m.blocks = append(m.blocks, MemoryBlock{})
		copy(m.blocks[idx+2:], m.blocks[idx+1:])
		m.blocks[idx+1] = rest
	}
	return Allocation{Address: blk.StartAddress, ProcessID: pid, Size: size}, nil
}

// Free releases the allocated block starting exactly at address and merges it
// with free address neighbours.
func (m *MemorySimulator) Free(address int64) (Release, error) {
	idx := -1
	for i, b := range m.blocks {
		if b.StartAddress == address && b.IsAllocated {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Release{}, newActionError(FailureNotAllocated, "No allocated block at address %d", address)
	}

	pid := m.blocks[idx].ProcessID
	m.blocks[idx] = MemoryBlock{StartAddress: m.blocks[idx].StartAddress, Size: m.blocks[idx].Size}

	// a - [freed] - c: fold c into freed first so idx stays valid, then freed into a
	if idx+1 < len(m.blocks) && !m.blocks[idx+1].IsAllocated {
		m.blocks[idx].Size += m.blocks[idx+1].Size
		m.blocks = append(m.blocks[:idx+1], m.blocks[idx+2:]...)
	}
	if idx > 0 && !m.blocks[idx-1].IsAllocated {
		m.blocks[idx-1].Size += m.blocks[idx].Size
		m.blocks = append(m.blocks[:idx], m.blocks[idx+1:]...)
	}
	return Release{Address: address, FreedPID: pid}, nil
}

// Compact slides every allocated block to the front, keeping their relative
// order, and leaves at most one trailing free block.
func (m *MemorySimulator) Compact() int64 {
	packed := make([]MemoryBlock, 0, len(m.blocks))
	var cursor int64
	for _, b := range m.blocks {
		if !b.IsAllocated {
			continue
		}
		packed = append(packed, MemoryBlock{StartAddress: cursor, Size: b.Size, IsAllocated: true, ProcessID: b.ProcessID})
		cursor += b.Size
	}
	if cursor < m.totalMemory {
		packed = append(packed, MemoryBlock{StartAddress: cursor, Size: m.totalMemory - cursor})
	}
	m.blocks = packed
	m.compactionCount++
	return m.compactionCount
}

// Analyze reports fragmentation statistics. Pure query.
func (m *MemorySimulator) Analyze() MemoryAnalysis {
	var a MemoryAnalysis
	for _, b := range m.blocks {
		if b.IsAllocated {
			a.AllocatedBlockCount++
			a.TotalAllocatedMemory += b.Size
			continue
		}
		a.FragmentationCount++
		a.TotalFreeMemory += b.Size
		if b.Size > a.LargestFreeBlock {
			a.LargestFreeBlock = b.Size
		}
	}
	if len(m.blocks) > 0 {
		a.ExternalFragmentationRatio = round4(float64(a.FragmentationCount) / float64(len(m.blocks)))
	}
	return a
}

// findBlock returns the index of the free block chosen by the strategy, or -1.
// Ties resolve to the lowest start address since blocks are scanned in address order.
func (m *MemorySimulator) findBlock(size int64) int {
	best := -1
	for i, b := range m.blocks {
		if b.IsAllocated || b.Size < size {
			continue
		}
		switch m.strategy {
		case FirstFit:
			return i
		case BestFit:
			if best < 0 || b.Size < m.blocks[best].Size {
				best = i
			}
		case WorstFit:
			if best < 0 || b.Size > m.blocks[best].Size {
				best = i
			}
		}
	}
	return best
}

func (m *MemorySimulator) totalFree() int64 {
	var free int64
	for _, b := range m.blocks {
		if !b.IsAllocated {
			free += b.Size
		}
	}
	return free
}

// checkBlocks verifies the block-list invariants of restored state.
func checkBlocks(total int64, blocks []MemoryBlock) error {
	if len(blocks) == 0 {
		return malformed("memory.blocks", "block list is empty")
	}
	var cursor int64
	for i, b := range blocks {
		if b.Size <= 0 {
			return malformed("memory.blocks", "block %d has non-positive size %d", i, b.Size)
		}
		if b.StartAddress != cursor {
			return malformed("memory.blocks", "block %d starts at %d, expected %d", i, b.StartAddress, cursor)
		}
		if i > 0 && !b.IsAllocated && !blocks[i-1].IsAllocated {
			return malformed("memory.blocks", "blocks %d and %d are adjacent free blocks", i-1, i)
		}
		cursor += b.Size
	}
	if cursor != total {
		return malformed("memory.blocks", "block sizes sum to %d, expected totalMemory %d", cursor, total)
	}
	return nil
}
