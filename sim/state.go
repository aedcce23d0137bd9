package sim

// SnapshotVersion is the schema version written by Snapshot. Snapshots
// without a version field are read as version 1.
const SnapshotVersion = 1

// BlockState is the serialized form of a MemoryBlock.
type BlockState struct {
	StartAddress int64 `json:"startAddress" validate:"gte=0"`
	EndAddress   int64 `json:"endAddress" validate:"gtfield=StartAddress"`
	Size         int64 `json:"size" validate:"gt=0"`
	IsAllocated  bool  `json:"isAllocated"`
	ProcessID    int64 `json:"processId"`
}

// MemoryState is the serialized memory simulator plus its analysis.
// The analysis fields are derived and ignored on restore.
type MemoryState struct {
	TotalMemory     int64        `json:"totalMemory" validate:"gt=0"`
	Strategy        string       `json:"strategy" validate:"required,strategy"`
	Blocks          []BlockState `json:"blocks" validate:"required,min=1,dive"`
	CompactionCount int64        `json:"compactionCount" validate:"gte=0"`
	NextProcessID   int64        `json:"nextProcessId,omitempty" validate:"gte=0"`
	MemoryAnalysis
}

// BTreeState is the serialized key set. Keys is always the full list.
type BTreeState struct {
	Order int     `json:"order" validate:"gte=2"`
	Keys  []int64 `json:"keys" validate:"required"`
}

// DBMSState is the serialized query-cost simulator.
type DBMSState struct {
	TotalRows         int64      `json:"totalRows" validate:"gte=0"`
	BTree             BTreeState `json:"btree"`
	HasPrimaryIndex   bool       `json:"hasPrimaryIndex"`
	HasRangeIndex     bool       `json:"hasRangeIndex"`
	TotalNodeAccesses int64      `json:"totalNodeAccesses" validate:"gte=0"`
	LastQueryPlan     *QueryPlan `json:"lastQueryPlan"`
}

// State is the observable simulation state reported with every step.
type State struct {
	Domain  Domain       `json:"domain"`
	Entropy float64      `json:"entropy"`
	Steps   int          `json:"steps"`
	Memory  *MemoryState `json:"memory,omitempty"`
	DBMS    *DBMSState   `json:"dbms,omitempty"`
}

func memoryState(m *MemorySimulator) *MemoryState {
	blocks := make([]BlockState, len(m.blocks))
	for i, b := range m.blocks {
		blocks[i] = BlockState{
			StartAddress: b.StartAddress,
			EndAddress:   b.EndAddress(),
			Size:         b.Size,
			IsAllocated:  b.IsAllocated,
			ProcessID:    b.ProcessID,
		}
	}
	return &MemoryState{
		TotalMemory:     m.totalMemory,
		Strategy:        string(m.strategy),
		Blocks:          blocks,
		CompactionCount: m.compactionCount,
		NextProcessID:   m.nextProcessID,
		MemoryAnalysis:  m.Analyze(),
	}
}

func dbmsState(q *QueryCostSimulator) *DBMSState {
	return &DBMSState{
		TotalRows: q.totalRows,
		BTree: BTreeState{
			Order: q.keys.Order(),
			Keys:  append([]int64{}, q.keys.keys...),
		},
		HasPrimaryIndex:   q.hasPrimaryIndex,
		HasRangeIndex:     q.hasRangeIndex,
		TotalNodeAccesses: q.totalNodeAccesses,
		LastQueryPlan:     q.LastPlan(),
	}
}

// restoreMemory rebuilds a simulator from serialized state, checking every
// block-list invariant.
func restoreMemory(ms *MemoryState) (*MemorySimulator, error) {
	strategy, err := ParseAllocationStrategy(ms.Strategy)
	if err != nil {
		return nil, malformed("memory.strategy", "unknown allocation strategy %q", ms.Strategy)
	}
	blocks := make([]MemoryBlock, len(ms.Blocks))
	var maxPID int64
	for i, b := range ms.Blocks {
		if b.EndAddress != b.StartAddress+b.Size {
			return nil, malformed("memory.blocks", "block %d endAddress %d != startAddress+size %d", i, b.EndAddress, b.StartAddress+b.Size)
		}
		blocks[i] = MemoryBlock{StartAddress: b.StartAddress, Size: b.Size, IsAllocated: b.IsAllocated}
		if b.IsAllocated {
			blocks[i].ProcessID = b.ProcessID
			maxPID = max(maxPID, b.ProcessID)
		}
	}
	if err := checkBlocks(ms.TotalMemory, blocks); err != nil {
		return nil, err
	}
	next := ms.NextProcessID
	if next == 0 {
		// snapshots predating nextProcessId
		next = maxPID + 1
	}
	return &MemorySimulator{
		totalMemory:     ms.TotalMemory,
		strategy:        strategy,
		blocks:          blocks,
		compactionCount: ms.CompactionCount,
		nextProcessID:   next,
	}, nil
}

// restoreDBMS rebuilds a query-cost simulator from serialized state.
func restoreDBMS(ds *DBMSState) (*QueryCostSimulator, error) {
	if err := checkKeys(ds.BTree.Order, ds.BTree.Keys); err != nil {
		return nil, err
	}
	q := &QueryCostSimulator{
		totalRows:         ds.TotalRows,
		keys:              &KeySet{order: ds.BTree.Order, keys: append([]int64(nil), ds.BTree.Keys...)},
		hasPrimaryIndex:   ds.HasPrimaryIndex,
		hasRangeIndex:     ds.HasRangeIndex,
		totalNodeAccesses: ds.TotalNodeAccesses,
	}
	if ds.LastQueryPlan != nil {
		p := *ds.LastQueryPlan
		p.UsedIndexes = append([]string{}, ds.LastQueryPlan.UsedIndexes...)
		q.lastPlan = &p
	}
	return q, nil
}
