package sim

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Query plan operation tags.
const (
	OpIndexLookup    = "INDEX_LOOKUP"
	OpIndexRangeScan = "INDEX_RANGE_SCAN"
	OpFullTableScan  = "FULL_TABLE_SCAN"
)

// Index names reported in QueryPlan.UsedIndexes.
const (
	PrimaryIndex = "primary_index"
	RangeIndex   = "range_index"
)

// KeyPreviewLimit caps the keys listed in analysis output. Snapshots always
// carry the full key list.
const KeyPreviewLimit = 50

// QueryPlan is the cost estimate of one simulated query.
type QueryPlan struct {
	Operation     string   `json:"operation" validate:"required"`
	EstimatedCost int64    `json:"estimatedCost" validate:"gte=1"`
	RowsScanned   int64    `json:"rowsScanned" validate:"gte=0"`
	Selectivity   float64  `json:"selectivity" validate:"gte=0,lte=1"`
	UsedIndexes   []string `json:"usedIndexes"`
}

// KeyOperation is the outcome of a successful insert or delete.
type KeyOperation struct {
	Key            int64 `json:"key"`
	NodeAccessCost int   `json:"nodeAccessCost"`
	TreeHeight     int   `json:"treeHeight"`
}

// IndexChange is the outcome of create_index.
type IndexChange struct {
	IndexType string `json:"indexType"`
}

// BTreeAnalysis describes the key set for display.
type BTreeAnalysis struct {
	Keys           []int64 `json:"keys"` // first KeyPreviewLimit keys
	KeyCount       int     `json:"keyCount"`
	TreeHeight     int     `json:"treeHeight"`
	Order          int     `json:"order"`
	MaxKeysPerNode int     `json:"maxKeysPerNode"`
}

// DBMSAnalysis summarizes the query simulator.
type DBMSAnalysis struct {
	TotalRows         int64         `json:"totalRows"`
	TotalNodeAccesses int64         `json:"totalNodeAccesses"`
	HasPrimaryIndex   bool          `json:"hasPrimaryIndex"`
	HasRangeIndex     bool          `json:"hasRangeIndex"`
	BTree             BTreeAnalysis `json:"btree"`
	LastQueryPlan     *QueryPlan    `json:"lastQueryPlan"`
}

// QueryCostSimulator maintains a key set, two index flags, and a running
// node-access counter used as an I/O cost proxy.
type QueryCostSimulator struct {
	totalRows         int64
	keys              *KeySet
	hasPrimaryIndex   bool
	hasRangeIndex     bool
	totalNodeAccesses int64
	lastPlan          *QueryPlan
}

// NewQueryCostSimulator creates a simulator with a primary index and no range index.
// Panics if totalRows is negative or order < 2.
func NewQueryCostSimulator(totalRows int64, order int) *QueryCostSimulator {
	if totalRows < 0 {
		panic(fmt.Sprintf("QueryCostSimulator: totalRows must be >= 0, got %d", totalRows))
	}
	return &QueryCostSimulator{
		totalRows:       totalRows,
		keys:            NewKeySet(order),
		hasPrimaryIndex: true,
	}
}

// KeySet exposes the underlying key set (read-only use).
func (q *QueryCostSimulator) KeySet() *KeySet { return q.keys }

// TotalNodeAccesses returns the running I/O cost counter.
func (q *QueryCostSimulator) TotalNodeAccesses() int64 { return q.totalNodeAccesses }

// LastPlan returns the most recent query plan, or nil.
func (q *QueryCostSimulator) LastPlan() *QueryPlan {
	if q.lastPlan == nil {
		return nil
	}
	p := *q.lastPlan
	p.UsedIndexes = append([]string{}, q.lastPlan.UsedIndexes...)
	return &p
}

// Insert adds key and charges height+1 node accesses.
func (q *QueryCostSimulator) Insert(key int64) (KeyOperation, error) {
	if err := q.keys.Insert(key); err != nil {
		return KeyOperation{}, err
	}
	return q.chargeKeyOp(key), nil
}

// Delete removes key and charges height+1 node accesses.
func (q *QueryCostSimulator) Delete(key int64) (KeyOperation, error) {
	if err := q.keys.Delete(key); err != nil {
		return KeyOperation{}, err
	}
	return q.chargeKeyOp(key), nil
}

func (q *QueryCostSimulator) chargeKeyOp(key int64) KeyOperation {
	h := q.keys.Height()
	q.totalNodeAccesses += int64(h + 1)
	return KeyOperation{Key: key, NodeAccessCost: h + 1, TreeHeight: h}
}

// CreateIndex sets the range index flag for "range" and the primary index
// flag for anything else. Always succeeds.
func (q *QueryCostSimulator) CreateIndex(kind string) IndexChange {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "range" {
		q.hasRangeIndex = true
	} else {
		if kind == "" {
			kind = "primary"
		}
		q.hasPrimaryIndex = true
	}
	return IndexChange{IndexType: kind}
}

// QueryWithIndex estimates a point query through the primary index.
func (q *QueryCostSimulator) QueryWithIndex(selectivity float64) (QueryPlan, error) {
	if err := checkSelectivity(selectivity); err != nil {
		return QueryPlan{}, err
	}
	idx := ""
	if q.hasPrimaryIndex {
		idx = PrimaryIndex
	}
	return q.runQuery(selectivity, idx, false), nil
}

// QueryWithoutIndex estimates a point query forced to a full table scan.
func (q *QueryCostSimulator) QueryWithoutIndex(selectivity float64) (QueryPlan, error) {
	if err := checkSelectivity(selectivity); err != nil {
		return QueryPlan{}, err
	}
	return q.runQuery(selectivity, "", false), nil
}

// RangeQuery estimates a scan over [start, end]. Selectivity is
// |end-start|/totalRows clamped to 1. With useIndex the range index is
// preferred over the primary index.
func (q *QueryCostSimulator) RangeQuery(start, end int64, useIndex bool) QueryPlan {
	// float distance: end-start overflows int64 for keys of opposite sign
	span := math.Abs(float64(end) - float64(start))
	selectivity := clamp(span/float64(max(q.totalRows, 1)), 0, 1)
	idx := ""
	if useIndex {
		switch {
		case q.hasRangeIndex:
			idx = RangeIndex
		case q.hasPrimaryIndex:
			idx = PrimaryIndex
		}
	}
	return q.runQuery(selectivity, idx, true)
}

// runQuery computes the plan; index == "" means no usable index.
func (q *QueryCostSimulator) runQuery(selectivity float64, index string, isRange bool) QueryPlan {
	rows := int64(float64(q.totalRows) * selectivity)
	plan := QueryPlan{RowsScanned: rows, Selectivity: round4(selectivity), UsedIndexes: []string{}}
	if index != "" {
		plan.EstimatedCost = int64(q.keys.Height()) + max(1, rows/100)
		plan.Operation = OpIndexLookup
		if isRange {
			plan.Operation = OpIndexRangeScan
		}
		plan.UsedIndexes = []string{index}
	} else {
		// floor(log2(totalRows+1)) + 1
		plan.EstimatedCost = int64(bits.Len64(uint64(q.totalRows)+1)-1) + 1
		plan.Operation = OpFullTableScan
	}
	q.totalNodeAccesses += plan.EstimatedCost
	q.lastPlan = &plan
	return plan
}

// Analyze reports totals, index flags, key-set state and the last plan. Pure query.
func (q *QueryCostSimulator) Analyze() DBMSAnalysis {
	preview := q.keys.keys
	if len(preview) > KeyPreviewLimit {
		preview = preview[:KeyPreviewLimit]
	}
	return DBMSAnalysis{
		TotalRows:         q.totalRows,
		TotalNodeAccesses: q.totalNodeAccesses,
		HasPrimaryIndex:   q.hasPrimaryIndex,
		HasRangeIndex:     q.hasRangeIndex,
		BTree: BTreeAnalysis{
			Keys:           append([]int64{}, preview...),
			KeyCount:       q.keys.Len(),
			TreeHeight:     q.keys.Height(),
			Order:          q.keys.Order(),
			MaxKeysPerNode: q.keys.MaxKeysPerNode(),
		},
		LastQueryPlan: q.LastPlan(),
	}
}

func checkSelectivity(s float64) error {
	if math.IsNaN(s) || s < 0 || s > 1 {
		return newActionError(FailureInvalidParameter, "Selectivity must be within [0, 1], got %v", s)
	}
	return nil
}
