package sim

// Parameter defaults for commands that omit them.
const (
	defaultQuerySelectivity    = 0.1
	defaultFullScanSelectivity = 0.5
	defaultRangeStart          = 0
	defaultRangeEnd            = 1000
	defaultIndexKind           = "primary"
)

// applyMemory runs a canonical OS action. Failures come back as unsuccessful
// results, never as errors.
func applyMemory(m *MemorySimulator, action Action, p Params) ActionResult {
	switch action {
	case ActionAllocate:
		size, err := p.requireInt("size")
		if err != nil {
			return failedResult(err)
		}
		var pid *int64
		for _, name := range []string{"pid", "processId"} {
			v, ok, err := p.Int(name)
			if err != nil {
				return failedResult(err)
			}
			if ok {
				pid = &v
				break
			}
		}
		alloc, err := m.Allocate(size, pid)
		if err != nil {
			return failedResult(err)
		}
		return ActionResult{Success: true, Allocation: &alloc}

	case ActionFree:
		addr, err := p.requireInt("address")
		if err != nil {
			return failedResult(err)
		}
		rel, err := m.Free(addr)
		if err != nil {
			return failedResult(err)
		}
		return ActionResult{Success: true, Release: &rel}

	case ActionCompact:
		n := m.Compact()
		return ActionResult{Success: true, CompactionCount: &n}

	case ActionAnalyze:
		a := m.Analyze()
		return ActionResult{Success: true, Memory: &a}
	}
	return failedResult(unknownAction(DomainOS, string(action)))
}

// applyDBMS runs a canonical DBMS action.
func applyDBMS(q *QueryCostSimulator, action Action, p Params) ActionResult {
	switch action {
	case ActionInsert, ActionDelete:
		key, err := p.requireInt("key")
		if err != nil {
			return failedResult(err)
		}
		var op KeyOperation
		if action == ActionInsert {
			op, err = q.Insert(key)
		} else {
			op, err = q.Delete(key)
		}
		if err != nil {
			return failedResult(err)
		}
		return ActionResult{Success: true, KeyOperation: &op}

	case ActionQueryWithIndex, ActionQueryWithoutIndex:
		def := defaultQuerySelectivity
		run := q.QueryWithIndex
		if action == ActionQueryWithoutIndex {
			def = defaultFullScanSelectivity
			run = q.QueryWithoutIndex
		}
		sel, err := p.Float("selectivity", def)
		if err != nil {
			return failedResult(err)
		}
		plan, err := run(sel)
		if err != nil {
			return failedResult(err)
		}
		return ActionResult{Success: true, QueryPlan: &plan}

	case ActionRangeQuery:
		start, ok, err := p.Int("startKey")
		if err != nil {
			return failedResult(err)
		}
		if !ok {
			start = defaultRangeStart
		}
		end, ok, err := p.Int("endKey")
		if err != nil {
			return failedResult(err)
		}
		if !ok {
			end = defaultRangeEnd
		}
		plan := q.RangeQuery(start, end, p.Bool("useIndex", false))
		return ActionResult{Success: true, QueryPlan: &plan}

	case ActionCreateIndex:
		change := q.CreateIndex(p.String("type", defaultIndexKind))
		return ActionResult{Success: true, Index: &change}

	case ActionAnalyze:
		a := q.Analyze()
		return ActionResult{Success: true, DBMS: &a}
	}
	return failedResult(unknownAction(DomainDBMS, string(action)))
}
