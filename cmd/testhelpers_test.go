package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// writeFile writes content under the test's temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fragmentationScenario = `
name: fragmentation
domain: OS
challenge: os_mem_01
competency: memory_allocation
initial_state:
  totalMemory: 1024
  allowedCommands: [alloc, free, analyze]
goal:
  type: allocatedBlockCount
  target: 3
steps:
  - action: alloc
    params: {size: 300}
  - action: free
    params: {address: 999}
  - action: free
    params: {address: 998}
  - action: compact
  - action: alloc
    params: {size: 200}
  - action: analyze
`

const btreeScenario = `
domain: DBMS
challenge: dbms_btree_01
competency: btree_basics
initial_state:
  btreeOrder: 3
  pre_inserted_keys: [10, 20]
steps:
  - action: insert
    params: {key: 30}
  - action: insert
    params: {key: 30}
  - action: query
    params: {selectivity: 0.2}
  - action: create_index
    params: {type: range}
  - action: range_query
    params: {startKey: 0, endKey: 100, useIndex: true}
`

const osContent = `
competencies:
  - slug: memory_basics
    name: Memory Basics
    domain: OS
    dag_level: 0
  - slug: memory_allocation
    name: Allocation Strategies
    domain: OS
    dag_level: 1
    prerequisites: [memory_basics]
  - slug: paging
    name: Paging
    domain: OS
    dag_level: 1
    prerequisites: [memory_basics]
  - slug: btree_basics
    domain: DBMS
    dag_level: 0
`
