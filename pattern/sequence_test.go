package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSequenceSharedNode checks the run lookup for a node that appears
// in more than one run: the node belongs to the run added last, while
// both runs keep their full node lists.
func TestSequenceSharedNode(t *testing.T) {
	s := newSequence()
	s.add([]int{1, 2, 3})
	s.add([]int{4, 5, 3})

	assert.Equal(t, []rowID{{1, 3}, {4, 3}}, s.ids)
	assert.Equal(t, []int{1, 2, 3}, s.byID[rowID{1, 3}])
	assert.Equal(t, []int{4, 5, 3}, s.byID[rowID{4, 3}])

	assert.Equal(t, rowID{1, 3}, s.nodeID[1])
	assert.Equal(t, rowID{4, 3}, s.nodeID[5])
	assert.Equal(t, rowID{4, 3}, s.nodeID[3])
}
