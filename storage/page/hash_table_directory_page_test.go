package page

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/types"
)

func TestDirectoryPageDepths(t *testing.T) {
	directory := &HashTableDirectoryPage{}

	assert.Equal(t, uint32(0), directory.GetGlobalDepth())
	assert.Equal(t, uint32(0), directory.GetGlobalDepthMask())
	assert.Equal(t, uint32(1), directory.Size())

	directory.IncrGlobalDepth()
	assert.Equal(t, uint32(1), directory.GetGlobalDepth())
	assert.Equal(t, uint32(1), directory.GetGlobalDepthMask())
	assert.Equal(t, uint32(2), directory.Size())

	directory.SetBucketPageId(0, types.PageID(1))
	directory.SetBucketPageId(1, types.PageID(2))
	directory.SetLocalDepth(0, 1)
	directory.SetLocalDepth(1, 1)
	assert.Equal(t, types.PageID(2), directory.GetBucketPageId(1))
	assert.Equal(t, uint32(1), directory.GetLocalDepth(0))
	assert.Equal(t, uint32(1), directory.GetLocalDepthMask(1))

	directory.VerifyIntegrity()

	directory.DecrGlobalDepth()
	assert.Equal(t, uint32(0), directory.GetGlobalDepth())
}

func TestDirectoryPageIntegrityViolations(t *testing.T) {
	directory := &HashTableDirectoryPage{}
	directory.IncrGlobalDepth()

	// Scenario: a slot with no bucket page assigned trips the check.
	directory.SetBucketPageId(0, types.PageID(1))
	directory.SetLocalDepth(0, 1)
	assert.Panics(t, func() { directory.VerifyIntegrity() })

	// Scenario: shared bucket pages must agree on local depth.
	directory.IncrGlobalDepth()
	directory.SetBucketPageId(0, types.PageID(1))
	directory.SetBucketPageId(1, types.PageID(2))
	directory.SetBucketPageId(2, types.PageID(1))
	directory.SetBucketPageId(3, types.PageID(2))
	directory.SetLocalDepth(0, 1)
	directory.SetLocalDepth(1, 1)
	directory.SetLocalDepth(2, 1)
	directory.SetLocalDepth(3, 2)
	assert.Panics(t, func() { directory.VerifyIntegrity() })
}

func TestDirectoryPageGrowthLimit(t *testing.T) {
	directory := &HashTableDirectoryPage{}
	for i := 0; i < MaxDepth; i++ {
		directory.IncrGlobalDepth()
	}
	assert.Equal(t, uint32(DirectoryArraySize), directory.Size())
	assert.Panics(t, func() { directory.IncrGlobalDepth() })
}

func TestDirectoryPageLayoutFitsInPage(t *testing.T) {
	assert.LessOrEqual(t, int(unsafe.Sizeof(HashTableDirectoryPage{})), common.PageSize)
	assert.LessOrEqual(t, 1<<MaxDepth, DirectoryArraySize)
}
