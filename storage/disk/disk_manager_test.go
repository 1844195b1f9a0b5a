package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/types"
)

func TestReadWritePage(t *testing.T) {
	dm := NewDiskManagerTest()
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)

	copy(data, "A test string.")

	// tolerate empty read
	dm.ReadPage(types.PageID(0), buffer)

	dm.WritePage(types.PageID(0), data)
	dm.ReadPage(types.PageID(0), buffer)
	assert.Equal(t, data, buffer)

	memset(buffer, 0)
	copy(data, "Another test string.")

	dm.WritePage(types.PageID(5), data)
	dm.ReadPage(types.PageID(5), buffer)
	assert.Equal(t, data, buffer)

	assert.Equal(t, uint64(2), dm.GetNumWrites())
}

func TestVirtualReadWritePage(t *testing.T) {
	dm := NewVirtualDiskManagerImpl("virtual_test.db")
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)

	copy(data, "A test string.")

	dm.WritePage(types.PageID(3), data)
	dm.ReadPage(types.PageID(3), buffer)
	assert.Equal(t, data, buffer)

	// pages that were never written read back as zeroes
	memset(data, 0)
	dm.ReadPage(types.PageID(1), buffer)
	assert.Equal(t, data, buffer)

	assert.Equal(t, int64(4*common.PageSize), dm.Size())
}

func TestCachedDiskManager(t *testing.T) {
	base := NewVirtualDiskManagerImpl("cached_test.db")
	dm, err := NewCachedDiskManager(base, 64*common.PageSize)
	assert.NoError(t, err)
	defer dm.ShutDown()

	data := make([]byte, common.PageSize)
	buffer := make([]byte, common.PageSize)
	copy(data, "cache me if you can")

	// Scenario: a write populates the cache and the backing file.
	assert.NoError(t, dm.WritePage(types.PageID(7), data))
	dm.Wait()

	// Scenario: reads are correct whether they hit the cache or fall through.
	assert.NoError(t, dm.ReadPage(types.PageID(7), buffer))
	assert.Equal(t, data, buffer)

	memset(buffer, 0)
	assert.NoError(t, dm.ReadPage(types.PageID(7), buffer))
	assert.Equal(t, data, buffer)

	// Scenario: the caller's buffer is a copy, mutating it does not poison
	// the cache.
	buffer[0] = 'X'
	reread := make([]byte, common.PageSize)
	assert.NoError(t, dm.ReadPage(types.PageID(7), reread))
	assert.Equal(t, data, reread)
}

func memset(buffer []byte, value byte) {
	for i := range buffer {
		buffer[i] = value
	}
}
