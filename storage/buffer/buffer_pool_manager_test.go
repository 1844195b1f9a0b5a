package buffer

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/storage/disk"
	"github.com/umigamedb/UmigameDB/types"
)

func TestBinaryData(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0 := bpm.NewPage()

	// Scenario: The buffer pool is empty. We should be able to create a new page.
	assert.Equal(t, types.PageID(0), page0.GetPageId())

	// Generate random binary data
	randomBinaryData := make([]byte, common.PageSize)
	rand.Read(randomBinaryData)

	// Insert terminal characters both in the middle and at end
	randomBinaryData[common.PageSize/2] = 0
	randomBinaryData[common.PageSize-1] = 0

	var fixedRandomBinaryData [common.PageSize]byte
	copy(fixedRandomBinaryData[:], randomBinaryData[:common.PageSize])

	// Scenario: Once we have a page, we should be able to read and write content.
	page0.Copy(0, randomBinaryData)
	assert.Equal(t, fixedRandomBinaryData, *page0.Data())

	// Scenario: We should be able to create new pages until we fill up the buffer pool.
	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		assert.Equal(t, types.PageID(i), p.GetPageId())
	}

	// Scenario: Once the buffer pool is full, we should not be able to create any new pages.
	for i := poolSize; i < poolSize*2; i++ {
		assert.Nil(t, bpm.NewPage())
	}

	// Scenario: After unpinning pages {0, 1, 2, 3, 4} and pinning another 4 new pages,
	// there would still be one cache frame left for reading page 0.
	for i := 0; i < 5; i++ {
		assert.True(t, bpm.UnpinPage(types.PageID(i), true))
		bpm.FlushPage(types.PageID(i))
	}
	for i := 0; i < 4; i++ {
		p := bpm.NewPage()
		assert.NotNil(t, p)
		bpm.UnpinPage(p.GetPageId(), false)
	}

	// Scenario: We should be able to fetch the data we wrote a while ago.
	page0 = bpm.FetchPage(types.PageID(0))
	assert.Equal(t, fixedRandomBinaryData, *page0.Data())
	assert.True(t, bpm.UnpinPage(types.PageID(0), true))
}

func TestSample(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	page0 := bpm.NewPage()

	// Scenario: The buffer pool is empty. We should be able to create a new page.
	assert.Equal(t, types.PageID(0), page0.GetPageId())

	// Scenario: Once we have a page, we should be able to read and write content.
	page0.Copy(0, []byte("Hello"))
	assert.Equal(t, [common.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

	// Scenario: We should be able to create new pages until we fill up the buffer pool.
	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		assert.Equal(t, types.PageID(i), p.GetPageId())
	}

	// Scenario: Once the buffer pool is full, we should not be able to create any new pages.
	for i := poolSize; i < poolSize*2; i++ {
		assert.Nil(t, bpm.NewPage())
	}

	// Scenario: Unpinning one page frees exactly one frame for the next allocation.
	assert.True(t, bpm.UnpinPage(types.PageID(4), false))
	p := bpm.NewPage()
	assert.NotNil(t, p)
	assert.Equal(t, types.PageID(10), p.GetPageId())
	assert.Nil(t, bpm.NewPage())
}

func TestVictimPolicy(t *testing.T) {
	poolSize := uint32(3)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	// Scenario: fill the pool with pages A, B, C.
	pageA := bpm.NewPage()
	pageB := bpm.NewPage()
	pageC := bpm.NewPage()
	assert.NotNil(t, pageC)

	// Scenario: unpin A then B. A became evictable first.
	assert.True(t, bpm.UnpinPage(pageA.GetPageId(), false))
	assert.True(t, bpm.UnpinPage(pageB.GetPageId(), false))

	// Scenario: the next allocation evicts A, so B is still resident and
	// fetching it returns the very same frame.
	pageD := bpm.NewPage()
	assert.NotNil(t, pageD)

	fetchedB := bpm.FetchPage(pageB.GetPageId())
	assert.NotNil(t, fetchedB)
	assert.Equal(t, pageB.GetPageId(), fetchedB.GetPageId())
	assert.Same(t, pageB, fetchedB)

	// A and B cannot both be resident anymore: A was the victim.
	_, aResident := bpm.pageTable[pageA.GetPageId()]
	assert.False(t, aResident)
	assert.True(t, bpm.UnpinPage(fetchedB.GetPageId(), false))
}

func TestWriteBackOnEviction(t *testing.T) {
	poolSize := uint32(1)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	// Scenario: write into the only frame and unpin it dirty.
	pageP := bpm.NewPage()
	assert.NotNil(t, pageP)
	pidP := pageP.GetPageId()
	pageP.Copy(0, []byte("persist me"))
	assert.True(t, bpm.UnpinPage(pidP, true))

	// Scenario: allocating another page reuses the frame and writes P back.
	pageQ := bpm.NewPage()
	assert.NotNil(t, pageQ)
	assert.True(t, bpm.UnpinPage(pageQ.GetPageId(), false))

	// Scenario: fetching P reads the written bytes from disk.
	pageP = bpm.FetchPage(pidP)
	assert.NotNil(t, pageP)
	assert.Equal(t, []byte("persist me"), pageP.Data()[:10])
	assert.True(t, bpm.UnpinPage(pidP, false))
}

func TestDeletePage(t *testing.T) {
	poolSize := uint32(3)

	dm := disk.NewVirtualDiskManagerImpl("delete_test.db")
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	pageA := bpm.NewPage()
	pidA := pageA.GetPageId()

	// Scenario: deleting a pinned page fails and leaves the frame untouched.
	assert.False(t, bpm.DeletePage(pidA))
	assert.Equal(t, int32(1), pageA.PinCount())

	// Scenario: deleting an unpinned page returns the frame to the free list.
	assert.True(t, bpm.UnpinPage(pidA, true))
	assert.True(t, bpm.DeletePage(pidA))

	// Scenario: deleting a page that is not resident succeeds.
	assert.True(t, bpm.DeletePage(types.PageID(100)))

	// Scenario: the freed frame is usable again.
	pageB := bpm.NewPage()
	assert.NotNil(t, pageB)
}

func TestUnpinContractViolations(t *testing.T) {
	poolSize := uint32(2)

	dm := disk.NewVirtualDiskManagerImpl("unpin_test.db")
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	pg := bpm.NewPage()
	pid := pg.GetPageId()

	// Scenario: unpinning a page that is not resident fails.
	assert.False(t, bpm.UnpinPage(types.PageID(99), false))

	// Scenario: unpinning below zero fails.
	assert.True(t, bpm.UnpinPage(pid, false))
	assert.False(t, bpm.UnpinPage(pid, false))

	// Scenario: flushing a page that is not resident fails.
	assert.False(t, bpm.FlushPage(types.PageID(99)))
}

func TestFlushClearsDirtyBit(t *testing.T) {
	poolSize := uint32(2)

	dm := disk.NewVirtualDiskManagerImpl("flush_test.db")
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	pg := bpm.NewPage()
	pid := pg.GetPageId()
	pg.Copy(0, []byte("dirty"))
	assert.True(t, bpm.UnpinPage(pid, true))

	writesBefore := dm.GetNumWrites()
	assert.True(t, bpm.FlushPage(pid))
	assert.Equal(t, writesBefore+1, dm.GetNumWrites())

	// a second flush is a no-op since the frame is clean now
	assert.True(t, bpm.FlushPage(pid))
	assert.Equal(t, writesBefore+1, dm.GetNumWrites())
}

func TestFreeListInvariant(t *testing.T) {
	poolSize := uint32(4)

	dm := disk.NewVirtualDiskManagerImpl("freelist_test.db")
	defer dm.ShutDown()
	bpm := NewBufferPoolManager(poolSize, dm)

	// Scenario: all frames start free, none hold a page.
	for _, pg := range bpm.pages {
		assert.Nil(t, pg)
	}
	assert.Equal(t, int(poolSize), bpm.freeList.Len())

	// Scenario: a frame is either free, in use, or evictable.
	p1 := bpm.NewPage()
	p2 := bpm.NewPage()
	assert.True(t, bpm.UnpinPage(p2.GetPageId(), false))

	assert.Equal(t, int(poolSize-2), bpm.freeList.Len())
	assert.Equal(t, uint32(1), bpm.replacer.Size())
	assert.Equal(t, int32(1), p1.PinCount())
}
