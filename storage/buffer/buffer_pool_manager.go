// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"github.com/golang-collections/collections/stack"
	"github.com/ncw/directio"
	"github.com/sasha-s/go-deadlock"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/storage/disk"
	"github.com/umigamedb/UmigameDB/storage/page"
	"github.com/umigamedb/UmigameDB/types"
)

// BufferPoolManager is the capability surface shared by a single instance and
// the parallel pool
type BufferPoolManager interface {
	NewPage() *page.Page
	FetchPage(pageID types.PageID) *page.Page
	UnpinPage(pageID types.PageID, isDirty bool) bool
	FlushPage(pageID types.PageID) bool
	FlushAllPages()
	DeletePage(pageID types.PageID) bool
	GetPoolSize() uint32
}

// BufferPoolManagerInstance maps page ids to a bounded pool of in-memory
// frames and mediates all disk I/O. A nil entry of pages marks a free frame.
type BufferPoolManagerInstance struct {
	diskManager   disk.DiskManager
	pages         []*page.Page // index is FrameID
	replacer      Replacer
	freeList      *stack.Stack // LIFO of FrameID
	pageTable     map[types.PageID]FrameID
	poolSize      uint32
	numInstances  uint32
	instanceIndex uint32
	nextPageID    types.PageID
	mutex         deadlock.Mutex
}

// NewBufferPoolManagerInstance returns an empty pool that allocates page ids
// congruent to instanceIndex modulo numInstances
func NewBufferPoolManagerInstance(poolSize uint32, numInstances uint32, instanceIndex uint32, diskManager disk.DiskManager) *BufferPoolManagerInstance {
	common.UG_Assert(numInstances > 0, "a pool must consist of at least one instance")
	common.UG_Assert(instanceIndex < numInstances, "instance index must be smaller than the number of instances")

	freeList := stack.New()
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList.Push(FrameID(i))
	}

	return &BufferPoolManagerInstance{
		diskManager:   diskManager,
		pages:         pages,
		replacer:      NewLRUReplacer(poolSize),
		freeList:      freeList,
		pageTable:     make(map[types.PageID]FrameID),
		poolSize:      poolSize,
		numInstances:  numInstances,
		instanceIndex: instanceIndex,
		nextPageID:    types.PageID(instanceIndex),
	}
}

// NewBufferPoolManager returns a standalone pool, i.e. a one-instance pool
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManagerInstance {
	return NewBufferPoolManagerInstance(poolSize, 1, 0, diskManager)
}

// NewPage allocates a fresh page id and pins a zeroed frame for it. It
// returns nil when every frame is pinned.
func (b *BufferPoolManagerInstance) NewPage() *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	// short-circuit before burning a page id
	if b.allFramesPinned() {
		common.ShPrintf(common.DEBUG_INFO, "BPM::NewPage all frames are pinned on instance %d\n", b.instanceIndex)
		return nil
	}

	frameID, isFromFreeList := b.getFrameID()
	if frameID == nil {
		return nil
	}

	if !isFromFreeList {
		b.writeBackVictim(*frameID)
	}

	pageID := b.allocatePage()
	pg := page.NewEmpty(pageID)

	b.pageTable[pageID] = *frameID
	b.pages[*frameID] = pg

	return pg
}

// FetchPage fetches the requested page from the buffer pool, reading it from
// disk when it is not resident. It returns nil when no frame can be freed.
func (b *BufferPoolManagerInstance) FetchPage(pageID types.PageID) *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	// if it is on buffer pool return it
	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		return pg
	}

	frameID, isFromFreeList := b.getFrameID()
	if frameID == nil {
		common.ShPrintf(common.WARN, "BPM::FetchPage cannot fetch page %d, the buffer pool is full\n", pageID)
		return nil
	}

	if !isFromFreeList {
		b.writeBackVictim(*frameID)
	}

	data := directio.AlignedBlock(common.PageSize)
	if err := b.diskManager.ReadPage(pageID, data); err != nil {
		common.ShPrintf(common.ERROR, "BPM::FetchPage read of page %d failed: %v\n", pageID, err)
		b.freeList.Push(*frameID)
		return nil
	}

	pg := page.New(pageID, false, (*[common.PageSize]byte)(data))
	b.pageTable[pageID] = *frameID
	b.pages[*frameID] = pg

	return pg
}

// UnpinPage unpins the target page from the buffer pool. The dirty flag is
// ORed in, never cleared.
func (b *BufferPoolManagerInstance) UnpinPage(pageID types.PageID, isDirty bool) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		common.ShPrintf(common.WARN, "BPM::UnpinPage page %d is not in the buffer pool\n", pageID)
		return false
	}

	pg := b.pages[frameID]
	if pg.PinCount() <= 0 {
		common.ShPrintf(common.WARN, "BPM::UnpinPage page %d has pin count zero\n", pageID)
		return false
	}

	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}

	if pg.PinCount() == 0 {
		b.replacer.Unpin(frameID)
	}

	return true
}

// FlushPage flushes the target page to disk and clears its dirty bit. Unlike
// the lineage this implementation does clear the bit, so a clean frame is not
// rewritten on eviction.
func (b *BufferPoolManagerInstance) FlushPage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.flushPage(pageID)
}

func (b *BufferPoolManagerInstance) flushPage(pageID types.PageID) bool {
	frameID, ok := b.pageTable[pageID]
	if !ok {
		common.ShPrintf(common.WARN, "BPM::FlushPage page %d is not in the buffer pool\n", pageID)
		return false
	}

	pg := b.pages[frameID]
	if pg.IsDirty() {
		data := pg.Data()
		err := b.diskManager.WritePage(pageID, data[:])
		common.UG_Assert(err == nil, "BPM::FlushPage write-back failed")
		pg.SetIsDirty(false)
	}

	return true
}

// FlushAllPages writes back every resident dirty page
func (b *BufferPoolManagerInstance) FlushAllPages() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for pageID := range b.pageTable {
		b.flushPage(pageID)
	}
}

// DeletePage drops the page from the pool and returns its frame to the free
// list. Deleting a page that is not resident succeeds; deleting a pinned page
// fails.
func (b *BufferPoolManagerInstance) DeletePage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	// logical deallocation of the page id is a no-op for now
	frameID, ok := b.pageTable[pageID]
	if !ok {
		return true
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		common.ShPrintf(common.DEBUG_INFO, "BPM::DeletePage page %d is pinned, cannot delete\n", pageID)
		return false
	}

	if pg.IsDirty() {
		data := pg.Data()
		err := b.diskManager.WritePage(pageID, data[:])
		common.UG_Assert(err == nil, "BPM::DeletePage write-back failed")
	}

	delete(b.pageTable, pageID)
	b.replacer.Pin(frameID)
	b.pages[frameID] = nil
	b.freeList.Push(frameID)

	return true
}

// GetPoolSize returns the number of frames of the instance
func (b *BufferPoolManagerInstance) GetPoolSize() uint32 {
	return b.poolSize
}

// allocatePage mints the next page id of this instance's residue class
func (b *BufferPoolManagerInstance) allocatePage() types.PageID {
	pageID := b.nextPageID
	b.nextPageID += types.PageID(b.numInstances)
	common.UG_Assert(uint32(pageID)%b.numInstances == b.instanceIndex, "allocated page id falls outside this instance's residue class")
	return pageID
}

func (b *BufferPoolManagerInstance) allFramesPinned() bool {
	for _, pg := range b.pages {
		if pg == nil || pg.PinCount() == 0 {
			return false
		}
	}
	return true
}

// getFrameID takes a frame from the free list first, the replacer second
func (b *BufferPoolManagerInstance) getFrameID() (*FrameID, bool) {
	if b.freeList.Len() > 0 {
		frameID := b.freeList.Pop().(FrameID)
		return &frameID, true
	}

	return b.replacer.Victim(), false
}

// writeBackVictim evicts the page currently held by the frame, flushing it
// when dirty
func (b *BufferPoolManagerInstance) writeBackVictim(frameID FrameID) {
	currentPage := b.pages[frameID]
	if currentPage == nil {
		return
	}

	if currentPage.IsDirty() {
		data := currentPage.Data()
		err := b.diskManager.WritePage(currentPage.GetPageId(), data[:])
		common.UG_Assert(err == nil, "BPM eviction write-back failed")
	}

	delete(b.pageTable, currentPage.GetPageId())
	b.pages[frameID] = nil
}
