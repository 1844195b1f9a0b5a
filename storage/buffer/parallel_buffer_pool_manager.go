package buffer

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/storage/disk"
	"github.com/umigamedb/UmigameDB/storage/page"
	"github.com/umigamedb/UmigameDB/types"
)

// ParallelBufferPoolManager partitions page ids across independent buffer
// pool instances. Page-addressed operations route to instance
// pageID mod numInstances; allocations walk the instances round-robin.
type ParallelBufferPoolManager struct {
	instances              []*BufferPoolManagerInstance
	numInstances           uint32
	poolSize               uint32
	candidateInstanceIndex uint32
	// serializes NewPage dispatch; per-instance mutual exclusion lives
	// inside each instance
	allocMutex deadlock.Mutex
}

// NewParallelBufferPoolManager builds numInstances instances of poolSize
// frames each over a shared disk manager
func NewParallelBufferPoolManager(numInstances uint32, poolSize uint32, diskManager disk.DiskManager) *ParallelBufferPoolManager {
	common.UG_Assert(numInstances > 0, "a parallel pool must consist of at least one instance")

	instances := make([]*BufferPoolManagerInstance, numInstances)
	for i := uint32(0); i < numInstances; i++ {
		instances[i] = NewBufferPoolManagerInstance(poolSize, numInstances, i, diskManager)
	}

	return &ParallelBufferPoolManager{
		instances:    instances,
		numInstances: numInstances,
		poolSize:     poolSize,
	}
}

// getInstance returns the instance responsible for the page id
func (p *ParallelBufferPoolManager) getInstance(pageID types.PageID) *BufferPoolManagerInstance {
	return p.instances[uint32(pageID)%p.numInstances]
}

// NewPage walks the instances starting at the round-robin cursor and returns
// the first successful allocation. It returns nil only when every instance
// refused.
func (p *ParallelBufferPoolManager) NewPage() *page.Page {
	p.allocMutex.Lock()
	defer p.allocMutex.Unlock()

	for i := uint32(0); i < p.numInstances; i++ {
		candidateIndex := (p.candidateInstanceIndex + i) % p.numInstances
		pg := p.instances[candidateIndex].NewPage()
		if pg == nil {
			common.ShPrintf(common.DEBUG_INFO, "PBPM::NewPage allocation from instance %d failed, trying the next one\n", candidateIndex)
			continue
		}

		// successive allocations start at a fresh instance to spread load
		p.candidateInstanceIndex = (candidateIndex + 1) % p.numInstances
		return pg
	}

	return nil
}

// FetchPage fetches the page from its owning instance
func (p *ParallelBufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	return p.getInstance(pageID).FetchPage(pageID)
}

// UnpinPage unpins the page on its owning instance
func (p *ParallelBufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) bool {
	return p.getInstance(pageID).UnpinPage(pageID, isDirty)
}

// FlushPage flushes the page on its owning instance
func (p *ParallelBufferPoolManager) FlushPage(pageID types.PageID) bool {
	return p.getInstance(pageID).FlushPage(pageID)
}

// DeletePage deletes the page on its owning instance
func (p *ParallelBufferPoolManager) DeletePage(pageID types.PageID) bool {
	return p.getInstance(pageID).DeletePage(pageID)
}

// FlushAllPages flushes every instance in turn
func (p *ParallelBufferPoolManager) FlushAllPages() {
	for _, instance := range p.instances {
		instance.FlushAllPages()
	}
}

// GetPoolSize returns the total number of frames across all instances
func (p *ParallelBufferPoolManager) GetPoolSize() uint32 {
	return p.numInstances * p.poolSize
}

var _ BufferPoolManager = (*BufferPoolManagerInstance)(nil)
var _ BufferPoolManager = (*ParallelBufferPoolManager)(nil)
