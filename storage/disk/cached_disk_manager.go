package disk

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/types"
)

// CachedDiskManager decorates a DiskManager with a read-through page cache.
// Writes go straight to the underlying manager, so durability guarantees are
// unchanged; the cache only short-circuits repeated reads of hot pages.
type CachedDiskManager struct {
	DiskManager
	cache *ristretto.Cache[uint64, []byte]
}

// NewCachedDiskManager wraps base with a cache bounded by capacityBytes
func NewCachedDiskManager(base DiskManager, capacityBytes int64) (*CachedDiskManager, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: 10 * capacityBytes / common.PageSize,
		MaxCost:     capacityBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't build page cache")
	}

	return &CachedDiskManager{base, cache}, nil
}

// ReadPage serves the page from cache when possible and falls back to the
// underlying manager on a miss
func (d *CachedDiskManager) ReadPage(pageID types.PageID, pageData []byte) error {
	if cached, ok := d.cache.Get(uint64(pageID)); ok {
		copy(pageData, cached)
		return nil
	}

	if err := d.DiskManager.ReadPage(pageID, pageData); err != nil {
		return err
	}

	d.cacheCopy(pageID, pageData)
	return nil
}

// WritePage writes through and refreshes the cached copy
func (d *CachedDiskManager) WritePage(pageID types.PageID, pageData []byte) error {
	if err := d.DiskManager.WritePage(pageID, pageData); err != nil {
		d.cache.Del(uint64(pageID))
		return err
	}

	d.cacheCopy(pageID, pageData)
	return nil
}

// ShutDown releases the cache and the underlying manager
func (d *CachedDiskManager) ShutDown() {
	d.cache.Close()
	d.DiskManager.ShutDown()
}

// Wait blocks until pending cache admissions are applied
func (d *CachedDiskManager) Wait() {
	d.cache.Wait()
}

func (d *CachedDiskManager) cacheCopy(pageID types.PageID, pageData []byte) {
	buf := make([]byte, common.PageSize)
	copy(buf, pageData)
	d.cache.Set(uint64(pageID), buf, common.PageSize)
}
