// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package hash

import (
	"unsafe"

	pair "github.com/notEpsilon/go-pair"
	"github.com/pkg/errors"

	"github.com/umigamedb/UmigameDB/common"
	ugerrors "github.com/umigamedb/UmigameDB/errors"
	"github.com/umigamedb/UmigameDB/storage/buffer"
	"github.com/umigamedb/UmigameDB/storage/page"
	"github.com/umigamedb/UmigameDB/types"
)

/**
 * Implementation of an extendible hash table backed by a buffer pool manager.
 * Non-unique keys are supported. The table grows by splitting the overflowing
 * bucket and doubling the directory.
 *
 * Keys are stored as 32-bit murmur3 hashes of the serialized key; values are
 * opaque 32-bit slot references.
 */
type ExtendibleHashTable struct {
	directoryPageId types.PageID
	bpm             buffer.BufferPoolManager
	tableLatch      common.ReaderWriterLatch
	// signatures maps a bucket page id to the low-order hash bits shared by
	// all keys routed to it. Auxiliary in-memory state, rederivable from the
	// directory.
	signatures map[types.PageID]uint32
}

// NewExtendibleHashTable allocates the directory page and returns an empty
// table. The directory starts at global depth zero with no buckets; the first
// insert triggers the initial split.
func NewExtendibleHashTable(bpm buffer.BufferPoolManager) (*ExtendibleHashTable, error) {
	directory := bpm.NewPage()
	if directory == nil {
		return nil, errors.Wrap(ugerrors.ErrOutOfFrames, "cannot allocate the directory page")
	}

	directoryPage := (*page.HashTableDirectoryPage)(unsafe.Pointer(directory.Data()))
	directoryPage.SetPageId(directory.GetPageId())
	bpm.UnpinPage(directory.GetPageId(), true)

	return &ExtendibleHashTable{
		directoryPageId: directory.GetPageId(),
		bpm:             bpm,
		tableLatch:      common.NewRWLatch(),
		signatures:      make(map[types.PageID]uint32),
	}, nil
}

func (ht *ExtendibleHashTable) hash(key []byte) uint32 {
	return GenHashMurMur(key)
}

// fetchDirectory pins the directory page. The caller must unpin it.
func (ht *ExtendibleHashTable) fetchDirectory() (*page.Page, *page.HashTableDirectoryPage) {
	raw := ht.bpm.FetchPage(ht.directoryPageId)
	common.UG_Assert(raw != nil, "ExtendibleHashTable: directory page cannot be fetched")
	return raw, (*page.HashTableDirectoryPage)(unsafe.Pointer(raw.Data()))
}

// fetchBucket pins a bucket page. The caller must unpin it.
func (ht *ExtendibleHashTable) fetchBucket(pageID types.PageID) (*page.Page, *page.HashTableBucketPage) {
	raw := ht.bpm.FetchPage(pageID)
	common.UG_Assert(raw != nil, "ExtendibleHashTable: bucket page cannot be fetched")
	return raw, (*page.HashTableBucketPage)(unsafe.Pointer(raw.Data()))
}

// GetValue returns every value stored under key
func (ht *ExtendibleHashTable) GetValue(key []byte) []uint32 {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()

	dirRaw, directoryPage := ht.fetchDirectory()
	defer ht.bpm.UnpinPage(dirRaw.GetPageId(), false)

	hash := ht.hash(key)
	bucketPageId := directoryPage.GetBucketPageId(hash & directoryPage.GetGlobalDepthMask())
	if directoryPage.GetGlobalDepth() == 0 || bucketPageId == 0 {
		// no bucket has been assigned yet
		return []uint32{}
	}

	bucketRaw, bucketPage := ht.fetchBucket(bucketPageId)
	bucketRaw.RLatch()
	result := bucketPage.GetValue(hash)
	bucketRaw.RUnlatch()
	ht.bpm.UnpinPage(bucketPageId, false)

	return result
}

// Insert stores the pair, splitting the target bucket when it is full. It
// returns false when the exact pair is already present or growth fails.
func (ht *ExtendibleHashTable) Insert(key []byte, value uint32) bool {
	ht.tableLatch.WLock()
	defer ht.tableLatch.WUnlock()

	dirRaw, directoryPage := ht.fetchDirectory()

	if directoryPage.GetGlobalDepth() == 0 {
		ht.bpm.UnpinPage(dirRaw.GetPageId(), false)
		return ht.splitInsert(key, value)
	}

	hash := ht.hash(key)
	bucketPageId := directoryPage.GetBucketPageId(hash & directoryPage.GetGlobalDepthMask())
	ht.bpm.UnpinPage(dirRaw.GetPageId(), false)

	bucketRaw, bucketPage := ht.fetchBucket(bucketPageId)
	bucketRaw.WLatch()

	if bucketPage.KeyValueExists(hash, value) {
		bucketRaw.WUnlatch()
		ht.bpm.UnpinPage(bucketPageId, false)
		common.ShPrintf(common.DEBUG_INFO, "ExtendibleHashTable::Insert pair already exists\n")
		return false
	}

	if bucketPage.IsFull() {
		bucketRaw.WUnlatch()
		ht.bpm.UnpinPage(bucketPageId, false)
		return ht.splitInsert(key, value)
	}

	inserted := bucketPage.Insert(hash, value)
	bucketRaw.WUnlatch()
	ht.bpm.UnpinPage(bucketPageId, inserted)

	return inserted
}

// splitInsert grows the table and redistributes the overfull bucket together
// with the pending pair. The caller must hold the table write latch.
func (ht *ExtendibleHashTable) splitInsert(key []byte, value uint32) bool {
	dirRaw, directoryPage := ht.fetchDirectory()

	oldBucketPageId := types.InvalidPageID
	if directoryPage.GetGlobalDepth() == 0 {
		// first growth: no entries exist yet, build buckets 0 and 1
		directoryPage.IncrGlobalDepth()
		for i := uint32(0); i < 2; i++ {
			newBucket := ht.bpm.NewPage()
			if newBucket == nil {
				common.ShPrintf(common.ERROR, "ExtendibleHashTable::splitInsert cannot allocate a bucket page\n")
				ht.bpm.UnpinPage(dirRaw.GetPageId(), true)
				return false
			}

			ht.signatures[newBucket.GetPageId()] = i
			directoryPage.SetLocalDepth(i, 1)
			directoryPage.SetBucketPageId(i, newBucket.GetPageId())
			ht.bpm.UnpinPage(newBucket.GetPageId(), true)
		}
	} else {
		hash := ht.hash(key)
		oldBucketIndex := hash & directoryPage.GetGlobalDepthMask()
		oldBucketPageId = directoryPage.GetBucketPageId(oldBucketIndex)
		oldLocalDepth := directoryPage.GetLocalDepth(oldBucketIndex)

		directoryPage.IncrGlobalDepth()

		newBucket := ht.bpm.NewPage()
		if newBucket == nil {
			common.ShPrintf(common.ERROR, "ExtendibleHashTable::splitInsert cannot allocate a bucket page\n")
			ht.bpm.UnpinPage(dirRaw.GetPageId(), true)
			return false
		}
		newBucketPageId := newBucket.GetPageId()
		ht.bpm.UnpinPage(newBucketPageId, true)

		// the split raises the local depth of both halves by one
		for i := uint32(0); i < directoryPage.Size(); i++ {
			if directoryPage.GetBucketPageId(i) == oldBucketPageId {
				directoryPage.SetLocalDepth(i, uint8(oldLocalDepth+1))
			}
		}

		// the new bucket inherits the old signature with the split bit set
		ht.signatures[newBucketPageId] = ht.signatures[oldBucketPageId] | (1 << oldLocalDepth)

		depths := ht.collectLocalDepths(directoryPage)
		depths[newBucketPageId] = oldLocalDepth + 1

		// re-point every directory entry at the bucket whose signature
		// matches its low-order bits
		for i := uint32(0); i < directoryPage.Size(); i++ {
			match := 0
			for pageId, signature := range ht.signatures {
				localDepth := depths[pageId]
				if i&((1<<localDepth)-1) == signature {
					directoryPage.SetBucketPageId(i, pageId)
					directoryPage.SetLocalDepth(i, uint8(localDepth))
					match++
				}
			}
			if match != 1 {
				common.ShPrintf(common.WARN, "ExtendibleHashTable::splitInsert directory entry %d matched %d buckets\n", i, match)
			}
		}
	}

	ht.bpm.UnpinPage(dirRaw.GetPageId(), true)

	// gather the overfull bucket, clear it, and reinsert everything through
	// the updated directory
	pairsToAdd := []pair.Pair[uint32, uint32]{}
	if oldBucketPageId != types.InvalidPageID {
		bucketRaw, bucketPage := ht.fetchBucket(oldBucketPageId)
		bucketRaw.WLatch()
		pairsToAdd = bucketPage.GetAllElements()
		bucketPage.RemoveAllElements()
		bucketRaw.WUnlatch()
		ht.bpm.UnpinPage(oldBucketPageId, true)
	}
	pairsToAdd = append(pairsToAdd, pair.Pair[uint32, uint32]{First: ht.hash(key), Second: value})

	for _, p := range pairsToAdd {
		if !ht.insertHashed(p.First, p.Second) {
			common.ShPrintf(common.ERROR, "ExtendibleHashTable::splitInsert reinsert of key %d failed\n", p.First)
			return false
		}
	}

	return true
}

// insertHashed routes an already-hashed pair through the directory
func (ht *ExtendibleHashTable) insertHashed(hash uint32, value uint32) bool {
	dirRaw, directoryPage := ht.fetchDirectory()
	bucketPageId := directoryPage.GetBucketPageId(hash & directoryPage.GetGlobalDepthMask())
	ht.bpm.UnpinPage(dirRaw.GetPageId(), false)

	bucketRaw, bucketPage := ht.fetchBucket(bucketPageId)
	bucketRaw.WLatch()
	inserted := bucketPage.Insert(hash, value)
	bucketRaw.WUnlatch()
	ht.bpm.UnpinPage(bucketPageId, inserted)

	return inserted
}

// collectLocalDepths scans the directory for the local depth of every
// assigned bucket page
func (ht *ExtendibleHashTable) collectLocalDepths(directoryPage *page.HashTableDirectoryPage) map[types.PageID]uint32 {
	depths := make(map[types.PageID]uint32)
	for i := uint32(0); i < directoryPage.Size(); i++ {
		pageId := directoryPage.GetBucketPageId(i)
		if pageId == 0 {
			continue
		}
		depths[pageId] = directoryPage.GetLocalDepth(i)
	}
	return depths
}

// Remove deletes the pair from its bucket. Shrinking the table back is left
// to Merge.
func (ht *ExtendibleHashTable) Remove(key []byte, value uint32) bool {
	ht.tableLatch.WLock()
	defer ht.tableLatch.WUnlock()

	dirRaw, directoryPage := ht.fetchDirectory()
	defer ht.bpm.UnpinPage(dirRaw.GetPageId(), false)

	hash := ht.hash(key)
	bucketPageId := directoryPage.GetBucketPageId(hash & directoryPage.GetGlobalDepthMask())
	if directoryPage.GetGlobalDepth() == 0 || bucketPageId == 0 {
		return false
	}

	bucketRaw, bucketPage := ht.fetchBucket(bucketPageId)
	bucketRaw.WLatch()
	removed := bucketPage.Remove(hash, value)
	bucketRaw.WUnlatch()
	ht.bpm.UnpinPage(bucketPageId, removed)

	if !removed {
		common.ShPrintf(common.DEBUG_INFO, "ExtendibleHashTable::Remove pair does not exist\n")
	}

	ht.merge(key, value)
	return removed
}

// merge is the structural hook for bucket consolidation after removals.
// Bucket merge and directory shrink are not implemented.
func (ht *ExtendibleHashTable) merge(key []byte, value uint32) {
}

// GetGlobalDepth returns the current global depth of the directory
func (ht *ExtendibleHashTable) GetGlobalDepth() uint32 {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()

	dirRaw, directoryPage := ht.fetchDirectory()
	globalDepth := directoryPage.GetGlobalDepth()
	common.UG_Assert(ht.bpm.UnpinPage(dirRaw.GetPageId(), false), "directory page cannot be unpinned")

	return globalDepth
}

// VerifyIntegrity checks the directory depth accounting and that every entry
// routes to the bucket whose signature matches its low-order bits
func (ht *ExtendibleHashTable) VerifyIntegrity() {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()

	dirRaw, directoryPage := ht.fetchDirectory()
	defer ht.bpm.UnpinPage(dirRaw.GetPageId(), false)

	if directoryPage.GetGlobalDepth() == 0 {
		return
	}

	directoryPage.VerifyIntegrity()

	for i := uint32(0); i < directoryPage.Size(); i++ {
		pageId := directoryPage.GetBucketPageId(i)
		signature, ok := ht.signatures[pageId]
		common.UG_Assert(ok, "directory entry points at a bucket with no recorded signature")
		common.UG_Assert(i&directoryPage.GetLocalDepthMask(i) == signature, "directory entry does not match its bucket's signature")
	}
}
