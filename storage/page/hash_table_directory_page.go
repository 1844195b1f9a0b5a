// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/types"
)

// DirectoryArraySize is the number of directory slots a directory page can
// hold. MaxDepth bounds the global depth so that 1<<MaxDepth never exceeds it.
const DirectoryArraySize = 512
const MaxDepth = 9

/**
 * Directory page format (4096 bytes in total):
 * ---------------------------------------------------------------------------------------------
 * | PageId (4) | LSN (4) | GlobalDepth (4) | LocalDepths (512) | BucketPageIds (512 * 4) | Free
 * ---------------------------------------------------------------------------------------------
 *
 * A bucket page id of 0 marks a slot that has never been assigned.
 */
type HashTableDirectoryPage struct {
	pageId        types.PageID
	lsn           int32
	globalDepth   uint32
	localDepths   [DirectoryArraySize]uint8
	bucketPageIds [DirectoryArraySize]types.PageID
}

func (page *HashTableDirectoryPage) GetPageId() types.PageID {
	return page.pageId
}

func (page *HashTableDirectoryPage) SetPageId(pageId types.PageID) {
	page.pageId = pageId
}

func (page *HashTableDirectoryPage) GetLSN() int32 {
	return page.lsn
}

func (page *HashTableDirectoryPage) SetLSN(lsn int32) {
	page.lsn = lsn
}

func (page *HashTableDirectoryPage) GetGlobalDepth() uint32 {
	return page.globalDepth
}

// GetGlobalDepthMask returns a mask of globalDepth 1's and the rest 0's
func (page *HashTableDirectoryPage) GetGlobalDepthMask() uint32 {
	return (1 << page.globalDepth) - 1
}

func (page *HashTableDirectoryPage) IncrGlobalDepth() {
	common.UG_Assert(page.globalDepth < MaxDepth, "directory cannot grow beyond the max global depth")
	page.globalDepth++
}

func (page *HashTableDirectoryPage) DecrGlobalDepth() {
	common.UG_Assert(page.globalDepth > 0, "directory cannot shrink below global depth zero")
	page.globalDepth--
}

// Size returns the number of directory slots in use, which is 2^globalDepth
func (page *HashTableDirectoryPage) Size() uint32 {
	return 1 << page.globalDepth
}

func (page *HashTableDirectoryPage) GetBucketPageId(index uint32) types.PageID {
	return page.bucketPageIds[index]
}

func (page *HashTableDirectoryPage) SetBucketPageId(index uint32, pageId types.PageID) {
	page.bucketPageIds[index] = pageId
}

func (page *HashTableDirectoryPage) GetLocalDepth(index uint32) uint32 {
	return uint32(page.localDepths[index])
}

func (page *HashTableDirectoryPage) SetLocalDepth(index uint32, depth uint8) {
	page.localDepths[index] = depth
}

// GetLocalDepthMask returns a mask of localDepth 1's and the rest 0's for the
// bucket at index
func (page *HashTableDirectoryPage) GetLocalDepthMask(index uint32) uint32 {
	return (1 << uint32(page.localDepths[index])) - 1
}

// VerifyIntegrity checks the depth accounting of the directory:
//   - every slot within Size() points at an assigned bucket page
//   - all slots sharing a bucket page agree on its local depth
//   - a bucket page with local depth ld is referenced by exactly
//     2^(globalDepth-ld) slots
//   - local depth never exceeds global depth
func (page *HashTableDirectoryPage) VerifyIntegrity() {
	visited := mapset.NewSet[types.PageID]()
	depths := make(map[types.PageID]uint32)
	refCounts := make(map[types.PageID]uint32)

	for i := uint32(0); i < page.Size(); i++ {
		pageId := page.GetBucketPageId(i)
		common.UG_Assert(pageId != 0, "directory slot has no bucket page assigned")

		localDepth := page.GetLocalDepth(i)
		common.UG_Assert(localDepth <= page.globalDepth, "local depth exceeds global depth")

		if visited.Contains(pageId) {
			common.UG_Assert(depths[pageId] == localDepth, "slots sharing a bucket page disagree on local depth")
		} else {
			visited.Add(pageId)
			depths[pageId] = localDepth
		}
		refCounts[pageId]++
	}

	for _, pageId := range visited.ToSlice() {
		expected := uint32(1) << (page.globalDepth - depths[pageId])
		common.UG_Assert(refCounts[pageId] == expected, "bucket page reference count does not match its local depth")
	}
}

// PrintDirectory dumps the directory state through the logger
func (page *HashTableDirectoryPage) PrintDirectory() {
	common.ShPrintf(common.DEBUG_INFO, "======== DIRECTORY (global_depth: %d) ========\n", page.globalDepth)
	common.ShPrintf(common.DEBUG_INFO, "| bucket_idx | page_id | local_depth |\n")
	for i := uint32(0); i < page.Size(); i++ {
		common.ShPrintf(common.DEBUG_INFO, "| %d | %d | %d |\n", i, page.bucketPageIds[i], page.localDepths[i])
	}
	common.ShPrintf(common.DEBUG_INFO, "================ END DIRECTORY ================\n")
}
