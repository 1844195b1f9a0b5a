package disk

import (
	"github.com/umigamedb/UmigameDB/types"
)

// DiskManager is responsible for interacting with disk. Page ids are minted
// by the buffer pool; the disk manager only moves fixed-size pages.
type DiskManager interface {
	ReadPage(types.PageID, []byte) error
	WritePage(types.PageID, []byte) error
	GetNumWrites() uint64
	ShutDown()
	Size() int64
}
