package disk

import (
	"github.com/dsnet/golib/memfile"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/types"
)

// VirtualDiskManagerImpl keeps the database file on memory. It is a drop-in
// replacement of DiskManagerImpl for tests and ephemeral instances.
type VirtualDiskManagerImpl struct {
	db          *memfile.File
	fileName    string
	numWrites   uint64
	size        int64
	dbFileMutex deadlock.Mutex
}

func NewVirtualDiskManagerImpl(dbFilename string) DiskManager {
	file := memfile.New(make([]byte, 0))
	return &VirtualDiskManagerImpl{db: file, fileName: dbFilename}
}

// ShutDown does nothing. There is no file to close.
func (d *VirtualDiskManagerImpl) ShutDown() {
}

// WritePage writes a page to the memory-backed file
func (d *VirtualDiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(pageId) * common.PageSize
	d.db.WriteAt(pageData, offset)

	if offset >= d.size {
		d.size = offset + int64(len(pageData))
	}

	d.numWrites++
	return nil
}

// ReadPage reads a page from the memory-backed file
func (d *VirtualDiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(pageID) * common.PageSize
	if offset > d.size {
		return errors.Errorf("I/O error past end of file at page %d", pageID)
	}

	bytesRead, _ := d.db.ReadAt(pageData, offset)
	if bytesRead < common.PageSize {
		for i := bytesRead; i < common.PageSize; i++ {
			pageData[i] = 0
		}
	}
	return nil
}

// GetNumWrites returns the number of page writes
func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.numWrites
}

// Size returns the size of the in-memory file
func (d *VirtualDiskManagerImpl) Size() int64 {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.size
}
