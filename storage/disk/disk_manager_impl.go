// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package disk

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/umigamedb/UmigameDB/common"
	"github.com/umigamedb/UmigameDB/types"
)

// DiskManagerImpl is the file-backed implementation of DiskManager
type DiskManagerImpl struct {
	db       *os.File
	fileName string
	numWrites uint64
	size      int64
}

// NewDiskManagerImpl returns a DiskManager instance backed by dbFilename
func NewDiskManagerImpl(dbFilename string) (DiskManager, error) {
	file, err := os.OpenFile(dbFilename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open db file %s", dbFilename)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "file info error")
	}

	return &DiskManagerImpl{file, dbFilename, 0, fileInfo.Size()}, nil
}

// ShutDown closes the database file
func (d *DiskManagerImpl) ShutDown() {
	d.db.Close()
}

// WritePage writes a page to the database file
func (d *DiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	offset := int64(pageId) * common.PageSize
	d.db.Seek(offset, io.SeekStart)
	bytesWritten, err := d.db.Write(pageData)
	if err != nil {
		return errors.Wrapf(err, "I/O error while writing page %d", pageId)
	}

	if bytesWritten != common.PageSize {
		return errors.Errorf("bytes written not equal to page size: %d", bytesWritten)
	}

	if offset >= d.size {
		d.size = offset + int64(bytesWritten)
	}

	d.numWrites++
	d.db.Sync()
	return nil
}

// ReadPage reads a page from the database file
func (d *DiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	offset := int64(pageID) * common.PageSize

	fileInfo, err := d.db.Stat()
	if err != nil {
		return errors.Wrap(err, "file info error")
	}

	if offset > fileInfo.Size() {
		return errors.Errorf("I/O error past end of file at page %d", pageID)
	}

	d.db.Seek(offset, io.SeekStart)

	bytesRead, err := d.db.Read(pageData)
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "I/O error while reading page %d", pageID)
	}

	// a short read means the page was never written; hand back zeroes
	if bytesRead < common.PageSize {
		for i := bytesRead; i < common.PageSize; i++ {
			pageData[i] = 0
		}
	}
	return nil
}

// GetNumWrites returns the number of disk writes
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites
}

// Size returns the size of the file in disk
func (d *DiskManagerImpl) Size() int64 {
	return d.size
}

// RemoveDBFile removes the database file. It can be called only after ShutDown.
func (d *DiskManagerImpl) RemoveDBFile() {
	os.Remove(d.fileName)
}
