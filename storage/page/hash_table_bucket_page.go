// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package page

import (
	"math/bits"

	pair "github.com/notEpsilon/go-pair"

	"github.com/umigamedb/UmigameDB/common"
)

// HashTablePair is one slot of a bucket page. Keys are 32-bit hashes of the
// indexed key, values are opaque 32-bit slot references.
type HashTablePair struct {
	key   uint32
	value uint32
}

const sizeOfHashTablePair = 8
const BucketArraySize = 4 * common.PageSize / (4*sizeOfHashTablePair + 1)
const occupiedArraySize = (BucketArraySize-1)/8 + 1

/**
 * Bucket page format:
 *  ----------------------------------------------------------------------------
 * | OCCUPIED(62) | READABLE(62) | KEY(1)+VALUE(1) | ... | KEY(496)+VALUE(496) |
 *  ----------------------------------------------------------------------------
 *
 * Insert sets both the occupied and the readable bit of a slot; Remove and
 * RemoveAllElements clear both again, so no tombstones are left behind.
 */
type HashTableBucketPage struct {
	occupied [occupiedArraySize]byte
	readable [occupiedArraySize]byte
	array    [BucketArraySize]HashTablePair
}

// KeyAt returns the key at index if the slot is live
func (page *HashTableBucketPage) KeyAt(index uint32) uint32 {
	if !page.IsReadable(index) {
		return 0
	}
	return page.array[index].key
}

// ValueAt returns the value at index if the slot is live
func (page *HashTableBucketPage) ValueAt(index uint32) uint32 {
	if !page.IsReadable(index) {
		return 0
	}
	return page.array[index].value
}

// Insert puts the pair into the first never-occupied slot. It rejects the
// insert when the bucket is full or the exact pair is already present.
func (page *HashTableBucketPage) Insert(key uint32, value uint32) bool {
	if page.IsFull() || page.KeyValueExists(key, value) {
		common.ShPrintf(common.DEBUG_INFO, "bucket insert rejected: full or duplicate (key %d value %d)\n", key, value)
		return false
	}

	for i := uint32(0); i < BucketArraySize; i++ {
		if !page.IsOccupied(i) {
			page.array[i] = HashTablePair{key, value}
			page.SetOccupied(i)
			page.SetReadable(i)
			return true
		}
	}

	common.ShPrintf(common.ERROR, "bucket reported free capacity but no unoccupied slot was found\n")
	return false
}

// Remove clears both the occupied and readable bits of the matching slot
func (page *HashTableBucketPage) Remove(key uint32, value uint32) bool {
	if page.IsEmpty() || !page.KeyExists(key) {
		return false
	}

	for i := uint32(0); i < BucketArraySize; i++ {
		if page.IsOccupied(i) && page.IsReadable(i) &&
			page.array[i].key == key && page.array[i].value == value {
			mask := byte(^(1 << (i % 8)))
			page.readable[i/8] &= mask
			page.occupied[i/8] &= mask
			return true
		}
	}

	return false
}

// GetValue collects every value stored under key
func (page *HashTableBucketPage) GetValue(key uint32) []uint32 {
	result := []uint32{}
	for i := uint32(0); i < BucketArraySize; i++ {
		if page.IsReadable(i) && page.array[i].key == key {
			result = append(result, page.array[i].value)
		}
	}
	return result
}

// KeyExists reports whether any live slot holds key
func (page *HashTableBucketPage) KeyExists(key uint32) bool {
	for i := uint32(0); i < BucketArraySize; i++ {
		if page.IsReadable(i) && page.array[i].key == key {
			return true
		}
	}
	return false
}

// KeyValueExists reports whether the exact pair is present
func (page *HashTableBucketPage) KeyValueExists(key uint32, value uint32) bool {
	for i := uint32(0); i < BucketArraySize; i++ {
		if page.IsReadable(i) && page.array[i].key == key && page.array[i].value == value {
			return true
		}
	}
	return false
}

// IsOccupied returns whether the occupied bit of the slot at index is set
func (page *HashTableBucketPage) IsOccupied(index uint32) bool {
	return (page.occupied[index/8] & (1 << (index % 8))) != 0
}

func (page *HashTableBucketPage) SetOccupied(index uint32) {
	page.occupied[index/8] |= 1 << (index % 8)
}

// IsReadable returns whether the slot at index holds a live entry
func (page *HashTableBucketPage) IsReadable(index uint32) bool {
	return (page.readable[index/8] & (1 << (index % 8))) != 0
}

func (page *HashTableBucketPage) SetReadable(index uint32) {
	page.readable[index/8] |= 1 << (index % 8)
}

// IsFull reports whether every slot is occupied
func (page *HashTableBucketPage) IsFull() bool {
	for i := uint32(0); i < BucketArraySize; i++ {
		if !page.IsOccupied(i) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no slot is occupied
func (page *HashTableBucketPage) IsEmpty() bool {
	for i := 0; i < occupiedArraySize; i++ {
		if page.occupied[i] != 0x00 {
			return false
		}
	}
	return true
}

// NumReadable counts the live entries of the bucket
func (page *HashTableBucketPage) NumReadable() uint32 {
	res := uint32(0)
	for i := 0; i < occupiedArraySize; i++ {
		res += uint32(bits.OnesCount8(page.readable[i]))
	}
	return res
}

// GetAllElements enumerates the live entries in slot order
func (page *HashTableBucketPage) GetAllElements() []pair.Pair[uint32, uint32] {
	res := []pair.Pair[uint32, uint32]{}
	for i := uint32(0); i < BucketArraySize; i++ {
		if page.IsReadable(i) {
			res = append(res, pair.Pair[uint32, uint32]{First: page.array[i].key, Second: page.array[i].value})
		}
	}
	return res
}

// RemoveAllElements zeroes both bitmaps
func (page *HashTableBucketPage) RemoveAllElements() {
	for i := 0; i < occupiedArraySize; i++ {
		page.occupied[i] = 0
		page.readable[i] = 0
	}
}

// PrintBucket dumps an occupancy summary through the logger
func (page *HashTableBucketPage) PrintBucket() {
	size := uint32(0)
	taken := uint32(0)
	free := uint32(0)
	for i := uint32(0); i < BucketArraySize; i++ {
		if !page.IsOccupied(i) {
			continue
		}
		size++
		if page.IsReadable(i) {
			taken++
		} else {
			free++
		}
	}
	common.ShPrintf(common.DEBUG_INFO, "bucket capacity: %d, size: %d, taken: %d, free: %d\n", BucketArraySize, size, taken, free)
}
