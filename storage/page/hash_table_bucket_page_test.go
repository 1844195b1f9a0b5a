package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketPageInsertAndLookup(t *testing.T) {
	bucket := &HashTableBucketPage{}

	// Scenario: insert a handful of entries, including two values under one key.
	for i := uint32(0); i < 10; i++ {
		assert.True(t, bucket.Insert(i, i*2))
	}
	assert.True(t, bucket.Insert(5, 100))

	assert.Equal(t, []uint32{10, 100}, bucket.GetValue(5))
	assert.True(t, bucket.KeyExists(5))
	assert.True(t, bucket.KeyValueExists(5, 100))
	assert.False(t, bucket.KeyValueExists(5, 101))
	assert.Equal(t, uint32(11), bucket.NumReadable())

	// Scenario: the exact duplicate is rejected.
	assert.False(t, bucket.Insert(5, 100))
	assert.Equal(t, uint32(11), bucket.NumReadable())
}

func TestBucketPageRemove(t *testing.T) {
	bucket := &HashTableBucketPage{}

	assert.True(t, bucket.Insert(1, 1))
	assert.True(t, bucket.Insert(2, 2))

	// Scenario: removing clears both bitmaps, so the slot is insertable again.
	assert.True(t, bucket.Remove(1, 1))
	assert.False(t, bucket.Remove(1, 1))
	assert.False(t, bucket.KeyExists(1))
	assert.False(t, bucket.IsOccupied(0))

	assert.True(t, bucket.Insert(3, 3))
	assert.Equal(t, []uint32{3}, bucket.GetValue(3))
	assert.Equal(t, uint32(2), bucket.NumReadable())
}

func TestBucketPageFullAndClear(t *testing.T) {
	bucket := &HashTableBucketPage{}

	assert.True(t, bucket.IsEmpty())
	assert.False(t, bucket.IsFull())

	// Scenario: fill every slot.
	for i := uint32(0); i < BucketArraySize; i++ {
		assert.True(t, bucket.Insert(i, i))
	}
	assert.True(t, bucket.IsFull())
	assert.False(t, bucket.Insert(BucketArraySize, 0))

	// Scenario: enumeration returns every live entry in slot order.
	elements := bucket.GetAllElements()
	assert.Len(t, elements, BucketArraySize)
	assert.Equal(t, uint32(0), elements[0].First)
	assert.Equal(t, uint32(BucketArraySize-1), elements[len(elements)-1].Second)

	// Scenario: clearing both bitmaps empties the bucket.
	bucket.RemoveAllElements()
	assert.True(t, bucket.IsEmpty())
	assert.Equal(t, uint32(0), bucket.NumReadable())
}

func TestBucketPageLayoutFitsInPage(t *testing.T) {
	size := 2*occupiedArraySize + BucketArraySize*sizeOfHashTablePair
	assert.LessOrEqual(t, size, PageSize)
}
