// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

import (
	"github.com/umigamedb/UmigameDB/common"
)

// FrameID is the type for frame id
type FrameID int32

// Replacer maintains the set of frames eligible for eviction
type Replacer interface {
	// Victim removes and returns the frame that became evictable the earliest
	Victim() *FrameID
	// Pin removes a frame from the eviction candidates
	Pin(id FrameID)
	// Unpin makes a frame an eviction candidate
	Unpin(id FrameID)
	// Size returns the number of eviction candidates
	Size() uint32
}

// LRUReplacer picks victims in the order their frames became evictable since
// the last pin. Eviction order is not refreshed on access.
type LRUReplacer struct {
	frames *frameList
}

// NewLRUReplacer instantiates a replacer holding at most poolSize frames
func NewLRUReplacer(poolSize uint32) *LRUReplacer {
	return &LRUReplacer{newFrameList(poolSize)}
}

// Victim removes the victim frame as defined by the replacement policy
func (r *LRUReplacer) Victim() *FrameID {
	victim := r.frames.popFront()
	if victim == nil {
		common.ShPrintf(common.DEBUG_INFO, "LRUReplacer::Victim no frame can be evicted\n")
	}
	return victim
}

// Pin pins a frame, indicating that it should not be victimized until it is unpinned
func (r *LRUReplacer) Pin(id FrameID) {
	r.frames.remove(id)
}

// Unpin unpins a frame, indicating that it can now be victimized
func (r *LRUReplacer) Unpin(id FrameID) {
	if r.frames.hasKey(id) {
		return
	}

	// a full replacer means every frame is already evictable, so an unknown
	// frame here indicates broken pin accounting
	common.UG_Assert(!r.frames.isFull(), "LRUReplacer::Unpin capacity is full")

	r.frames.pushBack(id)
}

// Size returns the number of evictable frames
func (r *LRUReplacer) Size() uint32 {
	return r.frames.size
}
