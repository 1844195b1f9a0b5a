// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package buffer

type node struct {
	key  FrameID
	next *node
	prev *node
}

// frameList is a doubly linked list of frame ids with a map for O(1) lookup.
// Insertion order is preserved: the head is the oldest entry.
type frameList struct {
	head       *node
	tail       *node
	size       uint32
	capacity   uint32
	supportMap map[FrameID]*node
}

func newFrameList(maxSize uint32) *frameList {
	return &frameList{nil, nil, 0, maxSize, make(map[FrameID]*node)}
}

func (l *frameList) hasKey(key FrameID) bool {
	_, ok := l.supportMap[key]
	return ok
}

func (l *frameList) isFull() bool {
	return l.size == l.capacity
}

// pushBack appends key as the newest entry. The key must not be present.
func (l *frameList) pushBack(key FrameID) {
	newNode := &node{key, nil, nil}
	if l.size == 0 {
		l.head = newNode
		l.tail = newNode
	} else {
		newNode.prev = l.tail
		l.tail.next = newNode
		l.tail = newNode
	}

	l.size++
	l.supportMap[key] = newNode
}

// popFront removes and returns the oldest entry
func (l *frameList) popFront() *FrameID {
	if l.size == 0 {
		return nil
	}

	key := l.head.key
	l.remove(key)
	return &key
}

func (l *frameList) remove(key FrameID) {
	node, ok := l.supportMap[key]
	if !ok {
		return
	}

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	l.size--
	delete(l.supportMap, key)
}
