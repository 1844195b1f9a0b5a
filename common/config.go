// this code is from https://github.com/pzhzqt/goostub
// there is license and copyright notice in licenses/goostub dir

package common

import (
	"time"
)

var CycleDetectionInterval time.Duration
var EnableLogging bool = false
var EnableDebug bool = false

const (
	// invalid page id
	InvalidPageID = -1
	// size of a data page in byte
	PageSize = 4096
	// number of buffer pool instances a parallel pool runs by default
	DefaultNumInstances = 4
	// number of frames each buffer pool instance holds by default
	DefaultPoolSize = 32
)
