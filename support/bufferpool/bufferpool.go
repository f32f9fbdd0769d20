// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package bufferpool

import (
	"sync"
)

// Pool maintains a pool of buffers. It offers a new buffer when one is
// unavailable.
//
// Pool is safe for concurrent use, and is shared between connections.
type Pool struct {
	// Size is the minimum size of the buffers in this pool.
	Size int

	base sync.Pool
}

// Get returns a buffer whose Bytes hold at least size bytes, allocating one
// if none is available.
//
// The caller should return the buffer to the pool by calling its Release
// method when done with it.
func (bp *Pool) Get(size int) *Buffer {
	b, ok := bp.base.Get().(*Buffer)
	if !ok || cap(b.bytes) < size {
		// Create a blank buffer. When it is released, it will be added back to
		// pool.
		capacity := bp.Size
		if capacity < size {
			capacity = size
		}
		b = &Buffer{
			bytes: make([]byte, capacity),
		}
	}

	b.pool = bp
	b.size = size
	return b
}

// Buffer contains a byte buffer that can be released into a Pool for reuse.
//
// Failure to release Buffer will not cause a memory leak, but will prevent the
// reuse of the Buffer.
type Buffer struct {
	bytes []byte
	size  int

	pool *Pool
}

// Bytes returns this buffer's byte slice.
func (b *Buffer) Bytes() []byte { return b.bytes[:b.size] }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return b.size }

// Release returns the buffer to its buffer pool.
//
// A Buffer must only be released once.
func (b *Buffer) Release() {
	var pool *Pool
	pool, b.pool = b.pool, nil
	if pool != nil {
		pool.base.Put(b)
	}
}
