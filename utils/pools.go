package utils

import (
	"bytes"
	"sync"
)

// maxPooledBufferSize keeps huge ClickHouse responses from pinning memory
// in the pool after the request is served.
const maxPooledBufferSize = 4 << 20

type BytesBufferPool struct {
	p sync.Pool
}

func (bbp *BytesBufferPool) Get() *bytes.Buffer {
	bbv := bbp.p.Get()
	if bbv == nil {
		return &bytes.Buffer{}
	}
	return bbv.(*bytes.Buffer)
}

// Put resets bb and returns it to the pool unless it grew too large.
func (bbp *BytesBufferPool) Put(bb *bytes.Buffer) {
	if bb.Cap() > maxPooledBufferSize {
		return
	}
	bb.Reset()
	bbp.p.Put(bb)
}
