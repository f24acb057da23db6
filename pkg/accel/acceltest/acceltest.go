// Copyright (c) 2025 A Bit of Help, Inc.

// Package acceltest provides an in-memory accelerator runtime for tests.
//
// The runtime executes the gzip compression job contract in software: the
// input buffer is DEFLATE-compressed into the output buffer, the result
// record receives the compressed size and checksum, and the checksum cell
// receives the CRC-32 of the aligned prefix of the input, seeded with the
// cell's prior value. Failures can be injected at every lifecycle point, and
// all allocations, frees and handle releases are counted so tests can assert
// the exactly-once release discipline.
package acceltest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/accel"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/checksum"
	"github.com/klauspost/compress/flate"
)

// ErrInjected is the error returned by every injected failure.
var ErrInjected = errors.New("injected accelerator failure")

// Arg records one attached positional argument.
type Arg struct {
	Index  int
	Kind   string // "scalar" or "buffer"
	Length int
}

// Runtime is an in-memory accel.Runtime with failure injection.
// Construct with New; the zero value is not usable.
type Runtime struct {
	mu sync.Mutex

	// Failure injection. FailAllocAt and FailAttachAt are ordinals of the
	// call to fail (0-based); -1 disables them.
	FailAllocAt  int
	FailAttachAt int
	FailRequest  bool
	FailResponse bool
	FailSubmit   bool
	FailWait     bool

	allocs     int
	frees      int
	doubleFree int
	live       map[*byte]bool
	requests   []*Request
	responses  []*Response
}

// New creates a Runtime with no failures armed.
func New() *Runtime {
	return &Runtime{
		FailAllocAt:  -1,
		FailAttachAt: -1,
		live:         map[*byte]bool{},
	}
}

// Alloc acquires plain memory standing in for accelerator-visible memory.
func (r *Runtime) Alloc(size int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAllocAt >= 0 && r.allocs == r.FailAllocAt {
		return nil, fmt.Errorf("%w: alloc %d", ErrInjected, r.allocs)
	}
	buf := make([]byte, size)
	r.allocs++
	if len(buf) > 0 {
		r.live[&buf[0]] = true
	}
	return buf, nil
}

// Free releases a buffer. A second free of the same buffer is recorded as a
// double free rather than panicking, so tests can report it.
func (r *Runtime) Free(buf []byte) {
	if buf == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(buf) > 0 && !r.live[&buf[0]] {
		r.doubleFree++
		return
	}
	delete(r.live, &buf[0])
	r.frees++
}

// NewRequest creates a recording request handle.
func (r *Runtime) NewRequest(kernel string) (accel.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailRequest {
		return nil, fmt.Errorf("%w: request create", ErrInjected)
	}
	req := &Request{rt: r, Kernel: kernel}
	r.requests = append(r.requests, req)
	return req, nil
}

// NewResponse creates a response handle.
func (r *Runtime) NewResponse() (accel.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailResponse {
		return nil, fmt.Errorf("%w: response create", ErrInjected)
	}
	resp := &Response{rt: r}
	r.responses = append(r.responses, resp)
	return resp, nil
}

// Submit binds the request to the response. The job itself runs at Wait,
// mirroring the real runtime's asynchronous completion.
func (r *Runtime) Submit(req accel.Request, resp accel.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSubmit {
		return fmt.Errorf("%w: submit", ErrInjected)
	}
	treq, ok := req.(*Request)
	if !ok {
		return fmt.Errorf("submit: foreign request handle %T", req)
	}
	tresp, ok := resp.(*Response)
	if !ok {
		return fmt.Errorf("submit: foreign response handle %T", resp)
	}
	tresp.req = treq
	return nil
}

// AllocCount returns the number of successful allocations.
func (r *Runtime) AllocCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocs
}

// FreeCount returns the number of successful frees.
func (r *Runtime) FreeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frees
}

// Outstanding returns the number of live allocations.
func (r *Runtime) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// DoubleFrees returns the number of frees of already-freed buffers.
func (r *Runtime) DoubleFrees() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doubleFree
}

// Requests returns every request handle created so far.
func (r *Runtime) Requests() []*Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Request(nil), r.requests...)
}

// Responses returns every response handle created so far.
func (r *Runtime) Responses() []*Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Response(nil), r.responses...)
}

// Request is a recording accel.Request.
type Request struct {
	rt     *Runtime
	Kernel string

	mu       sync.Mutex
	args     []Arg
	scalars  map[int][]byte
	buffers  map[int][]byte
	released int
}

func (q *Request) attach(index int, kind string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.rt.FailAttachAt >= 0 && len(q.args) == q.rt.FailAttachAt {
		return fmt.Errorf("%w: attach %s at index %d", ErrInjected, kind, index)
	}
	q.args = append(q.args, Arg{Index: index, Kind: kind, Length: len(data)})
	if kind == "scalar" {
		if q.scalars == nil {
			q.scalars = map[int][]byte{}
		}
		q.scalars[index] = append([]byte(nil), data...)
	} else {
		if q.buffers == nil {
			q.buffers = map[int][]byte{}
		}
		q.buffers[index] = data
	}
	return nil
}

// Scalar records a scalar argument.
func (q *Request) Scalar(index int, value []byte) error {
	return q.attach(index, "scalar", value)
}

// Buffer records a buffer argument.
func (q *Request) Buffer(index int, buf []byte) error {
	return q.attach(index, "buffer", buf)
}

// Release marks the handle released. Every release is counted so tests can
// detect both leaks and double releases.
func (q *Request) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.released++
}

// Released returns how many times Release was called.
func (q *Request) Released() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.released
}

// Args returns the attachment order observed so far.
func (q *Request) Args() []Arg {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Arg(nil), q.args...)
}

// Response is the completion handle for one emulated job.
type Response struct {
	rt  *Runtime
	req *Request

	mu       sync.Mutex
	released int
}

// Wait executes the bound gzip job in software.
func (p *Response) Wait() error {
	if p.rt.FailWait {
		return fmt.Errorf("%w: wait", ErrInjected)
	}
	if p.req == nil {
		return errors.New("wait: response was never submitted")
	}
	return p.req.execute()
}

// Release marks the handle released.
func (p *Response) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

// Released returns how many times Release was called.
func (p *Response) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Positional argument layout of the gzip compression job.
const (
	argInput      = 1
	argOutput     = 4
	argResult     = 7
	argChecksum   = 10
	argCount      = 14
	resultRecSize = 16
)

// execute performs the emulated compression job against the attached
// buffers: DEFLATE the input into the output buffer, fill the result record
// with size and checksum, and fold the aligned prefix of the input into the
// checksum cell.
func (q *Request) execute() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.args) != argCount {
		return fmt.Errorf("job has %d arguments, contract requires %d", len(q.args), argCount)
	}
	in := q.buffers[argInput]
	out := q.buffers[argOutput]
	record := q.buffers[argResult]
	cell := q.buffers[argChecksum]
	if in == nil || out == nil || len(record) < resultRecSize || len(cell) < 4 {
		return errors.New("job buffers missing or undersized")
	}

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	if err != nil {
		return err
	}
	if _, err := fw.Write(in); err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}
	if compressed.Len() > len(out) {
		return fmt.Errorf("compressed size %d exceeds output capacity %d", compressed.Len(), len(out))
	}
	copy(out, compressed.Bytes())

	seed := binary.LittleEndian.Uint32(cell)
	aligned := (len(in) / checksum.SectionSize) * checksum.SectionSize

	binary.LittleEndian.PutUint64(record[0:8], uint64(compressed.Len()))
	binary.LittleEndian.PutUint64(record[8:16], uint64(crc32.Update(seed, crc32.IEEETable, in)))
	binary.LittleEndian.PutUint32(cell, crc32.Update(seed, crc32.IEEETable, in[:aligned]))
	return nil
}
