package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	ErrStagingOverflow  = errors.New("staging belt capacity exceeded")
	ErrStagingSealed    = errors.New("staging belt sealed; recall it before writing")
	ErrStagingNotSealed = errors.New("staging belt must be finished before recall")
)

// CopyAlignment is the offset and size granularity of buffer copies.
const CopyAlignment = 4

// CopyEncoder records buffer-to-buffer copies. *wgpu.CommandEncoder
// satisfies it.
type CopyEncoder interface {
	CopyBufferToBuffer(source *wgpu.Buffer, sourceOffset uint64, destination *wgpu.Buffer, destinationOffset uint64, size uint64) error
}

// StagingChunk is one CPU-mappable buffer the belt writes through.
type StagingChunk interface {
	Buffer() *wgpu.Buffer
	MappedRange() []byte
	Unmap() error
	MapWrite(done func(ok bool)) error
	Release()
}

// StagingBackend allocates chunks and drives pending map callbacks.
type StagingBackend interface {
	CreateChunk(size uint64) (StagingChunk, error)
	Poll(wait bool)
}

type beltState int

const (
	beltMapped    beltState = iota // CPU-writable
	beltSealed                     // unmapped, copies recorded
	beltRecalling                  // remap requested, waiting on the GPU
)

func (s beltState) String() string {
	switch s {
	case beltMapped:
		return "mapped"
	case beltSealed:
		return "sealed"
	case beltRecalling:
		return "recalling"
	default:
		return fmt.Sprintf("beltState(%d)", int(s))
	}
}

// StagingBelt uploads small per-frame payloads through one persistently
// recycled MAP_WRITE buffer. Each frame: WriteRegion any number of times,
// Finish before submitting, Recall after submitting.
//
// The capacity is fixed at construction; the belt never grows.
type StagingBelt struct {
	capacity uint64
	backend  StagingBackend
	chunk    StagingChunk

	state  beltState
	mapped []byte
	offset uint64
	mapErr error
}

// NewStagingBelt creates a belt backed by device buffers.
func NewStagingBelt(device *wgpu.Device, capacity uint64) (*StagingBelt, error) {
	return NewStagingBeltWith(&deviceStagingBackend{device: device}, capacity)
}

// NewStagingBeltWith creates a belt over chunks from backend.
func NewStagingBeltWith(backend StagingBackend, capacity uint64) (*StagingBelt, error) {
	if capacity == 0 || capacity%CopyAlignment != 0 {
		return nil, fmt.Errorf("staging capacity %d must be a non-zero multiple of %d", capacity, CopyAlignment)
	}
	chunk, err := backend.CreateChunk(capacity)
	if err != nil {
		return nil, fmt.Errorf("create staging chunk: %w", err)
	}
	return &StagingBelt{
		capacity: capacity,
		backend:  backend,
		chunk:    chunk,
		state:    beltMapped,
		mapped:   chunk.MappedRange(),
	}, nil
}

func (b *StagingBelt) Capacity() uint64 { return b.capacity }

// Available is the number of bytes that can still be written this frame.
func (b *StagingBelt) Available() uint64 {
	if b.state != beltMapped {
		return 0
	}
	return b.capacity - b.offset
}

// WriteRegion records a copy of size bytes into target at offset and
// returns the CPU-side bytes backing it. The caller fills the slice before
// Finish; it is invalid afterwards.
func (b *StagingBelt) WriteRegion(encoder CopyEncoder, target *wgpu.Buffer, offset, size uint64) ([]byte, error) {
	if size == 0 || size%CopyAlignment != 0 || offset%CopyAlignment != 0 {
		return nil, fmt.Errorf("staging write offset %d size %d must be non-zero multiples of %d", offset, size, CopyAlignment)
	}
	if err := b.awaitMapped(); err != nil {
		return nil, err
	}
	if b.offset+size > b.capacity {
		return nil, fmt.Errorf("%w: %d + %d > %d", ErrStagingOverflow, b.offset, size, b.capacity)
	}

	if err := encoder.CopyBufferToBuffer(b.chunk.Buffer(), b.offset, target, offset, size); err != nil {
		return nil, fmt.Errorf("record staging copy: %w", err)
	}
	region := b.mapped[b.offset : b.offset+size : b.offset+size]
	b.offset += size
	return region, nil
}

// Finish unmaps the chunk so the recorded copies can execute. Must be called
// after the last WriteRegion and before the command buffer is submitted.
func (b *StagingBelt) Finish() error {
	switch b.state {
	case beltSealed:
		return nil
	case beltRecalling:
		// Nothing was written since the last recall.
		return nil
	}
	if b.offset == 0 {
		return nil
	}
	b.mapped = nil
	b.state = beltSealed
	if err := b.chunk.Unmap(); err != nil {
		return fmt.Errorf("unmap staging chunk: %w", err)
	}
	return nil
}

// Recall asks for the chunk to be mapped again for the next frame. Only
// valid once the command buffer carrying this frame's copies has been
// submitted (or dropped).
func (b *StagingBelt) Recall() error {
	switch b.state {
	case beltMapped:
		if b.offset != 0 {
			return ErrStagingNotSealed
		}
		return nil
	case beltRecalling:
		return nil
	}

	b.state = beltRecalling
	b.mapErr = nil
	err := b.chunk.MapWrite(func(ok bool) {
		if !ok {
			b.mapErr = errors.New("staging chunk remap failed")
			return
		}
		b.mapped = b.chunk.MappedRange()
		b.offset = 0
		b.state = beltMapped
	})
	if err != nil {
		b.state = beltSealed
		return fmt.Errorf("remap staging chunk: %w", err)
	}
	return nil
}

// awaitMapped blocks on the device until a pending recall completes.
func (b *StagingBelt) awaitMapped() error {
	switch b.state {
	case beltSealed:
		return ErrStagingSealed
	case beltMapped:
		return nil
	}
	for b.state == beltRecalling {
		if b.mapErr != nil {
			err := b.mapErr
			b.state = beltSealed
			return err
		}
		b.backend.Poll(true)
	}
	return nil
}

func (b *StagingBelt) Release() {
	if b.chunk != nil {
		b.chunk.Release()
		b.chunk = nil
	}
	b.mapped = nil
}

type deviceStagingBackend struct {
	device *wgpu.Device
}

func (d *deviceStagingBackend) CreateChunk(size uint64) (StagingChunk, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "Staging Belt Chunk",
		Size:             size,
		Usage:            wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc,
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, err
	}
	return &deviceChunk{buf: buf, size: size}, nil
}

func (d *deviceStagingBackend) Poll(wait bool) {
	d.device.Poll(wait, nil)
}

type deviceChunk struct {
	buf  *wgpu.Buffer
	size uint64
}

func (c *deviceChunk) Buffer() *wgpu.Buffer { return c.buf }

func (c *deviceChunk) MappedRange() []byte {
	return c.buf.GetMappedRange(0, uint(c.size))
}

func (c *deviceChunk) Unmap() error {
	return c.buf.Unmap()
}

func (c *deviceChunk) MapWrite(done func(ok bool)) error {
	return c.buf.MapAsync(wgpu.MapModeWrite, 0, c.size, func(status wgpu.BufferMapAsyncStatus) {
		done(status == wgpu.BufferMapAsyncStatusSuccess)
	})
}

func (c *deviceChunk) Release() {
	c.buf.Release()
}
