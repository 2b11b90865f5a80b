// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// sort_compute.go defines the GPU dispatch orchestration for the OneSweep
// radix sort. It manages shader compilation, buffer allocation and the
// 6-dispatch sequence that mirrors the software kernels in internal/sortcore.

package gpu

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/onesweep"
	"github.com/gogpu/onesweep/internal/sortcore"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// sortFenceTimeout is the maximum time to wait for GPU work to complete.
	sortFenceTimeout = 5 * time.Second

	// maxWorkgroupsPerDimension is the WebGPU default for
	// maxComputeWorkgroupsPerDimension. Every sort dispatch is 1D.
	maxWorkgroupsPerDimension = 65535

	// maxStorageBindingSize is the WebGPU default for
	// maxStorageBufferBindingSize.
	maxStorageBindingSize = 128 << 20

	// numDispatches is global_hist, onesweep_scan and four passes.
	numDispatches = 2 + sortcore.Passes
)

// MaxKeys returns the largest key count the dispatcher accepts under the
// default device limits.
func MaxKeys() int {
	return min(maxWorkgroupsPerDimension*sortcore.TileSize, maxStorageBindingSize/4, sortcore.MaxKeys)
}

// =============================================================================
// SortStage
// =============================================================================

// SortStage identifies one of the three sort shaders.
type SortStage int

const (
	// SortStageGlobalHist builds the 4x256 digit histogram.
	// Input: keys_a. Output: hist (atomics).
	SortStageGlobalHist SortStage = iota

	// SortStageSpineScan writes the INCLUSIVE head slot of every spine.
	// Input: hist. Output: spine.
	SortStageSpineScan

	// SortStagePass reorders the keys by one digit.
	// Input: keys_in + spine + bump. Output: keys_out + spine + bump.
	SortStagePass

	// SortStageCount is the number of shaders.
	SortStageCount
)

// String returns the shader entry name of the stage.
func (s SortStage) String() string {
	switch s {
	case SortStageGlobalHist:
		return "global_hist"
	case SortStageSpineScan:
		return "onesweep_scan"
	case SortStagePass:
		return "onesweep_pass"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// =============================================================================
// SortBuffers
// =============================================================================

// SortBuffers holds the GPU buffers of one sort size. Buffers are allocated
// once per key count and reused across sorts.
type SortBuffers struct {
	// Params holds one uniform block per dispatch, in dispatch order.
	// Bound at group(0) binding(0) in every stage.
	Params [numDispatches]hal.Buffer

	// KeysA holds the input keys and, after four passes, the sorted keys.
	KeysA hal.Buffer

	// KeysB is the ping-pong partner of KeysA.
	KeysB hal.Buffer

	// Hist is the 4x256 global histogram. Zeroed before every sort.
	Hist hal.Buffer

	// Spine holds 4 x tiles x 256 chained-scan cells. Zeroed before every
	// sort: zero is NOT_READY.
	Spine hal.Buffer

	// Bump holds the four tile-id dispensers. Zeroed before every sort.
	Bump hal.Buffer

	// Staging receives a copy of KeysA for readback.
	Staging hal.Buffer

	n           int
	tiles       uint32
	reduceTiles uint32
}

// Len returns the number of keys the buffers hold.
func (b *SortBuffers) Len() int { return b.n }

// =============================================================================
// SortDispatcher
// =============================================================================

// SortDispatcher orchestrates the OneSweep compute pipeline on a HAL device.
//
// Dispatch order:
//  1. global_hist   -- keys_a -> hist (ceil(n / 3840) workgroups)
//  2. onesweep_scan -- hist -> spine head slots (4 workgroups)
//  3. onesweep_pass -- shift 0, keys_a -> keys_b (ceil(n / 3840) workgroups)
//  4. onesweep_pass -- shift 8, keys_b -> keys_a
//  5. onesweep_pass -- shift 16, keys_a -> keys_b
//  6. onesweep_pass -- shift 24, keys_b -> keys_a
//
// Reference: internal/sortcore (software kernels)
type SortDispatcher struct {
	mu sync.RWMutex

	device hal.Device
	queue  hal.Queue

	pipelines       [SortStageCount]hal.ComputePipeline
	pipelineLayouts [SortStageCount]hal.PipelineLayout
	bgLayouts       [SortStageCount]hal.BindGroupLayout
	shaderModules   [SortStageCount]hal.ShaderModule
	shaderSources   [SortStageCount]string

	initialized bool
}

// NewSortDispatcher creates a dispatcher attached to the given HAL device and
// queue. Init must be called before Sort.
func NewSortDispatcher(device hal.Device, queue hal.Queue) *SortDispatcher {
	return &SortDispatcher{
		device: device,
		queue:  queue,
		shaderSources: [SortStageCount]string{
			SortStageGlobalHist: sortcore.GlobalHistWGSL,
			SortStageSpineScan:  sortcore.SpineScanWGSL,
			SortStagePass:       sortcore.PassWGSL,
		},
	}
}

// stageBindGroupLayoutEntries returns the bind group layout entries of a
// stage. They match the @group(0) @binding(N) annotations of the shaders.
func stageBindGroupLayoutEntries(stage SortStage) []gputypes.BindGroupLayoutEntry {
	paramsUniform := gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
	storageRO := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		}
	}
	storageRW := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
		}
	}

	switch stage {
	case SortStageGlobalHist:
		// @binding(1) storage(read) keys
		// @binding(2) storage(read_write) hist
		return []gputypes.BindGroupLayoutEntry{paramsUniform, storageRO(1), storageRW(2)}

	case SortStageSpineScan:
		// @binding(1) storage(read) hist
		// @binding(2) storage(read_write) spine
		return []gputypes.BindGroupLayoutEntry{paramsUniform, storageRO(1), storageRW(2)}

	case SortStagePass:
		// @binding(1) storage(read) keys_in
		// @binding(2) storage(read_write) keys_out
		// @binding(3) storage(read_write) spine
		// @binding(4) storage(read_write) bump
		return []gputypes.BindGroupLayoutEntry{
			paramsUniform, storageRO(1), storageRW(2), storageRW(3), storageRW(4),
		}

	default:
		return nil
	}
}

// Init compiles the three WGSL shaders and creates their compute pipelines.
// Calling Init again after success is a no-op.
func (d *SortDispatcher) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	for i := SortStage(0); i < SortStageCount; i++ {
		src := d.shaderSources[i]
		if src == "" {
			return fmt.Errorf("onesweep compute: missing shader source for stage %s", i)
		}

		label := "onesweep_" + i.String()

		module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label,
			Source: hal.ShaderSource{WGSL: src},
		})
		if err != nil {
			d.destroyPartialInit(i)
			return fmt.Errorf("onesweep compute: create shader module for %s: %w", i, err)
		}
		d.shaderModules[i] = module

		entries := stageBindGroupLayoutEntries(i)
		bgLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   label + "_bgl",
			Entries: entries,
		})
		if err != nil {
			d.destroyPartialInit(i + 1)
			return fmt.Errorf("onesweep compute: create bind group layout for %s: %w", i, err)
		}
		d.bgLayouts[i] = bgLayout

		pipelineLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            label + "_pl",
			BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
		})
		if err != nil {
			d.destroyPartialInit(i + 1)
			return fmt.Errorf("onesweep compute: create pipeline layout for %s: %w", i, err)
		}
		d.pipelineLayouts[i] = pipelineLayout

		pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  label,
			Layout: pipelineLayout,
			Compute: hal.ComputeState{
				Module:     module,
				EntryPoint: "main",
			},
		})
		if err != nil {
			d.destroyPartialInit(i + 1)
			return fmt.Errorf("onesweep compute: create compute pipeline for %s: %w", i, err)
		}
		d.pipelines[i] = pipeline

		slogger().Debug("onesweep compute: pipeline created",
			"stage", i.String(),
			"bindings", len(entries),
			"shader_bytes", len(src))
	}

	slogger().Info("onesweep compute: all pipelines initialized", "stages", int(SortStageCount))

	d.initialized = true
	return nil
}

// destroyPartialInit releases the resources of stages [0, upTo) after a
// failed Init.
func (d *SortDispatcher) destroyPartialInit(upTo SortStage) {
	for j := SortStage(0); j < upTo; j++ {
		d.destroyStage(j)
	}
}

func (d *SortDispatcher) destroyStage(s SortStage) {
	if d.pipelines[s] != nil {
		d.device.DestroyComputePipeline(d.pipelines[s])
		d.pipelines[s] = nil
	}
	if d.pipelineLayouts[s] != nil {
		d.device.DestroyPipelineLayout(d.pipelineLayouts[s])
		d.pipelineLayouts[s] = nil
	}
	if d.bgLayouts[s] != nil {
		d.device.DestroyBindGroupLayout(d.bgLayouts[s])
		d.bgLayouts[s] = nil
	}
	if d.shaderModules[s] != nil {
		d.device.DestroyShaderModule(d.shaderModules[s])
		d.shaderModules[s] = nil
	}
}

// Close releases the pipelines. The dispatcher must be re-initialized before
// further use.
func (d *SortDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := SortStage(0); i < SortStageCount; i++ {
		d.destroyStage(i)
	}
	d.initialized = false
}

// Initialized reports whether Init has succeeded.
func (d *SortDispatcher) Initialized() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.initialized
}

// createSortBuffer creates a single GPU buffer with a minimum size guarantee.
func (d *SortDispatcher) createSortBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	const minBufSize = 4
	if size < minBufSize {
		size = minBufSize
	}
	return d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
}

// AllocateBuffers creates the buffers for sorting n keys. The caller must
// call DestroyBuffers when they are no longer needed.
func (d *SortDispatcher) AllocateBuffers(n int) (*SortBuffers, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.initialized {
		return nil, fmt.Errorf("onesweep compute: dispatcher not initialized, call Init() first")
	}
	if n < 0 || n > MaxKeys() {
		return nil, fmt.Errorf("%w: %d keys, device limit %d", onesweep.ErrInsufficientResource, n, MaxKeys())
	}

	tiles := sortcore.NumTiles(n)
	bufs := &SortBuffers{
		n:           n,
		tiles:       uint32(tiles),                      //nolint:gosec // n <= MaxKeys
		reduceTiles: uint32(sortcore.NumReduceTiles(n)), //nolint:gosec // n <= MaxKeys
	}

	keyBytes := uint64(n) * 4
	storageCPU := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	readback := gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst

	type bufSpec struct {
		target *hal.Buffer
		label  string
		size   uint64
		usage  gputypes.BufferUsage
	}

	specs := []bufSpec{
		{&bufs.KeysA, "onesweep_keys_a", keyBytes, storageCPU | gputypes.BufferUsageCopySrc},
		{&bufs.KeysB, "onesweep_keys_b", keyBytes, gputypes.BufferUsageStorage},
		{&bufs.Hist, "onesweep_hist", sortcore.Passes * sortcore.Radix * 4, storageCPU},
		{&bufs.Spine, "onesweep_spine", uint64(sortcore.Passes*tiles*sortcore.Radix) * 4, storageCPU},
		{&bufs.Bump, "onesweep_bump", sortcore.Passes * 4, storageCPU},
		{&bufs.Staging, "onesweep_staging", keyBytes, readback},
	}
	for i := range bufs.Params {
		specs = append(specs, bufSpec{&bufs.Params[i], fmt.Sprintf("onesweep_params_%d", i), sortcore.ParamsSize, uniformCPU})
	}

	for _, s := range specs {
		buf, err := d.createSortBuffer(s.label, s.size, s.usage)
		if err != nil {
			d.DestroyBuffers(bufs)
			return nil, fmt.Errorf("onesweep compute: create %s buffer: %w", s.label, err)
		}
		*s.target = buf
	}

	slogger().Debug("onesweep compute: buffers allocated",
		"keys", n,
		"tiles", tiles,
		"spine_bytes", uint64(sortcore.Passes*tiles*sortcore.Radix)*4)

	return bufs, nil
}

// DestroyBuffers releases all buffers in bufs.
func (d *SortDispatcher) DestroyBuffers(bufs *SortBuffers) {
	if bufs == nil {
		return
	}

	destroyBuf := func(b hal.Buffer) {
		if b != nil {
			d.device.DestroyBuffer(b)
		}
	}

	for _, b := range bufs.Params {
		destroyBuf(b)
	}
	destroyBuf(bufs.KeysA)
	destroyBuf(bufs.KeysB)
	destroyBuf(bufs.Hist)
	destroyBuf(bufs.Spine)
	destroyBuf(bufs.Bump)
	destroyBuf(bufs.Staging)

	*bufs = SortBuffers{}
}

// bufferEntry binds a whole buffer.
func bufferEntry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   0, // 0 = entire buffer
		},
	}
}

// sortDispatch is one encoded dispatch.
type sortDispatch struct {
	stage      SortStage
	params     sortcore.Params
	entries    []gputypes.BindGroupEntry
	workgroups uint32
}

// plan returns the six dispatches of a sort, binding keys_a and keys_b in
// ping-pong order.
func (b *SortBuffers) plan() [numDispatches]sortDispatch {
	n := uint32(b.n) //nolint:gosec // n <= MaxKeys
	var p [numDispatches]sortDispatch

	p[0] = sortDispatch{
		stage:  SortStageGlobalHist,
		params: sortcore.Params{Length: n, ThreadBlocks: b.reduceTiles},
		entries: []gputypes.BindGroupEntry{
			bufferEntry(0, b.Params[0]),
			bufferEntry(1, b.KeysA),
			bufferEntry(2, b.Hist),
		},
		workgroups: b.reduceTiles,
	}
	p[1] = sortDispatch{
		stage:  SortStageSpineScan,
		params: sortcore.Params{Length: n, ThreadBlocks: b.tiles},
		entries: []gputypes.BindGroupEntry{
			bufferEntry(0, b.Params[1]),
			bufferEntry(1, b.Hist),
			bufferEntry(2, b.Spine),
		},
		workgroups: sortcore.Passes,
	}
	for d := range uint32(sortcore.Passes) {
		in, out := b.KeysA, b.KeysB
		if d%2 == 1 {
			in, out = out, in
		}
		i := 2 + d
		p[i] = sortDispatch{
			stage:  SortStagePass,
			params: sortcore.Params{Length: n, Shift: d * sortcore.RadixLog, ThreadBlocks: b.tiles},
			entries: []gputypes.BindGroupEntry{
				bufferEntry(0, b.Params[i]),
				bufferEntry(1, in),
				bufferEntry(2, out),
				bufferEntry(3, b.Spine),
				bufferEntry(4, b.Bump),
			},
			workgroups: b.tiles,
		}
	}
	return p
}

// dispatchResources tracks per-sort GPU resources for cleanup.
type dispatchResources struct {
	device     hal.Device
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// cleanup destroys all tracked per-sort resources.
func (r *dispatchResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
}

// Sort uploads keys, runs the six dispatches, and reads the sorted keys back
// into keys. len(keys) must equal bufs.Len().
//
// On error the contents of keys are unchanged.
func (d *SortDispatcher) Sort(bufs *SortBuffers, keys []uint32) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.initialized {
		return fmt.Errorf("onesweep compute: dispatcher not initialized, call Init() first")
	}
	if bufs == nil {
		return fmt.Errorf("onesweep compute: buffers must not be nil")
	}
	if len(keys) != bufs.n {
		return fmt.Errorf("onesweep compute: %d keys for buffers of %d", len(keys), bufs.n)
	}
	if len(keys) == 0 {
		return nil
	}

	d.queue.WriteBuffer(bufs.KeysA, 0, keysToBytes(keys))
	d.queue.WriteBuffer(bufs.Hist, 0, make([]byte, sortcore.Passes*sortcore.Radix*4))
	d.queue.WriteBuffer(bufs.Spine, 0, make([]byte, sortcore.Passes*int(bufs.tiles)*sortcore.Radix*4))
	d.queue.WriteBuffer(bufs.Bump, 0, make([]byte, sortcore.Passes*4))

	dispatches := bufs.plan()
	for i := range dispatches {
		d.queue.WriteBuffer(bufs.Params[i], 0, dispatches[i].params.Bytes())
	}

	res := &dispatchResources{device: d.device}
	defer res.cleanup()

	if err := d.encodeSort(res, bufs, dispatches[:]); err != nil {
		return err
	}
	if err := d.submitAndWait(res); err != nil {
		return err
	}

	readback := make([]byte, len(keys)*4)
	if err := d.queue.ReadBuffer(bufs.Staging, 0, readback); err != nil {
		return fmt.Errorf("onesweep compute: readback: %w", err)
	}
	bytesToKeys(readback, keys)
	return nil
}

// encodeSort records all compute passes and the staging copy into one
// command buffer.
func (d *SortDispatcher) encodeSort(res *dispatchResources, bufs *SortBuffers, dispatches []sortDispatch) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "onesweep_sort",
	})
	if err != nil {
		return fmt.Errorf("onesweep compute: create command encoder: %w", err)
	}

	if err := encoder.BeginEncoding("onesweep_sort"); err != nil {
		return fmt.Errorf("onesweep compute: begin encoding: %w", err)
	}

	for i, sd := range dispatches {
		bg, bgErr := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("onesweep_%s_%d_bg", sd.stage, i),
			Layout:  d.bgLayouts[sd.stage],
			Entries: sd.entries,
		})
		if bgErr != nil {
			encoder.DiscardEncoding()
			return fmt.Errorf("onesweep compute: create bind group for %s: %w", sd.stage, bgErr)
		}
		res.bindGroups = append(res.bindGroups, bg)

		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{
			Label: fmt.Sprintf("onesweep_%s_%d", sd.stage, i),
		})
		pass.SetPipeline(d.pipelines[sd.stage])
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(sd.workgroups, 1, 1)
		pass.End()

		slogger().Debug("onesweep compute: dispatched stage",
			"stage", sd.stage.String(),
			"shift", sd.params.Shift,
			"workgroups", sd.workgroups)
	}

	encoder.CopyBufferToBuffer(bufs.KeysA, bufs.Staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: uint64(bufs.n) * 4},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("onesweep compute: end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf
	return nil
}

// submitAndWait submits the command buffer and waits for GPU completion.
func (d *SortDispatcher) submitAndWait(res *dispatchResources) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("onesweep compute: create fence: %w", err)
	}
	res.fence = fence

	if err := d.queue.Submit([]hal.CommandBuffer{res.cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("onesweep compute: submit: %w", err)
	}

	ok, err := d.device.Wait(fence, 1, sortFenceTimeout)
	if err != nil {
		return fmt.Errorf("onesweep compute: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("onesweep compute: GPU timeout after %v", sortFenceTimeout)
	}
	return nil
}

func keysToBytes(keys []uint32) []byte {
	b := make([]byte, 0, len(keys)*4)
	for _, k := range keys {
		b = binary.LittleEndian.AppendUint32(b, k)
	}
	return b
}

func bytesToKeys(b []byte, keys []uint32) {
	for i := range keys {
		keys[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
}
