// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu provides a GPU presentation backend on top of gogpu/wgpu's
// hardware abstraction layer. Conversion programs are WGSL compute
// shaders compiled through naga; each draw dispatches one invocation per
// destination pixel into a storage buffer that backs the surface, and a
// swap reads the buffer back and presents it through the window's
// gpucontext drawer.
//
// The backend registers itself as "wgpu" at priority 100 and reports
// unavailable when no Vulkan-capable adapter is present.
package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

func init() {
	backend.Register("wgpu", 100, func() (backend.Device, error) {
		return NewDevice(), nil
	}, func() bool {
		_, ok := hal.GetBackend(gputypes.BackendVulkan)
		return ok
	})
}

// Backend errors.
var (
	ErrNotOpen       = errors.New("wgpu: device not open")
	ErrNoSurface     = errors.New("wgpu: no surface")
	ErrNoAdapter     = errors.New("wgpu: no GPU adapters found")
	ErrBadWindowType = errors.New("wgpu: native window is not a *wgpu.Window")
	ErrNoConfig      = errors.New("wgpu: no matching framebuffer configuration")
)

const gpuTimeout = 5 * time.Second

type config struct {
	tmpl backend.ConfigTemplate
}

type program struct {
	spec       pixel.ProgramSpec
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// texture keeps the plane's expanded RGBA words CPU-side; the storage
// buffer feeding a dispatch is created per draw, written and destroyed
// again, the same short-lived buffer lifecycle the dispatch batches use.
type texture struct {
	format pixel.PlaneFormat
	w, h   int
	words  []byte
}

// Device is the wgpu implementation of backend.Device.
type Device struct {
	mu sync.Mutex

	instance    hal.Instance
	device      hal.Device
	queue       hal.Queue
	adapterName string

	win          *Window
	surfaceBuf   hal.Buffer
	surfW, surfH int
	attached     bool
}

// NewDevice creates an unopened wgpu device.
func NewDevice() *Device {
	return &Device{}
}

var _ backend.Device = (*Device)(nil)

// Name implements backend.Device.
func (d *Device) Name() string { return "wgpu" }

// Open implements backend.Device: instance creation plus adapter
// selection, preferring discrete and integrated GPUs.
func (d *Device) Open() (backend.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	be, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return backend.Version{}, errors.New("wgpu: vulkan backend not available")
	}
	instance, err := be.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return backend.Version{}, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return backend.Version{}, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return backend.Version{}, fmt.Errorf("wgpu: open adapter %q: %w", selected.Info.Name, err)
	}

	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapterName = selected.Info.Name
	return backend.Version{Major: 1, Minor: 5}, nil
}

// Close implements backend.Device.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.surfaceBuf != nil {
		d.device.DestroyBuffer(d.surfaceBuf)
		d.surfaceBuf = nil
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
	d.win = nil
}

// ProbeConfig implements backend.Device. The surface buffer holds packed
// 8-bit RGBA words, so the 8888 and 888 templates are satisfiable; a
// packed 16-bit target is not.
func (d *Device) ProbeConfig(tmpl backend.ConfigTemplate) (backend.Config, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, ErrNotOpen
	}
	if tmpl.RedBits > 8 || tmpl.GreenBits > 8 || tmpl.BlueBits > 8 || tmpl.AlphaBits > 8 {
		return nil, ErrNoConfig
	}
	if tmpl.RedBits != 8 || tmpl.BlueBits != 8 {
		return nil, ErrNoConfig
	}
	return &config{tmpl: tmpl}, nil
}

// CreateContext implements backend.Device. The hal device opened in Open
// is the context; there is no separate per-config state.
func (d *Device) CreateContext(cfg backend.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return ErrNotOpen
	}
	return nil
}

// DestroyContext implements backend.Device.
func (d *Device) DestroyContext() {}

// CreateWindowSurface implements backend.Device: the surface is a zeroed
// storage buffer sized to the window.
func (d *Device) CreateWindowSurface(cfg backend.Config, win backend.NativeWindow) (backend.SurfaceInfo, error) {
	ww, ok := win.(*Window)
	if !ok {
		return backend.SurfaceInfo{}, ErrBadWindowType
	}
	w, h := ww.Size()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return backend.SurfaceInfo{}, ErrNotOpen
	}
	buf, err := d.createSurfaceBuffer(w, h)
	if err != nil {
		return backend.SurfaceInfo{}, err
	}
	d.win = ww
	d.surfaceBuf = buf
	d.surfW, d.surfH = w, h
	return backend.SurfaceInfo{
		Width:  w,
		Height: h,
		// The readback path recreates the image every swap; treat the
		// buffer as undefined after presentation.
		BufferPreserved: false,
	}, nil
}

func (d *Device) createSurfaceBuffer(w, h int) (hal.Buffer, error) {
	size := uint64(w * h * 4)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vidsink_surface",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create surface buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, make([]byte, size))
	return buf, nil
}

// DestroySurface implements backend.Device.
func (d *Device) DestroySurface() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.surfaceBuf != nil {
		d.device.DestroyBuffer(d.surfaceBuf)
		d.surfaceBuf = nil
	}
	d.win = nil
	d.surfW, d.surfH = 0, 0
}

// AttachCurrentThread implements backend.Device. The hal queue is
// thread-safe, so attachment is bookkeeping only.
func (d *Device) AttachCurrentThread() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = true
	return nil
}

// DetachCurrentThread implements backend.Device.
func (d *Device) DetachCurrentThread() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = false
}

// SurfaceSize implements backend.Device. A window resize reallocates the
// surface buffer at the new size.
func (d *Device) SurfaceSize() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.win == nil {
		return 0, 0, ErrNoSurface
	}
	w, h := d.win.Size()
	if w != d.surfW || h != d.surfH {
		buf, err := d.createSurfaceBuffer(w, h)
		if err != nil {
			return 0, 0, err
		}
		d.device.DestroyBuffer(d.surfaceBuf)
		d.surfaceBuf = buf
		d.surfW, d.surfH = w, h
	}
	return w, h, nil
}

// CompileProgram implements backend.Device: WGSL generation, naga
// compilation to SPIR-V words, then module, layouts and compute pipeline.
func (d *Device) CompileProgram(spec pixel.ProgramSpec) (backend.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, ErrNotOpen
	}

	src, err := wgslSource(spec)
	if err != nil {
		return nil, err
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile conversion shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	p := &program{spec: spec}
	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "vidsink_convert",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	planes := spec.TextureCount()
	entries := make([]gputypes.BindGroupLayoutEntry, 0, planes+2)
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
	for i := 0; i < planes; i++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i + 1),
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		})
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    uint32(planes + 1),
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	})

	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "vidsink_convert_bind_layout",
		Entries: entries,
	})
	if err != nil {
		d.destroyProgram(p)
		return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "vidsink_convert_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		d.destroyProgram(p)
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	p.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "vidsink_convert_pipeline",
		Layout:  p.pipeLayout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: "main"},
	})
	if err != nil {
		d.destroyProgram(p)
		return nil, fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}
	return p, nil
}

// DestroyProgram implements backend.Device.
func (d *Device) DestroyProgram(pr backend.Program) {
	p, ok := pr.(*program)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyProgram(p)
}

func (d *Device) destroyProgram(p *program) {
	if d.device == nil {
		return
	}
	if p.pipeline != nil {
		d.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		d.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		d.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// CreateTexture implements backend.Device.
func (d *Device) CreateTexture(format pixel.PlaneFormat, w, h int) (backend.Texture, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("wgpu: bad texture size %dx%d", w, h)
	}
	return &texture{format: format, w: w, h: h, words: make([]byte, w*h*4)}, nil
}

// DestroyTexture implements backend.Device.
func (d *Device) DestroyTexture(t backend.Texture) {}

// UploadTexture implements backend.Device: the plane bytes are expanded
// into packed RGBA words ready for storage-buffer consumption.
func (d *Device) UploadTexture(t backend.Texture, plane backend.PlaneUpload) error {
	tex, ok := t.(*texture)
	if !ok {
		return errors.New("wgpu: foreign texture handle")
	}
	if plane.Width != tex.w || plane.Height != tex.h || plane.Format != tex.format {
		return fmt.Errorf("wgpu: upload %dx%d/%d into texture %dx%d/%d",
			plane.Width, plane.Height, plane.Format, tex.w, tex.h, tex.format)
	}
	return expandPlane(tex.format, plane.Data, tex.w*tex.h, tex.words)
}

// expandPlane converts n texels of the plane's native layout into packed
// RGBA words, mirroring the channel expansion GPU texture formats apply.
func expandPlane(pf pixel.PlaneFormat, src []byte, n int, dst []byte) error {
	bpt := pf.BytesPerTexel()
	if len(src) < n*bpt {
		return fmt.Errorf("wgpu: plane carries %d bytes, need %d", len(src), n*bpt)
	}
	switch pf {
	case pixel.PlaneRGBA:
		copy(dst, src[:n*4])
	case pixel.PlaneRGB:
		for i := 0; i < n; i++ {
			dst[i*4] = src[i*3]
			dst[i*4+1] = src[i*3+1]
			dst[i*4+2] = src[i*3+2]
			dst[i*4+3] = 255
		}
	case pixel.PlaneRGB565:
		for i := 0; i < n; i++ {
			v := uint16(src[i*2]) | uint16(src[i*2+1])<<8
			r := uint8(v >> 11 & 0x1f)
			g := uint8(v >> 5 & 0x3f)
			b := uint8(v & 0x1f)
			dst[i*4] = r<<3 | r>>2
			dst[i*4+1] = g<<2 | g>>4
			dst[i*4+2] = b<<3 | b>>2
			dst[i*4+3] = 255
		}
	case pixel.PlaneLuminance:
		for i := 0; i < n; i++ {
			l := src[i]
			dst[i*4] = l
			dst[i*4+1] = l
			dst[i*4+2] = l
			dst[i*4+3] = 255
		}
	case pixel.PlaneLuminanceAlpha:
		for i := 0; i < n; i++ {
			l := src[i*2]
			dst[i*4] = l
			dst[i*4+1] = l
			dst[i*4+2] = l
			dst[i*4+3] = src[i*2+1]
		}
	default:
		return fmt.Errorf("wgpu: unknown plane format %d", pf)
	}
	return nil
}

// drawParams packs the dispatch uniform: destination rectangle, surface
// size, primary plane size and chroma plane size, as 12 32-bit words.
func drawParams(x0, y0, x1, y1, sw, sh, srcW, srcH, cw, ch int) []byte {
	out := make([]byte, 48)
	vals := []int{x0, y0, x1, y1, sw, sh, srcW, srcH, cw, ch, 0, 0}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

// DrawQuad implements backend.Device: one compute dispatch covering the
// quad's pixel rectangle.
func (d *Device) DrawQuad(pr backend.Program, verts [4]backend.Vertex, texs []backend.Texture) error {
	p, ok := pr.(*program)
	if !ok {
		return errors.New("wgpu: foreign program handle")
	}
	if want := p.spec.TextureCount(); len(texs) != want {
		return fmt.Errorf("wgpu: program wants %d textures, got %d", want, len(texs))
	}
	planes := make([]*texture, len(texs))
	for i, t := range texs {
		tex, ok := t.(*texture)
		if !ok {
			return errors.New("wgpu: foreign texture handle")
		}
		planes[i] = tex
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.surfaceBuf == nil {
		return ErrNoSurface
	}

	x0, y0, x1, y1 := vertexRect(verts, d.surfW, d.surfH)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}

	srcW, srcH := x1-x0, y1-y0
	cw, ch := 1, 1
	if len(planes) > 0 {
		srcW, srcH = planes[0].w, planes[0].h
	}
	if len(planes) > 1 {
		cw, ch = planes[1].w, planes[1].h
	}

	// Short-lived dispatch buffers: uniform plus one storage buffer per
	// plane, all destroyed after the fence.
	var bufs []hal.Buffer
	defer func() {
		for _, b := range bufs {
			d.device.DestroyBuffer(b)
		}
	}()

	paramsBytes := drawParams(x0, y0, x1, y1, d.surfW, d.surfH, srcW, srcH, cw, ch)
	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vidsink_params",
		Size:  uint64(len(paramsBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	bufs = append(bufs, uniformBuf)
	d.queue.WriteBuffer(uniformBuf, 0, paramsBytes)

	entries := make([]gputypes.BindGroupEntry, 0, len(planes)+2)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(paramsBytes))},
	})
	for i, plane := range planes {
		pb, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "vidsink_plane",
			Size:  uint64(len(plane.words)),
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create plane buffer %d: %w", i, err)
		}
		bufs = append(bufs, pb)
		d.queue.WriteBuffer(pb, 0, plane.words)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1),
			Resource: gputypes.BufferBinding{Buffer: pb.NativeHandle(), Offset: 0, Size: uint64(len(plane.words))},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(planes) + 1),
		Resource: gputypes.BufferBinding{Buffer: d.surfaceBuf.NativeHandle(), Offset: 0, Size: uint64(d.surfW * d.surfH * 4)},
	})

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "vidsink_convert_bind",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "vidsink_draw"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vidsink_draw"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "vidsink_convert"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	dw, dh := uint32(x1-x0), uint32(y1-y0)
	pass.Dispatch((dw+7)/8, (dh+7)/8, 1)
	pass.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	return d.submitAndWait(cmdBuf)
}

// Swap implements backend.Device: the surface buffer is copied to a
// staging buffer, read back and presented through the window.
func (d *Device) Swap() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.surfaceBuf == nil || d.win == nil {
		return ErrNoSurface
	}
	size := uint64(d.surfW * d.surfH * 4)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vidsink_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "vidsink_swap"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vidsink_swap"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(d.surfaceBuf, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		return err
	}

	readback := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("wgpu: readback: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, d.surfW, d.surfH))
	copy(img.Pix, readback)
	return d.win.present(img)
}

func (d *Device) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, gpuTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// vertexRect maps device-coordinate quad corners back to a clipped pixel
// rectangle. Vertices are ordered top-left, top-right, bottom-left,
// bottom-right; device Y points up while the surface Y points down.
func vertexRect(v [4]backend.Vertex, w, h int) (x0, y0, x1, y1 int) {
	toX := func(x float32) int { return int((x+1)/2*float32(w) + 0.5) }
	toY := func(y float32) int { return int((1-y)/2*float32(h) + 0.5) }
	x0, y0 = toX(v[0].X), toY(v[0].Y)
	x1, y1 = toX(v[1].X), toY(v[2].Y)
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return x0, y0, x1, y1
}
