// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/vidsink/pixel"
)

// Conversion programs run as compute shaders: one invocation per
// destination pixel inside the quad rectangle. Planes arrive as packed
// RGBA words (CPU-expanded from their native texel layout at upload time)
// and the converted pixel lands in the surface storage buffer.
//
// The YUV math is ITU-R BT.601 limited range.

const shaderPrologue = `struct Params {
    dst_x0: u32,
    dst_y0: u32,
    dst_x1: u32,
    dst_y1: u32,
    surf_w: u32,
    surf_h: u32,
    src_w: u32,
    src_h: u32,
    c_w: u32,
    c_h: u32,
    pad0: u32,
    pad1: u32,
};

@group(0) @binding(0) var<uniform> params: Params;
`

const shaderYUVHelper = `
fn yuv_to_rgb(yuv: vec3<f32>) -> vec3<f32> {
    let v = yuv + vec3<f32>(-0.0625, -0.5, -0.5);
    let r = dot(v, vec3<f32>(1.164, 0.0, 1.596));
    let g = dot(v, vec3<f32>(1.164, -0.391, -0.813));
    let b = dot(v, vec3<f32>(1.164, 2.018, 0.0));
    return vec3<f32>(r, g, b);
}
`

const shaderMainTemplate = `
@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let x = params.dst_x0 + gid.x;
    let y = params.dst_y0 + gid.y;
    if (x >= params.dst_x1 || y >= params.dst_y1) {
        return;
    }
    let dw = params.dst_x1 - params.dst_x0;
    let dh = params.dst_y1 - params.dst_y0;
    let sx = (x - params.dst_x0) * params.src_w / dw;
    let sy = (y - params.dst_y0) * params.src_h / dh;
%s    pixels[y * params.surf_w + x] = pack4x8unorm(vec4<f32>(rgb, 1.0));
}
`

// wgslSource generates the compute shader for one conversion program.
func wgslSource(spec pixel.ProgramSpec) (string, error) {
	var b strings.Builder
	b.WriteString(shaderPrologue)

	planes := spec.TextureCount()
	for i := 0; i < planes; i++ {
		fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read> plane%d: array<u32>;\n", i+1, i)
	}
	fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read_write> pixels: array<u32>;\n", planes+1)

	switch spec.Variant {
	case pixel.VariantAYUV, pixel.VariantPackedYUV, pixel.VariantPlanarYUV, pixel.VariantSemiPlanarYUV:
		b.WriteString(shaderYUVHelper)
	}

	var body string
	switch spec.Variant {
	case pixel.VariantFill:
		body = "    let rgb = vec3<f32>(0.0, 0.0, 0.0);\n"

	case pixel.VariantCopy:
		body = "    let c0 = unpack4x8unorm(plane0[sy * params.src_w + sx]);\n" +
			"    let rgb = c0.rgb;\n"

	case pixel.VariantReorder:
		if len(spec.Channels) != 3 {
			return "", fmt.Errorf("wgpu: reorder needs 3 selectors, got %q", spec.Channels)
		}
		body = "    let c0 = unpack4x8unorm(plane0[sy * params.src_w + sx]);\n" +
			fmt.Sprintf("    let rgb = vec3<f32>(c0.%c, c0.%c, c0.%c);\n",
				spec.Channels[0], spec.Channels[1], spec.Channels[2])

	case pixel.VariantAYUV:
		// Packed A-Y-U-V words carry Y, U, V in g, b, a.
		body = "    let c0 = unpack4x8unorm(plane0[sy * params.src_w + sx]);\n" +
			"    let rgb = yuv_to_rgb(vec3<f32>(c0.g, c0.b, c0.a));\n"

	case pixel.VariantPackedYUV:
		if len(spec.Channels) != 3 {
			return "", fmt.Errorf("wgpu: packed yuv needs 3 selectors, got %q", spec.Channels)
		}
		body = "    let c0 = unpack4x8unorm(plane0[sy * params.src_w + sx]);\n" +
			"    let c1 = unpack4x8unorm(plane1[sy * params.c_w + sx / 2u]);\n" +
			fmt.Sprintf("    let rgb = yuv_to_rgb(vec3<f32>(c0.%c, c1.%c, c1.%c));\n",
				spec.Channels[0], spec.Channels[1], spec.Channels[2])

	case pixel.VariantPlanarYUV:
		body = "    let cx = sx * params.c_w / params.src_w;\n" +
			"    let cy = sy * params.c_h / params.src_h;\n" +
			"    let c0 = unpack4x8unorm(plane0[sy * params.src_w + sx]);\n" +
			"    let c1 = unpack4x8unorm(plane1[cy * params.c_w + cx]);\n" +
			"    let c2 = unpack4x8unorm(plane2[cy * params.c_w + cx]);\n" +
			"    let rgb = yuv_to_rgb(vec3<f32>(c0.r, c1.r, c2.r));\n"

	case pixel.VariantSemiPlanarYUV:
		if len(spec.Channels) != 2 {
			return "", fmt.Errorf("wgpu: semi-planar needs 2 selectors, got %q", spec.Channels)
		}
		body = "    let cx = sx * params.c_w / params.src_w;\n" +
			"    let cy = sy * params.c_h / params.src_h;\n" +
			"    let c0 = unpack4x8unorm(plane0[sy * params.src_w + sx]);\n" +
			"    let c1 = unpack4x8unorm(plane1[cy * params.c_w + cx]);\n" +
			fmt.Sprintf("    let rgb = yuv_to_rgb(vec3<f32>(c0.r, c1.%c, c1.%c));\n",
				spec.Channels[0], spec.Channels[1])

	default:
		return "", fmt.Errorf("wgpu: unknown program variant %d", spec.Variant)
	}

	fmt.Fprintf(&b, shaderMainTemplate, body)
	return b.String(), nil
}
