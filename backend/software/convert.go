// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/vidsink/backend"
	"github.com/gogpu/vidsink/pixel"
)

// ITU-R BT.601 limited-range YUV to RGB conversion, the same constants the
// GPU conversion programs carry.
var (
	yuvOffset = [3]float32{-0.0625, -0.5, -0.5}
	yuvCoeffR = [3]float32{1.164, 0, 1.596}
	yuvCoeffG = [3]float32{1.164, -0.391, -0.813}
	yuvCoeffB = [3]float32{1.164, 2.018, 0}
)

func clamp8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

func yuvToRGB(y, u, v uint8) (uint8, uint8, uint8) {
	yf := float32(y)/255 + yuvOffset[0]
	uf := float32(u)/255 + yuvOffset[1]
	vf := float32(v)/255 + yuvOffset[2]
	r := yuvCoeffR[0]*yf + yuvCoeffR[1]*uf + yuvCoeffR[2]*vf
	g := yuvCoeffG[0]*yf + yuvCoeffG[1]*uf + yuvCoeffG[2]*vf
	b := yuvCoeffB[0]*yf + yuvCoeffB[1]*uf + yuvCoeffB[2]*vf
	return clamp8(r), clamp8(g), clamp8(b)
}

// texel returns the sampled r,g,b,a channels of one texture texel, using
// the same channel expansion the GPU texture formats apply: luminance
// replicates into r,g,b; missing alpha reads as opaque.
func texel(t *softTexture, x, y int) [4]uint8 {
	if x < 0 {
		x = 0
	} else if x >= t.w {
		x = t.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.h {
		y = t.h - 1
	}
	i := (y*t.w + x) * t.format.BytesPerTexel()
	d := t.data[i:]
	switch t.format {
	case pixel.PlaneRGBA:
		return [4]uint8{d[0], d[1], d[2], d[3]}
	case pixel.PlaneRGB:
		return [4]uint8{d[0], d[1], d[2], 255}
	case pixel.PlaneRGB565:
		v := uint16(d[0]) | uint16(d[1])<<8
		r := uint8(v >> 11 & 0x1f)
		g := uint8(v >> 5 & 0x3f)
		b := uint8(v & 0x1f)
		return [4]uint8{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2, 255}
	case pixel.PlaneLuminance:
		return [4]uint8{d[0], d[0], d[0], 255}
	case pixel.PlaneLuminanceAlpha:
		return [4]uint8{d[0], d[0], d[0], d[1]}
	}
	return [4]uint8{}
}

func channel(c [4]uint8, sel byte) uint8 {
	switch sel {
	case 'r':
		return c[0]
	case 'g':
		return c[1]
	case 'b':
		return c[2]
	case 'a':
		return c[3]
	}
	return 0
}

// convert runs one conversion program over its texture planes, producing
// an opaque RGBA image at the first plane's dimensions.
func convert(spec pixel.ProgramSpec, texs []backend.Texture) (*image.RGBA, error) {
	if want := spec.TextureCount(); len(texs) != want {
		return nil, fmt.Errorf("software: variant %d wants %d textures, got %d",
			spec.Variant, want, len(texs))
	}
	planes := make([]*softTexture, len(texs))
	for i, t := range texs {
		st, ok := t.(*softTexture)
		if !ok {
			return nil, errors.New("software: foreign texture handle")
		}
		planes[i] = st
	}

	w, h := planes[0].w, planes[0].h
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for x := 0; x < w; x++ {
			var r, g, b uint8
			switch spec.Variant {
			case pixel.VariantCopy:
				c := texel(planes[0], x, y)
				r, g, b = c[0], c[1], c[2]

			case pixel.VariantReorder:
				c := texel(planes[0], x, y)
				r = channel(c, spec.Channels[0])
				g = channel(c, spec.Channels[1])
				b = channel(c, spec.Channels[2])

			case pixel.VariantAYUV:
				// Packed A-Y-U-V bytes sample as r=A, g=Y, b=U, a=V.
				c := texel(planes[0], x, y)
				r, g, b = yuvToRGB(c[1], c[2], c[3])

			case pixel.VariantPackedYUV:
				// Luma from the full-size luma-alpha plane, chroma from
				// the half-width 4-channel view of the same bytes.
				yy := channel(texel(planes[0], x, y), spec.Channels[0])
				pair := texel(planes[1], x/2, y)
				r, g, b = yuvToRGB(yy,
					channel(pair, spec.Channels[1]),
					channel(pair, spec.Channels[2]))

			case pixel.VariantPlanarYUV:
				yy := texel(planes[0], x, y)[0]
				u := texel(planes[1], x*planes[1].w/w, y*planes[1].h/h)[0]
				v := texel(planes[2], x*planes[2].w/w, y*planes[2].h/h)[0]
				r, g, b = yuvToRGB(yy, u, v)

			case pixel.VariantSemiPlanarYUV:
				yy := texel(planes[0], x, y)[0]
				pair := texel(planes[1], x*planes[1].w/w, y*planes[1].h/h)
				r, g, b = yuvToRGB(yy,
					channel(pair, spec.Channels[0]),
					channel(pair, spec.Channels[1]))

			default:
				return nil, fmt.Errorf("software: variant %d is not drawable", spec.Variant)
			}
			row[x*4] = r
			row[x*4+1] = g
			row[x*4+2] = b
			row[x*4+3] = 255
		}
	}
	return out, nil
}
