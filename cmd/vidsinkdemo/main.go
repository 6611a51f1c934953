// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command vidsinkdemo renders a short synthetic I420 sequence through the
// software backend and saves the final presented frame as a PNG.
package main

import (
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/vidsink"
	"github.com/gogpu/vidsink/backend/software"
	"github.com/gogpu/vidsink/pixel"
)

var (
	width   = flag.Int("width", 320, "frame width")
	height  = flag.Int("height", 240, "frame height")
	frames  = flag.Int("frames", 60, "number of frames to render")
	outPath = flag.String("o", "vidsinkdemo.png", "output PNG path")
	verbose = flag.Bool("v", false, "enable debug logging")
)

// colorBars fills an I420 frame with the classic vertical bars, shifted
// right by phase pixels to animate the sequence.
func colorBars(fr *pixel.Frame, phase int) {
	// BT.601 Y/U/V triplets: white, yellow, cyan, green, magenta, red, blue.
	bars := [7][3]byte{
		{235, 128, 128},
		{210, 16, 146},
		{170, 166, 16},
		{145, 54, 34},
		{106, 202, 222},
		{81, 90, 240},
		{41, 240, 110},
	}
	w, h := fr.Width, fr.Height
	cw, ch := (w+1)/2, (h+1)/2
	y := fr.Data[:w*h]
	u := fr.Data[w*h : w*h+cw*ch]
	v := fr.Data[w*h+cw*ch:]

	barW := w / len(bars)
	if barW == 0 {
		barW = 1
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			bar := ((col + phase) / barW) % len(bars)
			y[row*w+col] = bars[bar][0]
			if row%2 == 0 && col%2 == 0 {
				u[(row/2)*cw+col/2] = bars[bar][1]
				v[(row/2)*cw+col/2] = bars[bar][2]
			}
		}
	}
}

func main() {
	flag.Parse()
	if *verbose {
		vidsink.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	dev := software.NewDevice()
	// A slightly wider window than the video shows the letterbox borders.
	win := software.NewWindow(*width+80, *height)

	sink := vidsink.New(vidsink.WithDevice(dev))
	if err := sink.Open(); err != nil {
		log.Fatalf("open sink: %v", err)
	}
	defer sink.Close()
	sink.SetWindowHandle(win)
	if err := sink.Start(); err != nil {
		log.Fatalf("start sink: %v", err)
	}
	defer sink.Stop()

	// Frame ownership transfers to the sink, so each iteration gets its
	// own allocation.
	for i := 0; i < *frames; i++ {
		fr, err := pixel.NewFrame(pixel.FormatI420, *width, *height)
		if err != nil {
			log.Fatalf("allocate frame: %v", err)
		}
		colorBars(fr, i)
		if res := sink.ShowFrame(fr); res != vidsink.FlowOK {
			log.Fatalf("frame %d: %v", i, res)
		}
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, win.Framebuffer()); err != nil {
		log.Fatalf("encode PNG: %v", err)
	}
	log.Printf("rendered %d frames, wrote %s", *frames, *outPath)
}
