package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
)

const iconSize = 16

var (
	iconOnce sync.Once
	iconPNG  []byte
)

// Icon returns the tray icon: a filled ring, blue when active and grey when
// paused. Rendered once per state and cached.
func Icon() []byte {
	iconOnce.Do(func() { iconPNG = render(color.RGBA{0x00, 0x78, 0xd4, 0xff}) })
	return iconPNG
}

var (
	pausedOnce sync.Once
	pausedPNG  []byte
)

func PausedIcon() []byte {
	pausedOnce.Do(func() { pausedPNG = render(color.RGBA{0x80, 0x80, 0x80, 0xff}) })
	return pausedPNG
}

func render(fill color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	c := float64(iconSize-1) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			d := math.Hypot(float64(x)-c, float64(y)-c)
			switch {
			case d <= 2.5:
				img.SetRGBA(x, y, color.RGBA{0xff, 0xff, 0xff, 0xff})
			case d <= 7.5:
				img.SetRGBA(x, y, fill)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
