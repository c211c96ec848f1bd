package stego

import (
	"image"
	"image/color"

	"github.com/slasshy/vault/internal/primitives"
)

// GenerateGradientCarrier produces a smooth RGBA gradient of the given
// dimensions. It is also the base image for decoy carriers: a gradient
// has ample, evenly distributed LSB capacity and no existing payload to
// collide with.
func GenerateGradientCarrier(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / maxInt(width-1, 1))
			g := uint8((y * 255) / maxInt(height-1, 1))
			b := uint8(((x + y) * 255) / maxInt(width+height-2, 1))
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GenerateDecoyCarrier produces a carrier indistinguishable from one
// produced by a real Embed call: a gradient base image with a
// valid-header, random-filler payload embedded. It pads the vault's
// carrier set (decoy_ratio) — a real fragment and a decoy fragment are
// bit-for-bit indistinguishable to the cloud collaborator. The duress
// decoy index does not use decoy carriers.
func GenerateDecoyCarrier(width, height int) (*image.NRGBA, error) {
	base := GenerateGradientCarrier(width, height)
	capBytes := CapacityBytes(width, height)
	if capBytes <= 0 {
		return base, nil
	}

	fillerLen, err := primitives.RandomInt(capBytes/4, capBytes)
	if err != nil {
		return nil, err
	}
	filler, err := primitives.RandomBytes(fillerLen)
	if err != nil {
		return nil, err
	}
	dst, _, err := EmbedImage(base, filler)
	if err != nil {
		return nil, err
	}
	return dst, nil
}
