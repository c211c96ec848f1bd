// Package stego implements the PNG LSB steganographic codec: a
// magic-framed 16-byte header, bounded capacity, and a bit-exact round
// trip across the RGB channels of a PNG (alpha is never touched). No
// example repo carries a PNG-manipulation library — every example that
// touches images either decodes/encodes PNGs with the standard library or
// doesn't touch pixel data at all — so this package is built directly on
// image/png and image/draw, the idiomatic Go way to manipulate a PNG
// losslessly. The EmbedResult/ExtractResult shape follows the
// result-struct convention a steganography engine elsewhere in the pack
// uses for its embed/extract calls, adapted to a fully implemented
// bit-exact codec rather than a stub.
package stego

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"

	"github.com/slasshy/vault/internal/primitives"
	"github.com/slasshy/vault/internal/vaulterrors"
)

// HeaderSize is the 16-byte stego header: 4-byte magic, 4-byte big-endian
// length, 8-byte truncated SHA-256 checksum.
const HeaderSize = 16

// Magic is the 4-byte frame magic "SLSH" (0x53 0x4C 0x53 0x48).
var Magic = [4]byte{0x53, 0x4C, 0x53, 0x48}

// EmbedResult describes a completed embed operation.
type EmbedResult struct {
	BytesEmbedded int
	Checksum string
	Capacity int
}

// CapacityBytes returns floor(W*H*3/8) - HEADER_SIZE for an image of the
// given dimensions. Alpha is never used for capacity.
func CapacityBytes(w, h int) int {
	return (w*h*3)/8 - HeaderSize
}

func channelBitCapacity(w, h int) int { return w * h * 3 }

// EmbedImage embeds data into src (any decoded image) and returns a new
// *image.NRGBA carrying the payload, leaving src untouched. Fails with
// vaulterrors.ErrCarrierTooSmall if the carrier cannot hold the payload.
func EmbedImage(src image.Image, data []byte) (*image.NRGBA, EmbedResult, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	capBytes := CapacityBytes(w, h)
	if capBytes < 0 || len(data) > capBytes {
		return nil, EmbedResult{}, vaulterrors.ErrCarrierTooSmall
	}

	header := buildHeader(data)
	payload := append(header, data...)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	writeBits(dst, w, payload)

	checksum := primitives.Checksum8(data)
	return dst, EmbedResult{BytesEmbedded: len(data), Checksum: checksum, Capacity: capBytes}, nil
}

func buildHeader(data []byte) []byte {
	header := make([]byte, HeaderSize)
	copy(header[0:4], Magic[:])
	binary.BigEndian.PutUint32(header[4:8], uint32(len(data)))
	sum := primitives.Checksum8Bytes(data)
	copy(header[8:16], sum[:])
	return header
}

// writeBits streams payload bits MSB-first through the R, G, B channels of
// each pixel in row-major order, skipping A.
func writeBits(dst *image.NRGBA, w int, payload []byte) {
	totalBits := len(payload) * 8
	for i := 0; i < totalBits; i++ {
		byteIdx := i / 8
		bitPos := 7 - (i % 8)
		bit := (payload[byteIdx] >> uint(bitPos)) & 1

		pixelIdx := i / 3
		channel := i % 3
		x := pixelIdx % w
		y := pixelIdx / w
		off := dst.PixOffset(x, y) + channel
		dst.Pix[off] = (dst.Pix[off] &^ 1) | bit
	}
}

// readBits is the inverse of writeBits: it reads numBits channel bits
// starting at channel-stream offset startBit and packs them MSB-first into
// out.
func readBits(src *image.NRGBA, w int, startBit, numBits int, out []byte) {
	for i := 0; i < numBits; i++ {
		channelIndex := startBit + i
		pixelIdx := channelIndex / 3
		channel := channelIndex % 3
		x := pixelIdx % w
		y := pixelIdx / w
		off := src.PixOffset(x, y) + channel
		bit := src.Pix[off] & 1

		byteIdx := i / 8
		bitPos := 7 - (i % 8)
		out[byteIdx] |= bit << uint(bitPos)
	}
}

// ExtractImage extracts and checksum-verifies the embedded payload from
// src.
func ExtractImage(src image.Image) ([]byte, error) {
	nrgba := toNRGBA(src)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	totalChannelBits := channelBitCapacity(w, h)
	headerBits := HeaderSize * 8
	if headerBits > totalChannelBits {
		return nil, vaulterrors.ErrNoPayload
	}

	headerBuf := make([]byte, HeaderSize)
	readBits(nrgba, w, 0, headerBits, headerBuf)

	if !bytes.Equal(headerBuf[0:4], Magic[:]) {
		return nil, vaulterrors.ErrNoPayload
	}

	length := binary.BigEndian.Uint32(headerBuf[4:8])
	var checksum [8]byte
	copy(checksum[:], headerBuf[8:16])

	capBytes := CapacityBytes(w, h)
	if capBytes < 0 || int(length) > capBytes {
		return nil, vaulterrors.ErrTruncated
	}

	dataBits := int(length) * 8
	if headerBits+dataBits > totalChannelBits {
		return nil, vaulterrors.ErrTruncated
	}

	data := make([]byte, length)
	readBits(nrgba, w, headerBits, dataBits, data)

	if got := primitives.Checksum8Bytes(data); got != checksum {
		return nil, vaulterrors.ErrStegoCorrupt
	}
	return data, nil
}

// HasEmbeddedData probes the first 32 payload bits against the magic
// value. Any decode or bounds error yields false.
func HasEmbeddedData(src image.Image) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	nrgba := toNRGBA(src)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()
	if channelBitCapacity(w, h) < 32 {
		return false
	}
	magicBuf := make([]byte, 4)
	readBits(nrgba, w, 0, 32, magicBuf)
	return bytes.Equal(magicBuf, Magic[:])
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// InvalidImageError wraps a decode failure for an unsupported carrier
// format (jpg is a reserved, unimplemented CarrierType).
func InvalidImageError(format string) error {
	return fmt.Errorf("%w: unsupported carrier format %q", vaulterrors.ErrInvalidImage, format)
}
