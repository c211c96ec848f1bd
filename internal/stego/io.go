package stego

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
)

// Embed decodes the PNG at carrierPath, embeds data, and writes the
// result losslessly to outputPath.
func Embed(carrierPath, outputPath string, data []byte) (EmbedResult, error) {
	img, err := decodePNG(carrierPath)
	if err != nil {
		return EmbedResult{}, err
	}
	dst, result, err := EmbedImage(img, data)
	if err != nil {
		return EmbedResult{}, err
	}
	if err := encodePNG(outputPath, dst); err != nil {
		return EmbedResult{}, err
	}
	return result, nil
}

// Extract decodes the PNG at path and extracts its embedded payload.
func Extract(path string) ([]byte, error) {
	img, err := decodePNG(path)
	if err != nil {
		return nil, err
	}
	return ExtractImage(img)
}

// HasEmbeddedDataFile reports whether the PNG at path carries a recognized
// payload header. A decode failure yields false rather than an error,
// matching HasEmbeddedData's "any load error → false" contract.
func HasEmbeddedDataFile(path string) bool {
	img, err := decodePNG(path)
	if err != nil {
		return false
	}
	return HasEmbeddedData(img)
}

// EncodePNGBytes lossless-encodes img to a PNG byte slice, the in-memory
// counterpart of Embed's file-based output used when a carrier is handed
// straight to a cloud collaborator instead of written to local disk.
func EncodePNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("stego: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNGBytes decodes a PNG byte slice, the in-memory counterpart of
// Extract's file-based input.
func DecodePNGBytes(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, InvalidImageError("png")
	}
	return img, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stego: open carrier: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, InvalidImageError("png")
	}
	return img, nil
}

func encodePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stego: create output: %w", err)
	}
	defer f.Close()
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(f, img); err != nil {
		return fmt.Errorf("stego: encode png: %w", err)
	}
	return nil
}
