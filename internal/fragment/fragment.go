// Package fragment splits an encrypted payload into length-randomized,
// checksummed, individually decodable fragments and reassembles them.
// Modeled on a chunkFile.go fixed-size file chunking loop, generalized
// from "split a file on disk into equal chunks" to "split an in-memory
// ciphertext into randomized, checksummed fragments," and on a
// transaction journal's habit of attaching a sha256 checksum to every
// staged unit of data.
package fragment

import (
	"encoding/binary"
	"fmt"

	"github.com/slasshy/vault/internal/primitives"
	"github.com/slasshy/vault/internal/vaulterrors"
)

const (
	// DefaultMinChunk and DefaultMaxChunk are the defaults.
	DefaultMinChunk = 64 * 1024
	DefaultMaxChunk = 512 * 1024

	MaxFragments = 100
	HeaderSize = 16 // uint16 index + uint16 total + 8-byte checksum + uint32 dataLength
)

// Fragment is one independently-decodable slice of an encrypted payload.
type Fragment struct {
	Index int
	Total int
	Checksum [8]byte
	Data []byte
	DataLength int
}

// Options controls the min/max chunk size constraints. Zero values fall
// back to the defaults.
type Options struct {
	MinChunk int
	MaxChunk int
}

func (o Options) resolved() Options {
	if o.MinChunk <= 0 {
		o.MinChunk = DefaultMinChunk
	}
	if o.MaxChunk <= 0 {
		o.MaxChunk = DefaultMaxChunk
	}
	return o
}

// Split divides payload into fragments meeting the constraints.
func Split(payload []byte, opts Options) ([]Fragment, error) {
	opts = opts.resolved()

	if len(payload) <= opts.MinChunk {
		f := Fragment{Index: 0, Total: 1, Data: payload, DataLength: len(payload)}
		f.Checksum = primitives.Checksum8Bytes(payload)
		return []Fragment{f}, nil
	}

	avgChunk := (opts.MinChunk + opts.MaxChunk) / 2
	count := ceilDiv(len(payload), avgChunk)
	if count < 2 {
		count = 2
	}
	if count > MaxFragments {
		count = MaxFragments
	}

	fragments := make([]Fragment, 0, count)
	remaining := len(payload)
	offset := 0
	variance := avgChunk / 4

	for i := 0; i < count; i++ {
		remainingFragments := count - i
		if remainingFragments == 1 {
			data := payload[offset:]
			f := Fragment{Index: i, Total: count, Data: data, DataLength: len(data)}
			f.Checksum = primitives.Checksum8Bytes(data)
			fragments = append(fragments, f)
			break
		}

		avgRemaining := remaining / remainingFragments
		delta := 0
		if variance > 0 {
			d, err := primitives.RandomInt(-variance, variance)
			if err != nil {
				return nil, err
			}
			delta = d
		}
		size := avgRemaining + delta

		lower := opts.MinChunk
		if v := remaining - opts.MaxChunk*(remainingFragments-1); v > lower {
			lower = v
		}
		upper := opts.MaxChunk
		if v := remaining - opts.MinChunk*(remainingFragments-1); v < upper {
			upper = v
		}
		if lower > upper {
			// Shouldn't happen given count's derivation, but fail safe
			// rather than emit an out-of-bounds fragment.
			lower, upper = upper, lower
		}
		if size < lower {
			size = lower
		}
		if size > upper {
			size = upper
		}

		data := payload[offset : offset+size]
		f := Fragment{Index: i, Total: count, Data: data, DataLength: len(data)}
		f.Checksum = primitives.Checksum8Bytes(data)
		fragments = append(fragments, f)

		offset += size
		remaining -= size
	}

	return fragments, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// Serialize encodes a fragment as uint16_be(index) ‖ uint16_be(total) ‖
// 8-byte checksum ‖ uint32_be(dataLength) ‖ data.
func Serialize(f Fragment) []byte {
	out := make([]byte, HeaderSize+len(f.Data))
	binary.BigEndian.PutUint16(out[0:2], uint16(f.Index))
	binary.BigEndian.PutUint16(out[2:4], uint16(f.Total))
	copy(out[4:12], f.Checksum[:])
	binary.BigEndian.PutUint32(out[12:16], uint32(f.DataLength))
	copy(out[16:], f.Data)
	return out
}

// Deserialize decodes and checksum-verifies a serialized fragment.
func Deserialize(buf []byte) (Fragment, error) {
	if len(buf) < HeaderSize {
		return Fragment{}, vaulterrors.ErrFragmentTruncated
	}
	index := int(binary.BigEndian.Uint16(buf[0:2]))
	total := int(binary.BigEndian.Uint16(buf[2:4]))
	var checksum [8]byte
	copy(checksum[:], buf[4:12])
	dataLength := int(binary.BigEndian.Uint32(buf[12:16]))

	if len(buf) < HeaderSize+dataLength {
		return Fragment{}, vaulterrors.ErrFragmentTruncated
	}
	data := buf[HeaderSize : HeaderSize+dataLength]

	got := primitives.Checksum8Bytes(data)
	if got != checksum {
		return Fragment{}, fmt.Errorf("%w: fragment %d", vaulterrors.ErrFragmentCorrupt, index)
	}

	return Fragment{Index: index, Total: total, Checksum: checksum, Data: data, DataLength: dataLength}, nil
}

// Reassemble requires all Total fragments, verifies indices are exactly
// 0..total-1 with no duplicates or gaps, and concatenates them in index
// order. The input order does not matter.
func Reassemble(fragments []Fragment) ([]byte, error) {
	if len(fragments) == 0 {
		return nil, vaulterrors.ErrFragmentTruncated
	}
	total := fragments[0].Total
	if total <= 0 || total > MaxFragments {
		return nil, vaulterrors.ErrTooManyFragments
	}

	seen := make([]bool, total)
	byIndex := make([]Fragment, total)
	for _, f := range fragments {
		if f.Total != total {
			return nil, fmt.Errorf("%w: inconsistent total", vaulterrors.ErrFragmentCorrupt)
		}
		if f.Index < 0 || f.Index >= total {
			return nil, fmt.Errorf("%w: index %d", vaulterrors.ErrFragmentCorrupt, f.Index)
		}
		if seen[f.Index] {
			return nil, fmt.Errorf("%w: index %d", vaulterrors.ErrFragmentDuplicate, f.Index)
		}
		seen[f.Index] = true
		byIndex[f.Index] = f
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: index %d", vaulterrors.ErrFragmentMissing, i)
		}
	}

	var out []byte
	for _, f := range byIndex {
		out = append(out, f.Data...)
	}
	return out, nil
}
