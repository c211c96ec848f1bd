package fragment

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/slasshy/vault/internal/vaulterrors"
	"errors"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return b
}

func TestSplitSmallPayloadSingleFragment(t *testing.T) {
	payload := randomBytes(t, 100)
	frags, err := Split(payload, Options{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment for small payload, got %d", len(frags))
	}
	if frags[0].Total != 1 || frags[0].Index != 0 {
		t.Fatalf("unexpected fragment header: %+v", frags[0])
	}
}

func TestSplitReassembleRoundTrip(t *testing.T) {
	payload := randomBytes(t, 2*1024*1024) // 2 MiB
	frags, err := Split(payload, Options{MinChunk: 64 * 1024, MaxChunk: 512 * 1024})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(frags) < 4 || len(frags) > 33 {
		t.Fatalf("expected between 4 and 33 fragments, got %d", len(frags))
	}

	for _, f := range frags {
		if f.DataLength < 64*1024 && f.Index != f.Total-1 {
			t.Fatalf("non-last fragment %d below min chunk: %d bytes", f.Index, f.DataLength)
		}
		if f.DataLength > 512*1024 {
			t.Fatalf("fragment %d exceeds max chunk: %d bytes", f.Index, f.DataLength)
		}
	}

	got, err := Reassemble(frags)
	if err != nil {
		t.Fatalf("reassemble: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("reassembled payload mismatch")
	}
}

func TestReassembleShuffledOrder(t *testing.T) {
	payload := randomBytes(t, 300*1024)
	frags, err := Split(payload, Options{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	shuffled := append([]Fragment(nil), frags...)
	for i := len(shuffled) - 1; i > 0; i-- {
		jBig, _ := randIntn(i + 1)
		j := jBig
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	got, err := Reassemble(shuffled)
	if err != nil {
		t.Fatalf("reassemble shuffled: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("shuffled reassembly mismatch")
	}
}

func randIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func TestReassembleMissingFragmentFails(t *testing.T) {
	payload := randomBytes(t, 300*1024)
	frags, err := Split(payload, Options{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(frags) < 2 {
		t.Skip("need at least 2 fragments for this test")
	}
	dropped := frags[1:]
	if _, err := Reassemble(dropped); !errors.Is(err, vaulterrors.ErrFragmentMissing) {
		t.Fatalf("expected ErrFragmentMissing, got %v", err)
	}
}

func TestReassembleDuplicateFragmentFails(t *testing.T) {
	payload := randomBytes(t, 300*1024)
	frags, err := Split(payload, Options{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	dup := append(append([]Fragment(nil), frags...), frags[0])
	if _, err := Reassemble(dup); !errors.Is(err, vaulterrors.ErrFragmentDuplicate) {
		t.Fatalf("expected ErrFragmentDuplicate, got %v", err)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	payload := randomBytes(t, 300*1024)
	frags, err := Split(payload, Options{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for _, f := range frags {
		buf := Serialize(f)
		got, err := Deserialize(buf)
		if err != nil {
			t.Fatalf("deserialize: %v", err)
		}
		if !bytes.Equal(got.Data, f.Data) || got.Index != f.Index || got.Total != f.Total {
			t.Fatalf("serialize/deserialize mismatch for fragment %d", f.Index)
		}
	}
}

func TestDeserializeCorruptFails(t *testing.T) {
	payload := randomBytes(t, 300*1024)
	frags, err := Split(payload, Options{})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	buf := Serialize(frags[0])
	buf[len(buf)-1] ^= 0xFF // flip a byte inside the serialized fragment data

	if _, err := Deserialize(buf); !errors.Is(err, vaulterrors.ErrFragmentCorrupt) {
		t.Fatalf("expected ErrFragmentCorrupt, got %v", err)
	}
}

func TestDeserializeTruncatedFails(t *testing.T) {
	if _, err := Deserialize([]byte{0x00, 0x01}); !errors.Is(err, vaulterrors.ErrFragmentTruncated) {
		t.Fatalf("expected ErrFragmentTruncated, got %v", err)
	}
}
