// carriers.go binds the vault index to cloud storage: when a record body
// leaves local disk, it is fragmented, each fragment is embedded into its
// own PNG carrier, and the carriers are uploaded, with the returned
// handles stored in the entry's carrier list. Pulling reverses every step.
package vaultindex

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/slasshy/vault/internal/carriergc"
	"github.com/slasshy/vault/internal/cloud"
	"github.com/slasshy/vault/internal/fragment"
	"github.com/slasshy/vault/internal/stego"
	"github.com/slasshy/vault/internal/vaulterrors"
)

// PushToCloud fragments an entry's already-encrypted record body, embeds
// each fragment into its own PNG carrier, and uploads the carriers
// through the configured cloud.Store, replacing the entry's local record
// file with cloud chunk references. Every carrier is staged as a
// temporary file under carriers/ via carriergc.WithTempCarrier before
// upload, and removed whether the upload succeeds or fails.
func (v *Vault) PushToCloud(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return err
	}
	if v.cloud == nil {
		return fmt.Errorf("vaultindex: no cloud store configured")
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok {
		return &vaulterrors.NotFound{ID: id}
	}
	if idxEntry.RecordPath == "" {
		return fmt.Errorf("vaultindex: entry %s has no local record to push", id)
	}

	ciphertext, err := os.ReadFile(idxEntry.RecordPath)
	if err != nil {
		return fmt.Errorf("vaultindex: read record for push: %w", err)
	}

	fragments, err := fragment.Split(ciphertext, fragment.Options{})
	if err != nil {
		return err
	}

	descriptors := make(Fragments, 0, len(fragments))
	var lastW, lastH int
	for _, f := range fragments {
		serialized := fragment.Serialize(f)
		w, h := dimensionsFor(len(serialized))
		lastW, lastH = w, h
		carrier := stego.GenerateGradientCarrier(w, h)
		embedded, _, err := stego.EmbedImage(carrier, serialized)
		if err != nil {
			return err
		}
		pngBytes, err := stego.EncodePNGBytes(embedded)
		if err != nil {
			return err
		}

		var handle cloud.Handle
		name := fmt.Sprintf("%s.%d.png", id, f.Index)
		stageErr := carriergc.WithTempCarrier(v.carriersDir, func(path string) error {
			if err := os.WriteFile(path, pngBytes, 0o600); err != nil {
				return fmt.Errorf("vaultindex: stage carrier: %w", err)
			}
			staged, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("vaultindex: read staged carrier: %w", err)
			}
			h, err := v.cloud.Upload(ctx, staged, name, "image/png")
			if err != nil {
				return fmt.Errorf("vaultindex: upload fragment %d: %w", f.Index, err)
			}
			handle = h
			return nil
		})
		if stageErr != nil {
			return stageErr
		}

		descriptors = append(descriptors, CarrierDescriptor{
			Type:          CarrierPNG,
			CloudHandle:   string(handle),
			FragmentIndex: f.Index,
			FragmentTotal: f.Total,
		})
	}

	decoyHandles, err := v.pushDecoysLocked(ctx, id, lastW, lastH, len(fragments))
	if err != nil {
		return err
	}
	v.body.DecoyHandles = append(v.body.DecoyHandles, decoyHandles...)

	idxEntry.Carriers = descriptors
	idxEntry.CarrierType = CarrierPNG
	recordPath := idxEntry.RecordPath
	idxEntry.RecordPath = ""
	v.body.Entries[id] = idxEntry

	if err := v.commitMutationLocked("", nil, recordPath); err != nil {
		return err
	}
	v.logEvent("cloud", "pushed record to cloud carriers", map[string]any{"id": id, "fragments": len(descriptors)})
	return nil
}

// pushDecoysLocked generates and uploads decoy carriers padding the
// cloud-visible carrier set, honoring settings.DecoyRatio (decoys per
// real fragment just pushed). A decoy carrier is bit-for-bit
// indistinguishable from a real one to the cloud collaborator; its handle
// is tracked only for cleanup bookkeeping, never referenced by an Index
// Entry. No decoys are generated when fragmentCount is 0; width/height
// fall back to 256×256 when either is non-positive, which cannot happen
// on the PushToCloud path but keeps this helper safe to call standalone.
func (v *Vault) pushDecoysLocked(ctx context.Context, id string, width, height, fragmentCount int) ([]string, error) {
	ratio := v.settings.DecoyRatio
	if ratio <= 0 || fragmentCount == 0 {
		return nil, nil
	}
	if width <= 0 || height <= 0 {
		width, height = 256, 256
	}

	handles := make([]string, 0, ratio*fragmentCount)
	for i := 0; i < ratio*fragmentCount; i++ {
		decoy, err := stego.GenerateDecoyCarrier(width, height)
		if err != nil {
			return nil, err
		}
		pngBytes, err := stego.EncodePNGBytes(decoy)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s.decoy.%d.png", id, i)
		var handle cloud.Handle
		stageErr := carriergc.WithTempCarrier(v.carriersDir, func(path string) error {
			if err := os.WriteFile(path, pngBytes, 0o600); err != nil {
				return fmt.Errorf("vaultindex: stage decoy carrier: %w", err)
			}
			staged, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("vaultindex: read staged decoy carrier: %w", err)
			}
			h, err := v.cloud.Upload(ctx, staged, name, "image/png")
			if err != nil {
				return fmt.Errorf("vaultindex: upload decoy carrier: %w", err)
			}
			handle = h
			return nil
		})
		if stageErr != nil {
			return nil, stageErr
		}
		handles = append(handles, string(handle))
	}
	v.logEvent("cloud", "pushed decoy carriers", map[string]any{"id": id, "count": len(handles)})
	return handles, nil
}

// PullFromCloud downloads every carrier for id, extracts and reassembles
// its fragments, and restores the entry's local record file.
func (v *Vault) PullFromCloud(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireUnlockedLocked(); err != nil {
		return err
	}
	if v.cloud == nil {
		return fmt.Errorf("vaultindex: no cloud store configured")
	}
	idxEntry, ok := v.body.Entries[id]
	if !ok {
		return &vaulterrors.NotFound{ID: id}
	}
	if len(idxEntry.Carriers) == 0 {
		return fmt.Errorf("vaultindex: entry %s has no cloud carriers", id)
	}

	fragments := make([]fragment.Fragment, 0, len(idxEntry.Carriers))
	for _, desc := range idxEntry.Carriers {
		if desc.Type == CarrierJPG {
			return stego.InvalidImageError(string(CarrierJPG))
		}
		pngBytes, err := v.cloud.Download(ctx, cloud.Handle(desc.CloudHandle))
		if err != nil {
			return fmt.Errorf("vaultindex: download fragment %d: %w", desc.FragmentIndex, err)
		}
		img, err := stego.DecodePNGBytes(pngBytes)
		if err != nil {
			return err
		}
		serialized, err := stego.ExtractImage(img)
		if err != nil {
			return err
		}
		f, err := fragment.Deserialize(serialized)
		if err != nil {
			return err
		}
		fragments = append(fragments, f)
	}

	ciphertext, err := fragment.Reassemble(fragments)
	if err != nil {
		return err
	}

	path := recordPathFor(v.recordsDir, id)
	idxEntry.RecordPath = path
	v.body.Entries[id] = idxEntry
	if err := v.commitMutationLocked(path, ciphertext, ""); err != nil {
		return err
	}
	v.logEvent("cloud", "pulled record from cloud carriers", map[string]any{"id": id})
	return nil
}

// dimensionsFor picks the smallest square carrier whose capacity can hold
// dataLen bytes of stego payload.
func dimensionsFor(dataLen int) (int, int) {
	needed := (dataLen + stego.HeaderSize) * 8 / 3
	side := int(math.Ceil(math.Sqrt(float64(needed))))
	if side < 16 {
		side = 16
	}
	for stego.CapacityBytes(side, side) < dataLen {
		side++
	}
	return side, side
}

func recordPathFor(recordsDir, id string) string {
	return filepath.Join(recordsDir, id+".bin")
}
