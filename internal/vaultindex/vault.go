package vaultindex

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/slasshy/vault/internal/blobstore"
	"github.com/slasshy/vault/internal/carriergc"
	"github.com/slasshy/vault/internal/cloud"
	"github.com/slasshy/vault/internal/config"
	"github.com/slasshy/vault/internal/envelope"
	"github.com/slasshy/vault/internal/keyring"
	"github.com/slasshy/vault/internal/locallog"
	"github.com/slasshy/vault/internal/primitives"
	"github.com/slasshy/vault/internal/vaulterrors"
	"github.com/slasshy/vault/internal/vaulttxn"
)

const indexFileName = "index.bin"

// carrierSweepInterval and carrierSweepMaxAge govern the background
// janitor that removes abandoned .carrier-tmp-* files left behind by a
// push that crashed before carriergc.WithTempCarrier could clean up
// after itself.
const (
	carrierSweepInterval = 5 * time.Minute
	carrierSweepMaxAge   = 10 * time.Minute
)

// Vault is the durable, encrypted root-of-trust store: it owns the Vault
// Index, every Index Entry and carrier reference, and enforces the
// single-writer reader/writer policy.
// Modeled on a config.Manager (vaultRoot-scoped, load-on-demand),
// generalized to own an in-memory, mutation-guarded index rather than
// re-reading a manifest file per call.
type Vault struct {
	dir         string
	recordsDir  string
	carriersDir string
	tokensPath  string

	settings config.Settings
	params   keyring.KDFParams

	blobs *blobstore.Store
	log   *locallog.Logger
	cloud cloud.Store

	now func() int64

	mu       sync.RWMutex
	holder   *keyring.Holder
	body     *indexBody
	wire     onDiskIndex
	unlocked bool
	duress   bool

	// duressIndexKey is the decoy index's own derived index key, held only
	// while unlocked under duress; zeroed on Lock like every other key.
	duressIndexKey []byte
}

// Option configures a Vault at construction time.
type Option func(*Vault)

// WithCloudStore attaches the cloud collaborator used for carrier binding
// in cloud mode.
func WithCloudStore(store cloud.Store) Option {
	return func(v *Vault) { v.cloud = store }
}

// WithClock overrides the millisecond clock used for Created/Modified
// timestamps, letting tests pin time without sleeping.
func WithClock(now func() int64) Option {
	return func(v *Vault) { v.now = now }
}

// Open prepares a Vault rooted at dir: its records/ and carriers/
// directories are created eagerly so Init and the CRUD contract never
// have to special-case a missing directory. tokens.bin is only a path
// reported by GetPaths; Open does not create it.
func Open(dir string, opts ...Option) (*Vault, error) {
	v := &Vault{
		dir:                 dir,
		recordsDir:   filepath.Join(dir, "records"),
		carriersDir: filepath.Join(dir, "carriers"),
		tokensPath:   filepath.Join(dir, "tokens.bin"),
		now:                 func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(v)
	}

	if err := os.MkdirAll(v.recordsDir, 0o755); err != nil {
		return nil, fmt.Errorf("vaultindex: create records dir: %w", err)
	}
	if err := os.MkdirAll(v.carriersDir, 0o755); err != nil {
		return nil, fmt.Errorf("vaultindex: create carriers dir: %w", err)
	}

	settings, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	v.settings = settings
	v.params = keyring.KDFParams{
		TimeCost:         settings.KDF.TimeCost,
		MemoryCostKB: settings.KDF.MemoryCost,
		Parallelism:   settings.KDF.Parallelism,
	}
	if v.params.TimeCost == 0 {
		v.params = keyring.DefaultKDFParams()
	}

	blobs, err := blobstore.Open(v.recordsDir)
	if err != nil {
		return nil, err
	}
	v.blobs = blobs

	logger, err := locallog.Open(dir)
	if err != nil {
		return nil, err
	}
	v.log = logger

	return v, nil
}

func (v *Vault) indexPath() string { return filepath.Join(v.dir, indexFileName) }

// Exists reports whether the index file has been initialized.
func (v *Vault) Exists() bool {
	_, err := os.Stat(v.indexPath())
	return err == nil
}

// Init creates a brand-new, empty vault sealed under passphrase. Fails
// with vaulterrors.ErrAlreadyInitialized if one already exists.
func (v *Vault) Init(passphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.Exists() {
		return vaulterrors.ErrAlreadyInitialized
	}

	salt, err := primitives.RandomBytes(32)
	if err != nil {
		return err
	}
	master, err := keyring.DeriveMaster(passphrase, salt, v.params)
	if err != nil {
		return err
	}
	defer keyring.Zeroize(master)

	keyHash := hex.EncodeToString(primitives.SHA256(master))
	subkeys, err := keyring.DeriveLabeledSubkeys(master)
	if err != nil {
		return err
	}
	defer subkeys.Zero()

	body := indexBody{
		Entries:   make(map[string]IndexEntry),
		Metadata: Metadata{Created: v.now(), EntryCount: 0},
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vaultindex: marshal empty body: %w", err)
	}
	encBody, err := envelope.Encrypt(bodyJSON, subkeys.IndexKey, []byte(CurrentVersion))
	if err != nil {
		return err
	}

	wire := onDiskIndex{
		Version: CurrentVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		KeyHash: keyHash,
		Body:       encBody,
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("vaultindex: marshal wire index: %w", err)
	}
	if err := vaulttxn.WriteAtomic(v.indexPath(), data); err != nil {
		return err
	}
	v.logEvent("init", "vault initialized", nil)
	return nil
}

// ConfigureDuress installs (or replaces) the duress passphrase's decoy
// view. The vault must be unlocked under its real passphrase to call
// this, since a fresh decoy body is sealed under a newly derived decoy
// index key.
func (v *Vault) ConfigureDuress(duressPassphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.unlocked || v.duress {
		return vaulterrors.ErrLocked
	}

	salt, err := primitives.RandomBytes(32)
	if err != nil {
		return err
	}
	master, err := keyring.DeriveMaster(duressPassphrase, salt, v.params)
	if err != nil {
		return err
	}
	defer keyring.Zeroize(master)

	keyHash := hex.EncodeToString(primitives.SHA256(master))
	decoyIndexKey, err := keyring.DeriveSubkey(master, keyring.IndexKeyLabel, keyring.MasterKeyLen)
	if err != nil {
		return err
	}

	decoyBody := indexBody{
		Entries:   make(map[string]IndexEntry),
		Metadata: Metadata{Created: v.now(), EntryCount: 0},
	}
	decoyJSON, err := json.Marshal(decoyBody)
	if err != nil {
		return fmt.Errorf("vaultindex: marshal decoy body: %w", err)
	}
	encDecoy, err := envelope.Encrypt(decoyJSON, decoyIndexKey, []byte(CurrentVersion+":duress"))
	if err != nil {
		return err
	}

	v.wire.Duress = &DuressConfig{
		Salt:           base64.StdEncoding.EncodeToString(salt),
		KeyHash:     keyHash,
		DecoyBody: encDecoy,
	}
	return v.persistIndexLocked()
}

// Unlock re-derives keys from passphrase and loads the index. A
// passphrase matching the configured duress passphrase instead swaps to
// the decoy index and sets the process-wide duress flag, observable via
// IsDuress but not via IsUnlocked (duress mode).
func (v *Vault) Unlock(passphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unlocked {
		return nil
	}
	if !v.Exists() {
		return vaulterrors.ErrNotInitialized
	}

	raw, err := vaulttxn.ReadWithFallback(v.indexPath(), func(data []byte) bool {
		var w onDiskIndex
		return json.Unmarshal(data, &w) == nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrCorrupt, err)
	}
	var wire onDiskIndex
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrCorrupt, err)
	}

	salt, err := base64.StdEncoding.DecodeString(wire.Salt)
	if err != nil {
		return fmt.Errorf("%w: malformed salt: %v", vaulterrors.ErrCorrupt, err)
	}
	master, err := keyring.DeriveMaster(passphrase, salt, v.params)
	if err != nil {
		return err
	}
	defer keyring.Zeroize(master)

	storedHash, err := hex.DecodeString(wire.KeyHash)
	if err != nil {
		return fmt.Errorf("%w: malformed key hash: %v", vaulterrors.ErrCorrupt, err)
	}
	gotHash := primitives.SHA256(master)

	if primitives.ConstantTimeEqual(gotHash, storedHash) {
		return v.finishUnlockLocked(wire, master, false)
	}
	if wire.Duress != nil {
		duressSalt, err := base64.StdEncoding.DecodeString(wire.Duress.Salt)
		if err == nil {
			duressMaster, err := keyring.DeriveMaster(passphrase, duressSalt, v.params)
			if err == nil {
				defer keyring.Zeroize(duressMaster)
				duressHash, err := hex.DecodeString(wire.Duress.KeyHash)
				if err == nil && primitives.ConstantTimeEqual(primitives.SHA256(duressMaster), duressHash) {
					return v.finishUnlockLocked(wire, duressMaster, true)
				}
			}
		}
	}
	v.logEvent("unlock", "bad passphrase", nil)
	return vaulterrors.ErrBadPassphrase
}

func (v *Vault) finishUnlockLocked(wire onDiskIndex, master []byte, duress bool) error {
	subkeys, err := keyring.DeriveLabeledSubkeys(master)
	if err != nil {
		return err
	}

	var bodyJSON []byte
	aad := []byte(wire.Version)
	bodyCiphertext := wire.Body
	if duress {
		aad = []byte(wire.Version + ":duress")
		bodyCiphertext = wire.Duress.DecoyBody
	}
	bodyJSON, err = envelope.Decrypt(bodyCiphertext, subkeys.IndexKey, aad)
	if err != nil {
		subkeys.Zero()
		return err
	}
	var body indexBody
	if err := json.Unmarshal(bodyJSON, &body); err != nil {
		subkeys.Zero()
		return fmt.Errorf("%w: %v", vaulterrors.ErrCorrupt, err)
	}

	autoLock := time.Duration(v.settings.AutoLockTimeoutMs) * time.Millisecond
	v.holder = keyring.NewHolder(subkeys, autoLock)
	v.body = &body
	v.wire = wire
	v.unlocked = true
	v.duress = duress
	if duress {
		v.duressIndexKey = subkeys.IndexKey
	}
	carriergc.StartGlobal(context.Background(), v.carriersDir, carrierSweepInterval, carrierSweepMaxAge)
	v.logEvent("unlock", "unlock succeeded", map[string]any{"duress": duress})
	return nil
}

// Lock zeroizes every held key and drops the in-memory index. A
// completed Lock strictly happens-before the next Unlock.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.unlocked {
		return
	}
	v.holder.Lock()
	if v.duressIndexKey != nil {
		keyring.Zeroize(v.duressIndexKey)
		v.duressIndexKey = nil
	}
	v.body = nil
	v.unlocked = false
	v.duress = false
	carriergc.StopGlobal()
	v.logEvent("lock", "vault locked", nil)
}

// IsUnlocked reports whether the vault currently holds live keys. It does
// not distinguish a real unlock from a duress unlock: the decoy view
// must look identical from the outside.
func (v *Vault) IsUnlocked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.unlocked
}

// IsDuress reports whether the current session is a duress (decoy)
// session. Only meaningful while IsUnlocked is true.
func (v *Vault) IsDuress() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.duress
}

func (v *Vault) requireUnlockedLocked() error {
	if !v.unlocked {
		return vaulterrors.ErrLocked
	}
	return nil
}

func (v *Vault) keyFor(label string) ([]byte, error) {
	if v.holder == nil {
		return nil, vaulterrors.ErrLocked
	}
	return v.holder.GetKey(label)
}

// encodeWireIndexLocked re-encrypts the in-memory body under the
// appropriate index key and returns the encoded wire index bytes, without
// writing them to disk. Callers must hold v.mu for writing. In a duress
// session this re-encrypts only wire.Duress.DecoyBody — the real vault's
// Body is left untouched, so the real vault remains sealed.
func (v *Vault) encodeWireIndexLocked() ([]byte, error) {
	bodyJSON, err := json.Marshal(v.body)
	if err != nil {
		return nil, fmt.Errorf("vaultindex: marshal body: %w", err)
	}

	if v.duress {
		indexKey := v.duressIndexKey
		enc, err := envelope.Encrypt(bodyJSON, indexKey, []byte(v.wire.Version+":duress"))
		if err != nil {
			return nil, err
		}
		v.wire.Duress.DecoyBody = enc
	} else {
		indexKey, err := v.keyFor(keyring.IndexKeyLabel)
		if err != nil {
			return nil, err
		}
		enc, err := envelope.Encrypt(bodyJSON, indexKey, []byte(v.wire.Version))
		if err != nil {
			return nil, err
		}
		v.wire.Body = enc
	}

	data, err := json.MarshalIndent(v.wire, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("vaultindex: marshal wire index: %w", err)
	}
	return data, nil
}

// persistIndexLocked re-encrypts the in-memory body and atomically writes
// the wire index via write-new + fsync + rename. Use commitMutationLocked
// instead when the same logical mutation also writes or deletes a record
// body, so the two land through one staged vaulttxn.Transaction.
func (v *Vault) persistIndexLocked() error {
	data, err := v.encodeWireIndexLocked()
	if err != nil {
		return err
	}
	return vaulttxn.WriteAtomic(v.indexPath(), data)
}

// commitMutationLocked stages a record-body write (writePath/writeData) or
// delete (deletePath) alongside the index.bin write in a single
// vaulttxn.Transaction, so a crash between the two leaves the vault
// observably unchanged — the mutation either fully lands or fully
// doesn't. Either of writePath or deletePath may be empty when a mutation
// only touches one of them.
func (v *Vault) commitMutationLocked(writePath string, writeData []byte, deletePath string) error {
	indexData, err := v.encodeWireIndexLocked()
	if err != nil {
		return err
	}
	txn := vaulttxn.Begin()
	if writePath != "" {
		txn.StageWrite(writePath, writeData)
	}
	if deletePath != "" {
		txn.StageDelete(deletePath)
	}
	txn.StageWrite(v.indexPath(), indexData)
	return txn.Commit()
}

func (v *Vault) logEvent(kind, message string, fields map[string]any) {
	if v.log == nil {
		return
	}
	_ = v.log.Append(locallog.Event{Timestamp: v.now(), Kind: kind, Message: message, Fields: fields})
}
