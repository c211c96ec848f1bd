package config

import "testing"

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.PreferredCarrier != "png" || s.AutoLockTimeoutMs != 5*60*1000 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Defaults()
	s.DecoyRatio = 3
	s.Compression = "zstd"
	if err := Save(dir, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DecoyRatio != 3 || got.Compression != "zstd" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	s := Defaults()
	s.AutoLockTimeoutMs = -1
	if err := s.Validate(); err == nil {
		t.Fatalf("expected negative auto_lock_timeout_ms to be rejected")
	}

	s = Defaults()
	s.PreferredCarrier = "bmp"
	if err := s.Validate(); err == nil {
		t.Fatalf("expected unknown preferred_carrier to be rejected")
	}

	s = Defaults()
	s.KDF.TimeCost = 1
	if err := s.Validate(); err == nil {
		t.Fatalf("expected weak kdf timeCost to be rejected")
	}
}
