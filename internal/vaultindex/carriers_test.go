package vaultindex

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/slasshy/vault/internal/carriergc"
	"github.com/slasshy/vault/internal/cloud"
)

func TestPushThenPullFromCloudRoundTrips(t *testing.T) {
	dir := t.TempDir()
	mem := cloud.NewMemory()
	v, err := Open(dir, WithCloudStore(mem))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := v.Init("pw"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := v.Unlock("pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	entry, err := v.AddNote("Offloaded Note", "this body goes to a PNG carrier")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}

	ctx := context.Background()
	if err := v.PushToCloud(ctx, entry.ID); err != nil {
		t.Fatalf("push to cloud: %v", err)
	}

	v.mu.RLock()
	pushed := v.body.Entries[entry.ID]
	v.mu.RUnlock()
	if pushed.RecordPath != "" {
		t.Fatalf("expected local record path cleared after push")
	}
	if len(pushed.Carriers) == 0 {
		t.Fatalf("expected carrier descriptors after push")
	}

	if err := v.PullFromCloud(ctx, entry.ID); err != nil {
		t.Fatalf("pull from cloud: %v", err)
	}

	got, err := v.GetNote(entry.ID)
	if err != nil {
		t.Fatalf("get note after pull: %v", err)
	}
	if got.Note == nil || got.Note.Content != "this body goes to a PNG carrier" {
		t.Fatalf("unexpected note content after round trip: %+v", got.Note)
	}
}

func TestPushToCloudEmitsDecoysAndCleansUpTempCarriers(t *testing.T) {
	dir := t.TempDir()
	mem := cloud.NewMemory()
	v, err := Open(dir, WithCloudStore(mem))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v.settings.DecoyRatio = 2
	if err := v.Init("pw"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := v.Unlock("pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	entry, err := v.AddNote("Padded Note", "this body gets decoy company")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if err := v.PushToCloud(context.Background(), entry.ID); err != nil {
		t.Fatalf("push to cloud: %v", err)
	}

	v.mu.RLock()
	fragmentCount := len(v.body.Entries[entry.ID].Carriers)
	decoyCount := len(v.body.DecoyHandles)
	v.mu.RUnlock()
	if decoyCount != 2*fragmentCount {
		t.Fatalf("expected %d decoy handles, got %d", 2*fragmentCount, decoyCount)
	}

	entries, err := os.ReadDir(v.carriersDir)
	if err != nil {
		t.Fatalf("read carriers dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), carriergc.TempPrefix) {
			t.Fatalf("temp carrier left behind after push: %s", e.Name())
		}
	}
}

func TestPushToCloudWithoutStoreFails(t *testing.T) {
	v := testVault(t)
	if err := v.Init("pw"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := v.Unlock("pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	entry, err := v.AddNote("t", "c")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := v.PushToCloud(context.Background(), entry.ID); err == nil {
		t.Fatalf("expected error pushing without a configured cloud store")
	}
}
