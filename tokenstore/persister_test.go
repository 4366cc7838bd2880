package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/zalando/go-keyring"
)

func exercisePersister(t *testing.T, p Persister) {
	t.Helper()
	ctx := context.Background()

	got, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty backend failed: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty credentials, got %+v", got)
	}

	want := Credentials{AccessToken: "A1", RefreshToken: "R1"}
	if err := p.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err = p.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}

	if err := p.Save(ctx, Credentials{RefreshToken: "R1"}); err != nil {
		t.Fatalf("Save with empty access failed: %v", err)
	}
	got, _ = p.Load(ctx)
	if got.AccessToken != "" || got.RefreshToken != "R1" {
		t.Fatalf("expected access token removed, got %+v", got)
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := p.Clear(ctx); err != nil {
		t.Fatalf("second Clear should be idempotent: %v", err)
	}
	got, err = p.Load(ctx)
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty credentials after Clear, got %+v", got)
	}
}

func TestFilePersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	p, err := NewFilePersister(path)
	if err != nil {
		t.Fatalf("NewFilePersister failed: %v", err)
	}
	exercisePersister(t, p)
}

func TestFilePersisterWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	p, _ := NewFilePersister(path)
	if err := p.Save(context.Background(), Credentials{AccessToken: "A"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("token file must not be group/world accessible, got %v", perm)
	}
}

func TestFilePersisterRejectsEmptyPath(t *testing.T) {
	if _, err := NewFilePersister("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestRedisPersister(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p, err := NewRedisPersister(rdb, "test", "device-1", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisPersister failed: %v", err)
	}
	exercisePersister(t, p)

	if err := p.Save(context.Background(), Credentials{AccessToken: "A", RefreshToken: "R"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ttl := mr.TTL(p.Key()); ttl <= 0 {
		t.Fatalf("expected ttl on token key, got %v", ttl)
	}
}

func TestRedisPersisterRejectsBadInput(t *testing.T) {
	if _, err := NewRedisPersister(nil, "p", "o", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := NewRedisPersister(rdb, "p", " ", 0); err == nil {
		t.Fatal("expected error for blank owner")
	}
	if _, err := NewRedisPersister(rdb, "p", "o", -time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestKeyringPersister(t *testing.T) {
	keyring.MockInit()

	p, err := NewKeyringPersister("goauthclient-test", "alice")
	if err != nil {
		t.Fatalf("NewKeyringPersister failed: %v", err)
	}
	exercisePersister(t, p)
}

func TestSQLitePersister(t *testing.T) {
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()
	exercisePersister(t, p)
}

func TestStoreSurvivesRestartWithFilePersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	p, _ := NewFilePersister(path)

	first := New(p)
	first.SetCredentials(Credentials{AccessToken: "A1", RefreshToken: "R1"})

	second := New(p)
	if got := second.Get(); got.AccessToken != "A1" || got.RefreshToken != "R1" {
		t.Fatalf("credentials not restored after restart: %+v", got)
	}
}
