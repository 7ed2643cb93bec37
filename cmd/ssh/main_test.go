package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sentiment-lens/internal/config"
	"sentiment-lens/internal/domain"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			PriceSource:     "yahoo",
			Assets:          domain.DefaultAssets,
			DefaultForums:   domain.DefaultForums,
			DefaultLimit:    100,
			DefaultPeriod:   "7d",
			DefaultInterval: "1h",
			SSHPort:         2222,
			SSHHostKeyPath:  ".ssh/test_key",
			LogLevel:        "error",
		}
	}
	initTracerFunc = func(ctx context.Context, component string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

func newPublicKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestLoadAuthorizedKeys(t *testing.T) {
	alice, bob := newPublicKey(t), newPublicKey(t)
	content := strings.TrimSpace(string(gossh.MarshalAuthorizedKey(alice))) + " alice@laptop\n" +
		string(gossh.MarshalAuthorizedKey(bob))
	path := filepath.Join(t.TempDir(), "authorized_keys")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	keys, err := loadAuthorizedKeys(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}

	name, ok := authorize(keys, gossh.FingerprintSHA256(alice), "ssh-user")
	if !ok || name != "alice@laptop" {
		t.Fatalf("expected alice accepted, got %q %v", name, ok)
	}
	name, ok = authorize(keys, gossh.FingerprintSHA256(bob), "bob")
	if !ok || name != "bob" {
		t.Fatalf("expected bob accepted under ssh user, got %q %v", name, ok)
	}
	if _, ok := authorize(keys, gossh.FingerprintSHA256(newPublicKey(t)), "mallory"); ok {
		t.Fatal("unknown key must be denied")
	}
}

func TestAuthorizeOpenWithoutKeysFile(t *testing.T) {
	keys, err := loadAuthorizedKeys("")
	if err != nil || keys != nil {
		t.Fatalf("expected nil keys, got %v %v", keys, err)
	}
	if name, ok := authorize(nil, "SHA256:any", "carol"); !ok || name != "carol" {
		t.Fatalf("expected open access, got %q %v", name, ok)
	}
}

func TestLoadAuthorizedKeysMissingFile(t *testing.T) {
	if _, err := loadAuthorizedKeys(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
