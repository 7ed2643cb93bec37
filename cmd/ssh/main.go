package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"sentiment-lens/internal/app"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/tui"
	"sentiment-lens/pkg/logger"
	"sentiment-lens/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const sshUserKey ctxKey = "ssh_user"

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	buildAppFunc      = app.Build
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	app.ConfigureLogging(cfg, "stdout")
	log := logger.Get().WithComponent("ssh")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, "ssh")
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	a := buildAppFunc(ctx, cfg, tracer)
	defer a.Close()

	allowed, err := loadAuthorizedKeys(cfg.SSHAuthorizedKeysPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load authorized keys")
	}
	if allowed == nil {
		log.Warn("SSH_AUTHORIZED_KEYS_PATH not set, accepting any public key")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			name, ok := authorize(allowed, fingerprint, ctx.User())
			if !ok {
				log.WithFields(logger.Fields{"fingerprint": fingerprint}).Warn("SSH auth denied")
				return false
			}
			ctx.SetValue(sshUserKey, name)
			log.WithFields(logger.Fields{"user": name, "fingerprint": fingerprint}).Info("SSH auth accepted")
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				username, _ := s.Context().Value(sshUserKey).(string)
				if username == "" {
					username = "unknown"
				}

				model := tui.NewAppModel(tui.Services{
					Analysis: a.Analysis,
					Exporter: a.Sink,
					Username: username,
					Period:   cfg.DefaultPeriod,
					Interval: cfg.DefaultInterval,
				})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create SSH server")
	}

	if srv != nil {
		go func() {
			log.WithFields(logger.Fields{"addr": addr}).Info("SSH server listening")
			if err := srv.ListenAndServe(); err != nil {
				log.WithError(err).Info("SSH server stopped")
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("SSH server shutdown error")
		}
	}

	log.Info("SSH server exited")
}

// loadAuthorizedKeys maps SHA256 fingerprints to the key comment. An empty
// path returns a nil map, which authorize treats as open access.
func loadAuthorizedKeys(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}
	keys := make(map[string]string)
	for len(bytes.TrimSpace(raw)) > 0 {
		key, comment, _, rest, err := gossh.ParseAuthorizedKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse authorized keys: %w", err)
		}
		keys[gossh.FingerprintSHA256(key)] = comment
		raw = rest
	}
	return keys, nil
}

func authorize(allowed map[string]string, fingerprint, sshUser string) (string, bool) {
	if allowed == nil {
		return sshUser, true
	}
	comment, ok := allowed[fingerprint]
	if !ok {
		return "", false
	}
	if comment == "" {
		comment = sshUser
	}
	return comment, true
}
