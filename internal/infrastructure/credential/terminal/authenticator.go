// Package terminal gates the CLI behind a locally enrolled passphrase read
// from the controlling terminal without echo.
package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/kirillkom/notewise/internal/core/domain"
)

const minPassphraseRunes = 6

var ErrPassphraseTooShort = fmt.Errorf("%w: passphrase must be at least %d characters", domain.ErrInvalidInput, minPassphraseRunes)

type Authenticator struct {
	hashPath string
	in       *os.File
	out      io.Writer

	isTerminal   func(fd uintptr) bool
	readPassword func(fd int) ([]byte, error)
	getState     func(fd int) (*term.State, error)
	restore      func(fd int, state *term.State) error
}

func New(hashPath string) *Authenticator {
	return &Authenticator{
		hashPath: hashPath,
		in:       os.Stdin,
		out:      os.Stderr,
		isTerminal: func(fd uintptr) bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
		readPassword: term.ReadPassword,
		getState:     term.GetState,
		restore:      term.Restore,
	}
}

func (a *Authenticator) Capability(_ context.Context) domain.AuthCapability {
	if a.in == nil || !a.isTerminal(a.in.Fd()) {
		return domain.CapabilityNoHardware
	}
	if _, err := a.loadHash(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CapabilityNoneEnrolled
		}
		return domain.CapabilityHWUnavailable
	}
	return domain.CapabilityAvailable
}

func (a *Authenticator) Prompt(ctx context.Context, title, description string) domain.AuthResult {
	hash, err := a.loadHash()
	if err != nil {
		return domain.AuthenticationError{Message: "credential store unreadable"}
	}

	if title != "" {
		fmt.Fprintln(a.out, title)
	}
	if description != "" {
		fmt.Fprintln(a.out, description)
	}
	fmt.Fprint(a.out, "Passphrase: ")

	type readResult struct {
		secret []byte
		err    error
	}
	fd := int(a.in.Fd())
	// restored on cancel; the abandoned ReadPassword keeps echo off.
	saved, err := a.getState(fd)
	if err != nil {
		saved = nil
	}
	done := make(chan readResult, 1)
	go func() {
		secret, err := a.readPassword(fd)
		done <- readResult{secret: secret, err: err}
	}()

	var res readResult
	select {
	case <-ctx.Done():
		if saved != nil {
			if err := a.restore(fd, saved); err != nil {
				slog.Warn("terminal_restore_failed", "error", err)
			}
		}
		fmt.Fprintln(a.out)
		return domain.AuthenticationError{Message: "authentication cancelled"}
	case res = <-done:
	}
	fmt.Fprintln(a.out)

	if res.err != nil {
		return domain.AuthenticationError{Message: "could not read passphrase"}
	}
	if err := bcrypt.CompareHashAndPassword(hash, res.secret); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.AuthenticationFailed{}
		}
		return domain.AuthenticationError{Message: "stored credential is corrupt"}
	}
	return domain.AuthenticationSuccess{}
}

// Enroll stores a bcrypt hash of passphrase, replacing any earlier one.
func (a *Authenticator) Enroll(passphrase string) error {
	if len([]rune(strings.TrimSpace(passphrase))) < minPassphraseRunes {
		return ErrPassphraseTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passphrase: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.hashPath), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(a.hashPath, append(hash, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// ReadNewPassphrase asks for a passphrase twice and returns it when both
// entries match.
func (a *Authenticator) ReadNewPassphrase() (string, error) {
	if a.in == nil || !a.isTerminal(a.in.Fd()) {
		return "", fmt.Errorf("%w: enrollment requires an interactive terminal", domain.ErrInvalidInput)
	}
	fmt.Fprint(a.out, "New passphrase: ")
	first, err := a.readPassword(int(a.in.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	fmt.Fprint(a.out, "Repeat passphrase: ")
	second, err := a.readPassword(int(a.in.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	if !bytes.Equal(first, second) {
		return "", fmt.Errorf("%w: passphrases do not match", domain.ErrInvalidInput)
	}
	return string(first), nil
}

func (a *Authenticator) loadHash() ([]byte, error) {
	raw, err := os.ReadFile(a.hashPath)
	if err != nil {
		return nil, err
	}
	hash := bytes.TrimSpace(raw)
	if len(hash) == 0 {
		return nil, fs.ErrNotExist
	}
	return hash, nil
}
