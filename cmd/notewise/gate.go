package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
)

var (
	errNotEnrolled     = errors.New("no passphrase enrolled yet; run `notewise enroll` first")
	errNoTerminal      = errors.New("the passphrase prompt needs an interactive terminal")
	errUnlockCancelled = errors.New("notes stay locked")
)

// unlock evaluates the gate and, on a failed or erroring prompt, asks the
// user whether to try again. Nothing is retried without an answer.
func unlock(ctx context.Context, gate ports.AuthGate, in *bufio.Reader, out io.Writer) error {
	for {
		switch result := gate.Evaluate(ctx).(type) {
		case domain.AuthenticationSuccess:
			return nil
		case domain.AuthenticationNotSet:
			return errNotEnrolled
		case domain.HardwareUnavailable:
			return errNoTerminal
		case domain.AuthenticationFailed:
			fmt.Fprintln(out, styles.Warning.Render("Passphrase did not match."))
		case domain.AuthenticationError:
			fmt.Fprintln(out, styles.Warning.Render("Authentication error: "+result.Message))
		default:
			return fmt.Errorf("unexpected auth result %T", result)
		}

		if ctx.Err() != nil || !confirm(in, out, "Try again?") {
			return errUnlockCancelled
		}
	}
}

func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
