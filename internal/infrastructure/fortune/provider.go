package fortune

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
)

// Provider produces a short adage by invoking an external command with a
// bounded wait. It implements command.AdageProvider.
type Provider struct {
	command string
	timeout time.Duration
}

// NewProvider creates a provider around the given command.
func NewProvider(command string, timeout time.Duration) *Provider {
	return &Provider{command: command, timeout: timeout}
}

// Adage runs the external command and returns its trimmed output. The
// invocation is cancelled at the timeout and reported as
// ErrCommandTimeout rather than left to run unbounded.
func (p *Provider) Adage(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.command).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s after %s: %w", p.command, p.timeout, domainerrors.ErrCommandTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("running %s: %w", p.command, err)
	}

	adage := strings.TrimSpace(string(out))
	if adage == "" {
		return "", fmt.Errorf("%s produced no output", p.command)
	}
	return adage, nil
}
