package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
	"github.com/w8kerr/rtmbot/internal/domain/logger"
)

// Sender posts a text message to a destination (channel, group, or direct
// conversation).
type Sender interface {
	PostMessage(ctx context.Context, destination, text string) error
}

// AdageProvider produces a short adage. Implementations must honor the
// context deadline and fail with ErrCommandTimeout on expiry.
type AdageProvider interface {
	Adage(ctx context.Context) (string, error)
}

// handler executes one command. Replies are always addressed to the issuer.
type handler func(ctx context.Context, args []string, issuerID string) error

// command pairs a handler with its help description.
type command struct {
	name        string
	description string
	run         handler
}

// Dispatcher parses sentinel-prefixed message text and routes it to a
// fixed, statically known command table. No command is added or removed at
// runtime.
type Dispatcher struct {
	sentinel string
	sender   Sender
	fortune  AdageProvider
	logger   logger.Logger

	commands map[string]*command
	order    []string
}

// NewDispatcher builds the dispatcher with its fixed command table.
func NewDispatcher(sentinel string, sender Sender, fortune AdageProvider, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		sentinel: sentinel,
		sender:   sender,
		fortune:  fortune,
		logger:   log,
		commands: make(map[string]*command),
	}

	d.register("help", "list available commands", d.runHelp)
	d.register("fortune", "receive a short adage", d.runFortune)
	d.register("echo", "echo back the given arguments", d.runEcho)

	return d
}

func (d *Dispatcher) register(name, description string, run handler) {
	d.commands[name] = &command{name: name, description: description, run: run}
	d.order = append(d.order, name)
}

// Sentinel returns the command sentinel prefix.
func (d *Dispatcher) Sentinel() string {
	return d.sentinel
}

// Dispatch parses the message text and invokes the matching handler.
// A lone sentinel is a silent no-op. Unknown names get an "unknown
// command" notice followed by the help text, both addressed to the issuer.
func (d *Dispatcher) Dispatch(ctx context.Context, text, issuerID string) error {
	stripped := strings.TrimPrefix(text, d.sentinel)
	tokens := strings.Fields(stripped)
	if len(tokens) == 0 {
		return nil
	}

	name, args := tokens[0], tokens[1:]

	cmd, ok := d.commands[name]
	if !ok {
		d.logger.Info("unknown command", "command", name, "issuer", issuerID)
		if err := d.sender.PostMessage(ctx, issuerID, fmt.Sprintf("unknown command: %s", name)); err != nil {
			return fmt.Errorf("sending unknown-command notice: %w", err)
		}
		return d.sender.PostMessage(ctx, issuerID, d.helpText())
	}

	d.logger.Info("dispatching command", "command", name, "args", args, "issuer", issuerID)
	return cmd.run(ctx, args, issuerID)
}

// helpText renders every known command and its description as a
// preformatted block.
func (d *Dispatcher) helpText() string {
	var b strings.Builder
	b.WriteString("```\n")
	for _, name := range d.order {
		fmt.Fprintf(&b, "%s%s - %s\n", d.sentinel, name, d.commands[name].description)
	}
	b.WriteString("```")
	return b.String()
}

func (d *Dispatcher) runHelp(ctx context.Context, _ []string, issuerID string) error {
	return d.sender.PostMessage(ctx, issuerID, d.helpText())
}

func (d *Dispatcher) runEcho(ctx context.Context, args []string, issuerID string) error {
	return d.sender.PostMessage(ctx, issuerID, fmt.Sprintf("%v", args))
}

func (d *Dispatcher) runFortune(ctx context.Context, _ []string, issuerID string) error {
	adage, err := d.fortune.Adage(ctx)
	if err != nil {
		// Timeouts and invocation failures are reported to the issuer,
		// never silently dropped.
		reply := "fortune failed, try again later"
		if errors.Is(err, domainerrors.ErrCommandTimeout) {
			reply = "fortune timed out"
		}
		if sendErr := d.sender.PostMessage(ctx, issuerID, reply); sendErr != nil {
			return fmt.Errorf("reporting fortune failure: %w", sendErr)
		}
		return fmt.Errorf("fortune: %w", err)
	}
	return d.sender.PostMessage(ctx, issuerID, adage)
}
