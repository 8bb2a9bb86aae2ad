package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
	"github.com/w8kerr/rtmbot/internal/domain/logger"
)

// recordingSender captures every posted message.
type recordingSender struct {
	destinations []string
	texts        []string
	failWith     error
}

func (s *recordingSender) PostMessage(_ context.Context, destination, text string) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.destinations = append(s.destinations, destination)
	s.texts = append(s.texts, text)
	return nil
}

// stubAdage returns a fixed adage or error.
type stubAdage struct {
	adage string
	err   error
}

func (s *stubAdage) Adage(_ context.Context) (string, error) {
	return s.adage, s.err
}

func newTestDispatcher(sender *recordingSender, fortune AdageProvider) *Dispatcher {
	return NewDispatcher(".", sender, fortune, logger.Nop{})
}

func TestDispatch_LoneSentinelIsNoOp(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{})

	if err := d.Dispatch(context.Background(), ".", "U1"); err != nil {
		t.Fatalf("expected no error for lone sentinel, got %v", err)
	}
	if len(sender.texts) != 0 {
		t.Errorf("expected no replies for lone sentinel, got %v", sender.texts)
	}
}

func TestDispatch_Help(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{})

	if err := d.Dispatch(context.Background(), ".help", "U1"); err != nil {
		t.Fatalf("failed to dispatch help: %v", err)
	}
	if len(sender.texts) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(sender.texts))
	}
	if sender.destinations[0] != "U1" {
		t.Errorf("expected reply addressed to issuer U1, got %s", sender.destinations[0])
	}

	help := sender.texts[0]
	for _, name := range []string{"help", "fortune", "echo"} {
		if !strings.Contains(help, "."+name) {
			t.Errorf("expected help text to list %q, got:\n%s", "."+name, help)
		}
	}
	if !strings.HasPrefix(help, "```") || !strings.HasSuffix(help, "```") {
		t.Errorf("expected preformatted help block, got:\n%s", help)
	}
}

func TestDispatch_Echo(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{})

	if err := d.Dispatch(context.Background(), ".echo a b", "U1"); err != nil {
		t.Fatalf("failed to dispatch echo: %v", err)
	}
	if len(sender.texts) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(sender.texts))
	}
	if sender.texts[0] != fmt.Sprintf("%v", []string{"a", "b"}) {
		t.Errorf("expected echoed argument list, got %q", sender.texts[0])
	}
}

func TestDispatch_EchoNoArgs(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{})

	if err := d.Dispatch(context.Background(), ".echo", "U1"); err != nil {
		t.Fatalf("failed to dispatch echo: %v", err)
	}
	if len(sender.texts) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(sender.texts))
	}
}

func TestDispatch_Fortune(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{adage: "fortune favors the bold"})

	if err := d.Dispatch(context.Background(), ".fortune", "U1"); err != nil {
		t.Fatalf("failed to dispatch fortune: %v", err)
	}
	if len(sender.texts) != 1 || sender.texts[0] != "fortune favors the bold" {
		t.Errorf("expected the adage as the only reply, got %v", sender.texts)
	}
}

func TestDispatch_FortuneTimeout(t *testing.T) {
	sender := &recordingSender{}
	timeoutErr := fmt.Errorf("running fortune: %w", domainerrors.ErrCommandTimeout)
	d := newTestDispatcher(sender, &stubAdage{err: timeoutErr})

	err := d.Dispatch(context.Background(), ".fortune", "U1")
	if err == nil {
		t.Fatal("expected the timeout to propagate")
	}
	if !errors.Is(err, domainerrors.ErrCommandTimeout) {
		t.Errorf("expected ErrCommandTimeout in chain, got %v", err)
	}
	if len(sender.texts) != 1 || sender.texts[0] != "fortune timed out" {
		t.Errorf("expected the timeout reported to the issuer, got %v", sender.texts)
	}
	if sender.destinations[0] != "U1" {
		t.Errorf("expected notice addressed to issuer, got %s", sender.destinations[0])
	}
}

func TestDispatch_FortuneFailure(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{err: errors.New("exec: not found")})

	err := d.Dispatch(context.Background(), ".fortune", "U1")
	if err == nil {
		t.Fatal("expected the failure to propagate")
	}
	if len(sender.texts) != 1 || sender.texts[0] != "fortune failed, try again later" {
		t.Errorf("expected the failure reported to the issuer, got %v", sender.texts)
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(sender, &stubAdage{})

	if err := d.Dispatch(context.Background(), ".xyz now", "U1"); err != nil {
		t.Fatalf("failed to dispatch unknown command: %v", err)
	}

	if len(sender.texts) != 2 {
		t.Fatalf("expected exactly two replies, got %d: %v", len(sender.texts), sender.texts)
	}
	if !strings.Contains(sender.texts[0], "xyz") {
		t.Errorf("expected the notice to name the command, got %q", sender.texts[0])
	}
	for _, name := range []string{"help", "fortune", "echo"} {
		if !strings.Contains(sender.texts[1], name) {
			t.Errorf("expected the follow-up help to list %q, got:\n%s", name, sender.texts[1])
		}
	}
	for _, dest := range sender.destinations {
		if dest != "U1" {
			t.Errorf("expected all replies addressed to issuer, got %s", dest)
		}
	}
}

func TestDispatch_SendFailurePropagates(t *testing.T) {
	sender := &recordingSender{failWith: errors.New("channel_not_found")}
	d := newTestDispatcher(sender, &stubAdage{})

	if err := d.Dispatch(context.Background(), ".help", "U1"); err == nil {
		t.Fatal("expected the send failure to propagate")
	}
}
