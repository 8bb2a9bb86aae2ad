package event

import (
	"github.com/w8kerr/rtmbot/internal/domain/entity"
	domainerrors "github.com/w8kerr/rtmbot/internal/domain/errors"
)

// Classify converts one raw stream event into a classified event.
//
// An empty raw sequence is a valid "no event" tick and yields (nil, nil).
// Events missing an expected field fail with a MalformedEventError carrying
// the offending payload; the caller logs it and moves on.
func Classify(raw entity.RawEvent) (*entity.Event, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	first := raw[0]
	typ, ok := stringField(first, "type")
	if !ok {
		return nil, domainerrors.NewMalformedEvent("missing type field", raw)
	}

	switch typ {
	case "message":
		return classifyMessage(first, raw)
	case "hello":
		return &entity.Event{Kind: entity.KindHandshakeNotice}, nil
	case "user_typing":
		userID, ok := stringField(first, "user")
		if !ok {
			return nil, domainerrors.NewMalformedEvent("typing notice missing user", raw)
		}
		return &entity.Event{Kind: entity.KindTypingNotice, UserID: userID}, nil
	case "desktop_notification":
		return &entity.Event{Kind: entity.KindDesktopNotification}, nil
	default:
		return &entity.Event{Kind: entity.KindUnrecognized, Raw: raw}, nil
	}
}

// classifyMessage sub-classifies a type=message event by its subtype.
func classifyMessage(first map[string]any, raw entity.RawEvent) (*entity.Event, error) {
	subtype, hasSubtype := stringField(first, "subtype")
	if !hasSubtype {
		sender, ok := stringField(first, "user")
		if !ok {
			return nil, domainerrors.NewMalformedEvent("message missing user", raw)
		}
		text, ok := stringField(first, "text")
		if !ok {
			return nil, domainerrors.NewMalformedEvent("message missing text", raw)
		}
		return &entity.Event{Kind: entity.KindPlainMessage, SenderID: sender, Text: text}, nil
	}

	switch subtype {
	case "message_deleted":
		prev, ok := nestedStringField(first, "previous_message", "text")
		if !ok {
			return nil, domainerrors.NewMalformedEvent("message_deleted missing previous_message.text", raw)
		}
		return &entity.Event{Kind: entity.KindDeletedMessage, Text: prev}, nil

	case "message_changed":
		oldText, ok := nestedStringField(first, "previous_message", "text")
		if !ok {
			return nil, domainerrors.NewMalformedEvent("message_changed missing previous_message.text", raw)
		}
		newText, ok := nestedStringField(first, "message", "text")
		if !ok {
			return nil, domainerrors.NewMalformedEvent("message_changed missing message.text", raw)
		}
		return &entity.Event{Kind: entity.KindEditedMessage, OldText: oldText, NewText: newText}, nil

	default:
		// Unknown message subtypes are logged as warnings upstream, never fatal.
		return &entity.Event{Kind: entity.KindUnrecognized, Raw: raw}, nil
	}
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func nestedStringField(m map[string]any, outer, inner string) (string, bool) {
	v, ok := m[outer]
	if !ok {
		return "", false
	}
	nested, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	return stringField(nested, inner)
}
