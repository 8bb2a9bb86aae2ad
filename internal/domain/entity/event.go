package entity

// RawEvent is one tick's worth of output from the real-time stream: an
// ordered sequence of loosely typed key/value records, exactly as the
// transport decoded them. An empty sequence is a valid "no event" signal.
type RawEvent []map[string]any

// EventKind enumerates the closed set of classified event kinds.
type EventKind int

const (
	// KindPlainMessage is an ordinary chat message.
	KindPlainMessage EventKind = iota
	// KindEditedMessage is a message edit (subtype message_changed).
	KindEditedMessage
	// KindDeletedMessage is a message deletion (subtype message_deleted).
	KindDeletedMessage
	// KindTypingNotice signals a user started typing.
	KindTypingNotice
	// KindHandshakeNotice is the stream's hello frame after connecting.
	KindHandshakeNotice
	// KindDesktopNotification is a desktop notification push.
	KindDesktopNotification
	// KindUnrecognized is anything the classifier does not understand.
	KindUnrecognized
)

// String returns a stable label for logging and metrics.
func (k EventKind) String() string {
	switch k {
	case KindPlainMessage:
		return "message"
	case KindEditedMessage:
		return "message_changed"
	case KindDeletedMessage:
		return "message_deleted"
	case KindTypingNotice:
		return "user_typing"
	case KindHandshakeNotice:
		return "hello"
	case KindDesktopNotification:
		return "desktop_notification"
	default:
		return "unrecognized"
	}
}

// Event is a classified stream event. Only the fields relevant to its
// Kind are populated; downstream code never inspects raw payloads again.
type Event struct {
	Kind EventKind

	// Plain message
	SenderID string
	Text     string

	// Edited message
	OldText string
	NewText string

	// Typing notice
	UserID string

	// Unrecognized events keep the raw payload for diagnostics.
	Raw RawEvent
}

// IsCommand reports whether the event is a plain message whose text
// starts with the given command sentinel.
func (e *Event) IsCommand(sentinel string) bool {
	if e.Kind != KindPlainMessage || sentinel == "" {
		return false
	}
	return len(e.Text) >= len(sentinel) && e.Text[:len(sentinel)] == sentinel
}
