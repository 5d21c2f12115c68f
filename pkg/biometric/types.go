package biometric

// CaptureEventKind enumerates the event kinds a fingerprint capture source
// can raise, modeled on the bundled biometric SDK's event set.
type CaptureEventKind int

const (
	EventPlug CaptureEventKind = iota
	EventUnplug
	EventPlaced
	EventFrameReceived
	EventCaptured
	EventRemoved
	EventAskUserRemove
	EventPlugEnumerationFinished
	EventSunReflectionDetected
	EventFakeFingerDetected
)

func (k CaptureEventKind) String() string {
	switch k {
	case EventPlug:
		return "plug"
	case EventUnplug:
		return "unplug"
	case EventPlaced:
		return "placed"
	case EventFrameReceived:
		return "frame_received"
	case EventCaptured:
		return "captured"
	case EventRemoved:
		return "removed"
	case EventAskUserRemove:
		return "ask_user_remove"
	case EventPlugEnumerationFinished:
		return "plug_enumeration_finished"
	case EventSunReflectionDetected:
		return "sun_reflection_detected"
	case EventFakeFingerDetected:
		return "fake_finger_detected"
	default:
		return "unknown"
	}
}

// CaptureEvent is one event raised by a CaptureSource. Template is only
// populated on EventCaptured.
type CaptureEvent struct {
	Kind     CaptureEventKind
	Template []byte
}

// CaptureSource is the fingerprint reader collaborator: an event stream
// plus enable/disable controls for the scanner. Anti-spoof events
// (SunReflectionDetected, FakeFingerDetected) and enumeration/licensing
// events are passed through for logging; they do not alter presence
// semantics.
type CaptureSource interface {
	Enable()
	Disable()
	Events() <-chan CaptureEvent
}

// Matcher compares a stored enrollment template against a live capture,
// returning an integer similarity score where higher means more similar.
type Matcher interface {
	Match(stored, live []byte) (score int, err error)
}

// MatchThreshold is the minimum score, on the underlying matcher's scale,
// that counts as a positive presence match.
const MatchThreshold = 30
