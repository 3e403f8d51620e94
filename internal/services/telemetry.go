package services

// TelemetryKind is a proctoring event type sent by the client.
type TelemetryKind string

const (
	TelemetryTabSwitch           TelemetryKind = "tab-switch"
	TelemetryGaze                TelemetryKind = "gaze"
	TelemetryObjectDetect        TelemetryKind = "object-detect"
	TelemetryNotLooking          TelemetryKind = "not-looking"
	TelemetryFullscreenViolation TelemetryKind = "fullscreen-violation"
)

// Field is the session document array the event is appended to.
func (k TelemetryKind) Field() (string, bool) {
	switch k {
	case TelemetryTabSwitch:
		return "tabEvents", true
	case TelemetryGaze:
		return "gazeData", true
	case TelemetryObjectDetect:
		return "objectEvents", true
	case TelemetryNotLooking:
		return "warningEvents", true
	case TelemetryFullscreenViolation:
		return "fullscreenViolations", true
	}
	return "", false
}
