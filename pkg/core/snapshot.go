package core

// Attachment represents a debug artifact captured during step execution
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: snapshot, history
	ContentType string `json:"contentType"` // MIME type: image/png, text/plain
	Path        string `json:"path"`        // File path relative to the report directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentSnapshot = "snapshot" // Rendered darkroom view
	AttachmentHistory  = "history"  // Module history stack dump
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewSnapshotAttachment creates a snapshot attachment
func NewSnapshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentSnapshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// SnapshotConfig controls when render snapshots are captured
type SnapshotConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnTimeout bool `yaml:"captureOnTimeout" json:"captureOnTimeout"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
}

// DefaultSnapshotConfig returns the defaults for snapshot capture
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		CaptureOnFailure: true,
		CaptureOnTimeout: true,
		CaptureOnSuccess: false,
	}
}

// ShouldCapture returns true if a snapshot should be taken for the given
// step status
func (c SnapshotConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed:
		return c.CaptureOnFailure
	case StatusTimedOut:
		return c.CaptureOnTimeout
	case StatusApplied:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// SnapshotSource captures the host's current rendering as PNG data.
// The gateway client implements it; tests use NullSnapshotSource.
type SnapshotSource interface {
	Snapshot() ([]byte, error)
}

// NullSnapshotSource is a no-op implementation for testing
type NullSnapshotSource struct{}

// Snapshot returns nil (no-op)
func (n NullSnapshotSource) Snapshot() ([]byte, error) { return nil, nil }
