package buffer

import "time"

// Defaults for the two buffer instances.
const (
	DefaultBufferSizeWords  = 10_000
	DefaultWindowSeconds    = 300.0
	DefaultSegmentMaxWords  = 50
	DefaultRetentionSeconds = 3600.0

	DefaultSearchLimit = 10
)

// ContextRetention is how long the context buffer's retention window
// runs by default, expressed as a time.Duration for callers that prefer
// it. The buffer itself stores everything and does not read its
// retention setting: GetWindow's cutoff comes from WindowSeconds. No
// automatic eviction runs.
const ContextRetention = time.Duration(DefaultRetentionSeconds) * time.Second
