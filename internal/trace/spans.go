package trace

// Span names opened across the commentary pipeline. Centralized here
// so every caller uses the same vocabulary instead of each packing its
// own ad hoc string, which would make traces from the orchestrator and
// the WebSocket transport hard to correlate.
const (
	SpanProcessDetectionJob = "orchestrator.process_detection_job"
	SpanDetect              = "detector.detect"
	SpanGenerate            = "generator.generate"
	SpanWSConnection        = "ws.connection"
)

// Attribute keys set on spans opened for one stream, turn, or job, kept
// consistent so a downstream trace viewer can group by them.
const (
	AttrStreamID = "stream_id"
	AttrTurnID   = "turn_id"
	AttrJobID    = "job_id"
)
