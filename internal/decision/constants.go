package decision

import "math"

const (
	DefaultBaseThreshold      = 0.65
	DefaultMinInterval        = 20.0 // seconds
	DefaultMaxInterval        = 90.0 // seconds
	DefaultEmotionWeight      = 0.20
	DefaultTopicWeight        = 0.40
	DefaultTimingWeight       = 0.15
	DefaultImportanceWeight   = 0.60
	DefaultKeywordWeight      = 0.30
	DefaultTimeDecayRate      = 0.95

	// minDynamicThreshold/maxDynamicThreshold bound dynamicThreshold's self-adjustment
	// to stay within [0.30, 0.95].
	minDynamicThreshold = 0.30
	maxDynamicThreshold = 0.95

	// frequencyWindowSeconds is the media-seconds lookback for counting
	// recent comments.
	frequencyWindowSeconds = 90.0

	maxHistorySize    = 10
	qualityBonusCap   = 0.3
	coldStartCutoffS  = 20.0
	coldStartTiming   = 0.1
	decayWindowSeconds = 60.0
)

// negInf stands in for "no comment yet" on lastCommentTime.
var negInf = math.Inf(-1)
