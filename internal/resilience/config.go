package resilience

import "time"

// Circuit breaker configuration constants
const (
	// Default configuration
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// Detection breaker: runs on every aggregated turn, so a trip
	// should recover quickly and a single miss just drops one turn's
	// worth of events rather than the whole pipeline.
	DetectionThreshold         = 5
	DetectionResetTimeout      = 20 * time.Second
	DetectionHalfOpenSuccesses = 2

	// Generation breaker: runs only on turns the decision engine
	// already scored as worth commenting on, so each failure is a lost
	// comment, not a lost event. Trips sooner and recovers more
	// conservatively than the detection breaker.
	GenerationThreshold         = 3
	GenerationResetTimeout      = 45 * time.Second
	GenerationHalfOpenSuccesses = 3
)

// Config holds circuit breaker settings.
type Config struct {
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         DefaultThreshold,
		ResetTimeout:      DefaultResetTimeout,
		HalfOpenSuccesses: DefaultHalfOpenSuccesses,
	}
}

// DetectionBreakerConfig tunes the breaker guarding the event-detector
// adapter.
func DetectionBreakerConfig() Config {
	return Config{
		Threshold:         DetectionThreshold,
		ResetTimeout:      DetectionResetTimeout,
		HalfOpenSuccesses: DetectionHalfOpenSuccesses,
	}
}

// GenerationBreakerConfig tunes the breaker guarding the comment
// generator adapter.
func GenerationBreakerConfig() Config {
	return Config{
		Threshold:         GenerationThreshold,
		ResetTimeout:      GenerationResetTimeout,
		HalfOpenSuccesses: GenerationHalfOpenSuccesses,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return c
}
