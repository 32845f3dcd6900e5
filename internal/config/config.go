// Package config loads and validates the full configuration surface
// for a liveremark stream: buffer, aggregator, detector, decision
// engine, and comment generator settings, merged from defaults, an
// optional config file, and environment-variable overrides of keys
// that file sets.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/liveremark/core/internal/aggregator"
	"github.com/liveremark/core/internal/buffer"
	"github.com/liveremark/core/internal/decision"
	"github.com/liveremark/core/internal/detector"
	"github.com/liveremark/core/internal/domain"
	"github.com/liveremark/core/internal/orchestrator"
)

// BufferConfig mirrors the shared schema used by both contextBuffer
// and uncommentedBuffer.
type BufferConfig struct {
	BufferSizeWords  int     `mapstructure:"bufferSize" validate:"gte=0"`
	WindowDuration   float64 `mapstructure:"windowDuration" validate:"gte=0"`
	SegmentMaxSize   int     `mapstructure:"segmentMaxSize" validate:"gte=0"`
	RetentionTime    float64 `mapstructure:"retentionTime" validate:"gte=0"`
}

// AggregatorConfig mirrors the shortTurnAggregator group.
type AggregatorConfig struct {
	MinTurnDurationMs             float64 `mapstructure:"minTurnDurationMs" validate:"gte=0"`
	AggregationMaxDelayMs         float64 `mapstructure:"aggregationMaxDelayMs" validate:"gte=0"`
	AggregationMaxGapMs           float64 `mapstructure:"aggregationMaxGapMs" validate:"gte=0"`
	AggregationMaxWords           int     `mapstructure:"aggregationMaxWords" validate:"gte=0"`
	AggregationMaxTotalDurationMs float64 `mapstructure:"aggregationMaxTotalDurationMs" validate:"gte=0"`
}

// DetectorConfig mirrors the eventDetector group.
type DetectorConfig struct {
	DetectionSensitivity     float64 `mapstructure:"detectionSensitivity" validate:"gte=0,lte=1"`
	EmotionThreshold         float64 `mapstructure:"emotionThreshold" validate:"gte=0,lte=1"`
	TopicTransitionThreshold float64 `mapstructure:"topicTransitionThreshold" validate:"gte=0,lte=1"`
	KeypointDensityThreshold float64 `mapstructure:"keypointDensityThreshold" validate:"gte=0,lte=1"`
	ModelProvider            string  `mapstructure:"modelProvider" validate:"oneof=openai google"`
	Model                    string  `mapstructure:"model" validate:"required"`
}

// DecisionConfig mirrors the decisionEngine group.
type DecisionConfig struct {
	BaseThreshold         float64 `mapstructure:"baseThreshold" validate:"gte=0,lte=1"`
	MinInterval           float64 `mapstructure:"minInterval" validate:"gte=0"`
	MaxInterval           float64 `mapstructure:"maxInterval" validate:"gte=0"`
	EmotionWeight         float64 `mapstructure:"emotionWeight" validate:"gte=0,lte=1"`
	TopicWeight           float64 `mapstructure:"topicWeight" validate:"gte=0,lte=1"`
	TimingWeight          float64 `mapstructure:"timingWeight" validate:"gte=0,lte=1"`
	ImportanceWeight      float64 `mapstructure:"importanceWeight" validate:"gte=0,lte=1"`
	KeywordWeight         float64 `mapstructure:"keywordWeight" validate:"gte=0,lte=1"`
	FrequencySuppression  float64 `mapstructure:"frequencySuppression" validate:"gte=0,lte=1"`
	TimeDecayRate         float64 `mapstructure:"timeDecayRate" validate:"gte=0,lte=1"`
}

// WriterConfig mirrors one entry of commentGenerator.writers.
type WriterConfig struct {
	Name         string `mapstructure:"name" validate:"required"`
	Instructions string `mapstructure:"instructions"`
	MinLength    int    `mapstructure:"minLength" validate:"gte=0"`
	MaxLength    int    `mapstructure:"maxLength" validate:"gte=0"`
	Model        string `mapstructure:"model"`
}

// GeneratorConfig mirrors the commentGenerator group.
type GeneratorConfig struct {
	Writers              []WriterConfig `mapstructure:"writers" validate:"dive"`
	SelectorModel        string         `mapstructure:"selectorModel"`
	SelectorInstructions string         `mapstructure:"selectorInstructions"`
}

// Config is the full, validated configuration surface for one stream.
type Config struct {
	ContextBuffer     BufferConfig     `mapstructure:"contextBuffer"`
	UncommentedBuffer BufferConfig     `mapstructure:"uncommentedBuffer"`
	Aggregator        AggregatorConfig `mapstructure:"shortTurnAggregator"`
	Detector          DetectorConfig   `mapstructure:"eventDetector"`
	Decision          DecisionConfig   `mapstructure:"decisionEngine"`
	Generator         GeneratorConfig  `mapstructure:"commentGenerator"`

	HTTPAddr string `mapstructure:"httpAddr"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func defaultBufferConfig() BufferConfig {
	d := buffer.DefaultConfig()
	return BufferConfig{
		BufferSizeWords: d.BufferSizeWords,
		WindowDuration:  d.WindowSeconds,
		SegmentMaxSize:  d.SegmentMaxWords,
		RetentionTime:   d.RetentionSeconds,
	}
}

func defaultBuiltinWriters() []WriterConfig {
	return []WriterConfig{
		{Name: "hype", Instructions: "react with excitement to standout moments", MinLength: 10, MaxLength: 240},
		{Name: "analyst", Instructions: "offer a measured, substantive observation", MinLength: 20, MaxLength: 320},
		{Name: "skeptic", Instructions: "push back or question what was just said", MinLength: 10, MaxLength: 240},
		{Name: "historian", Instructions: "connect the moment to earlier context", MinLength: 20, MaxLength: 320},
		{Name: "comedian", Instructions: "find the humor in the moment", MinLength: 10, MaxLength: 200},
		{Name: "summarizer", Instructions: "distill what just happened into one clear line", MinLength: 15, MaxLength: 200},
	}
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		ContextBuffer:     defaultBufferConfig(),
		UncommentedBuffer: defaultBufferConfig(),
		Aggregator: AggregatorConfig{
			MinTurnDurationMs:             aggregator.DefaultMinTurnDurationMs,
			AggregationMaxDelayMs:         aggregator.DefaultAggregationMaxDelayMs,
			AggregationMaxGapMs:           aggregator.DefaultAggregationMaxGapMs,
			AggregationMaxWords:           aggregator.DefaultAggregationMaxWords,
			AggregationMaxTotalDurationMs: aggregator.DefaultAggregationMaxTotalDurationMs,
		},
		Detector: DetectorConfig{
			DetectionSensitivity:     detector.DefaultDetectionSensitivity,
			EmotionThreshold:         detector.DefaultEmotionThreshold,
			TopicTransitionThreshold: detector.DefaultTopicTransitionThreshold,
			KeypointDensityThreshold: detector.DefaultKeypointDensityThreshold,
			ModelProvider:            "openai",
			Model:                    "gpt-5-nano",
		},
		Decision: DecisionConfig{
			BaseThreshold:        decision.DefaultBaseThreshold,
			MinInterval:          decision.DefaultMinInterval,
			MaxInterval:          decision.DefaultMaxInterval,
			EmotionWeight:        decision.DefaultEmotionWeight,
			TopicWeight:          decision.DefaultTopicWeight,
			TimingWeight:         decision.DefaultTimingWeight,
			ImportanceWeight:     decision.DefaultImportanceWeight,
			KeywordWeight:        decision.DefaultKeywordWeight,
			FrequencySuppression: 0.80,
			TimeDecayRate:        decision.DefaultTimeDecayRate,
		},
		Generator: GeneratorConfig{
			Writers:       defaultBuiltinWriters(),
			SelectorModel: "gpt-5-mini",
		},
		HTTPAddr: ":8000",
	}
}

// Load merges defaults, an optional config file at path (if non-empty),
// and LIVEREMARK_-prefixed environment variables, then validates
// ranges. An environment variable overrides only a key that the config
// file sets; one for a key the file leaves out, or any when path is
// empty, is not applied. A config error fails fast, before any
// component is wired.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("LIVEREMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, domain.Wrapf(err, domain.CodeConfigInvalid, "reading config file %q", path)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, domain.Wrap(err, domain.CodeConfigInvalid, "unmarshal config")
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, domain.Wrap(err, domain.CodeConfigInvalid, "validate config")
	}
	return cfg, nil
}

// ToOrchestratorConfig converts the flat config surface into the
// component configs orchestrator.New expects.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		ContextBuffer: buffer.Config{
			BufferSizeWords:  c.ContextBuffer.BufferSizeWords,
			WindowSeconds:    c.ContextBuffer.WindowDuration,
			SegmentMaxWords:  c.ContextBuffer.SegmentMaxSize,
			RetentionSeconds: c.ContextBuffer.RetentionTime,
		},
		UncommentedBuffer: buffer.Config{
			BufferSizeWords:  c.UncommentedBuffer.BufferSizeWords,
			WindowSeconds:    c.UncommentedBuffer.WindowDuration,
			SegmentMaxWords:  c.UncommentedBuffer.SegmentMaxSize,
			RetentionSeconds: c.UncommentedBuffer.RetentionTime,
		},
		Aggregator: aggregator.Config{
			MinTurnDurationMs:             c.Aggregator.MinTurnDurationMs,
			AggregationMaxDelayMs:         c.Aggregator.AggregationMaxDelayMs,
			AggregationMaxGapMs:           c.Aggregator.AggregationMaxGapMs,
			AggregationMaxWords:           c.Aggregator.AggregationMaxWords,
			AggregationMaxTotalDurationMs: c.Aggregator.AggregationMaxTotalDurationMs,
		},
		Detector: detector.Config{
			DetectionSensitivity:     c.Detector.DetectionSensitivity,
			EmotionThreshold:         c.Detector.EmotionThreshold,
			TopicTransitionThreshold: c.Detector.TopicTransitionThreshold,
			KeypointDensityThreshold: c.Detector.KeypointDensityThreshold,
			Model:                    c.Detector.Model,
		},
		Decision: decision.Config{
			BaseThreshold: c.Decision.BaseThreshold,
			MinInterval:   c.Decision.MinInterval,
			MaxInterval:   c.Decision.MaxInterval,
			Weights: decision.Weights{
				Emotion:    c.Decision.EmotionWeight,
				Topic:      c.Decision.TopicWeight,
				Timing:     c.Decision.TimingWeight,
				Importance: c.Decision.ImportanceWeight,
				Keyword:    c.Decision.KeywordWeight,
			},
			FrequencySuppressionWeight: c.Decision.FrequencySuppression,
			TimeDecayRate:              c.Decision.TimeDecayRate,
		},
		Writers:  toDomainWriters(c.Generator.Writers),
		Selector: domain.SelectorConfig{Model: c.Generator.SelectorModel, Instructions: c.Generator.SelectorInstructions},
	}
}

func toDomainWriters(writers []WriterConfig) []domain.WriterConfig {
	out := make([]domain.WriterConfig, 0, len(writers))
	for _, w := range writers {
		out = append(out, domain.WriterConfig{
			Name:         w.Name,
			Instructions: w.Instructions,
			MinLength:    w.MinLength,
			MaxLength:    w.MaxLength,
			Model:        w.Model,
		})
	}
	return out
}
