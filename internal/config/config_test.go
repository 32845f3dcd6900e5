package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedTable(t *testing.T) {
	cfg := Default()

	require.Equal(t, 0.70, cfg.Detector.DetectionSensitivity)
	require.Equal(t, 0.75, cfg.Detector.EmotionThreshold)
	require.Equal(t, 0.30, cfg.Detector.TopicTransitionThreshold)
	require.Equal(t, 0.50, cfg.Detector.KeypointDensityThreshold)
	require.Equal(t, 0.65, cfg.Decision.BaseThreshold)
	require.Equal(t, 20.0, cfg.Decision.MinInterval)
	require.Equal(t, 90.0, cfg.Decision.MaxInterval)
	require.NotEmpty(t, cfg.Generator.Writers)
}

func TestLoadWithoutFileReturnsValidatedDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().Detector.DetectionSensitivity, cfg.Detector.DetectionSensitivity)
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("eventDetector:\n  detectionSensitivity: 1.8\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownModelProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("eventDetector:\n  modelProvider: carrier-pigeon\n  model: x\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadHonorsConfigFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("decisionEngine:\n  baseThreshold: 0.5\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.Decision.BaseThreshold)
}

func TestToOrchestratorConfigCarriesWeights(t *testing.T) {
	cfg := Default()
	oc := cfg.ToOrchestratorConfig()

	require.Equal(t, cfg.Decision.EmotionWeight, oc.Decision.Weights.Emotion)
	require.Equal(t, cfg.Detector.Model, oc.Detector.Model)
	require.Len(t, oc.Writers, len(cfg.Generator.Writers))
}
