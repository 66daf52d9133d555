package config

// PipelineConfig holds the configurable business rules of the evidence
// pipeline. The numeric thresholds are heuristics tuned by trial, so they
// are carried here as overridable defaults rather than buried in the stages.
type PipelineConfig struct {
	// Clustering
	MinClusterSize int

	// Narrative validation gates
	MinActivities    int
	MinToolTypes     int
	MaxObserverRatio float64

	// Confidence tiers for extracted narrative components
	HighConfidence   float64
	MediumConfidence float64
	LowConfidence    float64

	// Suggestions
	MaxAlternativeFrameworks int

	// Hydration
	MaxMissingIDWarnings int
}

// DefaultPipelineConfig returns the default pipeline configuration
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MinClusterSize: 2,

		MinActivities:    3,
		MinToolTypes:     2,
		MaxObserverRatio: 0.6,

		HighConfidence:   0.8,
		MediumConfidence: 0.5,
		LowConfidence:    0.3,

		MaxAlternativeFrameworks: 2,

		MaxMissingIDWarnings: 10,
	}
}

// DevelopmentPipelineConfig relaxes the gates so small fixture sets still
// produce narratives while iterating locally
func DevelopmentPipelineConfig() *PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.MinActivities = 2
	cfg.MinToolTypes = 1
	cfg.MaxObserverRatio = 1.0
	return cfg
}

// LoadPipelineConfig loads pipeline configuration based on environment
func LoadPipelineConfig(environment string) *PipelineConfig {
	switch environment {
	case "development":
		return DevelopmentPipelineConfig()
	default:
		return DefaultPipelineConfig()
	}
}

// Validate clamps out-of-range values to their nearest legal setting
func (c *PipelineConfig) Validate() error {
	if c.MinClusterSize < 1 {
		c.MinClusterSize = 1
	}
	if c.MaxObserverRatio < 0 {
		c.MaxObserverRatio = 0
	}
	if c.MaxObserverRatio > 1 {
		c.MaxObserverRatio = 1
	}
	return nil
}
