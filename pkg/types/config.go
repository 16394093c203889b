// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StoreConfig holds settings for the storage layer.
type StoreConfig struct {
	// DataDir is the base directory for persisted state (contains the
	// SQLite database and models/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// InferenceConfig holds settings for the inference engine.
type InferenceConfig struct {
	// KeepThreshold is the minimum keep probability for a sentence to be
	// included in cleaned output (default 0.5).
	KeepThreshold float64 `json:"keep_threshold" yaml:"keep_threshold"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr"`

	// CORSOrigins lists allowed cross-origin request origins.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

// DefaultTrainingConfig returns the training defaults used when the
// caller supplies no overrides.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		MaxSteps:  200,
		LearnRate: 0.001,
		BaseModel: "en",
	}
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Training  TrainingConfig  `json:"training" yaml:"training"`
	Inference InferenceConfig `json:"inference" yaml:"inference"`
	Server    ServerConfig    `json:"server" yaml:"server"`
}
