package memory

import "github.com/m-mizutani/goerr/v2"

const (
	// DefaultRetrievalLimit is K: both the ANN fetch width and the maximum
	// number of records a retrieval returns.
	DefaultRetrievalLimit = 5

	// DefaultDimensions matches 1536-wide API embeddings.
	DefaultDimensions = 1536

	// DefaultDecayRate is the per-second exponential recency decay.
	DefaultDecayRate = 0.0001
)

// Score weights. The three factors are summed with equal weight.
const (
	RecencyWeight    = 1.0
	RelevanceWeight  = 1.0
	ImportanceWeight = 1.0
)

// Config holds retrieval configuration.
type Config struct {
	// RetrievalLimit is K. Default: 5.
	RetrievalLimit int `yaml:"retrieval_limit"`

	// Dimensions is the embedding size D, fixed for a store's lifetime.
	// Default: 1536.
	Dimensions int `yaml:"dimensions"`

	// DecayRate is applied as exp(-elapsedSeconds * DecayRate).
	// Default: 0.0001.
	DecayRate float64 `yaml:"decay_rate"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		RetrievalLimit: DefaultRetrievalLimit,
		Dimensions:     DefaultDimensions,
		DecayRate:      DefaultDecayRate,
	}
}

// Validate checks every field is positive.
func (c *Config) Validate() error {
	if c.RetrievalLimit <= 0 {
		return goerr.New("retrieval limit must be positive", goerr.V("retrieval_limit", c.RetrievalLimit))
	}
	if c.Dimensions <= 0 {
		return goerr.New("dimensions must be positive", goerr.V("dimensions", c.Dimensions))
	}
	if c.DecayRate <= 0 {
		return goerr.New("decay rate must be positive", goerr.V("decay_rate", c.DecayRate))
	}
	return nil
}

// withDefaults returns a copy with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.RetrievalLimit == 0 {
		c.RetrievalLimit = DefaultRetrievalLimit
	}
	if c.Dimensions == 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.DecayRate == 0 {
		c.DecayRate = DefaultDecayRate
	}
	return c
}
