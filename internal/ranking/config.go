package ranking

// RankingConfig holds all configuration for the ranking system.
type RankingConfig struct {
	// Weights for the four scoring components
	SimilarityWeight float64 `yaml:"similarity_weight"` // default: 0.4
	RecencyWeight    float64 `yaml:"recency_weight"`    // default: 0.2
	PopularityWeight float64 `yaml:"popularity_weight"` // default: 0.2
	QualityWeight    float64 `yaml:"quality_weight"`    // default: 0.2

	// Recency decay per second of age
	RecencyDecay float64 `yaml:"recency_decay"` // default: 1e-7

	// Popularity: log1p(engagement) / PopularityScale
	PopularityScale float64 `yaml:"popularity_scale"` // default: 10

	// Quality indicators
	MinContentLength   int                `yaml:"min_content_length"`   // default: 50
	FullContentLength  int                `yaml:"full_content_length"`  // default: 1000
	SupportedLanguages []string           `yaml:"supported_languages"`  // default: [zh, en]
	SupportedLangScore float64            `yaml:"supported_lang_score"` // default: 0.8
	OtherLangScore     float64            `yaml:"other_lang_score"`     // default: 0.3
	ContentTypeWeights map[string]float64 `yaml:"content_type_weights"`

	// Diversity penalty applied to repeated categories
	DiversityFactor float64 `yaml:"diversity_factor"` // default: 0.3
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		SimilarityWeight: 0.4,
		RecencyWeight:    0.2,
		PopularityWeight: 0.2,
		QualityWeight:    0.2,

		RecencyDecay:    1e-7,
		PopularityScale: 10,

		MinContentLength:   50,
		FullContentLength:  1000,
		SupportedLanguages: []string{"zh", "en"},
		SupportedLangScore: 0.8,
		OtherLangScore:     0.3,
		ContentTypeWeights: map[string]float64{
			"technical": 1.0,
			"academic":  0.9,
			"business":  0.7,
			"general":   0.5,
		},

		DiversityFactor: 0.3,
	}
}

// ApplyDefaults fills in zero values with defaults. Weights are defaulted only when all four
// are zero, so a single component can be switched off with an explicit 0.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	if c.SimilarityWeight == 0 && c.RecencyWeight == 0 && c.PopularityWeight == 0 && c.QualityWeight == 0 {
		c.SimilarityWeight = defaults.SimilarityWeight
		c.RecencyWeight = defaults.RecencyWeight
		c.PopularityWeight = defaults.PopularityWeight
		c.QualityWeight = defaults.QualityWeight
	}

	if c.RecencyDecay == 0 {
		c.RecencyDecay = defaults.RecencyDecay
	}
	if c.PopularityScale == 0 {
		c.PopularityScale = defaults.PopularityScale
	}
	if c.MinContentLength == 0 {
		c.MinContentLength = defaults.MinContentLength
	}
	if c.FullContentLength == 0 {
		c.FullContentLength = defaults.FullContentLength
	}
	if len(c.SupportedLanguages) == 0 {
		c.SupportedLanguages = defaults.SupportedLanguages
	}
	if c.SupportedLangScore == 0 {
		c.SupportedLangScore = defaults.SupportedLangScore
	}
	if c.OtherLangScore == 0 {
		c.OtherLangScore = defaults.OtherLangScore
	}
	if c.ContentTypeWeights == nil {
		c.ContentTypeWeights = defaults.ContentTypeWeights
	}
	if c.DiversityFactor == 0 {
		c.DiversityFactor = defaults.DiversityFactor
	}
	c.DiversityFactor = clamp(c.DiversityFactor, 0, 1)
}

// Weights returns the component weights keyed by scorer name.
func (c *RankingConfig) Weights() map[string]float64 {
	return map[string]float64{
		ScorerSimilarity: c.SimilarityWeight,
		ScorerRecency:    c.RecencyWeight,
		ScorerPopularity: c.PopularityWeight,
		ScorerQuality:    c.QualityWeight,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
