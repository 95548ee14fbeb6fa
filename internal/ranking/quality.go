package ranking

import (
	"strings"
	"unicode/utf8"
)

// Quality metadata keys.
const (
	MetaLanguage    = "language"
	MetaContentType = "content_type"
	MetaReadability = "readability_score"
)

// QualityScorer averages length adequacy, language support, content type and readability.
type QualityScorer struct {
	minLength    int
	fullLength   int
	languages    map[string]struct{}
	langScore    float64
	otherLang    float64
	contentTypes map[string]float64
}

// NewQualityScorer creates a QualityScorer from config.
func NewQualityScorer(config *RankingConfig) *QualityScorer {
	langs := make(map[string]struct{}, len(config.SupportedLanguages))
	for _, l := range config.SupportedLanguages {
		langs[strings.ToLower(l)] = struct{}{}
	}
	return &QualityScorer{
		minLength:    config.MinContentLength,
		fullLength:   config.FullContentLength,
		languages:    langs,
		langScore:    config.SupportedLangScore,
		otherLang:    config.OtherLangScore,
		contentTypes: config.ContentTypeWeights,
	}
}

// Name returns the scorer name.
func (s *QualityScorer) Name() string {
	return ScorerQuality
}

// Score returns the mean of the quality indicators.
func (s *QualityScorer) Score(ctx *ScoringContext) float64 {
	meta := ctx.Metadata()
	var indicators []float64

	// Short chunks carry no length signal at all.
	if n := utf8.RuneCountInString(ctx.Content()); n > s.minLength && s.fullLength > 0 {
		indicators = append(indicators, clamp(float64(n)/float64(s.fullLength), 0, 1))
	}

	lang, _ := metaString(meta, MetaLanguage)
	if _, ok := s.languages[strings.ToLower(lang)]; ok && lang != "" {
		indicators = append(indicators, s.langScore)
	} else {
		indicators = append(indicators, s.otherLang)
	}

	indicators = append(indicators, s.contentTypeWeight(meta))

	readability := 0.5
	if r, ok := metaFloat(meta, MetaReadability); ok {
		readability = clamp(r, 0, 1)
	}
	indicators = append(indicators, readability)

	var sum float64
	for _, v := range indicators {
		sum += v
	}
	return clamp(sum/float64(len(indicators)), 0, 1)
}

func (s *QualityScorer) contentTypeWeight(meta map[string]interface{}) float64 {
	ct, ok := metaString(meta, MetaContentType)
	if !ok {
		ct = "general"
	}
	if w, ok := s.contentTypes[strings.ToLower(ct)]; ok {
		return clamp(w, 0, 1)
	}
	return 0.5
}
