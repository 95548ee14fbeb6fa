package extract

import (
	"strings"
	"unicode"

	"github.com/hyperjump/askme/internal/ranking"
)

// Languages reported by Analyze.
const (
	LangChinese  = "zh"
	LangEnglish  = "en"
	LangJapanese = "ja"
	LangMixed    = "mixed"
	LangUnknown  = "unknown"
)

// Profile describes a text for the quality scorer.
type Profile struct {
	Language    string
	ContentType string
	Readability float64
	Characters  int
	Words       int
}

// contentTypeKeywords is checked in order; the first type with any keyword present wins.
var contentTypeKeywords = []struct {
	contentType string
	keywords    []string
}{
	{"technical", []string{"技术", "开发", "编程", "代码", "algorithm", "programming"}},
	{"business", []string{"商业", "市场", "销售", "finance", "business"}},
	{"academic", []string{"学术", "研究", "论文", "research", "study"}},
	{"general", []string{"一般", "通用", "日常", "general", "daily"}},
}

// Analyze profiles text.
func Analyze(text string) Profile {
	lang := DetectLanguage(text)
	return Profile{
		Language:    lang,
		ContentType: ClassifyContentType(text),
		Readability: readability(text, lang),
		Characters:  len([]rune(text)),
		Words:       len(strings.Fields(text)),
	}
}

// Metadata returns the profile as chunk metadata under the ranking keys.
func (p Profile) Metadata() map[string]interface{} {
	return map[string]interface{}{
		ranking.MetaLanguage:    p.Language,
		ranking.MetaContentType: p.ContentType,
		ranking.MetaReadability: p.Readability,
		"char_count":            p.Characters,
		"word_count":            p.Words,
	}
}

// DetectLanguage classifies text by script: zh when CJK ideographs are over half of the
// counted letters, en when ASCII letters are, ja when kana are over 30%.
func DetectLanguage(text string) string {
	var han, ascii, kana int
	for _, r := range text {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF:
			han++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			ascii++
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		}
	}
	total := float64(han + ascii + kana)
	switch {
	case total == 0:
		return LangUnknown
	case float64(han)/total > 0.5:
		return LangChinese
	case float64(ascii)/total > 0.5:
		return LangEnglish
	case float64(kana)/total > 0.3:
		return LangJapanese
	default:
		return LangMixed
	}
}

// ClassifyContentType returns technical, business, academic or general.
func ClassifyContentType(text string) string {
	lower := strings.ToLower(text)
	for _, ct := range contentTypeKeywords {
		for _, kw := range ct.keywords {
			if strings.Contains(lower, kw) {
				return ct.contentType
			}
		}
	}
	return "general"
}

// readability scores text in [0, 1]. Chinese uses average whitespace-token length; everything
// else a simplified Flesch reading ease scaled by 1/100.
func readability(text, lang string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	words := strings.Fields(text)
	if lang == LangChinese {
		var runes int
		for _, w := range words {
			runes += len([]rune(w))
		}
		avg := float64(runes) / float64(len(words))
		return clamp01(1 - (avg-2)/10)
	}

	sentences := countSentences(text)
	if sentences == 0 || len(words) == 0 {
		return 0.5
	}
	wps := float64(len(words)) / float64(sentences)
	spw := float64(countSyllables(text)) / float64(len(words))
	return clamp01((206.835 - 1.015*wps - 84.6*spw) / 100)
}

func countSentences(text string) int {
	n := 0
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', '!', '?', '。', '！', '？':
			return true
		}
		return false
	}) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// countSyllables counts vowel groups, at least one.
func countSyllables(text string) int {
	count := 0
	prevVowel := false
	for _, r := range text {
		vowel := strings.ContainsRune("aeiouAEIOU", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if count == 0 {
		return 1
	}
	return count
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
