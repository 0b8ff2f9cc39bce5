// Package subtitles holds the pure text functions of the indexing pipeline:
// SRT parsing, language detection, cleaning and the dialogue gate.
package subtitles

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/killallgit/subclip/internal/models"
)

// Hangul syllables block
const (
	hangulFirst = 0xAC00
	hangulLast  = 0xD7AF
)

var (
	markupTag      = regexp.MustCompile(`<[^>]+>`)
	braceNote      = regexp.MustCompile(`\{[^}]*\}`)
	parenAside     = regexp.MustCompile(`\([^)]*\)`)
	bracketAside   = regexp.MustCompile(`\[[^\]]*\]`)
	soundEffects   = regexp.MustCompile(`(?i)\b(music|laughs?|applause|cheering|crying|screaming)\b`)
	speakerCaption = regexp.MustCompile(`(?i)\b(narrator|announcer|voice-over)\b`)

	// Lines that are not spoken dialogue. Matched against lower-cased text.
	nonDialogue = []*regexp.Regexp{
		regexp.MustCompile(`^\d+:\d+`),
		regexp.MustCompile(`subtitle by`),
		regexp.MustCompile(`www\.`),
		regexp.MustCompile(`http`),
		regexp.MustCompile(`[♪♫]`),
		regexp.MustCompile(`^\[.*\]$`),
		regexp.MustCompile(`^\(.*\)$`),
	}
)

// DetectLanguage classifies text as Korean or English. A "_ko" marker in the
// filename hint wins; otherwise any Hangul syllable makes the text Korean.
func DetectLanguage(text, filenameHint string) models.Language {
	if strings.Contains(strings.ToLower(filenameHint), "_ko") {
		return models.LanguageKorean
	}

	// Decomposed jamo sequences compose into the syllable block under NFC
	for _, r := range norm.NFC.String(text) {
		if r >= hangulFirst && r <= hangulLast {
			return models.LanguageKorean
		}
	}
	return models.LanguageEnglish
}

// Clean strips subtitle markup and, for English, captioning asides, then
// collapses whitespace. Clean(Clean(x, l), l) == Clean(x, l).
func Clean(text string, lang models.Language) string {
	// Removing a tag can join a combining mark to its base or expose a new
	// word boundary, so passes repeat until the text is stable.
	for {
		next := cleanPass(text, lang)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanPass(text string, lang models.Language) string {
	text = norm.NFC.String(text)
	text = markupTag.ReplaceAllString(text, "")
	text = braceNote.ReplaceAllString(text, "")

	if lang == models.LanguageEnglish {
		text = parenAside.ReplaceAllString(text, "")
		text = bracketAside.ReplaceAllString(text, "")
		text = soundEffects.ReplaceAllString(text, "")
		text = speakerCaption.ReplaceAllString(text, "")
	}

	return norm.NFC.String(strings.Join(strings.Fields(text), " "))
}

// IsDialogue is the admission gate for cleaned text
func IsDialogue(text string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 2 {
		return false
	}

	lower := strings.ToLower(text)
	for _, re := range nonDialogue {
		if re.MatchString(lower) {
			return false
		}
	}
	return true
}

// Tokenize returns the distinct lower-cased words of text in first-seen order.
// Surrounding punctuation is trimmed so "world." and "world" compare equal.
func Tokenize(text string) []string {
	// Casers carry state, so each call gets its own
	fields := strings.Fields(cases.Lower(language.Und).String(text))
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, isEdgePunct)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

func isEdgePunct(r rune) bool {
	return strings.ContainsRune(`.,!?;:"'()[]{}<>…-`, r)
}
