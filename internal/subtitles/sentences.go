package subtitles

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Hangul jamo, compatibility jamo, syllables, CJK ideographs, hiragana, katakana
	asianScript     = regexp.MustCompile(`[\x{1100}-\x{11FF}\x{3130}-\x{318F}\x{AC00}-\x{D7AF}\x{4E00}-\x{9FFF}\x{3040}-\x{309F}\x{30A0}-\x{30FF}]`)
	englishSentence = regexp.MustCompile(`[A-Z][^.!?]*[.!?]`)
	sentenceNoise   = regexp.MustCompile(`[^\p{L}\p{N}_\s.!?]`)

	yearInParens  = regexp.MustCompile(`\(\d{4}\)`)
	episodeMarker = regexp.MustCompile(`(?i)[- ](S\d{1,2}E\d{1,2}|\d{1,2}x\d{1,2})`)
	releaseYear   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	qualityTail   = regexp.MustCompile(`(?i)\b(1080p|720p|480p|BluRay|DVDRip|WEBRip).*$`)
	nameSeparator = regexp.MustCompile(`[._-]+`)
)

const (
	minSentenceRunes = 10
	minSentenceWords = 3
)

// ExtractEnglishSentences pulls capitalised, terminated English sentences out
// of free text. Lines containing Asian script are dropped entirely.
func ExtractEnglishSentences(text string) []string {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || asianScript.MatchString(line) {
			continue
		}

		for _, m := range englishSentence.FindAllString(line, -1) {
			m = strings.TrimSpace(m)
			if utf8.RuneCountInString(m) < minSentenceRunes || len(strings.Fields(m)) < minSentenceWords {
				continue
			}
			if s := strings.TrimSpace(sentenceNoise.ReplaceAllString(m, "")); s != "" {
				sentences = append(sentences, s)
			}
		}
	}
	return sentences
}

// ExtractTitle derives a show or film title from a media file name, e.g.
// "Friends - S10E02 - The One Where Ross Is Fine.mkv" gives "Friends".
func ExtractTitle(path string) string {
	name := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	stem := name

	name = yearInParens.ReplaceAllString(name, "")
	if loc := episodeMarker.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	if loc := releaseYear.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	name = qualityTail.ReplaceAllString(name, "")
	name = nameSeparator.ReplaceAllString(name, " ")

	title := strings.Join(strings.Fields(name), " ")
	if title == "" {
		// Names that start with a year ("2001 A Space Odyssey") keep their stem
		return strings.Join(strings.Fields(nameSeparator.ReplaceAllString(stem, " ")), " ")
	}
	return title
}
