package clips

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/killallgit/subclip/internal/models"
)

// Output directory names under the clip base directory
const (
	singleDir = "single"
	batchDir  = "batch"
	tempDir   = "temp"
)

const (
	sentenceNameRunes = 30
	projectNameRunes  = 20
)

// OutputLayout decides where extracted clips are written
type OutputLayout struct {
	basePath string
}

// NewOutputLayout creates a layout rooted at basePath
func NewOutputLayout(basePath string) (*OutputLayout, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &OutputLayout{basePath: absPath}, nil
}

// Base returns the clip base directory
func (l *OutputLayout) Base() string {
	return l.basePath
}

// Path returns the output file for a request:
// single/<id>_<sentence>.mp4 or batch/<project>/<id>_<sentence>.mp4
func (l *OutputLayout) Path(req *models.ClipRequest, projectName string) string {
	name := fileName(req.ID, req.Sentence)
	if req.ClipType != models.ClipTypeBatch {
		return filepath.Join(l.basePath, singleDir, name)
	}
	if project := SafeName(projectName, projectNameRunes); project != "" {
		return filepath.Join(l.basePath, batchDir, project, name)
	}
	return filepath.Join(l.basePath, batchDir, name)
}

// TempDir returns the scratch directory
func (l *OutputLayout) TempDir() string {
	return filepath.Join(l.basePath, tempDir)
}

// TempPath returns a scratch output path for an ad-hoc extraction
func (l *OutputLayout) TempPath(id, sentence string) string {
	return filepath.Join(l.TempDir(), fileName(id, sentence))
}

// CleanTemp removes scratch files last modified before cutoff
func (l *OutputLayout) CleanTemp(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(l.TempDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(l.TempDir(), entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func fileName(id, sentence string) string {
	safe := SafeName(sentence, sentenceNameRunes)
	if safe == "" {
		return id + ".mp4"
	}
	return id + "_" + safe + ".mp4"
}

// SafeName keeps the first limit runes of s, drops everything but letters,
// digits, space, '-' and '_', and turns spaces into underscores
func SafeName(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		runes = runes[:limit]
	}

	var b strings.Builder
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
}
