// Package media maps subtitle-side media references onto files under the
// configured media roots.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/killallgit/subclip/internal/logging"
)

// Extensions are the recognised video extensions, probed in order when
// resolving a reference. The indexer pairs subtitles with the same set.
var Extensions = []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".m4v", ".flv", ".webm"}

// IsVideo reports whether path has a recognised video extension, ignoring case
func IsVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ResolutionError means no root holds a file for the reference
type ResolutionError struct {
	Reference string
	Roots     []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("media file for %q not found under %s", e.Reference, strings.Join(e.Roots, ", "))
}

// Resolver finds media files by stem under a list of roots
type Resolver struct {
	roots []string
	log   *logrus.Entry
}

// NewResolver creates a resolver probing roots in order
func NewResolver(roots []string) *Resolver {
	return &Resolver{
		roots: roots,
		log:   logging.Component("media"),
	}
}

// Roots returns the configured media roots
func (r *Resolver) Roots() []string {
	return r.roots
}

// Resolve returns the local path of the media file a reference names. The
// reference may be a path from another host; only its stem is used. Each
// root is probed first, then its immediate subdirectories in name order.
func (r *Resolver) Resolve(ref string) (string, error) {
	stem := Stem(ref)
	if stem == "" {
		return "", &ResolutionError{Reference: ref, Roots: r.roots}
	}

	for _, root := range r.roots {
		for _, dir := range searchDirs(root) {
			for _, ext := range Extensions {
				candidate := filepath.Join(dir, stem+ext)
				if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
					r.log.WithFields(logrus.Fields{"reference": ref, "path": candidate}).Debug("resolved media file")
					return candidate, nil
				}
			}
		}
	}

	return "", &ResolutionError{Reference: ref, Roots: r.roots}
}

// Stem reduces a media or subtitle reference to the bare name it was indexed
// under: "C:\shows\ep1_ko.srt" gives "ep1".
func Stem(ref string) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(ref), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	ext := filepath.Ext(name)
	name = strings.TrimSuffix(name, ext)
	if strings.EqualFold(ext, ".srt") {
		name = strings.TrimSuffix(name, "_ko")
	}
	return name
}

func searchDirs(root string) []string {
	dirs := []string{root}
	entries, err := os.ReadDir(root)
	if err != nil {
		return dirs
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(subdirs)
	return append(dirs, subdirs...)
}
