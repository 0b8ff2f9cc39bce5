// Package corpus rebuilds the subtitle store from a media tree.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/killallgit/subclip/internal/database"
	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/media"
	"github.com/killallgit/subclip/internal/services/search"
	"github.com/killallgit/subclip/internal/subtitles"
)

// Options configures a rebuild
type Options struct {
	Workers   int
	BatchSize int
	LockPath  string
}

// Indexer walks media roots and replaces the store's contents
type Indexer struct {
	db    *database.DB
	store *search.Store
	opts  Options
	log   *logrus.Entry
}

// NewIndexer creates an indexer writing to store
func NewIndexer(db *database.DB, store *search.Store, opts Options) *Indexer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.LockPath == "" {
		opts.LockPath = lockPathFor(db.Path())
	}
	return &Indexer{
		db:    db,
		store: store,
		opts:  opts,
		log:   logging.Component("indexer"),
	}
}

func lockPathFor(dbPath string) string {
	if dbPath == "" || strings.HasPrefix(dbPath, ":memory:") || strings.HasPrefix(dbPath, "file::memory:") {
		return filepath.Join(os.TempDir(), "subclip.index.lock")
	}
	return dbPath + ".index.lock"
}

// subtitleFile is one subtitle paired with its media file
type subtitleFile struct {
	media    string
	subtitle string
}

type fileResult struct {
	entries []models.SubtitleEntry
	skipped int
	err     *IndexingIOError
}

// Rebuild discards the current corpus and indexes every root from scratch.
// Only one rebuild may run at a time across processes sharing the database.
func (ix *Indexer) Rebuild(ctx context.Context, roots ...string) (*models.IndexRun, error) {
	if len(roots) == 0 {
		return nil, errors.New("no corpus roots given")
	}

	lock := flock.New(ix.opts.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !ok {
		return nil, ErrIndexBusy
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			ix.log.WithError(err).Warn("failed to release index lock")
		}
	}()

	run := &models.IndexRun{
		Root:      strings.Join(roots, string(os.PathListSeparator)),
		Status:    models.IndexRunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := ix.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("recording index run: %w", err)
	}

	ix.log.WithField("roots", roots).Info("rebuilding subtitle index")

	err = ix.rebuild(ctx, roots, run)
	ix.finish(ctx, run, err)
	if err != nil {
		return run, err
	}

	ix.log.WithFields(logrus.Fields{
		"media_files":     run.MediaFiles,
		"subtitle_files":  run.SubtitleFiles,
		"entries_indexed": run.EntriesIndexed,
		"entries_skipped": run.EntriesSkipped,
		"files_failed":    run.FilesFailed,
		"elapsed":         run.Elapsed(),
	}).Info("subtitle index rebuilt")
	return run, nil
}

func (ix *Indexer) rebuild(ctx context.Context, roots []string, run *models.IndexRun) error {
	var files []subtitleFile
	for _, root := range roots {
		videos, subs, err := ix.discover(ctx, root)
		if err != nil {
			return err
		}
		run.MediaFiles += videos
		files = append(files, subs...)
	}
	run.SubtitleFiles = len(files)

	// Workers parse, one collector restores discovery order and batches, and
	// the store writes batches as they arrive inside its replace transaction.
	// The channels only close on success so a failure rolls the replace back.
	parsed := make(chan parsedFile, ix.opts.Workers)
	batches := make(chan []models.SubtitleEntry)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		workers, wctx := errgroup.WithContext(gctx)
		workers.SetLimit(ix.opts.Workers)
		for i, f := range files {
			workers.Go(func() error {
				if err := wctx.Err(); err != nil {
					return err
				}
				select {
				case parsed <- parsedFile{index: i, fileResult: parseFile(f)}:
					return nil
				case <-wctx.Done():
					return wctx.Err()
				}
			})
		}
		if err := workers.Wait(); err != nil {
			return err
		}
		close(parsed)
		return nil
	})

	g.Go(func() error {
		if err := ix.collect(gctx, parsed, batches, run); err != nil {
			return err
		}
		close(batches)
		return nil
	})

	var written int
	g.Go(func() error {
		n, err := ix.store.ReplaceStream(gctx, batches, ix.opts.BatchSize)
		if err != nil {
			return fmt.Errorf("writing subtitle entries: %w", err)
		}
		written = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	run.EntriesIndexed = written
	return nil
}

type parsedFile struct {
	index int
	fileResult
}

// collect forwards parsed entries to out in discovery order, in batches of
// the configured size. Files parsed ahead of their turn wait in a small
// reorder buffer bounded by the worker count.
func (ix *Indexer) collect(ctx context.Context, in <-chan parsedFile, out chan<- []models.SubtitleEntry, run *models.IndexRun) error {
	var (
		next  int
		ahead = make(map[int]fileResult)
		batch = make([]models.SubtitleEntry, 0, ix.opts.BatchSize)
	)

	send := func(entries []models.SubtitleEntry) error {
		select {
		case out <- entries:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		var (
			p  parsedFile
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok = <-in:
		}
		if !ok {
			break
		}

		ahead[p.index] = p.fileResult
		for {
			r, ready := ahead[next]
			if !ready {
				break
			}
			delete(ahead, next)
			next++

			if r.err != nil {
				run.FilesFailed++
				ix.log.WithError(r.err).WithField("file", r.err.Path).Warn("skipping unreadable subtitle file")
				continue
			}
			run.EntriesSkipped += r.skipped
			batch = append(batch, r.entries...)
			if len(batch) >= ix.opts.BatchSize {
				if err := send(batch); err != nil {
					return err
				}
				batch = make([]models.SubtitleEntry, 0, ix.opts.BatchSize)
			}
		}
	}

	if len(batch) > 0 {
		return send(batch)
	}
	return nil
}

// discover walks root and pairs every video with its sibling subtitles.
// Unreadable directories are skipped.
func (ix *Indexer) discover(ctx context.Context, root string) (int, []subtitleFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, nil, &IndexingIOError{Path: root, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return 0, nil, &IndexingIOError{Path: root, Op: "stat", Err: errors.New("not a directory")}
	}

	var (
		videos int
		files  []subtitleFile
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			ix.log.WithError(err).WithField("path", path).Warn("skipping unreadable path")
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !media.IsVideo(path) {
			return nil
		}

		videos++
		stem := strings.TrimSuffix(path, filepath.Ext(path))
		for _, candidate := range []string{stem + ".srt", stem + "_ko.srt"} {
			if _, err := os.Stat(candidate); err == nil {
				files = append(files, subtitleFile{media: path, subtitle: candidate})
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].media != files[j].media {
			return files[i].media < files[j].media
		}
		return files[i].subtitle < files[j].subtitle
	})
	return videos, files, nil
}

func parseFile(f subtitleFile) fileResult {
	fh, err := os.Open(f.subtitle)
	if err != nil {
		return fileResult{err: &IndexingIOError{Path: f.subtitle, Op: "open", Err: err}}
	}
	defer fh.Close()

	cues, badBlocks, err := subtitles.ParseSRT(fh)
	if err != nil {
		return fileResult{err: &IndexingIOError{Path: f.subtitle, Op: "read", Err: err}}
	}

	now := time.Now().UTC()
	name := filepath.Base(f.subtitle)
	res := fileResult{skipped: len(badBlocks)}
	for _, cue := range cues {
		lang := subtitles.DetectLanguage(cue.Text, name)
		text := subtitles.Clean(cue.Text, lang)
		if !subtitles.IsDialogue(text) {
			res.skipped++
			continue
		}
		res.entries = append(res.entries, models.SubtitleEntry{
			MediaFile:    f.media,
			SubtitleFile: f.subtitle,
			StartTime:    cue.Start,
			EndTime:      cue.End,
			StartTimeMs:  cue.StartMs,
			EndTimeMs:    cue.EndMs,
			Text:         text,
			Language:     lang,
			Directory:    filepath.Dir(f.media),
			IndexedAt:    now,
		})
	}
	return res
}

// finish records the run outcome. It uses a detached context so a cancelled
// rebuild still leaves a terminal run row behind.
func (ix *Indexer) finish(ctx context.Context, run *models.IndexRun, runErr error) {
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Status = models.IndexRunCompleted
	if runErr != nil {
		run.Status = models.IndexRunFailed
		run.ErrorMessage = runErr.Error()
	}

	if err := ix.db.WithContext(context.WithoutCancel(ctx)).Save(run).Error; err != nil {
		ix.log.WithError(err).WithField("run_id", run.ID).Error("failed to record index run result")
	}
}

// Stats summarises the indexed corpus
func (ix *Indexer) Stats(ctx context.Context) (*search.Stats, error) {
	return ix.store.Stats(ctx)
}
