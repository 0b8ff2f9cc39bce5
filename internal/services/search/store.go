package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/killallgit/subclip/internal/database"
	"github.com/killallgit/subclip/internal/logging"
	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/cache"
	"github.com/killallgit/subclip/internal/subtitles"
)

const ftsTable = "subtitles_fts"

// External-content FTS5 index over the subtitles table
const createFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS subtitles_fts USING fts5(
	text,
	media_file,
	language,
	directory,
	content='subtitles',
	content_rowid='id'
)`

// Options tunes result limits and caching
type Options struct {
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
}

// Store owns the subtitle entries and their full-text index
type Store struct {
	db    *database.DB
	cache cache.Cache
	opts  Options
	fts   atomic.Bool
	log   *logrus.Entry
}

// NewStore creates a store over db. c may be nil to disable result caching.
func NewStore(db *database.DB, c cache.Cache, opts Options) *Store {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = 500
	}
	return &Store{
		db:    db,
		cache: c,
		opts:  opts,
		log:   logging.Component("search"),
	}
}

// Init creates the full-text index when the SQLite build supports FTS5.
// Without it the store serves substring scans only.
func (s *Store) Init(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	existed := db.Migrator().HasTable(ftsTable)

	if err := db.Exec(createFTS).Error; err != nil {
		if strings.Contains(err.Error(), "no such module") {
			if BuiltWithFTS {
				return fmt.Errorf("sqlite_fts5 build tag set but fts5 is missing: %w", err)
			}
			s.fts.Store(false)
			s.log.Warn("sqlite built without fts5 (build with -tags sqlite_fts5), search falls back to substring scan")
			return nil
		}
		return fmt.Errorf("creating full-text index: %w", err)
	}
	s.fts.Store(true)

	if !existed {
		// Entries indexed before the FTS table existed
		if err := db.Exec(`INSERT INTO subtitles_fts(subtitles_fts) VALUES('rebuild')`).Error; err != nil {
			return fmt.Errorf("populating full-text index: %w", err)
		}
	}
	return nil
}

// FTSAvailable reports whether ranked full-text search is in use
func (s *Store) FTSAvailable() bool {
	return s.fts.Load()
}

// Replace discards every entry and stores entries in their place, inside one
// transaction so concurrent readers see either the old or the new corpus.
func (s *Store) Replace(ctx context.Context, entries []models.SubtitleEntry, batchSize int) error {
	batches := make(chan []models.SubtitleEntry, 1)
	batches <- entries
	close(batches)
	_, err := s.ReplaceStream(ctx, batches, batchSize)
	return err
}

// ReplaceStream is Replace for a corpus that arrives in pieces. It clears the
// store, inserts every batch received until batches is closed and commits.
// If ctx ends before batches is closed the transaction is rolled back and the
// old corpus stays. It returns the number of entries written.
func (s *Store) ReplaceStream(ctx context.Context, batches <-chan []models.SubtitleEntry, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	var written int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.FTSAvailable() {
			if err := tx.Exec(`INSERT INTO subtitles_fts(subtitles_fts) VALUES('delete-all')`).Error; err != nil {
				return fmt.Errorf("clearing full-text index: %w", err)
			}
		}
		if err := tx.Exec(`DELETE FROM subtitles`).Error; err != nil {
			return fmt.Errorf("clearing subtitles: %w", err)
		}

		for {
			var (
				batch []models.SubtitleEntry
				ok    bool
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case batch, ok = <-batches:
			}
			if !ok {
				break
			}
			if len(batch) == 0 {
				continue
			}
			if err := tx.CreateInBatches(batch, batchSize).Error; err != nil {
				return fmt.Errorf("inserting subtitles: %w", err)
			}
			written += len(batch)
		}

		if s.FTSAvailable() {
			if err := tx.Exec(`INSERT INTO subtitles_fts(subtitles_fts) VALUES('rebuild')`).Error; err != nil {
				return fmt.Errorf("rebuilding full-text index: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.InvalidateCache(ctx)
	return written, nil
}

// InvalidateCache drops cached search results
func (s *Store) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.log.WithError(err).Warn("clearing search cache")
	}
}

// Search prefers the full-text index and falls back to a case-insensitive
// substring scan when the index is unavailable or the ranked query fails.
func (s *Store) Search(ctx context.Context, q Query) (*Response, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Limit = s.clampLimit(q.Limit)
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}
	if q.Language != "" && !q.Language.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, q.Language)
	}

	key := s.cacheKey(q)
	if resp, ok := s.cached(ctx, key); ok {
		return resp, nil
	}

	resp := &Response{Query: q.Text}
	var err error

	if s.FTSAvailable() {
		resp.Method = MethodFTS
		resp.Results, err = s.searchFTS(ctx, q)
		if err != nil {
			s.log.WithError(err).WithField("query", q.Text).Warn("full-text search failed, using substring scan")
		}
	}
	if !s.FTSAvailable() || err != nil {
		resp.Method = MethodSubstring
		resp.Results, err = s.searchSubstring(ctx, q)
		if err != nil {
			return nil, err
		}
	}

	s.store(ctx, key, resp)
	return resp, nil
}

type ftsRow struct {
	models.SubtitleEntry
	Score float64
}

func (s *Store) searchFTS(ctx context.Context, q Query) ([]Result, error) {
	match := matchExpression(q.Text)
	if match == "" {
		return []Result{}, nil
	}

	sql := `SELECT s.*, bm25(subtitles_fts) AS score
		FROM subtitles_fts JOIN subtitles s ON s.id = subtitles_fts.rowid
		WHERE subtitles_fts MATCH ?`
	args := []any{match}
	if q.Language != "" {
		sql += ` AND s.language = ?`
		args = append(args, q.Language)
	}
	// Pull a wider pool so confidence re-ranking has candidates to work with
	sql += ` ORDER BY score LIMIT ?`
	args = append(args, q.Limit*4)

	var rows []ftsRow
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(rows))
	for i := range rows {
		results = append(results, newResult(q.Text, &rows[i].SubtitleEntry))
	}

	// bm25 order is kept among equal confidence
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (s *Store) searchSubstring(ctx context.Context, q Query) ([]Result, error) {
	db := s.db.WithContext(ctx).
		Model(&models.SubtitleEntry{}).
		Where(`text LIKE ? ESCAPE '\'`, "%"+escapeLike(q.Text)+"%")
	if q.Language != "" {
		db = db.Where("language = ?", q.Language)
	}

	var entries []models.SubtitleEntry
	err := db.Order("language, media_file, start_time_ms").
		Limit(q.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}

	results := make([]Result, 0, len(entries))
	for i := range entries {
		results = append(results, newResult(q.Text, &entries[i]))
	}
	return results, nil
}

func newResult(query string, e *models.SubtitleEntry) Result {
	return Result{
		MediaFile:  e.MediaFile,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		Text:       e.Text,
		Language:   e.Language,
		Directory:  e.Directory,
		StartMs:    e.StartTimeMs,
		EndMs:      e.EndTimeMs,
		Title:      subtitles.ExtractTitle(e.MediaFile),
		Confidence: Confidence(query, e.Text),
	}
}

// matchExpression turns free text into an FTS5 query of quoted, OR-ed
// tokens so user punctuation can never be read as query syntax
func matchExpression(text string) string {
	tokens := subtitles.Tokenize(text)
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

func (s *Store) cacheKey(q Query) string {
	return fmt.Sprintf("search|%t|%s|%d|%s", s.FTSAvailable(), q.Language, q.Limit, strings.ToLower(q.Text))
}

func (s *Store) cached(ctx context.Context, key string) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (s *Store) store(ctx context.Context, key string, resp *Response) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		s.log.WithError(err).Debug("caching search response")
	}
}

// Stats summarises the indexed corpus
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{
		FTSAvailable:  s.FTSAvailable(),
		DatabaseBytes: s.db.Size(),
	}

	if err := db.Model(&models.SubtitleEntry{}).Count(&stats.TotalEntries).Error; err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}
	if err := db.Model(&models.SubtitleEntry{}).
		Select("language, COUNT(*) AS count").
		Group("language").
		Order("language").
		Scan(&stats.ByLanguage).Error; err != nil {
		return nil, fmt.Errorf("counting languages: %w", err)
	}
	if err := db.Model(&models.SubtitleEntry{}).Distinct("media_file").Count(&stats.MediaFiles).Error; err != nil {
		return nil, fmt.Errorf("counting media files: %w", err)
	}
	if err := db.Model(&models.SubtitleEntry{}).Distinct("directory").Count(&stats.Directories).Error; err != nil {
		return nil, fmt.Errorf("counting directories: %w", err)
	}

	var run models.IndexRun
	err := db.Order("id DESC").First(&run).Error
	switch {
	case err == nil:
		stats.LastRun = &run
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("loading last index run: %w", err)
	}

	return stats, nil
}
