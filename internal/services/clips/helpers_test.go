package clips

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/killallgit/subclip/internal/database"
	"github.com/killallgit/subclip/internal/services/media"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, params ExtractParams) (*ExtractResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ExtractResult)
	return result, args.Error(1)
}

type fixture struct {
	db        *gorm.DB
	repo      Repository
	manager   *Manager
	extractor *mockExtractor
	mediaRoot string
	layout    *OutputLayout
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Initialize(filepath.Join(dir, "clips.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	mediaRoot := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(filepath.Join(mediaRoot, "Show"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mediaRoot, "Show", "ep1.mkv"), nil, 0644))

	layout, err := NewOutputLayout(filepath.Join(dir, "clips"))
	require.NoError(t, err)

	repo := NewRepository(db.DB)
	extractor := &mockExtractor{}
	manager := NewManager(repo, media.NewResolver([]string{mediaRoot}), extractor, layout, Config{
		DefaultPadding:    2.0,
		DefaultPriority:   5,
		HeartbeatInterval: 10 * time.Millisecond,
	})

	return &fixture{
		db:        db.DB,
		repo:      repo,
		manager:   manager,
		extractor: extractor,
		mediaRoot: mediaRoot,
		layout:    layout,
	}
}

func validParams() CreateParams {
	return CreateParams{
		Sentence:  "Hello there, how are you?",
		MediaFile: `D:\Videos\Show\ep1.mkv`,
		StartTime: "00:00:10,000",
		EndTime:   "00:00:12,500",
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
