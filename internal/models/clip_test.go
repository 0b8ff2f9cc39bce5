package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "models.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}

func TestClipRequest_BeforeCreate(t *testing.T) {
	tests := []struct {
		name         string
		clip         ClipRequest
		wantStatus   ClipStatus
		wantType     ClipType
		wantPriority int
	}{
		{
			name:         "fills defaults",
			clip:         ClipRequest{},
			wantStatus:   ClipStatusPending,
			wantType:     ClipTypeSingle,
			wantPriority: PriorityDefault,
		},
		{
			name:         "keeps explicit values",
			clip:         ClipRequest{ID: "fixed-id", Status: ClipStatusFailed, ClipType: ClipTypeBatch, Priority: 1},
			wantStatus:   ClipStatusFailed,
			wantType:     ClipTypeBatch,
			wantPriority: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.clip.BeforeCreate(nil))
			assert.NotEmpty(t, tt.clip.ID)
			assert.Equal(t, tt.wantStatus, tt.clip.Status)
			assert.Equal(t, tt.wantType, tt.clip.ClipType)
			assert.Equal(t, tt.wantPriority, tt.clip.Priority)
		})
	}
}

func TestClipRequest_Persistence(t *testing.T) {
	db := setupTestDB(t)

	project := ClipProject{Name: "greetings", Type: ClipTypeBatch}
	require.NoError(t, db.Create(&project).Error)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, ProjectStatusActive, project.Status)

	clip := ClipRequest{
		ProjectID:      &project.ID,
		Sentence:       "Hello there.",
		MediaFile:      "/media/show/ep1.mkv",
		StartTime:      "00:00:10,000",
		EndTime:        "00:00:12,500",
		PaddingSeconds: 0,
		Tags:           []ClipTag{{Tag: "greeting"}, {Tag: "intro"}},
	}
	require.NoError(t, db.Create(&clip).Error)

	var loaded ClipRequest
	require.NoError(t, db.Preload("Tags").Preload("Project").First(&loaded, "id = ?", clip.ID).Error)
	assert.Equal(t, ClipStatusPending, loaded.Status)
	assert.Equal(t, 0.0, loaded.PaddingSeconds)
	assert.ElementsMatch(t, []string{"greeting", "intro"}, loaded.TagNames())
	require.NotNil(t, loaded.Project)
	assert.Equal(t, "greetings", loaded.Project.Name)
}

func TestClipStatus(t *testing.T) {
	assert.True(t, ClipStatusPending.Valid())
	assert.False(t, ClipStatus("queued").Valid())
	assert.True(t, ClipStatusCompleted.Terminal())
	assert.True(t, ClipStatusFailed.Terminal())
	assert.False(t, ClipStatusProcessing.Terminal())
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"greeting", "season 1"}, NormalizeTags([]string{"  Greeting ", "", "GREETING", "Season 1"}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestSubtitleEntry(t *testing.T) {
	e := SubtitleEntry{MediaFile: "/media/show/ep1.mkv", StartTimeMs: 1000, EndTimeMs: 3500}
	assert.Equal(t, "ep1.mkv", e.MediaName())
	assert.Equal(t, int64(2500), e.Duration().Milliseconds())
	assert.True(t, LanguageKorean.Valid())
	assert.False(t, Language("fr").Valid())
}
