package clips

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/subclip/internal/models"
	"github.com/killallgit/subclip/internal/services/media"
)

func TestManager_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("fills defaults", func(t *testing.T) {
		p := validParams()
		p.Tags = []string{" Greeting ", "greeting", "TV"}

		req, err := f.manager.Create(ctx, p)
		require.NoError(t, err)
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, models.ClipStatusPending, req.Status)
		assert.Equal(t, models.ClipTypeSingle, req.ClipType)
		assert.Equal(t, 5, req.Priority)
		assert.Equal(t, 2.0, req.PaddingSeconds)
		assert.Nil(t, req.ProjectID)

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"greeting", "tv"}, stored.TagNames())
		assert.Nil(t, stored.CompletedAt)
		assert.Empty(t, stored.ErrorMessage)
	})

	t.Run("explicit priority and zero padding", func(t *testing.T) {
		p := validParams()
		p.Priority = 1
		p.Padding = floatPtr(0)

		req, err := f.manager.Create(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 1, req.Priority)
		assert.Equal(t, 0.0, req.PaddingSeconds)
	})

	t.Run("project makes a batch request", func(t *testing.T) {
		p := validParams()
		p.Project = "Greetings"

		first, err := f.manager.Create(ctx, p)
		require.NoError(t, err)
		second, err := f.manager.Create(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, models.ClipTypeBatch, first.ClipType)
		require.NotNil(t, first.ProjectID)
		require.NotNil(t, second.ProjectID)
		assert.Equal(t, *first.ProjectID, *second.ProjectID)
	})

	invalid := []struct {
		name   string
		mutate func(p *CreateParams)
	}{
		{"missing sentence", func(p *CreateParams) { p.Sentence = "  " }},
		{"missing media file", func(p *CreateParams) { p.MediaFile = "" }},
		{"malformed start", func(p *CreateParams) { p.StartTime = "10 seconds" }},
		{"malformed end", func(p *CreateParams) { p.EndTime = "00:00:12" }},
		{"priority too high", func(p *CreateParams) { p.Priority = 11 }},
		{"priority too low", func(p *CreateParams) { p.Priority = -1 }},
		{"negative padding", func(p *CreateParams) { p.Padding = floatPtr(-0.5) }},
		{"end before start", func(p *CreateParams) { p.EndTime = "00:00:09,000" }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := f.manager.Create(ctx, p)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestManager_CreateBatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	project, reqs, err := f.manager.CreateBatch(ctx, BatchParams{
		Project:     "Lesson 1",
		Description: "greetings",
		Requests:    []CreateParams{validParams(), validParams()},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClipTypeBatch, project.Type)
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, models.ClipTypeBatch, r.ClipType)
		require.NotNil(t, r.ProjectID)
		assert.Equal(t, project.ID, *r.ProjectID)
	}

	t.Run("one bad request stores nothing", func(t *testing.T) {
		bad := validParams()
		bad.StartTime = "nope"
		_, _, err := f.manager.CreateBatch(ctx, BatchParams{
			Project:  "Lesson 2",
			Requests: []CreateParams{validParams(), bad},
		})
		assert.ErrorIs(t, err, ErrValidation)

		projects, err := f.manager.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Lesson 1", projects[0].Name)
		assert.Equal(t, int64(2), projects[0].Total)
		assert.Equal(t, int64(2), projects[0].Pending)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, _, err := f.manager.CreateBatch(ctx, BatchParams{Project: "Empty"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestManager_ListPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := []struct {
		sentence string
		priority int
		age      time.Duration
		status   models.ClipStatus
	}{
		{"late default", 5, 1 * time.Minute, models.ClipStatusPending},
		{"urgent newer", 1, 2 * time.Minute, models.ClipStatusPending},
		{"early default", 5, 0, models.ClipStatusPending},
		{"lowest", 10, 0, models.ClipStatusPending},
		{"urgent older", 1, 0, models.ClipStatusPending},
		{"already done", 1, 0, models.ClipStatusCompleted},
	}
	for _, r := range rows {
		req := &models.ClipRequest{
			Sentence:  r.sentence,
			MediaFile: "ep1.mkv",
			StartTime: "00:00:01,000",
			EndTime:   "00:00:02,000",
			Priority:  r.priority,
			Status:    r.status,
			CreatedAt: base.Add(r.age),
		}
		require.NoError(t, f.repo.Create(ctx, req))
	}

	pending, err := f.manager.ListPending(ctx, 0)
	require.NoError(t, err)

	got := make([]string, 0, len(pending))
	for _, p := range pending {
		got = append(got, p.Sentence)
	}
	assert.Equal(t, []string{"urgent older", "urgent newer", "early default", "late default", "lowest"}, got)

	limited, err := f.manager.ListPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestManager_Fulfil(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		req, err := f.manager.Create(ctx, validParams())
		require.NoError(t, err)

		wantOutput := filepath.Join(f.layout.Base(), "single", req.ID+"_Hello_there_how_are_you.mp4")
		f.extractor.On("Extract", mock.Anything, ExtractParams{
			Input:  filepath.Join(f.mediaRoot, "Show", "ep1.mkv"),
			Output: wantOutput,
			Start:  8.0,
			End:    14.5,
		}).Return(&ExtractResult{OutputFile: wantOutput, SizeBytes: 2048, DurationSeconds: 6.5}, nil).Once()

		result, err := f.manager.Fulfil(ctx, req.ID, nil)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, models.ClipStatusCompleted, result.Status)
		assert.Equal(t, wantOutput, result.OutputFile)
		f.extractor.AssertExpectations(t)

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ClipStatusCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)
		assert.NotNil(t, stored.StartedAt)
		assert.Empty(t, stored.ErrorMessage)
		assert.Equal(t, int64(2048), stored.FileSize)
		assert.Equal(t, 6.5, stored.DurationSeconds)

		t.Run("second fulfil is rejected", func(t *testing.T) {
			_, err := f.manager.Fulfil(ctx, req.ID, nil)
			assert.ErrorIs(t, err, ErrInvalidState)
			var stateErr *InvalidStateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, models.ClipStatusCompleted, stateErr.Status)
		})
	})

	t.Run("padding override clamps at zero", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		p := validParams()
		p.StartTime = "00:00:01,000"
		p.EndTime = "00:00:02,000"
		p.Project = "Lesson: One!"
		req, err := f.manager.Create(ctx, p)
		require.NoError(t, err)

		f.extractor.On("Extract", mock.Anything, mock.MatchedBy(func(p ExtractParams) bool {
			return p.Start == 0 && p.End == 7.0 &&
				filepath.Dir(p.Output) == filepath.Join(f.layout.Base(), "batch", "Lesson_One")
		})).Return(&ExtractResult{OutputFile: "x.mp4"}, nil).Once()

		result, err := f.manager.Fulfil(ctx, req.ID, floatPtr(5))
		require.NoError(t, err)
		assert.True(t, result.Success)
		f.extractor.AssertExpectations(t)
	})

	t.Run("unresolvable media fails the request", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		p := validParams()
		p.MediaFile = "/somewhere/missing.mkv"
		req, err := f.manager.Create(ctx, p)
		require.NoError(t, err)

		result, err := f.manager.Fulfil(ctx, req.ID, nil)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "missing.mkv")
		f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ClipStatusFailed, stored.Status)
		assert.NotEmpty(t, stored.ErrorMessage)
		assert.Nil(t, stored.CompletedAt)
	})

	t.Run("transcode failure fails the request", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		req, err := f.manager.Create(ctx, validParams())
		require.NoError(t, err)

		f.extractor.On("Extract", mock.Anything, mock.Anything).
			Return(nil, &TranscodeError{Input: "ep1.mkv", Err: errors.New("exit status 1"), Output: "Invalid data found"}).Once()

		result, err := f.manager.Fulfil(ctx, req.ID, nil)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "Invalid data found")

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ClipStatusFailed, stored.Status)
		assert.Contains(t, stored.ErrorMessage, "exit status 1")
	})

	t.Run("unknown id", func(t *testing.T) {
		f := setup(t)
		_, err := f.manager.Fulfil(context.Background(), "does-not-exist", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("negative padding override", func(t *testing.T) {
		f := setup(t)
		_, err := f.manager.Fulfil(context.Background(), "any", floatPtr(-1))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("cancelled caller still leaves processing", func(t *testing.T) {
		f := setup(t)
		ctx, cancel := context.WithCancel(context.Background())

		req, err := f.manager.Create(ctx, validParams())
		require.NoError(t, err)

		f.extractor.On("Extract", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				extractCtx := args.Get(0).(context.Context)
				cancel()
				<-extractCtx.Done()
			}).
			Return(nil, context.Canceled).Once()

		result, err := f.manager.Fulfil(ctx, req.ID, nil)
		require.NoError(t, err)
		assert.False(t, result.Success)

		stored, err := f.manager.Get(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ClipStatusFailed, stored.Status)
		assert.Contains(t, stored.ErrorMessage, "canceled")
	})
}

func TestManager_FulfilConcurrent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.manager.Create(ctx, validParams())
	require.NoError(t, err)

	f.extractor.On("Extract", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(30 * time.Millisecond) }).
		Return(&ExtractResult{OutputFile: "out.mp4"}, nil)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.manager.Fulfil(ctx, req.ID, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && result.Success:
				wins++
			case errors.Is(err, ErrInvalidState):
				rejected++
			default:
				t.Errorf("unexpected outcome: %v %v", result, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, rejected)
	f.extractor.AssertNumberOfCalls(t, "Extract", 1)
}

func TestManager_Heartbeat(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.manager.Create(ctx, validParams())
	require.NoError(t, err)

	var during *models.ClipRequest
	f.extractor.On("Extract", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			time.Sleep(60 * time.Millisecond)
			during, _ = f.repo.Get(ctx, req.ID)
		}).
		Return(&ExtractResult{OutputFile: "out.mp4"}, nil).Once()

	_, err = f.manager.Fulfil(ctx, req.ID, nil)
	require.NoError(t, err)

	require.NotNil(t, during)
	assert.Equal(t, models.ClipStatusProcessing, during.Status)
	require.NotNil(t, during.HeartbeatAt)
	require.NotNil(t, during.StartedAt)
	assert.True(t, during.HeartbeatAt.After(*during.StartedAt))
}

func TestManager_UpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.manager.Create(ctx, validParams())
	require.NoError(t, err)

	steps := []struct {
		status        models.ClipStatus
		msg           string
		wantCompleted bool
		wantError     string
	}{
		{models.ClipStatusCompleted, "", true, ""},
		{models.ClipStatusFailed, "", false, ManualFailureMessage},
		{models.ClipStatusFailed, "bad source", false, "bad source"},
		{models.ClipStatusPending, "", false, ""},
	}
	for _, s := range steps {
		require.NoError(t, f.manager.UpdateStatus(ctx, req.ID, s.status, s.msg))

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, s.status, stored.Status)
		assert.Equal(t, s.wantCompleted, stored.CompletedAt != nil, "completed_at for %s", s.status)
		assert.Equal(t, s.wantError, stored.ErrorMessage)
	}

	assert.ErrorIs(t, f.manager.UpdateStatus(ctx, req.ID, "bogus", ""), ErrValidation)
	assert.ErrorIs(t, f.manager.UpdateStatus(ctx, "missing", models.ClipStatusPending, ""), ErrNotFound)
}

func TestManager_ReclaimStale(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stale, err := f.manager.Create(ctx, validParams())
	require.NoError(t, err)
	fresh, err := f.manager.Create(ctx, validParams())
	require.NoError(t, err)

	require.NoError(t, f.repo.Claim(ctx, stale.ID))
	require.NoError(t, f.repo.Claim(ctx, fresh.ID))
	old := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, f.db.Model(&models.ClipRequest{}).Where("id = ?", stale.ID).Update("heartbeat_at", old).Error)

	n, err := f.manager.ReclaimStale(ctx, time.Now().Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.manager.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClipStatusFailed, got.Status)
	assert.Equal(t, ReclaimedMessage, got.ErrorMessage)

	got, err = f.manager.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClipStatusProcessing, got.Status)
}

func TestManager_FulfilReclaimedDuringExtraction(t *testing.T) {
	t.Run("completion does not revive a reclaimed request", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		req, err := f.manager.Create(ctx, validParams())
		require.NoError(t, err)

		output := filepath.Join(t.TempDir(), "late.mp4")
		f.extractor.On("Extract", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				n, err := f.manager.ReclaimStale(ctx, time.Now().Add(time.Hour))
				require.NoError(t, err)
				require.Equal(t, int64(1), n)
				require.NoError(t, os.WriteFile(output, []byte("clip"), 0644))
			}).
			Return(&ExtractResult{OutputFile: output, SizeBytes: 4, DurationSeconds: 1}, nil).Once()

		result, err := f.manager.Fulfil(ctx, req.ID, nil)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, models.ClipStatusFailed, result.Status)
		assert.Equal(t, ReclaimedMessage, result.Error)

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ClipStatusFailed, stored.Status)
		assert.Equal(t, ReclaimedMessage, stored.ErrorMessage)
		assert.Empty(t, stored.OutputFile)
		assert.NoFileExists(t, output)
	})

	t.Run("failure keeps the reclaim message", func(t *testing.T) {
		f := setup(t)
		ctx := context.Background()

		req, err := f.manager.Create(ctx, validParams())
		require.NoError(t, err)

		f.extractor.On("Extract", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				_, err := f.manager.ReclaimStale(ctx, time.Now().Add(time.Hour))
				require.NoError(t, err)
			}).
			Return(nil, errors.New("exit status 1")).Once()

		result, err := f.manager.Fulfil(ctx, req.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, models.ClipStatusFailed, result.Status)
		assert.Equal(t, ReclaimedMessage, result.Error)

		stored, err := f.manager.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, ReclaimedMessage, stored.ErrorMessage)
	})
}

func TestRepository_TerminalWritesRequireProcessing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req, err := f.manager.Create(ctx, validParams())
	require.NoError(t, err)

	err = f.repo.Complete(ctx, req.ID, &ExtractResult{OutputFile: "a.mp4"})
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.ClipStatusPending, stateErr.Status)
	assert.Equal(t, models.ClipStatusProcessing, stateErr.Want)

	assert.ErrorIs(t, f.repo.Fail(ctx, req.ID, "boom"), ErrInvalidState)
	assert.ErrorIs(t, f.repo.Complete(ctx, "does-not-exist", &ExtractResult{}), ErrNotFound)

	require.NoError(t, f.repo.Claim(ctx, req.ID))
	require.NoError(t, f.repo.Fail(ctx, req.ID, "boom"))
	assert.ErrorIs(t, f.repo.Complete(ctx, req.ID, &ExtractResult{OutputFile: "a.mp4"}), ErrInvalidState)

	stored, err := f.manager.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClipStatusFailed, stored.Status)
	assert.Equal(t, "boom", stored.ErrorMessage)
}

func TestManager_PurgeFailedAndStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		p := validParams()
		p.Tags = []string{"purge"}
		req, err := f.manager.Create(ctx, p)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}
	require.NoError(t, f.manager.UpdateStatus(ctx, ids[0], models.ClipStatusFailed, "x"))
	require.NoError(t, f.manager.UpdateStatus(ctx, ids[1], models.ClipStatusFailed, "y"))
	require.NoError(t, f.repo.Claim(ctx, ids[2]))
	require.NoError(t, f.repo.Complete(ctx, ids[2], &ExtractResult{OutputFile: "a.mp4", SizeBytes: 100, DurationSeconds: 4}))

	stats, err := f.manager.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[models.ClipStatusFailed])
	assert.Equal(t, int64(1), stats.ByStatus[models.ClipStatusCompleted])
	assert.Equal(t, int64(1), stats.ByStatus[models.ClipStatusPending])
	assert.Equal(t, int64(4), stats.CreatedToday)
	assert.Equal(t, 4.0, stats.AverageDurationSeconds)
	assert.Equal(t, int64(100), stats.TotalSizeBytes)

	n, err := f.manager.PurgeFailed(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.manager.Get(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)

	var tags int64
	require.NoError(t, f.db.Model(&models.ClipTag{}).Count(&tags).Error)
	assert.Equal(t, int64(2), tags)

	list, total, err := f.manager.List(ctx, ListFilter{Tag: "PURGE"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
}

func TestManager_Preview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.extractor.On("Extract", mock.Anything, mock.MatchedBy(func(p ExtractParams) bool {
		return filepath.Dir(p.Output) == f.layout.TempDir() &&
			strings.HasSuffix(p.Output, "_Hello_there_how_are_you.mp4") &&
			p.Start == 8.0 && p.End == 14.5
	})).Return(&ExtractResult{OutputFile: "scratch.mp4", SizeBytes: 10}, nil).Once()

	result, err := f.manager.Preview(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, "scratch.mp4", result.OutputFile)
	f.extractor.AssertExpectations(t)

	// Nothing is stored
	_, total, err := f.manager.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	t.Run("unresolvable media", func(t *testing.T) {
		p := validParams()
		p.MediaFile = "missing.mkv"
		_, err := f.manager.Preview(ctx, p)
		var resErr *media.ResolutionError
		assert.ErrorAs(t, err, &resErr)
	})

	t.Run("invalid params", func(t *testing.T) {
		p := validParams()
		p.EndTime = ""
		_, err := f.manager.Preview(ctx, p)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestWindow(t *testing.T) {
	tests := []struct {
		start, end string
		pad        float64
		wantStart  float64
		wantEnd    float64
	}{
		{"00:00:10,000", "00:00:12,500", 2, 8, 14.5},
		{"00:00:01,000", "00:00:02,000", 2, 0, 4},
		{"00:01:00.250", "00:01:01.000", 0, 60.25, 61},
		{"garbage", "00:00:01,000", 1, 0, 2},
	}
	for _, tt := range tests {
		start, end := Window(tt.start, tt.end, tt.pad)
		assert.InDelta(t, tt.wantStart, start, 1e-9)
		assert.InDelta(t, tt.wantEnd, end, 1e-9)
	}
}

var _ MediaResolver = (*media.Resolver)(nil)
