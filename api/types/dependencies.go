package types

import (
	"github.com/killallgit/subclip/internal/database"
	"github.com/killallgit/subclip/internal/services/clips"
	"github.com/killallgit/subclip/internal/services/corpus"
	"github.com/killallgit/subclip/internal/services/search"
	"github.com/killallgit/subclip/internal/services/workers"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB         *database.DB
	Search     *search.Store
	Indexer    *corpus.Indexer
	Clips      *clips.Manager
	WorkerPool *workers.WorkerPool

	// Roots are the media directories a rebuild walks when the request names none
	Roots   []string
	Version string
}
