package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/lorekeeper/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatcher(t *testing.T) {
	env := initTestEnv(t)
	indexer := env.newIndexer(t, staticExtractor(nil))

	t.Run("Valid arguments", func(t *testing.T) {
		dispatcher, err := NewDispatcher(indexer, 2, 8, env.db.Logger)
		require.NoError(t, err)
		assert.NotNil(t, dispatcher)
		dispatcher.Close()
	})

	t.Run("Nil indexer", func(t *testing.T) {
		dispatcher, err := NewDispatcher(nil, 2, 8, env.db.Logger)
		assert.Error(t, err)
		assert.Nil(t, dispatcher)
	})

	t.Run("No workers", func(t *testing.T) {
		dispatcher, err := NewDispatcher(indexer, 0, 8, env.db.Logger)
		assert.Error(t, err)
		assert.Nil(t, dispatcher)
	})
}

func TestDispatcherReindex(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)
	chapter := env.createChapter(t, project.ID, 1, "Harry waved.")

	indexer := env.newIndexer(t, staticExtractor([]model.Span{
		{Label: "PER", Text: "Harry", Start: 0, End: 5},
	}))
	dispatcher, err := NewDispatcher(indexer, 2, 8, env.db.Logger)
	require.NoError(t, err)
	defer dispatcher.Close()

	result, err := dispatcher.Reindex(context.Background(), chapter.RID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntitiesCreated)
	assert.Equal(t, 1, result.MentionsCreated)
}

func TestDispatcherReindexError(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)
	chapter := env.createChapter(t, project.ID, 1, "Harry waved.")

	indexer := env.newIndexer(t, func(text string) ([]model.Span, error) {
		return nil, fmt.Errorf("model unavailable")
	})
	dispatcher, err := NewDispatcher(indexer, 1, 4, env.db.Logger)
	require.NoError(t, err)
	defer dispatcher.Close()

	_, err = dispatcher.Reindex(context.Background(), chapter.RID)
	assert.Error(t, err)
}

func TestDispatcherCancelledContext(t *testing.T) {
	env := initTestEnv(t)
	indexer := env.newIndexer(t, staticExtractor(nil))
	dispatcher, err := NewDispatcher(indexer, 1, 4, env.db.Logger)
	require.NoError(t, err)
	defer dispatcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = dispatcher.Reindex(ctx, uuid.New())
	assert.Error(t, err)
}

func TestDispatcherSerializesSameChapter(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)
	chapter := env.createChapter(t, project.ID, 1, "Harry waved.")

	var active int32
	var overlapped atomic.Bool
	indexer := env.newIndexer(t, func(text string) ([]model.Span, error) {
		if atomic.AddInt32(&active, 1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return []model.Span{{Label: "PER", Text: "Harry", Start: 0, End: 5}}, nil
	})

	dispatcher, err := NewDispatcher(indexer, 4, 16, env.db.Logger)
	require.NoError(t, err)
	defer dispatcher.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dispatcher.Reindex(context.Background(), chapter.RID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// jobs for the same chapter never run concurrently
	assert.False(t, overlapped.Load())

	mentions, err := env.mentions.SelectMentionsByChapter(chapter.ID)
	require.NoError(t, err)
	assert.Len(t, mentions, 1)
}
