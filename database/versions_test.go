package database

import (
	"testing"

	"github.com/siherrmann/lorekeeper/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionsDBHandler(t *testing.T) {
	t.Run("Valid database", func(t *testing.T) {
		db := initDB(t)
		defer db.Instance.Close()

		handler, err := NewVersionsDBHandler(db, true)
		require.NoError(t, err)
		assert.NotNil(t, handler)
	})

	t.Run("Nil database", func(t *testing.T) {
		handler, err := NewVersionsDBHandler(nil, true)
		assert.Error(t, err)
		assert.Nil(t, handler)
	})
}

func TestInsertVersion(t *testing.T) {
	_, h := initHandlers(t)
	project := createTestProject(t, h)
	chapter := createTestChapter(t, h, project.ID, 1, "First draft.")

	version := &model.ChapterVersion{
		ChapterID:     chapter.ID,
		Content:       chapter.Content,
		Notes:         chapter.Notes,
		WordCount:     chapter.WordCount,
		ChangeSummary: "initial snapshot",
	}
	err := h.Versions.InsertVersion(version)
	require.NoError(t, err)

	assert.Greater(t, version.ID, int64(0))
	assert.Equal(t, 1, version.VersionNumber)
	assert.False(t, version.CreatedAt.IsZero())

	// version numbers increment per chapter
	second := &model.ChapterVersion{
		ChapterID:     chapter.ID,
		Content:       "Second draft.",
		WordCount:     2,
		ChangeSummary: "rewrite",
	}
	err = h.Versions.InsertVersion(second)
	require.NoError(t, err)
	assert.Equal(t, 2, second.VersionNumber)
}

func TestSelectVersion(t *testing.T) {
	_, h := initHandlers(t)
	project := createTestProject(t, h)
	chapter := createTestChapter(t, h, project.ID, 1, "First draft.")

	version := &model.ChapterVersion{ChapterID: chapter.ID, Content: chapter.Content, WordCount: chapter.WordCount}
	err := h.Versions.InsertVersion(version)
	require.NoError(t, err)

	found, err := h.Versions.SelectVersion(version.ID)
	require.NoError(t, err)
	assert.Equal(t, version.ID, found.ID)
	assert.Equal(t, "First draft.", found.Content)
}

func TestSelectVersionsByChapter(t *testing.T) {
	_, h := initHandlers(t)
	project := createTestProject(t, h)
	chapter := createTestChapter(t, h, project.ID, 1, "First draft.")

	for _, content := range []string{"First draft.", "Second draft.", "Third draft."} {
		version := &model.ChapterVersion{ChapterID: chapter.ID, Content: content, WordCount: model.CountWords(content)}
		err := h.Versions.InsertVersion(version)
		require.NoError(t, err)
	}

	versions, err := h.Versions.SelectVersionsByChapter(chapter.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)

	// newest first
	assert.Equal(t, 3, versions[0].VersionNumber)
	assert.Equal(t, "Third draft.", versions[0].Content)
	assert.Equal(t, 1, versions[2].VersionNumber)
}
