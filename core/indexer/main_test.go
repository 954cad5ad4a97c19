package indexer

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/lorekeeper/core/pipeline"
	"github.com/siherrmann/lorekeeper/database"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
	loadSql "github.com/siherrmann/lorekeeper/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

type testEnv struct {
	db       *helper.Database
	projects *database.ProjectsDBHandler
	chapters *database.ChaptersDBHandler
	entities *database.EntitiesDBHandler
	mentions *database.MentionsDBHandler
}

func initTestEnv(t *testing.T) *testEnv {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	projects, err := database.NewProjectsDBHandler(db, true)
	require.NoError(t, err)
	chapters, err := database.NewChaptersDBHandler(db, true)
	require.NoError(t, err)
	entities, err := database.NewEntitiesDBHandler(db, true)
	require.NoError(t, err)
	mentions, err := database.NewMentionsDBHandler(db, true)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Instance.Close()
	})

	return &testEnv{
		db:       db,
		projects: projects,
		chapters: chapters,
		entities: entities,
		mentions: mentions,
	}
}

func (e *testEnv) newIndexer(t *testing.T, extract pipeline.SpanExtractFunc) *Indexer {
	indexer, err := NewIndexer(e.db, e.chapters, e.entities, e.mentions, extract, model.DefaultResolutionConfig(), e.db.Logger)
	require.NoError(t, err)
	return indexer
}

func (e *testEnv) createProject(t *testing.T) *model.Project {
	project := &model.Project{Title: "Test Novel", IsOwnWriting: true}
	err := e.projects.InsertProject(project)
	require.NoError(t, err)
	return project
}

func (e *testEnv) createChapter(t *testing.T, projectID int64, number int, content string) *model.Chapter {
	chapter := &model.Chapter{
		ProjectID:     projectID,
		ChapterNumber: number,
		Title:         "Chapter",
		Content:       content,
		WordCount:     model.CountWords(content),
	}
	err := e.chapters.InsertChapter(chapter)
	require.NoError(t, err)
	return chapter
}
