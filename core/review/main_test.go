package review

import (
	"context"
	"log"
	"testing"

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
	scanner  *Scanner
	merger   *Merger
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

	scanner, err := NewScanner(entities, model.DefaultResolutionConfig(), db.Logger)
	require.NoError(t, err)
	merger, err := NewMerger(db, entities, mentions, db.Logger)
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
		scanner:  scanner,
		merger:   merger,
	}
}

func (e *testEnv) createProject(t *testing.T) *model.Project {
	project := &model.Project{Title: "Test Novel", IsOwnWriting: true}
	err := e.projects.InsertProject(project)
	require.NoError(t, err)
	return project
}

func (e *testEnv) createEntity(t *testing.T, projectID int64, name string, entityType model.EntityType, aliases ...string) *model.Entity {
	entity := &model.Entity{
		ProjectID: projectID,
		Name:      name,
		Type:      entityType,
		Aliases:   model.Aliases(aliases),
	}
	err := e.entities.InsertEntity(entity)
	require.NoError(t, err)
	return entity
}

func (e *testEnv) createMention(t *testing.T, entityID int64, chapterID int64, start int) *model.Mention {
	mention := &model.Mention{
		EntityID:    entityID,
		ChapterID:   chapterID,
		StartPos:    start,
		EndPos:      start + 5,
		Context:     "context",
		MentionedAs: "mention",
	}
	err := e.mentions.InsertMention(mention)
	require.NoError(t, err)
	return mention
}

func (e *testEnv) createChapter(t *testing.T, projectID int64, number int) *model.Chapter {
	chapter := &model.Chapter{
		ProjectID:     projectID,
		ChapterNumber: number,
		Title:         "Chapter",
		Content:       "Some content.",
		WordCount:     2,
	}
	err := e.chapters.InsertChapter(chapter)
	require.NoError(t, err)
	return chapter
}
