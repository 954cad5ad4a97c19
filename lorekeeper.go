package lorekeeper

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/lorekeeper/core/indexer"
	"github.com/siherrmann/lorekeeper/core/pipeline"
	"github.com/siherrmann/lorekeeper/core/review"
	"github.com/siherrmann/lorekeeper/database"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
	loadSql "github.com/siherrmann/lorekeeper/sql"
)

const (
	defaultWorkers      = 2
	defaultQueueSize    = 16
	defaultPoolSize     = 2
	defaultDatabaseName = "lorekeeper"
)

// Lorekeeper provides a unified interface to all database handlers and the
// entity resolution pipeline
type Lorekeeper struct {
	DB         *helper.Database
	Projects   *database.ProjectsDBHandler
	Chapters   *database.ChaptersDBHandler
	Versions   *database.VersionsDBHandler
	Entities   *database.EntitiesDBHandler
	Mentions   *database.MentionsDBHandler
	Extractors *pipeline.ExtractorPool
	Scanner    *review.Scanner
	Merger     *review.Merger
	Config     model.ResolutionConfig
	// Dispatcher runs re-index jobs, set once an extractor is configured
	Dispatcher *indexer.Dispatcher
	// Logging
	log *slog.Logger
}

// NewLorekeeper creates a new Lorekeeper instance with all handlers initialized
func NewLorekeeper(config *helper.DatabaseConfiguration) (*Lorekeeper, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase(defaultDatabaseName, config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database", err)
	}

	// Create all handlers in dependency order
	// force=false to not reload if functions already exist
	projects, err := database.NewProjectsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create projects handler", err)
	}

	chapters, err := database.NewChaptersDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create chapters handler", err)
	}

	versions, err := database.NewVersionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create versions handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	mentions, err := database.NewMentionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create mentions handler", err)
	}

	resolutionConfig := model.DefaultResolutionConfig()

	scanner, err := review.NewScanner(entities, resolutionConfig, logger)
	if err != nil {
		return nil, helper.NewError("create scanner", err)
	}

	merger, err := review.NewMerger(db, entities, mentions, logger)
	if err != nil {
		return nil, helper.NewError("create merger", err)
	}

	extractors, err := pipeline.NewExtractorPool(defaultPoolSize, logger)
	if err != nil {
		return nil, helper.NewError("create extractor pool", err)
	}

	return &Lorekeeper{
		DB:         db,
		Projects:   projects,
		Chapters:   chapters,
		Versions:   versions,
		Entities:   entities,
		Mentions:   mentions,
		Extractors: extractors,
		Scanner:    scanner,
		Merger:     merger,
		Config:     resolutionConfig,
		log:        logger,
	}, nil
}

// Close stops the dispatcher, releases loaded extractors and closes the
// database connection
func (l *Lorekeeper) Close() error {
	if l.Dispatcher != nil {
		l.Dispatcher.Close()
	}
	if l.Extractors != nil {
		l.Extractors.Close()
	}
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// SetExtractor sets the span extractor and starts the re-index dispatcher.
// Custom extractors only need to satisfy pipeline.SpanExtractFunc.
func (l *Lorekeeper) SetExtractor(extract pipeline.SpanExtractFunc) error {
	idx, err := indexer.NewIndexer(l.DB, l.Chapters, l.Entities, l.Mentions, extract, l.Config, l.log)
	if err != nil {
		return helper.NewError("create indexer", err)
	}

	dispatcher, err := indexer.NewDispatcher(idx, defaultWorkers, defaultQueueSize, l.log)
	if err != nil {
		return helper.NewError("create dispatcher", err)
	}

	if l.Dispatcher != nil {
		l.Dispatcher.Close()
	}
	l.Dispatcher = dispatcher

	return nil
}

// UseDefaultExtractor sets up the default NER extractor.
// This downloads the distilbert-NER model on first use.
func (l *Lorekeeper) UseDefaultExtractor() error {
	extract, err := l.Extractors.Get(pipeline.DefaultModelName)
	if err != nil {
		return helper.NewError("create default extractor", err)
	}

	return l.SetExtractor(extract)
}

// SaveChapter inserts a new chapter or updates an existing one.
// Updating snapshots the previous content as a chapter version first, so
// edits stay recoverable. The word count is recomputed from the content.
func (l *Lorekeeper) SaveChapter(chapter *model.Chapter, changeSummary string) error {
	chapter.WordCount = model.CountWords(chapter.Content)

	if chapter.ID == 0 {
		err := l.Chapters.InsertChapter(chapter)
		if err != nil {
			return helper.NewError("insert chapter", err)
		}

		l.log.Info("Inserted chapter", slog.String("chapter_id", chapter.RID.String()), slog.Int("number", chapter.ChapterNumber))
		l.enqueueReindex(chapter.RID)
		return nil
	}

	previous, err := l.Chapters.SelectChapter(chapter.RID)
	if err != nil {
		return helper.NewError("select chapter", err)
	}
	if previous == nil {
		return helper.NewError("select chapter", fmt.Errorf("chapter %v does not exist", chapter.RID))
	}

	version := &model.ChapterVersion{
		ChapterID:     previous.ID,
		Content:       previous.Content,
		Notes:         previous.Notes,
		WordCount:     previous.WordCount,
		ChangeSummary: changeSummary,
	}
	err = l.Versions.InsertVersion(version)
	if err != nil {
		return helper.NewError("insert chapter version", err)
	}

	err = l.Chapters.UpdateChapter(chapter)
	if err != nil {
		return helper.NewError("update chapter", err)
	}

	l.log.Info("Updated chapter", slog.String("chapter_id", chapter.RID.String()), slog.Int("version", version.VersionNumber))

	// the mention index only goes stale when the content changed
	if previous.Content != chapter.Content {
		l.enqueueReindex(chapter.RID)
	}

	return nil
}

// enqueueReindex triggers a background re-index if an extractor is configured
func (l *Lorekeeper) enqueueReindex(chapterRID uuid.UUID) {
	if l.Dispatcher == nil {
		return
	}

	_, err := l.Dispatcher.Enqueue(context.Background(), chapterRID)
	if err != nil {
		l.log.Error("Failed to enqueue reindex", slog.String("chapter_id", chapterRID.String()), slog.Any("error", err))
	}
}

// RestoreVersion restores a chapter to a previous snapshot. The current
// content is snapshotted first, so a restore is itself undoable.
func (l *Lorekeeper) RestoreVersion(chapterRID uuid.UUID, versionID int64) error {
	chapter, err := l.Chapters.SelectChapter(chapterRID)
	if err != nil {
		return helper.NewError("select chapter", err)
	}
	if chapter == nil {
		return helper.NewError("chapter validation", fmt.Errorf("chapter %v does not exist", chapterRID))
	}

	version, err := l.Versions.SelectVersion(versionID)
	if err != nil {
		return helper.NewError("select version", err)
	}
	if version.ChapterID != chapter.ID {
		return helper.NewError("version validation", fmt.Errorf("version %v does not belong to chapter %v", versionID, chapterRID))
	}

	backup := &model.ChapterVersion{
		ChapterID:     chapter.ID,
		Content:       chapter.Content,
		Notes:         chapter.Notes,
		WordCount:     chapter.WordCount,
		ChangeSummary: fmt.Sprintf("Auto backup before restoring version %v", version.VersionNumber),
	}
	err = l.Versions.InsertVersion(backup)
	if err != nil {
		return helper.NewError("insert backup version", err)
	}

	chapter.Content = version.Content
	chapter.Notes = version.Notes
	chapter.WordCount = version.WordCount
	err = l.Chapters.UpdateChapter(chapter)
	if err != nil {
		return helper.NewError("update chapter", err)
	}

	l.log.Info("Restored chapter version", slog.String("chapter_id", chapter.RID.String()), slog.Int("version", version.VersionNumber))
	l.enqueueReindex(chapter.RID)

	return nil
}

// ReindexChapter rebuilds the mention index of a chapter and waits for the
// result. Concurrent calls for the same chapter are serialized.
func (l *Lorekeeper) ReindexChapter(ctx context.Context, chapterRID uuid.UUID) (*model.IndexResult, error) {
	if l.Dispatcher == nil {
		return nil, helper.NewError("reindex chapter", fmt.Errorf("extractor not set, use SetExtractor() first"))
	}

	return l.Dispatcher.Reindex(ctx, chapterRID)
}

// EnqueueReindex queues a re-index job without waiting for it. The returned
// channel delivers exactly one result.
func (l *Lorekeeper) EnqueueReindex(ctx context.Context, chapterRID uuid.UUID) (<-chan indexer.Result, error) {
	if l.Dispatcher == nil {
		return nil, helper.NewError("enqueue reindex", fmt.Errorf("extractor not set, use SetExtractor() first"))
	}

	return l.Dispatcher.Enqueue(ctx, chapterRID)
}

// ReindexProject re-indexes every chapter of a project sequentially and
// returns the accumulated result
func (l *Lorekeeper) ReindexProject(ctx context.Context, projectRID uuid.UUID) (*model.IndexResult, error) {
	project, err := l.Projects.SelectProject(projectRID)
	if err != nil {
		return nil, helper.NewError("select project", err)
	}

	chapters, err := l.Chapters.SelectChaptersByProject(project.ID)
	if err != nil {
		return nil, helper.NewError("select chapters", err)
	}

	total := &model.IndexResult{}
	for _, chapter := range chapters {
		result, err := l.ReindexChapter(ctx, chapter.RID)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("reindex chapter %v", chapter.ChapterNumber), err)
		}

		total.EntitiesCreated += result.EntitiesCreated
		total.EntitiesMatched += result.EntitiesMatched
		total.MentionsCreated += result.MentionsCreated
	}

	return total, nil
}

// ProjectEntities lists the entities of a project with mention counts and
// first/last appearance chapter numbers. A nil entityType returns all types.
func (l *Lorekeeper) ProjectEntities(projectRID uuid.UUID, entityType *model.EntityType) ([]*model.Entity, error) {
	if entityType != nil && !entityType.Valid() {
		return nil, helper.NewError("entity type validation", fmt.Errorf("unknown entity type %v", *entityType))
	}

	project, err := l.Projects.SelectProject(projectRID)
	if err != nil {
		return nil, helper.NewError("select project", err)
	}

	return l.Entities.SelectEntitiesWithStats(project.ID, entityType)
}

// EntityTimeline lists all mentions of an entity across the project in
// chapter order, annotated with chapter numbers and titles
func (l *Lorekeeper) EntityTimeline(entityID int64) ([]*model.Mention, error) {
	entity, err := l.Entities.SelectEntity(entityID)
	if err != nil {
		return nil, helper.NewError("select entity", err)
	}
	if entity == nil {
		return nil, helper.NewError("entity validation", fmt.Errorf("entity %v does not exist", entityID))
	}

	return l.Mentions.SelectMentionsByEntity(entityID)
}

// ScanDuplicates surfaces groups of likely duplicate entities of a project
// for review. Nothing is merged.
func (l *Lorekeeper) ScanDuplicates(projectRID uuid.UUID) ([]*model.DuplicateGroup, error) {
	project, err := l.Projects.SelectProject(projectRID)
	if err != nil {
		return nil, helper.NewError("select project", err)
	}

	return l.Scanner.Scan(project.ID)
}

// MergeEntities merges the given entities of a project into the entity with
// keepID, reassigning all their mentions and keeping their names as aliases
func (l *Lorekeeper) MergeEntities(projectRID uuid.UUID, keepID int64, mergeIDs []int64) (*model.MergeResult, error) {
	project, err := l.Projects.SelectProject(projectRID)
	if err != nil {
		return nil, helper.NewError("select project", err)
	}

	return l.Merger.Merge(project.ID, keepID, mergeIDs)
}
