// Package indexer rebuilds the mention index of chapters. A re-index run
// clears all mentions of a chapter and rebuilds them from freshly extracted
// spans inside a single transaction, resolving each span against the
// project's existing entities.
package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/siherrmann/lorekeeper/core/pipeline"
	"github.com/siherrmann/lorekeeper/core/resolve"
	"github.com/siherrmann/lorekeeper/database"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
)

// Indexer resolves extracted spans into entities and mentions
type Indexer struct {
	db       *helper.Database
	chapters *database.ChaptersDBHandler
	entities *database.EntitiesDBHandler
	mentions *database.MentionsDBHandler
	extract  pipeline.SpanExtractFunc
	config   model.ResolutionConfig
	logger   *slog.Logger
}

// NewIndexer creates a new indexer using the given extractor and resolution
// configuration
func NewIndexer(
	db *helper.Database,
	chapters *database.ChaptersDBHandler,
	entities *database.EntitiesDBHandler,
	mentions *database.MentionsDBHandler,
	extract pipeline.SpanExtractFunc,
	config model.ResolutionConfig,
	logger *slog.Logger,
) (*Indexer, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if extract == nil {
		return nil, helper.NewError("extractor validation", fmt.Errorf("extractor is nil"))
	}

	return &Indexer{
		db:       db,
		chapters: chapters,
		entities: entities,
		mentions: mentions,
		extract:  extract,
		config:   config,
		logger:   logger,
	}, nil
}

// Reindex rebuilds the mention index of one chapter.
// Existing mentions are deleted and new ones written in a single
// transaction, so readers never observe a partially indexed chapter.
// Reindexing a chapter that no longer exists is a no-op, which makes
// queued jobs for deleted chapters harmless.
func (i *Indexer) Reindex(ctx context.Context, chapterRID uuid.UUID) (*model.IndexResult, error) {
	chapter, err := i.chapters.SelectChapter(chapterRID)
	if err != nil {
		return nil, helper.NewError("select chapter", err)
	}
	if chapter == nil {
		i.logger.Info("Skipping reindex of missing chapter", "chapter", chapterRID)
		return &model.IndexResult{}, nil
	}

	spans, err := i.extract(chapter.Content)
	if err != nil {
		return nil, helper.NewError("extract spans", err)
	}

	tx, err := i.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}

	result, err := i.reindexTx(tx, chapter, spans)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			i.logger.Error("Failed to roll back reindex transaction", "chapter", chapterRID, "error", rollbackErr)
		}
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, helper.NewError("commit transaction", err)
	}

	i.logger.Info(
		"Reindexed chapter",
		"chapter", chapterRID,
		"entitiesCreated", result.EntitiesCreated,
		"entitiesMatched", result.EntitiesMatched,
		"mentionsCreated", result.MentionsCreated,
	)

	return result, nil
}

// reindexTx clears and rebuilds the mentions of a chapter inside tx
func (i *Indexer) reindexTx(tx *sql.Tx, chapter *model.Chapter, spans []model.Span) (*model.IndexResult, error) {
	err := i.mentions.DeleteMentionsByChapterTx(tx, chapter.ID)
	if err != nil {
		return nil, helper.NewError("delete mentions", err)
	}

	result := &model.IndexResult{}
	content := []rune(chapter.Content)

	// entities of the project by type, loaded lazily inside the
	// transaction so entities created for earlier spans are visible
	// to later ones
	cache := map[model.EntityType][]*model.Entity{}

	for _, span := range spans {
		entityType, ok := i.config.LabelMapping.Resolve(span.Label)
		if !ok {
			continue
		}

		name := resolve.Normalize(span.Text)
		if utf8.RuneCountInString(name) < i.config.MinNameLength {
			continue
		}

		if _, ok := cache[entityType]; !ok {
			existing, err := i.entities.SelectEntitiesByTypeTx(tx, chapter.ProjectID, entityType)
			if err != nil {
				return nil, helper.NewError("select entities by type", err)
			}
			cache[entityType] = existing
		}

		entity := bestMatch(name, cache[entityType], i.config.MatchThreshold)
		if entity != nil {
			result.EntitiesMatched++
		} else {
			entity = &model.Entity{
				ProjectID: chapter.ProjectID,
				Name:      name,
				Type:      entityType,
			}
			if surface := strings.TrimSpace(span.Text); !strings.EqualFold(surface, name) {
				entity.Aliases = model.Aliases{surface}
			}

			err := i.entities.InsertEntityTx(tx, entity)
			if err != nil {
				return nil, helper.NewError("insert entity", err)
			}

			cache[entityType] = append(cache[entityType], entity)
			result.EntitiesCreated++
		}

		mention := &model.Mention{
			EntityID:    entity.ID,
			ChapterID:   chapter.ID,
			StartPos:    span.Start,
			EndPos:      span.End,
			Context:     contextWindow(content, span.Start, span.End, i.config.ContextWindow),
			MentionedAs: strings.TrimSpace(span.Text),
		}
		err := i.mentions.InsertMentionTx(tx, mention)
		if err != nil {
			return nil, helper.NewError("insert mention", err)
		}
		result.MentionsCreated++
	}

	return result, nil
}

// bestMatch returns the best scoring entity at or above threshold.
// Candidates are ordered by ID, so on equal scores the oldest entity wins.
func bestMatch(name string, candidates []*model.Entity, threshold float64) *model.Entity {
	var best *model.Entity
	bestScore := 0.0
	for _, candidate := range candidates {
		score := resolve.BestScore(name, candidate)
		if score >= threshold && score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// contextWindow returns the span text with up to window runes of
// surrounding content on each side, clamped to the chapter bounds
func contextWindow(content []rune, start int, end int, window int) string {
	from := start - window
	if from < 0 {
		from = 0
	}
	to := end + window
	if to > len(content) {
		to = len(content)
	}
	if from >= to {
		return ""
	}
	return string(content[from:to])
}
