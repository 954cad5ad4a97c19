package review

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/lorekeeper/database"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
)

// Merger merges confirmed duplicate entities into a surviving entity
type Merger struct {
	db       *helper.Database
	entities *database.EntitiesDBHandler
	mentions *database.MentionsDBHandler
	logger   *slog.Logger
}

// NewMerger creates a new entity merger
func NewMerger(db *helper.Database, entities *database.EntitiesDBHandler, mentions *database.MentionsDBHandler, logger *slog.Logger) (*Merger, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	return &Merger{
		db:       db,
		entities: entities,
		mentions: mentions,
		logger:   logger,
	}, nil
}

// Merge merges the given entities into the entity with keepID.
// All mentions of merged entities are reassigned to the surviving entity,
// names and aliases of merged entities become aliases of the survivor and
// the merged entities are deleted, all in one transaction.
// Every entity involved must belong to the given project; an entity from
// another project aborts the merge before anything is written. Unknown IDs
// are skipped with a warning, so a stale review list does not fail the
// whole merge.
func (m *Merger) Merge(projectID int64, keepID int64, mergeIDs []int64) (*model.MergeResult, error) {
	keep, err := m.entities.SelectEntity(keepID)
	if err != nil {
		return nil, helper.NewError("select surviving entity", err)
	}
	if keep == nil {
		return nil, helper.NewError("surviving entity validation", fmt.Errorf("entity %v does not exist", keepID))
	}
	if keep.ProjectID != projectID {
		return nil, helper.NewError("surviving entity validation", fmt.Errorf("entity %v does not belong to project %v", keepID, projectID))
	}

	result := &model.MergeResult{}
	var toMerge []*model.Entity
	for _, id := range mergeIDs {
		if id == keepID {
			m.logger.Warn("Skipping merge of entity into itself", "entity", id)
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}

		entity, err := m.entities.SelectEntity(id)
		if err != nil {
			return nil, helper.NewError("select merge entity", err)
		}
		if entity == nil {
			m.logger.Warn("Skipping merge of unknown entity", "entity", id)
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}
		if entity.ProjectID != projectID {
			return nil, helper.NewError("merge entity validation", fmt.Errorf("entity %v does not belong to project %v", id, projectID))
		}
		if entity.Type != keep.Type {
			m.logger.Warn("Merging entities of different types", "keep", keep.Type, "merge", entity.Type)
		}

		toMerge = append(toMerge, entity)
	}

	if len(toMerge) == 0 {
		return result, nil
	}

	tx, err := m.db.Instance.Begin()
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}

	aliases := keep.Aliases
	for _, entity := range toMerge {
		moved, err := m.mentions.ReassignMentionsTx(tx, entity.ID, keep.ID)
		if err != nil {
			return nil, rollback(tx, m.logger, helper.NewError("reassign mentions", err))
		}

		for _, name := range append(model.Aliases{entity.Name}, entity.Aliases...) {
			if !strings.EqualFold(name, keep.Name) {
				aliases = aliases.Add(name)
			}
		}

		err = m.entities.DeleteEntityTx(tx, entity.ID)
		if err != nil {
			return nil, rollback(tx, m.logger, helper.NewError("delete merged entity", err))
		}

		result.EntitiesMerged++
		result.MentionsReassigned += moved
	}

	err = m.entities.UpdateEntityAliasesTx(tx, keep.ID, aliases)
	if err != nil {
		return nil, rollback(tx, m.logger, helper.NewError("update aliases", err))
	}

	err = tx.Commit()
	if err != nil {
		return nil, helper.NewError("commit transaction", err)
	}

	m.logger.Info(
		"Merged entities",
		"project", projectID,
		"keep", keepID,
		"entitiesMerged", result.EntitiesMerged,
		"mentionsReassigned", result.MentionsReassigned,
	)

	return result, nil
}

// rollback rolls tx back and passes err through
func rollback(tx *sql.Tx, logger *slog.Logger, err error) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		logger.Error("Failed to roll back merge transaction", "error", rollbackErr)
	}
	return err
}
