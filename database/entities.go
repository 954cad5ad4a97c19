package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
	loadSql "github.com/siherrmann/lorekeeper/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.Entity) error
	SelectEntity(id int64) (*model.Entity, error)
	SelectEntitiesByProject(projectID int64) ([]*model.Entity, error)
	SelectEntitiesByType(projectID int64, entityType model.EntityType) ([]*model.Entity, error)
	SelectEntityByName(projectID int64, entityType model.EntityType, name string) (*model.Entity, error)
	SelectEntitiesWithStats(projectID int64, entityType *model.EntityType) ([]*model.Entity, error)
	UpdateEntity(entity *model.Entity) error
	UpdateEntityAliases(id int64, aliases model.Aliases) error
	DeleteEntity(id int64) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the indexes and triggers of the 'entities' table.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity inserts a new entity
func (h *EntitiesDBHandler) InsertEntity(entity *model.Entity) error {
	return insertEntity(h.db.Instance, entity)
}

// InsertEntityTx inserts a new entity inside an open transaction
func (h *EntitiesDBHandler) InsertEntityTx(tx *sql.Tx, entity *model.Entity) error {
	return insertEntity(tx, entity)
}

func insertEntity(q querier, entity *model.Entity) error {
	row := q.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5)`,
		entity.ProjectID,
		entity.Name,
		entity.Type,
		entity.Description,
		entity.Aliases,
	)

	return scanEntity(row, entity)
}

// SelectEntity retrieves an entity by ID.
// Returns nil without an error if the entity does not exist.
func (h *EntitiesDBHandler) SelectEntity(id int64) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := scanEntity(row, entity)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return entity, nil
}

// SelectEntitiesByProject retrieves all entities of a project ordered by ID
func (h *EntitiesDBHandler) SelectEntitiesByProject(projectID int64) ([]*model.Entity, error) {
	return selectEntities(h.db.Instance, `SELECT * FROM select_entities_by_project($1)`, projectID)
}

// SelectEntitiesByType retrieves entities of one type in a project, ordered by
// ID so the earliest created entity wins similarity ties deterministically.
func (h *EntitiesDBHandler) SelectEntitiesByType(projectID int64, entityType model.EntityType) ([]*model.Entity, error) {
	return selectEntities(h.db.Instance, `SELECT * FROM select_entities_by_type($1, $2)`, projectID, entityType)
}

// SelectEntitiesByTypeTx retrieves entities of one type inside an open transaction
func (h *EntitiesDBHandler) SelectEntitiesByTypeTx(tx *sql.Tx, projectID int64, entityType model.EntityType) ([]*model.Entity, error) {
	return selectEntities(tx, `SELECT * FROM select_entities_by_type($1, $2)`, projectID, entityType)
}

// SelectEntityByName retrieves an entity by exact (case-insensitive) name and type.
// Returns nil without an error if no entity matches.
func (h *EntitiesDBHandler) SelectEntityByName(projectID int64, entityType model.EntityType, name string) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_name($1, $2, $3)`,
		projectID,
		entityType,
		name,
	)

	err := scanEntity(row, entity)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return entity, nil
}

// SelectEntitiesWithStats retrieves entities of a project with mention counts
// and first/last appearance chapter numbers. A nil entityType returns all types.
func (h *EntitiesDBHandler) SelectEntitiesWithStats(projectID int64, entityType *model.EntityType) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_with_stats($1, $2)`,
		projectID,
		entityType,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		var firstAppearance, lastAppearance sql.NullInt64
		err := rows.Scan(
			&entity.ID,
			&entity.ProjectID,
			&entity.Name,
			&entity.Type,
			&entity.Description,
			&entity.Aliases,
			&entity.CreatedAt,
			&entity.UpdatedAt,
			&entity.MentionCount,
			&firstAppearance,
			&lastAppearance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if firstAppearance.Valid {
			first := int(firstAppearance.Int64)
			entity.FirstAppearance = &first
		}
		if lastAppearance.Valid {
			last := int(lastAppearance.Int64)
			entity.LastAppearance = &last
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// UpdateEntity updates name, type, description and aliases of an entity
func (h *EntitiesDBHandler) UpdateEntity(entity *model.Entity) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_entity($1, $2, $3, $4, $5)`,
		entity.ID,
		entity.Name,
		entity.Type,
		entity.Description,
		entity.Aliases,
	)

	return scanEntity(row, entity)
}

// UpdateEntityAliases replaces the alias set of an entity
func (h *EntitiesDBHandler) UpdateEntityAliases(id int64, aliases model.Aliases) error {
	return updateEntityAliases(h.db.Instance, id, aliases)
}

// UpdateEntityAliasesTx replaces the alias set of an entity inside an open transaction
func (h *EntitiesDBHandler) UpdateEntityAliasesTx(tx *sql.Tx, id int64, aliases model.Aliases) error {
	return updateEntityAliases(tx, id, aliases)
}

func updateEntityAliases(q querier, id int64, aliases model.Aliases) error {
	entity := &model.Entity{}
	row := q.QueryRow(
		`SELECT * FROM update_entity_aliases($1, $2)`,
		id,
		aliases,
	)

	return scanEntity(row, entity)
}

// DeleteEntity deletes an entity by ID. Its mentions cascade.
func (h *EntitiesDBHandler) DeleteEntity(id int64) error {
	return deleteEntity(h.db.Instance, id)
}

// DeleteEntityTx deletes an entity inside an open transaction
func (h *EntitiesDBHandler) DeleteEntityTx(tx *sql.Tx, id int64) error {
	return deleteEntity(tx, id)
}

func deleteEntity(q querier, id int64) error {
	_, err := q.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// selectEntities runs a query returning entity rows and scans them all
func selectEntities(q querier, query string, args ...interface{}) ([]*model.Entity, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := scanEntity(rows, entity)
		if err != nil {
			return nil, err
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// scanEntity scans a single entity row
func scanEntity(row rowScanner, entity *model.Entity) error {
	err := row.Scan(
		&entity.ID,
		&entity.ProjectID,
		&entity.Name,
		&entity.Type,
		&entity.Description,
		&entity.Aliases,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}
