package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
	"github.com/siherrmann/lorekeeper/sql"
)

// VersionsDBHandlerFunctions defines the interface for ChapterVersions database operations.
type VersionsDBHandlerFunctions interface {
	InsertVersion(version *model.ChapterVersion) error
	SelectVersion(id int64) (*model.ChapterVersion, error)
	SelectVersionsByChapter(chapterID int64) ([]*model.ChapterVersion, error)
}

// VersionsDBHandler handles chapter version snapshot database operations
type VersionsDBHandler struct {
	db *helper.Database
}

// NewVersionsDBHandler creates a new chapter versions database handler.
// It initializes the database connection and loads version-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVersionsDBHandler(db *helper.Database, force bool) (*VersionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	versionsDbHandler := &VersionsDBHandler{
		db: db,
	}

	err := sql.LoadVersionsSql(versionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load versions sql", err)
	}

	err = versionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VersionsDBHandler")

	return versionsDbHandler, nil
}

// CreateTable creates the indexes of the 'chapter_versions' table.
func (h *VersionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chapter_versions();`)
	if err != nil {
		log.Panicf("error initializing chapter_versions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chapter_versions")

	return nil
}

// InsertVersion inserts a new snapshot.
// The version number is assigned by the database as max existing + 1.
func (h *VersionsDBHandler) InsertVersion(version *model.ChapterVersion) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chapter_version($1, $2, $3, $4, $5)`,
		version.ChapterID,
		version.Content,
		version.Notes,
		version.WordCount,
		version.ChangeSummary,
	)

	err := scanVersion(row, version)
	if err != nil {
		return err
	}

	return nil
}

// SelectVersion retrieves a snapshot by ID
func (h *VersionsDBHandler) SelectVersion(id int64) (*model.ChapterVersion, error) {
	version := &model.ChapterVersion{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chapter_version($1)`,
		id,
	)

	err := scanVersion(row, version)
	if err != nil {
		return nil, err
	}

	return version, nil
}

// SelectVersionsByChapter retrieves all snapshots of a chapter, newest first
func (h *VersionsDBHandler) SelectVersionsByChapter(chapterID int64) ([]*model.ChapterVersion, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chapter_versions($1)`,
		chapterID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var versions []*model.ChapterVersion
	for rows.Next() {
		version := &model.ChapterVersion{}
		err := scanVersion(rows, version)
		if err != nil {
			return nil, err
		}

		versions = append(versions, version)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return versions, nil
}

// scanVersion scans a single chapter version row
func scanVersion(row rowScanner, version *model.ChapterVersion) error {
	err := row.Scan(
		&version.ID,
		&version.ChapterID,
		&version.VersionNumber,
		&version.Content,
		&version.Notes,
		&version.WordCount,
		&version.ChangeSummary,
		&version.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}
