package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
	"github.com/siherrmann/lorekeeper/sql"
)

// ChaptersDBHandlerFunctions defines the interface for Chapters database operations.
type ChaptersDBHandlerFunctions interface {
	InsertChapter(chapter *model.Chapter) error
	SelectChapter(rid uuid.UUID) (*model.Chapter, error)
	SelectChaptersByProject(projectID int64) ([]*model.Chapter, error)
	UpdateChapter(chapter *model.Chapter) error
	DeleteChapter(rid uuid.UUID) error
}

// ChaptersDBHandler handles chapter-related database operations
type ChaptersDBHandler struct {
	db *helper.Database
}

// NewChaptersDBHandler creates a new chapters database handler.
// It initializes the database connection and loads chapter-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChaptersDBHandler(db *helper.Database, force bool) (*ChaptersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chaptersDbHandler := &ChaptersDBHandler{
		db: db,
	}

	err := sql.LoadChaptersSql(chaptersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chapters sql", err)
	}

	err = chaptersDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChaptersDBHandler")

	return chaptersDbHandler, nil
}

// CreateTable creates the indexes and triggers of the 'chapters' table.
func (h *ChaptersDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chapters();`)
	if err != nil {
		log.Panicf("error initializing chapters table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chapters")

	return nil
}

// InsertChapter inserts a new chapter
func (h *ChaptersDBHandler) InsertChapter(chapter *model.Chapter) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chapter($1, $2, $3, $4, $5, $6)`,
		chapter.ProjectID,
		chapter.ChapterNumber,
		chapter.Title,
		chapter.Content,
		chapter.Notes,
		chapter.WordCount,
	)

	return scanChapter(row, chapter)
}

// SelectChapter retrieves a chapter by RID.
// Returns nil without an error if the chapter does not exist.
func (h *ChaptersDBHandler) SelectChapter(rid uuid.UUID) (*model.Chapter, error) {
	chapter := &model.Chapter{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chapter($1)`,
		rid,
	)

	err := scanChapter(row, chapter)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return chapter, nil
}

// SelectChaptersByProject retrieves all chapters of a project ordered by chapter number
func (h *ChaptersDBHandler) SelectChaptersByProject(projectID int64) ([]*model.Chapter, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chapters_by_project($1)`,
		projectID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chapters []*model.Chapter
	for rows.Next() {
		chapter := &model.Chapter{}
		err := rows.Scan(
			&chapter.ID,
			&chapter.RID,
			&chapter.ProjectID,
			&chapter.ChapterNumber,
			&chapter.Title,
			&chapter.Content,
			&chapter.Notes,
			&chapter.WordCount,
			&chapter.CreatedAt,
			&chapter.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chapters = append(chapters, chapter)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chapters, nil
}

// UpdateChapter updates title, content, notes and word count of a chapter
func (h *ChaptersDBHandler) UpdateChapter(chapter *model.Chapter) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_chapter($1, $2, $3, $4, $5)`,
		chapter.RID,
		chapter.Title,
		chapter.Content,
		chapter.Notes,
		chapter.WordCount,
	)

	return scanChapter(row, chapter)
}

// DeleteChapter deletes a chapter by RID. Versions and mentions cascade.
func (h *ChaptersDBHandler) DeleteChapter(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_chapter($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanChapter scans a single chapter row
func scanChapter(row rowScanner, chapter *model.Chapter) error {
	err := row.Scan(
		&chapter.ID,
		&chapter.RID,
		&chapter.ProjectID,
		&chapter.ChapterNumber,
		&chapter.Title,
		&chapter.Content,
		&chapter.Notes,
		&chapter.WordCount,
		&chapter.CreatedAt,
		&chapter.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}
