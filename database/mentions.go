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

// MentionsDBHandlerFunctions defines the interface for Mentions database operations.
type MentionsDBHandlerFunctions interface {
	InsertMention(mention *model.Mention) error
	SelectMentionsByChapter(chapterID int64) ([]*model.Mention, error)
	SelectMentionsByEntity(entityID int64) ([]*model.Mention, error)
	DeleteMentionsByChapter(chapterID int64) error
	ReassignMentions(fromEntityID int64, toEntityID int64) (int, error)
}

// MentionsDBHandler handles mention-related database operations
type MentionsDBHandler struct {
	db *helper.Database
}

// NewMentionsDBHandler creates a new mentions database handler.
// It initializes the database connection and loads mention-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewMentionsDBHandler(db *helper.Database, force bool) (*MentionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	mentionsDbHandler := &MentionsDBHandler{
		db: db,
	}

	err := loadSql.LoadMentionsSql(mentionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load mentions sql", err)
	}

	err = mentionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MentionsDBHandler")

	return mentionsDbHandler, nil
}

// CreateTable creates the indexes of the 'mentions' table.
func (h *MentionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_mentions();`)
	if err != nil {
		log.Panicf("error initializing mentions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table mentions")

	return nil
}

// InsertMention inserts a new mention
func (h *MentionsDBHandler) InsertMention(mention *model.Mention) error {
	return insertMention(h.db.Instance, mention)
}

// InsertMentionTx inserts a new mention inside an open transaction
func (h *MentionsDBHandler) InsertMentionTx(tx *sql.Tx, mention *model.Mention) error {
	return insertMention(tx, mention)
}

func insertMention(q querier, mention *model.Mention) error {
	row := q.QueryRow(
		`SELECT * FROM insert_mention($1, $2, $3, $4, $5, $6)`,
		mention.EntityID,
		mention.ChapterID,
		mention.StartPos,
		mention.EndPos,
		mention.Context,
		mention.MentionedAs,
	)

	err := row.Scan(
		&mention.ID,
		&mention.EntityID,
		&mention.ChapterID,
		&mention.StartPos,
		&mention.EndPos,
		&mention.Context,
		&mention.MentionedAs,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectMentionsByChapter retrieves all mentions of a chapter ordered by position
func (h *MentionsDBHandler) SelectMentionsByChapter(chapterID int64) ([]*model.Mention, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_mentions_by_chapter($1)`,
		chapterID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var mentions []*model.Mention
	for rows.Next() {
		mention := &model.Mention{}
		err := rows.Scan(
			&mention.ID,
			&mention.EntityID,
			&mention.ChapterID,
			&mention.StartPos,
			&mention.EndPos,
			&mention.Context,
			&mention.MentionedAs,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		mentions = append(mentions, mention)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}

// SelectMentionsByEntity retrieves all mentions of an entity across the
// project in chapter order, each annotated with chapter number and title.
func (h *MentionsDBHandler) SelectMentionsByEntity(entityID int64) ([]*model.Mention, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_mentions_by_entity($1)`,
		entityID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var mentions []*model.Mention
	for rows.Next() {
		mention := &model.Mention{}
		err := rows.Scan(
			&mention.ID,
			&mention.EntityID,
			&mention.ChapterID,
			&mention.StartPos,
			&mention.EndPos,
			&mention.Context,
			&mention.MentionedAs,
			&mention.ChapterNumber,
			&mention.ChapterTitle,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		mentions = append(mentions, mention)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}

// DeleteMentionsByChapter deletes all mentions of a chapter
func (h *MentionsDBHandler) DeleteMentionsByChapter(chapterID int64) error {
	return deleteMentionsByChapter(h.db.Instance, chapterID)
}

// DeleteMentionsByChapterTx deletes all mentions of a chapter inside an open transaction
func (h *MentionsDBHandler) DeleteMentionsByChapterTx(tx *sql.Tx, chapterID int64) error {
	return deleteMentionsByChapter(tx, chapterID)
}

func deleteMentionsByChapter(q querier, chapterID int64) error {
	_, err := q.Exec(
		`SELECT delete_mentions_by_chapter($1)`,
		chapterID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// ReassignMentions points every mention of fromEntityID at toEntityID and
// returns the number of mentions moved. No mention is deleted.
func (h *MentionsDBHandler) ReassignMentions(fromEntityID int64, toEntityID int64) (int, error) {
	return reassignMentions(h.db.Instance, fromEntityID, toEntityID)
}

// ReassignMentionsTx reassigns mentions inside an open transaction
func (h *MentionsDBHandler) ReassignMentionsTx(tx *sql.Tx, fromEntityID int64, toEntityID int64) (int, error) {
	return reassignMentions(tx, fromEntityID, toEntityID)
}

func reassignMentions(q querier, fromEntityID int64, toEntityID int64) (int, error) {
	var moved int
	err := q.QueryRow(
		`SELECT reassign_mentions($1, $2)`,
		fromEntityID,
		toEntityID,
	).Scan(&moved)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return moved, nil
}
