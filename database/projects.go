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

// ProjectsDBHandlerFunctions defines the interface for Projects database operations.
type ProjectsDBHandlerFunctions interface {
	InsertProject(project *model.Project) error
	SelectProject(rid uuid.UUID) (*model.Project, error)
	SelectAllProjects() ([]*model.Project, error)
	UpdateProject(project *model.Project) error
	DeleteProject(rid uuid.UUID) error
}

// ProjectsDBHandler handles project-related database operations
type ProjectsDBHandler struct {
	db *helper.Database
}

// NewProjectsDBHandler creates a new projects database handler.
// It initializes the database connection and loads project-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewProjectsDBHandler(db *helper.Database, force bool) (*ProjectsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	projectsDbHandler := &ProjectsDBHandler{
		db: db,
	}

	err := sql.LoadProjectsSql(projectsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load projects sql", err)
	}

	err = projectsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ProjectsDBHandler")

	return projectsDbHandler, nil
}

// CreateTable creates the indexes and triggers of the 'projects' table.
func (h *ProjectsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_projects();`)
	if err != nil {
		log.Panicf("error initializing projects table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table projects")

	return nil
}

// InsertProject inserts a new project
func (h *ProjectsDBHandler) InsertProject(project *model.Project) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_project($1, $2, $3)`,
		project.Title,
		project.Description,
		project.IsOwnWriting,
	)

	err := row.Scan(
		&project.ID,
		&project.RID,
		&project.Title,
		&project.Description,
		&project.IsOwnWriting,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectProject retrieves a project by RID
func (h *ProjectsDBHandler) SelectProject(rid uuid.UUID) (*model.Project, error) {
	project := &model.Project{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_project($1)`,
		rid,
	)

	err := row.Scan(
		&project.ID,
		&project.RID,
		&project.Title,
		&project.Description,
		&project.IsOwnWriting,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return project, nil
}

// SelectAllProjects retrieves all projects ordered by creation time
func (h *ProjectsDBHandler) SelectAllProjects() ([]*model.Project, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_projects()`,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		project := &model.Project{}
		err := rows.Scan(
			&project.ID,
			&project.RID,
			&project.Title,
			&project.Description,
			&project.IsOwnWriting,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		projects = append(projects, project)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return projects, nil
}

// UpdateProject updates the title and description of a project
func (h *ProjectsDBHandler) UpdateProject(project *model.Project) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_project($1, $2, $3)`,
		project.RID,
		project.Title,
		project.Description,
	)

	err := row.Scan(
		&project.ID,
		&project.RID,
		&project.Title,
		&project.Description,
		&project.IsOwnWriting,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteProject deletes a project by RID.
// Chapters, versions, entities and mentions of the project cascade.
func (h *ProjectsDBHandler) DeleteProject(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_project($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
