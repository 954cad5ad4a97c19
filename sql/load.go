package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed projects.sql
var projectsSQL string

//go:embed chapters.sql
var chaptersSQL string

//go:embed versions.sql
var versionsSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed mentions.sql
var mentionsSQL string

// Function lists for verification
var ProjectsFunctions = []string{
	"init_projects",
	"insert_project",
	"select_project",
	"select_all_projects",
	"update_project",
	"delete_project",
}

var ChaptersFunctions = []string{
	"init_chapters",
	"insert_chapter",
	"select_chapter",
	"select_chapters_by_project",
	"update_chapter",
	"delete_chapter",
}

var VersionsFunctions = []string{
	"init_chapter_versions",
	"insert_chapter_version",
	"select_chapter_version",
	"select_chapter_versions",
}

var EntitiesFunctions = []string{
	"init_entities",
	"insert_entity",
	"select_entity",
	"select_entities_by_project",
	"select_entities_by_type",
	"select_entity_by_name",
	"select_entities_with_stats",
	"update_entity",
	"update_entity_aliases",
	"delete_entity",
}

var MentionsFunctions = []string{
	"init_mentions",
	"insert_mention",
	"select_mentions_by_chapter",
	"select_mentions_by_entity",
	"delete_mentions_by_chapter",
	"reassign_mentions",
}

// Init intializes shared database functions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database initialized successfully")
	return nil
}

// LoadProjectsSql loads project-related SQL functions
func LoadProjectsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, projectsSQL, ProjectsFunctions, "projects")
}

// LoadChaptersSql loads chapter-related SQL functions
func LoadChaptersSql(db *sql.DB, force bool) error {
	return loadSql(db, force, chaptersSQL, ChaptersFunctions, "chapters")
}

// LoadVersionsSql loads chapter-version-related SQL functions
func LoadVersionsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, versionsSQL, VersionsFunctions, "versions")
}

// LoadEntitiesSql loads entity-related SQL functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, force, entitiesSQL, EntitiesFunctions, "entities")
}

// LoadMentionsSql loads mention-related SQL functions
func LoadMentionsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, mentionsSQL, MentionsFunctions, "mentions")
}

// LoadAllSql loads all SQL functions in dependency order
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadProjectsSql(db, force); err != nil {
		return err
	}

	if err := LoadChaptersSql(db, force); err != nil {
		return err
	}

	if err := LoadVersionsSql(db, force); err != nil {
		return err
	}

	if err := LoadEntitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadMentionsSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSql loads one SQL file and verifies its functions exist afterwards.
// If force is false and all functions already exist, the file is not reloaded.
func loadSql(db *sql.DB, force bool, sqlContent string, sqlFunctions []string, name string) error {
	if !force {
		exist, err := checkFunctions(db, sqlFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(sqlContent)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, sqlFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
