package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/lorekeeper"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
)

const chapterOne = `Harry stepped off the train at Hogwarts. The castle towered above
the lake, its windows glowing in the dusk. Beside him, Hermione clutched her
books and stared at the Forbidden Forest in the distance.`

const chapterTwo = `The next morning Harry's first lesson took him past the greenhouses
towards the Forbidden Forest. Hermione had warned him about the forest, but
Hogwarts held stranger places still.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	l, err := lorekeeper.NewLorekeeper(dbConfig)
	if err != nil {
		log.Fatalf("Failed to create lorekeeper: %v", err)
	}
	defer l.Close()

	// Create a project with two chapters
	project := &model.Project{
		Title:        "The Philosopher's Stone",
		Description:  "First draft",
		IsOwnWriting: true,
	}
	if err := l.Projects.InsertProject(project); err != nil {
		log.Fatalf("Failed to create project: %v", err)
	}

	for number, content := range map[int]string{1: chapterOne, 2: chapterTwo} {
		chapter := &model.Chapter{
			ProjectID:     project.ID,
			ChapterNumber: number,
			Title:         fmt.Sprintf("Chapter %d", number),
			Content:       content,
		}
		if err := l.SaveChapter(chapter, ""); err != nil {
			log.Fatalf("Failed to save chapter %d: %v", number, err)
		}
	}

	// Set up the default NER extractor (downloads the model on first use)
	if err := l.UseDefaultExtractor(); err != nil {
		log.Fatalf("Failed to set up extractor: %v", err)
	}

	// Index every chapter of the project
	result, err := l.ReindexProject(context.Background(), project.RID)
	if err != nil {
		log.Fatalf("Failed to reindex project: %v", err)
	}
	fmt.Printf("Indexed project: %d entities created, %d matched, %d mentions\n",
		result.EntitiesCreated, result.EntitiesMatched, result.MentionsCreated)

	// List all tracked entities with their mention statistics
	entities, err := l.ProjectEntities(project.RID, nil)
	if err != nil {
		log.Fatalf("Failed to list entities: %v", err)
	}
	for _, entity := range entities {
		fmt.Printf("- %s (%s): %d mentions", entity.Name, entity.Type, entity.MentionCount)
		if entity.FirstAppearance != nil {
			fmt.Printf(", chapters %d-%d", *entity.FirstAppearance, *entity.LastAppearance)
		}
		fmt.Println()
	}

	// Scan for duplicate candidates the extractor may have produced
	groups, err := l.ScanDuplicates(project.RID)
	if err != nil {
		log.Fatalf("Failed to scan duplicates: %v", err)
	}
	for _, group := range groups {
		fmt.Printf("Possible duplicates (score %.2f):", group.RepresentativeScore)
		for _, member := range group.Members {
			fmt.Printf(" %q", member.Name)
		}
		fmt.Println()
	}
}
