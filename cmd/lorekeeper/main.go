// Command lorekeeper is a small CLI around the lorekeeper library.
// Database access is configured through the LOREKEEPER_DB_* environment
// variables.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/siherrmann/lorekeeper"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
	"github.com/spf13/cobra"
)

var entityType string

func main() {
	rootCmd := &cobra.Command{
		Use:           "lorekeeper",
		Short:         "Track named entities across manuscript chapters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newEntitiesCmd())
	rootCmd.AddCommand(newReindexCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newMergeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect creates a Lorekeeper from the environment configuration
func connect() (*lorekeeper.Lorekeeper, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}
	return lorekeeper.NewLorekeeper(dbConfig)
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := connect()
			if err != nil {
				return err
			}
			defer l.Close()

			projects, err := l.Projects.SelectAllProjects()
			if err != nil {
				return err
			}

			for _, project := range projects {
				fmt.Printf("%s  %s\n", project.RID, project.Title)
			}
			return nil
		},
	}
}

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities <project-rid>",
		Short: "List the entities of a project with mention statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project rid: %w", err)
			}

			var filter *model.EntityType
			if entityType != "" {
				parsed := model.EntityType(entityType)
				filter = &parsed
			}

			l, err := connect()
			if err != nil {
				return err
			}
			defer l.Close()

			entities, err := l.ProjectEntities(projectRID, filter)
			if err != nil {
				return err
			}

			for _, entity := range entities {
				fmt.Printf("%d  %-14s %-24s %d mentions", entity.ID, entity.Type, entity.Name, entity.MentionCount)
				if entity.FirstAppearance != nil {
					fmt.Printf("  (chapters %d-%d)", *entity.FirstAppearance, *entity.LastAppearance)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&entityType, "type", "t", "", "filter by entity type (character, location, organization, item, concept)")
	return cmd
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <chapter-rid>",
		Short: "Rebuild the mention index of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterRID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid chapter rid: %w", err)
			}

			l, err := connect()
			if err != nil {
				return err
			}
			defer l.Close()

			if err := l.UseDefaultExtractor(); err != nil {
				return err
			}

			result, err := l.ReindexChapter(context.Background(), chapterRID)
			if err != nil {
				return err
			}

			fmt.Printf("%d entities created, %d matched, %d mentions\n",
				result.EntitiesCreated, result.EntitiesMatched, result.MentionsCreated)
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <project-rid>",
		Short: "Scan a project for likely duplicate entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project rid: %w", err)
			}

			l, err := connect()
			if err != nil {
				return err
			}
			defer l.Close()

			groups, err := l.ScanDuplicates(projectRID)
			if err != nil {
				return err
			}

			if len(groups) == 0 {
				fmt.Println("No duplicate candidates found.")
				return nil
			}

			for _, group := range groups {
				fmt.Printf("Score %.2f:", group.RepresentativeScore)
				for _, member := range group.Members {
					fmt.Printf("  [%d] %q", member.ID, member.Name)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <project-rid> <keep-id> <merge-id>...",
		Short: "Merge duplicate entities into a surviving entity",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid project rid: %w", err)
			}

			keepID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid keep id: %w", err)
			}

			var mergeIDs []int64
			for _, arg := range args[2:] {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid merge id %q: %w", arg, err)
				}
				mergeIDs = append(mergeIDs, id)
			}

			l, err := connect()
			if err != nil {
				return err
			}
			defer l.Close()

			result, err := l.MergeEntities(projectRID, keepID, mergeIDs)
			if err != nil {
				return err
			}

			fmt.Printf("%d entities merged, %d mentions reassigned\n", result.EntitiesMerged, result.MentionsReassigned)
			if len(result.SkippedIDs) > 0 {
				fmt.Printf("Skipped ids: %v\n", result.SkippedIDs)
			}
			return nil
		},
	}
}
