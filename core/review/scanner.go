// Package review holds the human-in-the-loop side of entity resolution:
// scanning a project for likely duplicate entities and merging confirmed
// duplicates into a surviving entity.
package review

import (
	"fmt"
	"log/slog"

	"github.com/siherrmann/lorekeeper/core/resolve"
	"github.com/siherrmann/lorekeeper/database"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
)

// Scanner finds duplicate entity candidates within a project
type Scanner struct {
	entities *database.EntitiesDBHandler
	config   model.ResolutionConfig
	logger   *slog.Logger
}

// NewScanner creates a new duplicate scanner
func NewScanner(entities *database.EntitiesDBHandler, config model.ResolutionConfig, logger *slog.Logger) (*Scanner, error) {
	if entities == nil {
		return nil, helper.NewError("entities handler validation", fmt.Errorf("entities handler is nil"))
	}

	return &Scanner{
		entities: entities,
		config:   config,
		logger:   logger,
	}, nil
}

// Scan groups entities of the same type whose names score at or above the
// review threshold against the group's seed entity. The scan only surfaces
// candidates, it never merges. Entities are visited in ID order and each
// entity joins at most one group, so results are deterministic.
func (s *Scanner) Scan(projectID int64) ([]*model.DuplicateGroup, error) {
	all, err := s.entities.SelectEntitiesByProject(projectID)
	if err != nil {
		return nil, helper.NewError("select entities by project", err)
	}

	byType := map[model.EntityType][]*model.Entity{}
	for _, entity := range all {
		byType[entity.Type] = append(byType[entity.Type], entity)
	}

	var groups []*model.DuplicateGroup
	grouped := map[int64]bool{}

	for _, entityType := range model.EntityTypes {
		candidates := byType[entityType]
		for i, seed := range candidates {
			if grouped[seed.ID] {
				continue
			}

			group := &model.DuplicateGroup{Members: []*model.Entity{seed}}
			for _, candidate := range candidates[i+1:] {
				if grouped[candidate.ID] {
					continue
				}

				score := pairScore(seed, candidate)
				if score >= s.config.ReviewThreshold {
					group.Members = append(group.Members, candidate)
					grouped[candidate.ID] = true
					if score > group.RepresentativeScore {
						group.RepresentativeScore = score
					}
				}
			}

			if len(group.Members) > 1 {
				grouped[seed.ID] = true
				groups = append(groups, group)
			}
		}
	}

	s.logger.Info("Scanned project for duplicates", "project", projectID, "groups", len(groups))

	return groups, nil
}

// pairScore rates two entities by their best name pairing, comparing the
// canonical name and all aliases of a against b
func pairScore(a *model.Entity, b *model.Entity) float64 {
	best := resolve.BestScore(a.Name, b)
	for _, alias := range a.Aliases {
		if score := resolve.BestScore(alias, b); score > best {
			best = score
		}
	}
	return best
}
