package resolve

import (
	"testing"

	"github.com/siherrmann/lorekeeper/model"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	t.Run("Equal names score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, Score("Harry", "Harry"))
		assert.Equal(t, 1.0, Score("Harry", "harry"))
	})

	t.Run("Substring scores 0.9", func(t *testing.T) {
		assert.Equal(t, 0.9, Score("Harry", "Harry Potter"))
		assert.Equal(t, 0.9, Score("Harry Potter", "Harry"))
		assert.Equal(t, 0.9, Score("Forest", "Dark Forest"))
	})

	t.Run("Unrelated names score low", func(t *testing.T) {
		assert.Less(t, Score("Harry", "Voldemort"), 0.7)
		assert.Less(t, Score("Dark Forest", "Ministry"), 0.7)
	})

	t.Run("Near miss spelling lands between thresholds", func(t *testing.T) {
		score := Score("Gandalf", "Gandolf")
		assert.GreaterOrEqual(t, score, 0.7)
		assert.Less(t, score, 0.9)
	})

	t.Run("Close spelling can exceed the match threshold", func(t *testing.T) {
		assert.GreaterOrEqual(t, Score("Jon Snow", "John Snow"), 0.85)
	})

	t.Run("Symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"Harry", "Harold"},
			{"Dark Forest", "Darker Forest"},
			{"Gandalf", "Saruman"},
		}
		for _, pair := range pairs {
			assert.Equal(t, Score(pair[0], pair[1]), Score(pair[1], pair[0]))
		}
	})

	t.Run("Empty names score 0.0", func(t *testing.T) {
		assert.Equal(t, 0.0, Score("", "Harry"))
		assert.Equal(t, 0.0, Score("Harry", ""))
	})
}

func TestBestScore(t *testing.T) {
	entity := &model.Entity{
		Name:    "Harry Potter",
		Aliases: model.Aliases{"The Boy Who Lived", "Harry"},
	}

	t.Run("Canonical name match", func(t *testing.T) {
		assert.Equal(t, 1.0, BestScore("Harry Potter", entity))
	})

	t.Run("Alias beats canonical name", func(t *testing.T) {
		assert.Equal(t, 1.0, BestScore("Harry", entity))
	})

	t.Run("No aliases falls back to canonical name", func(t *testing.T) {
		plain := &model.Entity{Name: "Hermione"}
		assert.Equal(t, 1.0, BestScore("Hermione", plain))
		assert.Less(t, BestScore("Ron", plain), 0.7)
	})
}
