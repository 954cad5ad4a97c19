package review

import (
	"testing"

	"github.com/siherrmann/lorekeeper/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScanner(t *testing.T) {
	env := initTestEnv(t)

	t.Run("Valid arguments", func(t *testing.T) {
		scanner, err := NewScanner(env.entities, model.DefaultResolutionConfig(), env.db.Logger)
		require.NoError(t, err)
		assert.NotNil(t, scanner)
	})

	t.Run("Nil entities handler", func(t *testing.T) {
		scanner, err := NewScanner(nil, model.DefaultResolutionConfig(), env.db.Logger)
		assert.Error(t, err)
		assert.Nil(t, scanner)
	})
}

func TestScanFindsDuplicates(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)

	harry := env.createEntity(t, project.ID, "Harry", model.EntityTypeCharacter)
	harryPotter := env.createEntity(t, project.ID, "Harry Potter", model.EntityTypeCharacter)
	env.createEntity(t, project.ID, "Voldemort", model.EntityTypeCharacter)

	groups, err := env.scanner.Scan(project.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	require.Len(t, groups[0].Members, 2)
	assert.Equal(t, harry.ID, groups[0].Members[0].ID)
	assert.Equal(t, harryPotter.ID, groups[0].Members[1].ID)
	assert.Equal(t, 0.9, groups[0].RepresentativeScore)
}

func TestScanIgnoresDifferentTypes(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)

	// same name, different types never group
	env.createEntity(t, project.ID, "Phoenix", model.EntityTypeCharacter)
	env.createEntity(t, project.ID, "Phoenix", model.EntityTypeLocation)

	groups, err := env.scanner.Scan(project.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestScanGroupsViaAliases(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)

	env.createEntity(t, project.ID, "Harry Potter", model.EntityTypeCharacter, "The Chosen One")
	env.createEntity(t, project.ID, "Chosen One", model.EntityTypeCharacter)

	groups, err := env.scanner.Scan(project.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Members, 2)
}

func TestScanEntityJoinsOneGroupOnly(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)

	env.createEntity(t, project.ID, "Harry", model.EntityTypeCharacter)
	env.createEntity(t, project.ID, "Harry Potter", model.EntityTypeCharacter)
	env.createEntity(t, project.ID, "Harry James Potter", model.EntityTypeCharacter)

	groups, err := env.scanner.Scan(project.ID)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Members, 3)
}

func TestScanEmptyProject(t *testing.T) {
	env := initTestEnv(t)
	project := env.createProject(t)

	groups, err := env.scanner.Scan(project.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
