package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cohort-tools-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	seedCohorts = `[
  {"_id": "65d1f3a2b4c5d6e7f8a9b0c1", "cohortSlug": "ft-web-24", "cohortName": "FT Web Feb 2024", "totalHours": 480, "inProgress": true},
  {"_id": "65d1f3a2b4c5d6e7f8a9b0c2", "cohortSlug": "pt-data-24", "cohortName": "PT Data 2024"}
]`
	seedStudents = `[
  {"firstName": "Ada", "lastName": "Lovelace", "cohort": "65d1f3a2b4c5d6e7f8a9b0c1", "projects": [{"name": "engine"}]},
  {"firstName": "Grace", "lastName": "Hopper", "cohort": "65d1f3a2b4c5d6e7f8a9b0c2"}
]`
)

func writeSeedFiles(t *testing.T) (string, string) {
	dir := t.TempDir()
	cohorts := filepath.Join(dir, "cohorts.json")
	students := filepath.Join(dir, "students.json")
	require.NoError(t, os.WriteFile(cohorts, []byte(seedCohorts), 0o600))
	require.NoError(t, os.WriteFile(students, []byte(seedStudents), 0o600))
	return cohorts, students
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data, err := LoadSeedFiles(writeSeedFiles(t))
	require.NoError(t, err)
	require.Len(t, data.Cohorts, 2)
	require.Len(t, data.Students, 2)

	seeded, err := Seed(ctx, s, data)
	require.NoError(t, err)
	assert.True(t, seeded)

	cohorts, err := s.ListCohorts(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 2)
	assert.Equal(t, "65d1f3a2b4c5d6e7f8a9b0c1", cohorts[0].ID.Hex())
	require.NotNil(t, cohorts[0].TotalHours)
	assert.EqualValues(t, 480, *cohorts[0].TotalHours)

	students, err := s.ListStudentsByCohort(ctx, cohorts[0].ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada", students[0].FirstName)
	assert.Len(t, students[0].Projects, 1)

	t.Run("SkipsWhenCohortsExist", func(t *testing.T) {
		again, err := LoadSeedFiles(writeSeedFiles(t))
		require.NoError(t, err)
		seeded, err := Seed(ctx, s, again)
		require.NoError(t, err)
		assert.False(t, seeded)

		all, err := s.ListStudents(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestSeedEmptyPaths(t *testing.T) {
	data, err := LoadSeedFiles("", "")
	require.NoError(t, err)
	assert.Empty(t, data.Cohorts)
	assert.Empty(t, data.Students)
}

func TestLoadSeedFilesErrors(t *testing.T) {
	_, err := LoadSeedFiles(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "an array"}`), 0o600))
	_, err = LoadSeedFiles(bad, "")
	assert.Error(t, err)
}

func TestSeedStudentsWithoutProjects(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seeded, err := Seed(ctx, s, &SeedData{Students: []models.Student{{FirstName: "Linus"}}})
	require.NoError(t, err)
	assert.True(t, seeded)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.NotNil(t, students[0].Projects)
}

func TestSeedSkipsExistingIDs(t *testing.T) {
	assertReseedKeepsExistingRecords(t, NewMemoryStore())
}

// assertReseedKeepsExistingRecords seeds, removes every cohort so the store
// looks empty to Seed, then seeds the same ids again
func assertReseedKeepsExistingRecords(t *testing.T, s Store) {
	ctx := context.Background()
	cohortID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()
	data := func() *SeedData {
		return &SeedData{
			Cohorts:  []models.Cohort{{ID: cohortID, CohortSlug: "ft-web-24"}},
			Students: []models.Student{{ID: studentID, FirstName: "Ada", Cohort: &cohortID}},
		}
	}

	seeded, err := Seed(ctx, s, data())
	require.NoError(t, err)
	require.True(t, seeded)
	require.NoError(t, s.DeleteCohort(ctx, cohortID))

	again := data()
	again.Students[0].FirstName = "Changed"
	seeded, err = Seed(ctx, s, again)
	require.NoError(t, err)
	assert.True(t, seeded)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, studentID, students[0].ID)
	assert.Equal(t, "Ada", students[0].FirstName)

	cohorts, err := s.ListCohorts(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 1)
	assert.Equal(t, cohortID, cohorts[0].ID)
}
