package db

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cohort-tools-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// runStoreTests checks the behavior every Store backend shares. newStore must
// return an empty store for each call.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	for name, test := range map[string]func(context.Context, *testing.T, Store){
		"CohortLifecycle":        testCohortLifecycle,
		"StudentLifecycle":       testStudentLifecycle,
		"StudentMembershipMoves": testStudentMembershipMoves,
		"ProjectsRoundTrip":      testProjectsRoundTrip,
		"DuplicateIDs":           testDuplicateIDs,
		"ReseedKeepsRecords": func(_ context.Context, t *testing.T, s Store) {
			assertReseedKeepsExistingRecords(t, s)
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			test(ctx, t, newStore(t))
		})
	}
}

func testCohortLifecycle(ctx context.Context, t *testing.T, s Store) {
	start := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)
	inProgress := true
	hours := 480.0

	first := &models.Cohort{CohortSlug: "ft-web-24", CohortName: "FT Web", StartDate: &start, InProgress: &inProgress, TotalHours: &hours}
	second := &models.Cohort{CohortSlug: "pt-data-24"}
	require.NoError(t, s.CreateCohort(ctx, first))
	require.NoError(t, s.CreateCohort(ctx, second))
	require.False(t, first.ID.IsZero())

	cohorts, err := s.ListCohorts(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 2)
	assert.Equal(t, first.ID, cohorts[0].ID)
	assert.Equal(t, second.ID, cohorts[1].ID)

	n, err := s.CountCohorts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := s.GetCohort(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "FT Web", got.CohortName)
	require.NotNil(t, got.StartDate)
	assert.True(t, start.Equal(*got.StartDate))
	require.NotNil(t, got.InProgress)
	assert.True(t, *got.InProgress)
	require.NotNil(t, got.TotalHours)
	assert.EqualValues(t, 480, *got.TotalHours)

	found, err := s.FindCohorts(ctx, []primitive.ObjectID{second.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second.ID, found[0].ID)

	updated, err := s.ReplaceCohort(ctx, first.ID, &models.Cohort{CohortSlug: "ft-web-24b"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	got, err = s.GetCohort(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "ft-web-24b", got.CohortSlug)
	assert.Empty(t, got.CohortName)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.InProgress)
	assert.Nil(t, got.TotalHours)

	_, err = s.ReplaceCohort(ctx, primitive.NewObjectID(), &models.Cohort{})
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.DeleteCohort(ctx, second.ID))
	_, err = s.GetCohort(ctx, second.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(s.DeleteCohort(ctx, second.ID)))

	cohorts, err = s.ListCohorts(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 1)
	assert.Equal(t, first.ID, cohorts[0].ID)
}

func testStudentLifecycle(ctx context.Context, t *testing.T, s Store) {
	cohortID := primitive.NewObjectID()
	student := &models.Student{FirstName: "Ada", LastName: "Lovelace", Phone: "555-0100", Cohort: &cohortID, Projects: []interface{}{}}
	require.NoError(t, s.CreateStudent(ctx, student))
	require.False(t, student.ID.IsZero())

	got, err := s.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, cohortID, got.CohortID())

	_, err = s.ReplaceStudent(ctx, student.ID, &models.Student{FirstName: "Ada", LastName: "King", Projects: []interface{}{}})
	require.NoError(t, err)
	got, err = s.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "King", got.LastName)
	assert.Empty(t, got.Phone)
	assert.Nil(t, got.Cohort)

	_, err = s.ReplaceStudent(ctx, primitive.NewObjectID(), &models.Student{})
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.DeleteStudent(ctx, student.ID))
	_, err = s.GetStudent(ctx, student.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(s.DeleteStudent(ctx, student.ID)))

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func studentIDs(students []models.Student) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	return ids
}

func testStudentMembershipMoves(ctx context.Context, t *testing.T, s Store) {
	web := primitive.NewObjectID()
	data := primitive.NewObjectID()

	ada := &models.Student{FirstName: "Ada", Cohort: &web, Projects: []interface{}{}}
	ken := &models.Student{FirstName: "Ken", Cohort: &web, Projects: []interface{}{}}
	linus := &models.Student{FirstName: "Linus", Projects: []interface{}{}}
	for _, student := range []*models.Student{ada, ken, linus} {
		require.NoError(t, s.CreateStudent(ctx, student))
	}

	inWeb, err := s.ListStudentsByCohort(ctx, web)
	require.NoError(t, err)
	assert.ElementsMatch(t, []primitive.ObjectID{ada.ID, ken.ID}, studentIDs(inWeb))

	_, err = s.ReplaceStudent(ctx, ken.ID, &models.Student{FirstName: "Ken", Cohort: &data, Projects: []interface{}{}})
	require.NoError(t, err)

	inWeb, err = s.ListStudentsByCohort(ctx, web)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{ada.ID}, studentIDs(inWeb))
	inData, err := s.ListStudentsByCohort(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{ken.ID}, studentIDs(inData))

	_, err = s.ReplaceStudent(ctx, ken.ID, &models.Student{FirstName: "Ken", Projects: []interface{}{}})
	require.NoError(t, err)
	inData, err = s.ListStudentsByCohort(ctx, data)
	require.NoError(t, err)
	assert.Empty(t, inData)

	require.NoError(t, s.DeleteStudent(ctx, ada.ID))
	inWeb, err = s.ListStudentsByCohort(ctx, web)
	require.NoError(t, err)
	assert.Empty(t, inWeb)

	all, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{ken.ID, linus.ID}, studentIDs(all))
}

func testProjectsRoundTrip(ctx context.Context, t *testing.T, s Store) {
	student := &models.Student{
		FirstName: "Ada",
		Projects: []interface{}{
			map[string]interface{}{"name": "engine", "tags": []interface{}{"math", "notes"}},
			"analytical",
		},
	}
	require.NoError(t, s.CreateStudent(ctx, student))

	got, err := s.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(got.Projects)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"engine","tags":["math","notes"]},"analytical"]`, string(raw))

	empty := &models.Student{FirstName: "Linus", Projects: []interface{}{}}
	require.NoError(t, s.CreateStudent(ctx, empty))
	got, err = s.GetStudent(ctx, empty.ID)
	require.NoError(t, err)
	raw, err = json.Marshal(got.Projects)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func testDuplicateIDs(ctx context.Context, t *testing.T, s Store) {
	cohort := &models.Cohort{CohortSlug: "ft-web-24"}
	require.NoError(t, s.CreateCohort(ctx, cohort))
	err := s.CreateCohort(ctx, &models.Cohort{ID: cohort.ID, CohortSlug: "other"})
	assert.True(t, IsDuplicateID(err), "%+v", err)

	student := &models.Student{FirstName: "Ada", Cohort: &cohort.ID, Projects: []interface{}{}}
	require.NoError(t, s.CreateStudent(ctx, student))
	err = s.CreateStudent(ctx, &models.Student{ID: student.ID, FirstName: "Other", Projects: []interface{}{}})
	assert.True(t, IsDuplicateID(err), "%+v", err)

	cohorts, err := s.ListCohorts(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 1)
	assert.Equal(t, "ft-web-24", cohorts[0].CohortSlug)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada", students[0].FirstName)

	inCohort, err := s.ListStudentsByCohort(ctx, cohort.ID)
	require.NoError(t, err)
	assert.Len(t, inCohort, 1)
}
