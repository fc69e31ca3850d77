package db

import (
	"context"

	"cohort-tools-api/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExpandStudents replaces each student's cohort reference with the cohort
// record. The referenced cohorts are loaded with a single lookup; dangling
// references expand to nil.
func ExpandStudents(ctx context.Context, s Store, students []models.Student) ([]models.StudentView, error) {
	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, student := range students {
		if student.Cohort == nil || seen[*student.Cohort] {
			continue
		}
		seen[*student.Cohort] = true
		ids = append(ids, *student.Cohort)
	}

	cohorts, err := s.FindCohorts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading referenced cohorts")
	}
	byID := make(map[primitive.ObjectID]*models.Cohort, len(cohorts))
	for i := range cohorts {
		byID[cohorts[i].ID] = &cohorts[i]
	}

	views := make([]models.StudentView, 0, len(students))
	for _, student := range students {
		views = append(views, student.View(byID[student.CohortID()]))
	}
	return views, nil
}

// ExpandStudent is ExpandStudents for a single record
func ExpandStudent(ctx context.Context, s Store, student models.Student) (models.StudentView, error) {
	if student.Cohort == nil {
		return student.View(nil), nil
	}
	cohort, err := s.GetCohort(ctx, *student.Cohort)
	if err != nil {
		if IsNotFound(err) {
			return student.View(nil), nil
		}
		return models.StudentView{}, errors.Wrap(err, "loading referenced cohort")
	}
	return student.View(cohort), nil
}
