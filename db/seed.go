package db

import (
	"context"
	"encoding/json"
	"os"

	"cohort-tools-api/models"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeedData holds the records loaded into an empty store
type SeedData struct {
	Cohorts  []models.Cohort
	Students []models.Student
}

// LoadSeedFiles reads JSON arrays of cohorts and students. Either path may be
// empty. Records may carry an _id, which is kept so students can reference
// seeded cohorts.
func LoadSeedFiles(cohortsPath, studentsPath string) (*SeedData, error) {
	data := &SeedData{}
	if err := readJSONFile(cohortsPath, &data.Cohorts); err != nil {
		return nil, err
	}
	if err := readJSONFile(studentsPath, &data.Students); err != nil {
		return nil, err
	}
	return data, nil
}

func readJSONFile(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading seed file '%s'", path)
	}
	return errors.Wrapf(json.Unmarshal(raw, out), "decoding seed file '%s'", path)
}

// Seed adds the seed records when the store holds no cohorts yet. It reports
// whether anything was written.
func Seed(ctx context.Context, s Store, data *SeedData) (bool, error) {
	count, err := s.CountCohorts(ctx)
	if err != nil {
		return false, errors.Wrap(err, "checking for existing cohorts")
	}
	if count > 0 {
		grip.Info(message.Fields{
			"message": "existing cohorts found, skipping seed",
			"cohorts": count,
		})
		return false, nil
	}

	var cohorts, students int
	for i := range data.Cohorts {
		err := s.CreateCohort(ctx, &data.Cohorts[i])
		if skipExisting(err, "cohort", data.Cohorts[i].ID) {
			continue
		}
		if err != nil {
			return false, errors.Wrapf(err, "seeding cohort '%s'", data.Cohorts[i].CohortSlug)
		}
		cohorts++
	}
	for i := range data.Students {
		if data.Students[i].Projects == nil {
			data.Students[i].Projects = []interface{}{}
		}
		err := s.CreateStudent(ctx, &data.Students[i])
		if skipExisting(err, "student", data.Students[i].ID) {
			continue
		}
		if err != nil {
			return false, errors.Wrapf(err, "seeding student '%s'", data.Students[i].Email)
		}
		students++
	}

	grip.Info(message.Fields{
		"message":  "seed data added",
		"cohorts":  cohorts,
		"students": students,
	})
	return true, nil
}

// skipExisting reports whether a seed record was rejected because its id is
// already stored. Such records are left as they are.
func skipExisting(err error, kind string, id primitive.ObjectID) bool {
	if !IsDuplicateID(err) {
		return false
	}
	grip.Info(message.Fields{
		"message": "seed record already exists, skipping",
		"kind":    kind,
		"id":      id.Hex(),
	})
	return true
}
