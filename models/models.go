package models

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cohort represents a program instance students belong to
type Cohort struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	CohortSlug     string             `json:"cohortSlug" bson:"cohortSlug"`
	CohortName     string             `json:"cohortName" bson:"cohortName"`
	Program        string             `json:"program" bson:"program"`
	Format         string             `json:"format" bson:"format"`
	Campus         string             `json:"campus" bson:"campus"`
	StartDate      *time.Time         `json:"startDate" bson:"startDate"`
	EndDate        *time.Time         `json:"endDate" bson:"endDate"`
	InProgress     *bool              `json:"inProgress" bson:"inProgress"`
	ProgramManager string             `json:"programManager" bson:"programManager"`
	LeadTeacher    string             `json:"leadTeacher" bson:"leadTeacher"`
	TotalHours     *float64           `json:"totalHours" bson:"totalHours"`
}

// Student represents a student as stored, with a bare cohort reference
type Student struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id"`
	FirstName   string              `json:"firstName" bson:"firstName"`
	LastName    string              `json:"lastName" bson:"lastName"`
	Email       string              `json:"email" bson:"email"`
	Phone       string              `json:"phone" bson:"phone"`
	LinkedinURL string              `json:"linkedinUrl" bson:"linkedinUrl"`
	Language    string              `json:"language" bson:"language"`
	Program     string              `json:"program" bson:"program"`
	Background  string              `json:"background" bson:"background"`
	Image       string              `json:"image" bson:"image"`
	Cohort      *primitive.ObjectID `json:"cohort" bson:"cohort"`
	Projects    []interface{}       `json:"projects" bson:"projects"`
}

// UnmarshalJSON reads the cohort reference as a hex id. An empty string or
// null leaves the student without a cohort.
func (s *Student) UnmarshalJSON(data []byte) error {
	type student Student
	doc := struct {
		*student
		Cohort *string `json:"cohort"`
	}{student: (*student)(s)}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	s.Cohort = nil
	if doc.Cohort == nil || *doc.Cohort == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(*doc.Cohort)
	if err != nil {
		return errors.Wrapf(err, "invalid cohort reference '%s'", *doc.Cohort)
	}
	s.Cohort = &id
	return nil
}

// StudentView is a Student with its cohort reference expanded. Cohort is nil
// when the student has no cohort or the referenced cohort no longer exists.
type StudentView struct {
	ID          primitive.ObjectID `json:"_id"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	LinkedinURL string             `json:"linkedinUrl"`
	Language    string             `json:"language"`
	Program     string             `json:"program"`
	Background  string             `json:"background"`
	Image       string             `json:"image"`
	Cohort      *Cohort            `json:"cohort"`
	Projects    []interface{}      `json:"projects"`
}

// View expands the student with the given cohort
func (s Student) View(cohort *Cohort) StudentView {
	return StudentView{
		ID:          s.ID,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Phone:       s.Phone,
		LinkedinURL: s.LinkedinURL,
		Language:    s.Language,
		Program:     s.Program,
		Background:  s.Background,
		Image:       s.Image,
		Cohort:      cohort,
		Projects:    s.Projects,
	}
}

// CohortID returns the referenced cohort id, or the nil id when unset
func (s Student) CohortID() primitive.ObjectID {
	if s.Cohort == nil {
		return primitive.NilObjectID
	}
	return *s.Cohort
}
