package db

import (
	"context"
	"sync"

	"cohort-tools-api/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps records in process memory in insertion order
type MemoryStore struct {
	mu           sync.RWMutex
	cohorts      map[primitive.ObjectID]models.Cohort
	cohortOrder  []primitive.ObjectID
	students     map[primitive.ObjectID]models.Student
	studentOrder []primitive.ObjectID
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cohorts:  map[primitive.ObjectID]models.Cohort{},
		students: map[primitive.ObjectID]models.Student{},
	}
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// --- Cohort Operations ---

func (s *MemoryStore) ListCohorts(ctx context.Context) ([]models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cohorts := make([]models.Cohort, 0, len(s.cohortOrder))
	for _, id := range s.cohortOrder {
		cohorts = append(cohorts, s.cohorts[id])
	}
	return cohorts, nil
}

func (s *MemoryStore) FindCohorts(ctx context.Context, ids []primitive.ObjectID) ([]models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cohorts := make([]models.Cohort, 0, len(ids))
	for _, id := range ids {
		if cohort, ok := s.cohorts[id]; ok {
			cohorts = append(cohorts, cohort)
		}
	}
	return cohorts, nil
}

func (s *MemoryStore) GetCohort(ctx context.Context, id primitive.ObjectID) (*models.Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cohort, ok := s.cohorts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &cohort, nil
}

func (s *MemoryStore) CountCohorts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.cohorts)), nil
}

func (s *MemoryStore) CreateCohort(ctx context.Context, cohort *models.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cohort.ID.IsZero() {
		cohort.ID = primitive.NewObjectID()
	}
	if _, ok := s.cohorts[cohort.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "cohort '%s'", cohort.ID.Hex())
	}
	s.cohortOrder = append(s.cohortOrder, cohort.ID)
	s.cohorts[cohort.ID] = *cohort
	return nil
}

func (s *MemoryStore) ReplaceCohort(ctx context.Context, id primitive.ObjectID, cohort *models.Cohort) (*models.Cohort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cohorts[id]; !ok {
		return nil, ErrNotFound
	}
	updated := *cohort
	updated.ID = id
	s.cohorts[id] = updated
	return &updated, nil
}

func (s *MemoryStore) DeleteCohort(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cohorts[id]; !ok {
		return ErrNotFound
	}
	delete(s.cohorts, id)
	s.cohortOrder = removeID(s.cohortOrder, id)
	return nil
}

// --- Student Operations ---

func (s *MemoryStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]models.Student, 0, len(s.studentOrder))
	for _, id := range s.studentOrder {
		students = append(students, s.students[id])
	}
	return students, nil
}

func (s *MemoryStore) ListStudentsByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := []models.Student{}
	for _, id := range s.studentOrder {
		student := s.students[id]
		if student.Cohort != nil && *student.Cohort == cohortID {
			students = append(students, student)
		}
	}
	return students, nil
}

func (s *MemoryStore) GetStudent(ctx context.Context, id primitive.ObjectID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &student, nil
}

func (s *MemoryStore) CreateStudent(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if student.ID.IsZero() {
		student.ID = primitive.NewObjectID()
	}
	if _, ok := s.students[student.ID]; ok {
		return errors.Wrapf(ErrDuplicateID, "student '%s'", student.ID.Hex())
	}
	s.studentOrder = append(s.studentOrder, student.ID)
	s.students[student.ID] = *student
	return nil
}

func (s *MemoryStore) ReplaceStudent(ctx context.Context, id primitive.ObjectID, student *models.Student) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[id]; !ok {
		return nil, ErrNotFound
	}
	updated := *student
	updated.ID = id
	s.students[id] = updated
	return &updated, nil
}

func (s *MemoryStore) DeleteStudent(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[id]; !ok {
		return ErrNotFound
	}
	delete(s.students, id)
	s.studentOrder = removeID(s.studentOrder, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
