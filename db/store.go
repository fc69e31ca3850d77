package db

import (
	"context"

	"cohort-tools-api/config"
	"cohort-tools-api/models"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when the targeted record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrCohortReference is returned by a reference-checking store when a
	// student points at a cohort that does not exist
	ErrCohortReference = errors.New("referenced cohort does not exist")
	// ErrDuplicateID is returned when creating a record whose id is taken
	ErrDuplicateID = errors.New("record id already exists")
)

// Store is the document store shared by every request. Implementations must
// be safe for concurrent use.
type Store interface {
	ListCohorts(ctx context.Context) ([]models.Cohort, error)
	FindCohorts(ctx context.Context, ids []primitive.ObjectID) ([]models.Cohort, error)
	GetCohort(ctx context.Context, id primitive.ObjectID) (*models.Cohort, error)
	CountCohorts(ctx context.Context) (int64, error)
	CreateCohort(ctx context.Context, cohort *models.Cohort) error
	ReplaceCohort(ctx context.Context, id primitive.ObjectID, cohort *models.Cohort) (*models.Cohort, error)
	DeleteCohort(ctx context.Context, id primitive.ObjectID) error

	ListStudents(ctx context.Context) ([]models.Student, error)
	ListStudentsByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.Student, error)
	GetStudent(ctx context.Context, id primitive.ObjectID) (*models.Student, error)
	CreateStudent(ctx context.Context, student *models.Student) error
	ReplaceStudent(ctx context.Context, id primitive.ObjectID, student *models.Student) (*models.Student, error)
	DeleteStudent(ctx context.Context, id primitive.ObjectID) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsNotFound reports whether err was caused by a missing record
func IsNotFound(err error) bool {
	return err != nil && errors.Cause(err) == ErrNotFound
}

// IsDuplicateID reports whether err was caused by creating a record with an
// id that is already in use
func IsDuplicateID(err error) bool {
	return err != nil && errors.Cause(err) == ErrDuplicateID
}

// Open connects the store selected by the configuration. The caller owns the
// returned store and must Close it on shutdown.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Store.Driver {
	case config.DriverMongo:
		store, err = NewMongoStore(ctx, cfg.Store)
	case config.DriverRedis:
		store, err = NewRedisStore(ctx, cfg.Redis)
	case config.DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, errors.Errorf("unknown store driver '%s'", cfg.Store.Driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s store", cfg.Store.Driver)
	}

	grip.Info(message.Fields{
		"message":          "store opened",
		"driver":           cfg.Store.Driver,
		"check_references": cfg.Store.CheckReferences,
	})

	if cfg.Store.CheckReferences {
		store = WithReferenceCheck(store)
	}
	return store, nil
}

type referenceCheckingStore struct {
	Store
}

// WithReferenceCheck wraps a store so that student writes fail with
// ErrCohortReference when their cohort reference is dangling.
func WithReferenceCheck(s Store) Store {
	return &referenceCheckingStore{Store: s}
}

func (s *referenceCheckingStore) checkCohort(ctx context.Context, student *models.Student) error {
	if student.Cohort == nil {
		return nil
	}
	if _, err := s.Store.GetCohort(ctx, *student.Cohort); err != nil {
		if IsNotFound(err) {
			return errors.Wrapf(ErrCohortReference, "cohort '%s'", student.Cohort.Hex())
		}
		return errors.Wrap(err, "checking cohort reference")
	}
	return nil
}

func (s *referenceCheckingStore) CreateStudent(ctx context.Context, student *models.Student) error {
	if err := s.checkCohort(ctx, student); err != nil {
		return err
	}
	return s.Store.CreateStudent(ctx, student)
}

func (s *referenceCheckingStore) ReplaceStudent(ctx context.Context, id primitive.ObjectID, student *models.Student) (*models.Student, error) {
	if err := s.checkCohort(ctx, student); err != nil {
		return nil, err
	}
	return s.Store.ReplaceStudent(ctx, id, student)
}
