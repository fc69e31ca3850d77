package db

import (
	"context"

	"cohort-tools-api/config"
	"cohort-tools-api/models"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	cohortsCollection  = "cohorts"
	studentsCollection = "students"
)

// MongoStore persists cohorts and students as MongoDB documents
type MongoStore struct {
	client   *mongo.Client
	cohorts  *mongo.Collection
	students *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping
func NewMongoStore(ctx context.Context, cfg config.StoreConfig) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		// opaque student projects decode to maps rather than bson.D
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		grip.Warning(message.WrapError(client.Disconnect(ctx), "disconnecting after failed ping"))
		return nil, errors.Wrap(err, "pinging mongo")
	}

	grip.Info(message.Fields{
		"message":  "connected to mongo",
		"database": cfg.Database,
	})
	return newMongoStoreForDatabase(client, cfg.Database), nil
}

func newMongoStoreForDatabase(client *mongo.Client, name string) *MongoStore {
	database := client.Database(name)
	return &MongoStore{
		client:   client,
		cohorts:  database.Collection(cohortsCollection),
		students: database.Collection(studentsCollection),
	}
}

func byID(id primitive.ObjectID) bson.M {
	return bson.M{"_id": id}
}

// --- Cohort Operations ---

func (s *MongoStore) ListCohorts(ctx context.Context) ([]models.Cohort, error) {
	return s.findCohorts(ctx, bson.M{})
}

func (s *MongoStore) FindCohorts(ctx context.Context, ids []primitive.ObjectID) ([]models.Cohort, error) {
	if len(ids) == 0 {
		return []models.Cohort{}, nil
	}
	return s.findCohorts(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *MongoStore) findCohorts(ctx context.Context, filter bson.M) ([]models.Cohort, error) {
	cur, err := s.cohorts.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "finding cohorts")
	}
	cohorts := []models.Cohort{}
	if err = cur.All(ctx, &cohorts); err != nil {
		return nil, errors.Wrap(err, "decoding cohorts")
	}
	return cohorts, nil
}

func (s *MongoStore) GetCohort(ctx context.Context, id primitive.ObjectID) (*models.Cohort, error) {
	cohort := &models.Cohort{}
	if err := s.cohorts.FindOne(ctx, byID(id)).Decode(cohort); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(ErrNotFound, "cohort '%s'", id.Hex())
		}
		return nil, errors.Wrapf(err, "finding cohort '%s'", id.Hex())
	}
	return cohort, nil
}

func (s *MongoStore) CountCohorts(ctx context.Context) (int64, error) {
	n, err := s.cohorts.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "counting cohorts")
}

func (s *MongoStore) CreateCohort(ctx context.Context, cohort *models.Cohort) error {
	if cohort.ID.IsZero() {
		cohort.ID = primitive.NewObjectID()
	}
	_, err := s.cohorts.InsertOne(ctx, cohort)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrDuplicateID, "cohort '%s'", cohort.ID.Hex())
	}
	return errors.Wrap(err, "inserting cohort")
}

func (s *MongoStore) ReplaceCohort(ctx context.Context, id primitive.ObjectID, cohort *models.Cohort) (*models.Cohort, error) {
	cohort.ID = id
	updated := &models.Cohort{}
	err := s.cohorts.FindOneAndReplace(ctx, byID(id), cohort,
		options.FindOneAndReplace().SetReturnDocument(options.After)).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(ErrNotFound, "cohort '%s'", id.Hex())
		}
		return nil, errors.Wrapf(err, "replacing cohort '%s'", id.Hex())
	}
	return updated, nil
}

func (s *MongoStore) DeleteCohort(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.cohorts.DeleteOne(ctx, byID(id))
	if err != nil {
		return errors.Wrapf(err, "deleting cohort '%s'", id.Hex())
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNotFound, "cohort '%s'", id.Hex())
	}
	return nil
}

// --- Student Operations ---

func (s *MongoStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	return s.findStudents(ctx, bson.M{})
}

func (s *MongoStore) ListStudentsByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.Student, error) {
	return s.findStudents(ctx, bson.M{"cohort": cohortID})
}

func (s *MongoStore) findStudents(ctx context.Context, filter bson.M) ([]models.Student, error) {
	cur, err := s.students.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "finding students")
	}
	students := []models.Student{}
	if err = cur.All(ctx, &students); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	return students, nil
}

func (s *MongoStore) GetStudent(ctx context.Context, id primitive.ObjectID) (*models.Student, error) {
	student := &models.Student{}
	if err := s.students.FindOne(ctx, byID(id)).Decode(student); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(ErrNotFound, "student '%s'", id.Hex())
		}
		return nil, errors.Wrapf(err, "finding student '%s'", id.Hex())
	}
	return student, nil
}

func (s *MongoStore) CreateStudent(ctx context.Context, student *models.Student) error {
	if student.ID.IsZero() {
		student.ID = primitive.NewObjectID()
	}
	_, err := s.students.InsertOne(ctx, student)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrDuplicateID, "student '%s'", student.ID.Hex())
	}
	return errors.Wrap(err, "inserting student")
}

func (s *MongoStore) ReplaceStudent(ctx context.Context, id primitive.ObjectID, student *models.Student) (*models.Student, error) {
	student.ID = id
	updated := &models.Student{}
	err := s.students.FindOneAndReplace(ctx, byID(id), student,
		options.FindOneAndReplace().SetReturnDocument(options.After)).Decode(updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(ErrNotFound, "student '%s'", id.Hex())
		}
		return nil, errors.Wrapf(err, "replacing student '%s'", id.Hex())
	}
	return updated, nil
}

func (s *MongoStore) DeleteStudent(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.students.DeleteOne(ctx, byID(id))
	if err != nil {
		return errors.Wrapf(err, "deleting student '%s'", id.Hex())
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNotFound, "student '%s'", id.Hex())
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.client.Ping(ctx, readpref.Primary()), "pinging mongo")
}

func (s *MongoStore) Close(ctx context.Context) error {
	return errors.Wrap(s.client.Disconnect(ctx), "disconnecting from mongo")
}
