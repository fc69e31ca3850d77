package db

import (
	"context"
	"encoding/json"
	"sort"

	"cohort-tools-api/config"
	"cohort-tools-api/models"

	"github.com/go-redis/redis/v8"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	cohortsKey        = "cohorts"  // List: cohort IDs in insertion order
	cohortInfoPrefix  = "cohort:"  // String prefix: cohort:{id} -> JSON document, cohort:{id}:students -> Set of student IDs
	studentsKey       = "students" // List: student IDs in insertion order
	studentInfoPrefix = "student:" // String prefix: student:{id} -> JSON document
)

// RedisStore keeps each record as a JSON document in Redis
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore creates the client and tests the connection
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		grip.Warning(message.WrapError(rdb.Close(), "closing redis client after failed ping"))
		return nil, errors.Wrapf(err, "connecting to redis at '%s'", cfg.Addr)
	}

	grip.Info(message.Fields{
		"message": "connected to redis",
		"addr":    cfg.Addr,
		"db":      cfg.DB,
	})
	return &RedisStore{Client: rdb}, nil
}

func getCohortInfoKey(id primitive.ObjectID) string {
	return cohortInfoPrefix + id.Hex()
}

func getCohortStudentsKey(id primitive.ObjectID) string {
	return cohortInfoPrefix + id.Hex() + ":students"
}

func getStudentInfoKey(id primitive.ObjectID) string {
	return studentInfoPrefix + id.Hex()
}

// getDocuments fetches and decodes the documents stored under keys, skipping
// keys that vanished between the index read and the fetch.
func getDocuments[T any](ctx context.Context, client *redis.Client, keys []string) ([]T, error) {
	out := make([]T, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "fetching documents from redis")
	}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, errors.Wrapf(err, "decoding document '%s'", keys[i])
		}
		out = append(out, doc)
	}
	return out, nil
}

func getDocument[T any](ctx context.Context, client *redis.Client, key string) (*T, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Wrapf(ErrNotFound, "key '%s'", key)
		}
		return nil, errors.Wrapf(err, "getting '%s' from redis", key)
	}
	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, errors.Wrapf(err, "decoding document '%s'", key)
	}
	return doc, nil
}

func idsToKeys(ids []string, prefix string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, prefix+id)
	}
	return keys
}

// --- Cohort Operations ---

func (s *RedisStore) ListCohorts(ctx context.Context) ([]models.Cohort, error) {
	ids, err := s.Client.LRange(ctx, cohortsKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting cohort ids from redis")
	}
	return getDocuments[models.Cohort](ctx, s.Client, idsToKeys(ids, cohortInfoPrefix))
}

func (s *RedisStore) FindCohorts(ctx context.Context, ids []primitive.ObjectID) ([]models.Cohort, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, getCohortInfoKey(id))
	}
	return getDocuments[models.Cohort](ctx, s.Client, keys)
}

func (s *RedisStore) GetCohort(ctx context.Context, id primitive.ObjectID) (*models.Cohort, error) {
	return getDocument[models.Cohort](ctx, s.Client, getCohortInfoKey(id))
}

func (s *RedisStore) CountCohorts(ctx context.Context) (int64, error) {
	n, err := s.Client.LLen(ctx, cohortsKey).Result()
	return n, errors.Wrap(err, "counting cohorts in redis")
}

func (s *RedisStore) CreateCohort(ctx context.Context, cohort *models.Cohort) error {
	if cohort.ID.IsZero() {
		cohort.ID = primitive.NewObjectID()
	}
	doc, err := json.Marshal(cohort)
	if err != nil {
		return errors.Wrap(err, "encoding cohort")
	}

	// SET NX claims the id; only the first writer adds it to the index
	created, err := s.Client.SetNX(ctx, getCohortInfoKey(cohort.ID), doc, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "adding cohort '%s' to redis", cohort.ID.Hex())
	}
	if !created {
		return errors.Wrapf(ErrDuplicateID, "cohort '%s'", cohort.ID.Hex())
	}
	return errors.Wrapf(s.Client.RPush(ctx, cohortsKey, cohort.ID.Hex()).Err(),
		"indexing cohort '%s' in redis", cohort.ID.Hex())
}

func (s *RedisStore) ReplaceCohort(ctx context.Context, id primitive.ObjectID, cohort *models.Cohort) (*models.Cohort, error) {
	cohort.ID = id
	doc, err := json.Marshal(cohort)
	if err != nil {
		return nil, errors.Wrap(err, "encoding cohort")
	}

	// SET XX only writes when the key already exists
	ok, err := s.Client.SetXX(ctx, getCohortInfoKey(id), doc, 0).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "replacing cohort '%s' in redis", id.Hex())
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "cohort '%s'", id.Hex())
	}
	return cohort, nil
}

func (s *RedisStore) DeleteCohort(ctx context.Context, id primitive.ObjectID) error {
	var del *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, getCohortInfoKey(id))
		pipe.LRem(ctx, cohortsKey, 0, id.Hex())
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "deleting cohort '%s' from redis", id.Hex())
	}
	if del.Val() == 0 {
		return errors.Wrapf(ErrNotFound, "cohort '%s'", id.Hex())
	}
	return nil
}

// --- Student Operations ---

func (s *RedisStore) ListStudents(ctx context.Context) ([]models.Student, error) {
	ids, err := s.Client.LRange(ctx, studentsKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting student ids from redis")
	}
	return getDocuments[models.Student](ctx, s.Client, idsToKeys(ids, studentInfoPrefix))
}

// ListStudentsByCohort reads the cohort's membership set. Set members are
// unordered, so results are sorted by id, which follows creation time.
func (s *RedisStore) ListStudentsByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.Student, error) {
	ids, err := s.Client.SMembers(ctx, getCohortStudentsKey(cohortID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "getting student ids for cohort '%s'", cohortID.Hex())
	}
	sort.Strings(ids)

	students, err := getDocuments[models.Student](ctx, s.Client, idsToKeys(ids, studentInfoPrefix))
	if err != nil {
		return nil, err
	}
	// drop stale set members whose document moved to another cohort
	filtered := students[:0]
	for _, student := range students {
		if student.CohortID() == cohortID {
			filtered = append(filtered, student)
		}
	}
	return filtered, nil
}

func (s *RedisStore) GetStudent(ctx context.Context, id primitive.ObjectID) (*models.Student, error) {
	return getDocument[models.Student](ctx, s.Client, getStudentInfoKey(id))
}

func (s *RedisStore) CreateStudent(ctx context.Context, student *models.Student) error {
	if student.ID.IsZero() {
		student.ID = primitive.NewObjectID()
	}
	doc, err := json.Marshal(student)
	if err != nil {
		return errors.Wrap(err, "encoding student")
	}

	created, err := s.Client.SetNX(ctx, getStudentInfoKey(student.ID), doc, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "adding student '%s' to redis", student.ID.Hex())
	}
	if !created {
		return errors.Wrapf(ErrDuplicateID, "student '%s'", student.ID.Hex())
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, studentsKey, student.ID.Hex())
		if student.Cohort != nil {
			pipe.SAdd(ctx, getCohortStudentsKey(*student.Cohort), student.ID.Hex())
		}
		return nil
	})
	return errors.Wrapf(err, "indexing student '%s' in redis", student.ID.Hex())
}

func (s *RedisStore) ReplaceStudent(ctx context.Context, id primitive.ObjectID, student *models.Student) (*models.Student, error) {
	previous, err := s.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	student.ID = id
	doc, err := json.Marshal(student)
	if err != nil {
		return nil, errors.Wrap(err, "encoding student")
	}

	var set *redis.BoolCmd
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		set = pipe.SetXX(ctx, getStudentInfoKey(id), doc, 0)
		if previous.Cohort != nil && previous.CohortID() != student.CohortID() {
			pipe.SRem(ctx, getCohortStudentsKey(*previous.Cohort), id.Hex())
		}
		if student.Cohort != nil {
			pipe.SAdd(ctx, getCohortStudentsKey(*student.Cohort), id.Hex())
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "replacing student '%s' in redis", id.Hex())
	}
	if !set.Val() {
		return nil, errors.Wrapf(ErrNotFound, "student '%s'", id.Hex())
	}
	return student, nil
}

func (s *RedisStore) DeleteStudent(ctx context.Context, id primitive.ObjectID) error {
	previous, err := s.GetStudent(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, getStudentInfoKey(id))
		pipe.LRem(ctx, studentsKey, 0, id.Hex())
		if previous.Cohort != nil {
			pipe.SRem(ctx, getCohortStudentsKey(*previous.Cohort), id.Hex())
		}
		return nil
	})
	return errors.Wrapf(err, "deleting student '%s' from redis", id.Hex())
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.Client.Ping(ctx).Err(), "pinging redis")
}

func (s *RedisStore) Close(ctx context.Context) error {
	return errors.Wrap(s.Client.Close(), "closing redis client")
}
