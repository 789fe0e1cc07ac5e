package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zuai/sample-paper-api/internal/models"
)

// ErrNotFound is returned when a document does not exist. Malformed ids
// map to it as well: they cannot match any stored document.
var ErrNotFound = errors.New("not found")

const searchPageSize = 10

// PaperStore handles sample paper CRUD and text search in MongoDB.
type PaperStore struct {
	col *mongo.Collection
}

func NewPaperStore(db *mongo.Database) *PaperStore {
	return &PaperStore{col: db.Collection("sample_papers")}
}

// EnsureIndexes creates the text index /papers/search depends on. Mongo
// treats re-creating an identical index as a no-op.
func (s *PaperStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sections.questions.question", Value: "text"},
			{Key: "sections.questions.answer", Value: "text"},
		},
	})
	if err != nil {
		return fmt.Errorf("mongo create text index: %w", err)
	}
	return nil
}

func (s *PaperStore) Insert(ctx context.Context, paper *models.Paper) (string, error) {
	res, err := s.col.InsertOne(ctx, paper)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (s *PaperStore) Get(ctx context.Context, id string) (*models.Paper, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var paper models.Paper
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&paper); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return &paper, nil
}

// Update applies a partial update; only the provided fields overwrite and
// arrays replace the stored value wholesale. Returns the matched and
// modified counts so the caller can tell "no changes" from "not found".
func (s *PaperStore) Update(ctx context.Context, id string, fields map[string]interface{}) (matched, modified int64, err error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, 0, ErrNotFound
	}
	set := bson.M{}
	for key, value := range fields {
		set[key] = value
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return 0, 0, fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		return 0, 0, ErrNotFound
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (s *PaperStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Search runs a $text query over the indexed question/answer fields and
// returns up to one page of hits ordered by relevance score, with _id as
// a stable tiebreak.
func (s *PaperStore) Search(ctx context.Context, query string) ([]models.PaperSummary, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	opts := options.Find().
		SetProjection(bson.M{
			"score":  bson.M{"$meta": "textScore"},
			"title":  1,
			"params": 1,
		}).
		SetSort(bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
			{Key: "_id", Value: 1},
		}).
		SetLimit(searchPageSize)

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo text search: %w", err)
	}
	defer cur.Close(ctx)

	var hits []struct {
		ID     primitive.ObjectID  `bson:"_id"`
		Title  string              `bson:"title"`
		Params *models.PaperParams `bson:"params"`
	}
	if err := cur.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("mongo text search decode: %w", err)
	}

	summaries := make([]models.PaperSummary, 0, len(hits))
	for _, hit := range hits {
		title := hit.Title
		if title == "" {
			title = "Untitled"
		}
		subject := "Unknown Subject"
		if hit.Params != nil && hit.Params.Subject != "" {
			subject = hit.Params.Subject
		}
		summaries = append(summaries, models.PaperSummary{
			PaperID: hit.ID.Hex(),
			Title:   title,
			Subject: subject,
		})
	}
	return summaries, nil
}

// TaskStore tracks background extraction jobs in the task_status collection.
type TaskStore struct {
	col *mongo.Collection
}

func NewTaskStore(db *mongo.Database) *TaskStore {
	return &TaskStore{col: db.Collection("task_status")}
}

// Create inserts a new task in the In Progress state and returns its id.
func (s *TaskStore) Create(ctx context.Context) (string, error) {
	res, err := s.col.InsertOne(ctx, bson.M{"status": models.TaskInProgress})
	if err != nil {
		return "", fmt.Errorf("mongo task insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

// Update moves a task to status, recording description when non-empty.
func (s *TaskStore) Update(ctx context.Context, id, status, description string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	set := bson.M{"status": status}
	if description != "" {
		set["description"] = description
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongo task update: %w", err)
	}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var task models.Task
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo task find: %w", err)
	}
	return &task, nil
}
