package db

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/ktvs/internal/generation/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const collection = "generation_history"

type document struct {
	ID         bson.ObjectID `bson:"_id"`
	SubjectID  string        `bson:"subject_id"`
	Kind       string        `bson:"kind"`
	Content    string        `bson:"content"`
	Foreground string        `bson:"fg_color"`
	Background string        `bson:"bg_color"`
	Preset     string        `bson:"preset"`
	BoxSize    int           `bson:"box_size"`
	Border     int           `bson:"border"`
	ObjectKey  string        `bson:"object_key"`
	SizeBytes  int64         `bson:"size_bytes"`
	IsFavorite bool          `bson:"is_favorite"`
	CreatedAt  time.Time     `bson:"created_at"`
}

func (d document) toEntity() entity.History {
	return entity.History{
		ID:         d.ID.Hex(),
		SubjectID:  d.SubjectID,
		Kind:       entity.Kind(d.Kind),
		Content:    d.Content,
		Foreground: d.Foreground,
		Background: d.Background,
		Preset:     d.Preset,
		BoxSize:    d.BoxSize,
		Border:     d.Border,
		ObjectKey:  d.ObjectKey,
		SizeBytes:  d.SizeBytes,
		IsFavorite: d.IsFavorite,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

type DB struct {
	coll *mongo.Collection
	ins  instrument.Instrumentation
}

func NewDB(database *mongo.Database, ins instrument.Instrumentation) *DB {
	return &DB{coll: database.Collection(collection), ins: ins}
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("generation.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// EnsureIndexes creates the listing index. It is idempotent.
func (s *DB) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return mongodb.MapError(err)
}

// NewID reserves an id so the object key can be derived before insert.
func (s *DB) NewID() string {
	return bson.NewObjectID().Hex()
}

// ownedBy builds the filter for id belonging to subjectID. A malformed id
// can never match and reports goerror.ErrNotFound.
func ownedBy(id, subjectID string) (bson.D, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, goerror.ErrNotFound
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "subject_id", Value: subjectID}}, nil
}

func (s *DB) Insert(ctx context.Context, h entity.History) (err error) {
	ctx, span := s.startSpan(ctx, "Insert")
	defer func() { s.endSpan(span, err) }()

	oid, err := bson.ObjectIDFromHex(h.ID)
	if err != nil {
		return err
	}

	_, err = s.coll.InsertOne(ctx, document{
		ID:         oid,
		SubjectID:  h.SubjectID,
		Kind:       string(h.Kind),
		Content:    h.Content,
		Foreground: h.Foreground,
		Background: h.Background,
		Preset:     h.Preset,
		BoxSize:    h.BoxSize,
		Border:     h.Border,
		ObjectKey:  h.ObjectKey,
		SizeBytes:  h.SizeBytes,
		IsFavorite: h.IsFavorite,
		CreatedAt:  h.CreatedAt,
	})
	return mongodb.MapError(err)
}

// List returns the subject's history newest first, favorites only when asked.
func (s *DB) List(ctx context.Context, subjectID string, onlyFavorites bool, limit, offset int64) (_ []entity.History, err error) {
	ctx, span := s.startSpan(ctx, "List")
	defer func() { s.endSpan(span, err) }()

	filter := bson.D{{Key: "subject_id", Value: subjectID}}
	if onlyFavorites {
		filter = append(filter, bson.E{Key: "is_favorite", Value: true})
	}

	cur, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit))
	if err != nil {
		return nil, mongodb.MapError(err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.MapError(err)
	}

	out := make([]entity.History, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func (s *DB) Count(ctx context.Context, subjectID string) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Count")
	defer func() { s.endSpan(span, err) }()

	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "subject_id", Value: subjectID}})
	return n, mongodb.MapError(err)
}

// ToggleFavorite flips is_favorite in one update and returns the new value.
func (s *DB) ToggleFavorite(ctx context.Context, id, subjectID string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ToggleFavorite")
	defer func() { s.endSpan(span, err) }()

	filter, err := ownedBy(id, subjectID)
	if err != nil {
		return false, err
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "is_favorite", Value: bson.D{{Key: "$not", Value: "$is_favorite"}}}}}},
	}

	var d document
	err = s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err != nil {
		return false, mongodb.MapError(err)
	}

	return d.IsFavorite, nil
}

// Delete removes the entry and returns it so the caller can release what it
// accounted for.
func (s *DB) Delete(ctx context.Context, id, subjectID string) (_ *entity.History, err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	filter, err := ownedBy(id, subjectID)
	if err != nil {
		return nil, err
	}

	var d document
	if err := s.coll.FindOneAndDelete(ctx, filter).Decode(&d); err != nil {
		return nil, mongodb.MapError(err)
	}

	h := d.toEntity()
	return &h, nil
}
