// Package mongo stores registrations as documents in MongoDB, one document
// per submission in the "registrations" collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"example.com/registration/internal/domain"
)

const Collection = "registrations"

// document is the stored shape. Field names follow the frontend's camelCase.
type document struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Phone      string             `bson:"phone"`
	College    string             `bson:"college"`
	Year       string             `bson:"year"`
	Department string             `bson:"department"`
	TeamSize   string             `bson:"teamSize"`
	Experience string             `bson:"experience,omitempty"`
	Skills     string             `bson:"skills,omitempty"`
	Motivation string             `bson:"motivation,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func newDocument(sub domain.Submission, ts time.Time) document {
	return document{
		ID:         primitive.NewObjectID(),
		Name:       sub.Name,
		Email:      sub.Email,
		Phone:      sub.Phone,
		College:    sub.College,
		Year:       sub.Year,
		Department: sub.Department,
		TeamSize:   sub.TeamSize,
		Experience: sub.Experience,
		Skills:     sub.Skills,
		Motivation: sub.Motivation,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func (d document) registration() domain.Registration {
	return domain.Registration{
		ID: d.ID.Hex(),
		Submission: domain.Submission{
			Name:       d.Name,
			Email:      d.Email,
			Phone:      d.Phone,
			College:    d.College,
			Year:       d.Year,
			Department: d.Department,
			TeamSize:   d.TeamSize,
			Experience: d.Experience,
			Skills:     d.Skills,
			Motivation: d.Motivation,
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri, database string, now func() time.Time) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(Collection),
		now:    now,
	}, nil
}

// Create inserts one document. BSON dates carry millisecond precision, so
// timestamps are truncated before the write to keep the returned record
// identical to what a later read yields.
func (s *Store) Create(ctx context.Context, sub domain.Submission) (domain.Registration, error) {
	doc := newDocument(sub, s.now().UTC().Truncate(time.Millisecond))
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return domain.Registration{}, fmt.Errorf("%w: insert registration: %w", domain.ErrPersistence, err)
	}
	return doc.registration(), nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find registrations: %w", domain.ErrPersistence, err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode registrations: %w", domain.ErrPersistence, err)
	}
	out := make([]domain.Registration, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.registration())
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("%w: count registrations: %w", domain.ErrPersistence, err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
