package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/types"
)

// MongoConfig configures the document-store backend.
type MongoConfig struct {
	URI        string        `yaml:"uri" json:"uri"`
	Database   string        `yaml:"database" json:"database"`
	Collection string        `yaml:"collection" json:"collection"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultMongoConfig returns sensible defaults.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "paperpilot",
		Collection: "projects",
		Timeout:    10 * time.Second,
	}
}

type mongoProject struct {
	ID            string              `bson:"_id"`
	Topic         string              `bson:"topic"`
	Config        types.ProjectConfig `bson:"config"`
	Status        string              `bson:"status"`
	LastError     string              `bson:"last_error,omitempty"`
	References    []types.Reference   `bson:"references,omitempty"`
	Draft         string              `bson:"draft,omitempty"`
	ReviewedDraft string              `bson:"reviewed_draft,omitempty"`
	Progress      types.Progress      `bson:"progress"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

// MongoStore implements ProjectStore over MongoDB.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.With(zap.String("component", "store"), zap.String("driver", "mongo")),
	}, nil
}

func (s *MongoStore) Create(ctx context.Context, project *types.Project) error {
	_, err := s.collection.InsertOne(ctx, toMongoProject(project))
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (*types.Project, error) {
	var doc mongoProject
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return fromMongoProject(&doc), nil
}

func (s *MongoStore) Update(ctx context.Context, project *types.Project) error {
	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": project.ID}, toMongoProject(project))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound(project.ID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*types.Project, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var projects []*types.Project
	for cursor.Next(ctx) {
		var doc mongoProject
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		projects = append(projects, fromMongoProject(&doc))
	}
	return projects, cursor.Err()
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ping verifies the connection is still alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func toMongoProject(project *types.Project) *mongoProject {
	return &mongoProject{
		ID:            project.ID,
		Topic:         project.Topic,
		Config:        project.Config,
		Status:        string(project.Status),
		LastError:     project.LastError,
		References:    project.References,
		Draft:         project.Draft,
		ReviewedDraft: project.ReviewedDraft,
		Progress:      project.Progress,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}
}

func fromMongoProject(doc *mongoProject) *types.Project {
	return &types.Project{
		ID:            doc.ID,
		Topic:         doc.Topic,
		Config:        doc.Config,
		Status:        types.Status(doc.Status),
		LastError:     doc.LastError,
		References:    doc.References,
		Draft:         doc.Draft,
		ReviewedDraft: doc.ReviewedDraft,
		Progress:      doc.Progress,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
