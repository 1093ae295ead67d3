package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultDatabase is used when Config.Database is empty.
	DefaultDatabase = "idrak"
	// DefaultCollection is used when Config.Collection is empty.
	DefaultCollection = "notes"

	connectTimeout = 10 * time.Second
)

// Config describes how to reach the note collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// NoteRepository implements storage.NoteRepository on a MongoDB
// collection. Each note is one document keyed by its id; the embedding
// is an embedded sub-document.
type NoteRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	ownsClient bool
	logger     *slog.Logger
}

var _ storage.NoteRepository = (*NoteRepository)(nil)

// Open connects to MongoDB and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config) (*NoteRepository, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	repo := NewNoteRepository(client.Database(orDefault(cfg.Database, DefaultDatabase)).Collection(orDefault(cfg.Collection, DefaultCollection)))
	repo.client = client
	repo.ownsClient = true
	return repo, nil
}

// NewNoteRepository wraps an existing collection. Close leaves the
// client connected.
func NewNoteRepository(collection *mongo.Collection) *NoteRepository {
	return &NoteRepository{
		collection: collection,
		logger:     slog.Default().With("component", "mongo-store"),
	}
}

// EnsureIndexes creates the indexes listings rely on.
func (r *NoteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, indexModels())
	return err
}

// indexModels covers recency listings and tag listings per owner.
func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "tags", Value: 1}, {Key: "updated_at", Value: -1}}},
	}
}

// Close disconnects the client if Open created it.
func (r *NoteRepository) Close() error {
	if !r.ownsClient || r.client == nil {
		return nil
	}
	return r.client.Disconnect(context.Background())
}

// AddNote inserts a note.
func (r *NoteRepository) AddNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	if err := core.ValidateOwner(note.Owner); err != nil {
		return nil, err
	}
	record := prepareInsert(note, time.Now())

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, err
	}
	return record, nil
}

// GetNote retrieves a note by id.
func (r *NoteRepository) GetNote(ctx context.Context, owner string, id core.ID) (*core.Note, error) {
	var note core.Note
	err := r.collection.FindOne(ctx, noteFilter(owner, id)).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return normalize(&note), nil
}

// GetNotes retrieves notes by id in the order given.
func (r *NoteRepository) GetNotes(ctx context.Context, owner string, ids ...core.ID) ([]*core.Note, error) {
	result := make([]*core.Note, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	notes, err := r.find(ctx, bson.M{"owner": owner, "_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	byID := make(map[core.ID]*core.Note, len(notes))
	for _, n := range notes {
		byID[n.Id] = n
	}
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			result = append(result, n)
		}
	}
	return result, nil
}

// ListNotes returns all of owner's notes, most recently updated first.
func (r *NoteRepository) ListNotes(ctx context.Context, owner string) ([]*core.Note, error) {
	return r.find(ctx, bson.M{"owner": owner})
}

// ListNotesByTag returns owner's notes carrying tag.
func (r *NoteRepository) ListNotesByTag(ctx context.Context, owner, tag string) ([]*core.Note, error) {
	return r.find(ctx, bson.M{"owner": owner, "tags": tag})
}

// ListEmbedded returns owner's notes with a non-empty embedding vector.
func (r *NoteRepository) ListEmbedded(ctx context.Context, owner string) ([]*core.Note, error) {
	return r.find(ctx, embeddedFilter(owner))
}

// UpdateNote sets the given fields, then bumps updated_at only if the
// first write modified the document.
func (r *NoteRepository) UpdateNote(ctx context.Context, owner string, id core.ID, update storage.NoteUpdate) (storage.UpdateResult, error) {
	filter := noteFilter(owner, id)

	if update.IsEmpty() {
		count, err := r.collection.CountDocuments(ctx, filter)
		if err != nil {
			return storage.UpdateResult{}, err
		}
		return storage.UpdateResult{Matched: count}, nil
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": setDocument(update)})
	if err != nil {
		return storage.UpdateResult{}, err
	}
	result := storage.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}

	if result.Changed() {
		now := time.Now().UTC().Truncate(time.Millisecond)
		if _, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"updated_at": now}}); err != nil {
			return result, err
		}
	}
	r.logger.Debug("note updated", "id", id, "matched", result.Matched, "modified", result.Modified)
	return result, nil
}

// SetEmbedding replaces or removes the embedded vector.
func (r *NoteRepository) SetEmbedding(ctx context.Context, owner string, id core.ID, embedding *core.Embedding) (storage.UpdateResult, error) {
	res, err := r.collection.UpdateOne(ctx, noteFilter(owner, id), embeddingUpdate(embedding))
	if err != nil {
		return storage.UpdateResult{}, err
	}
	return storage.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (r *NoteRepository) find(ctx context.Context, filter bson.M) ([]*core.Note, error) {
	opts := options.Find().SetSort(recentFirst())

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notes := []*core.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	for _, n := range notes {
		normalize(n)
	}
	return notes, nil
}

func noteFilter(owner string, id core.ID) bson.M {
	return bson.M{"_id": id, "owner": owner}
}

func embeddedFilter(owner string) bson.M {
	return bson.M{"owner": owner, "embedding.vector.0": bson.M{"$exists": true}}
}

func recentFirst() bson.D {
	return bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}
}

// setDocument lists the fields of a non-empty update for $set.
func setDocument(update storage.NoteUpdate) bson.M {
	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Transcript != nil {
		set["transcript"] = *update.Transcript
	}
	if update.Summary != nil {
		set["summary"] = *update.Summary
	}
	if update.IsTimeline != nil {
		set["is_timeline"] = *update.IsTimeline
	}
	if update.Tags != nil {
		set["tags"] = nonNil(*update.Tags)
	}
	if update.Tasks != nil {
		set["tasks"] = core.CleanTasks(*update.Tasks)
	}
	return set
}

func embeddingUpdate(embedding *core.Embedding) bson.M {
	if embedding == nil {
		return bson.M{"$unset": bson.M{"embedding": ""}}
	}
	record := *embedding
	record.UpdatedAt = record.UpdatedAt.UTC().Truncate(time.Millisecond)
	return bson.M{"$set": bson.M{"embedding": record}}
}

// prepareInsert fills the id, timestamps and empty collections.
func prepareInsert(note *core.Note, now time.Time) *core.Note {
	record := note.Clone()
	if record.Id.IsZero() {
		record.Id = core.NewID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Millisecond)
	record.UpdatedAt = record.UpdatedAt.UTC().Truncate(time.Millisecond)
	return normalize(record)
}

// normalize runs on every read and insert. Tasks decode from any
// legacy shape; blank ones are dropped here.
func normalize(note *core.Note) *core.Note {
	note.Tags = nonNil(note.Tags)
	note.Tasks = core.CleanTasks(note.Tasks)
	return note
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
