package idrak

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/ai/openai"
	"github.com/poiesic/idrak/assistant"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/embedding"
	"github.com/poiesic/idrak/extraction"
	"github.com/poiesic/idrak/search"
	"github.com/poiesic/idrak/storage"
	"github.com/poiesic/idrak/storage/badger"
	"github.com/poiesic/idrak/storage/mongo"
	"github.com/poiesic/idrak/topic"
)

// Service exposes the note operations over one store and one AI
// provider. It is safe for concurrent use.
type Service struct {
	repository  storage.NoteRepository
	provider    ai.AIProvider
	store       *embedding.Store
	searcher    *search.Searcher
	assistant   *assistant.Assistant
	synthesizer *topic.Synthesizer
	extractor   *extraction.Extractor
	logger      *slog.Logger

	// Resources opened by OpenBadger or OpenMongo, released by Close.
	backend      *badger.Backend
	ownsStore    bool
	ownsProvider bool
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	policy         assistant.Policy
	topicMaxTokens int
	aiConfig       *ai.Config
	provider       ai.AIProvider
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPolicy bounds the history and corpus sent when answering questions.
func WithPolicy(policy assistant.Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithTopicMaxTokens caps the length of topic labels.
func WithTopicMaxTokens(n int) Option {
	return func(o *options) {
		o.topicMaxTokens = n
	}
}

// WithAIConfig sets the configuration used by OpenBadger and OpenMongo
// to build an OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = config
	}
}

// WithProvider makes OpenBadger and OpenMongo use provider instead of
// building one. The caller keeps ownership of it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		aiConfig:       ai.DefaultConfig(),
		topicMaxTokens: topic.DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New creates a Service over an existing repository and provider. The
// caller keeps ownership of both.
func New(repository storage.NoteRepository, provider ai.AIProvider, opts ...Option) (*Service, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	o := applyOptions(opts)

	store, err := embedding.NewStore(repository, provider,
		embedding.WithLogger(o.logger.With("component", "embedding-store")))
	if err != nil {
		return nil, err
	}
	searcher, err := search.NewSearcher(store,
		search.WithLogger(o.logger.With("component", "search")))
	if err != nil {
		return nil, err
	}
	asst, err := assistant.NewAssistant(repository, provider,
		assistant.WithLogger(o.logger.With("component", "assistant")),
		assistant.WithPolicy(o.policy))
	if err != nil {
		return nil, err
	}
	synthesizer, err := topic.NewSynthesizer(repository, provider,
		topic.WithLogger(o.logger.With("component", "topic")),
		topic.WithMaxTokens(o.topicMaxTokens))
	if err != nil {
		return nil, err
	}
	extractor, err := extraction.NewExtractor(provider,
		extraction.WithLogger(o.logger.With("component", "extraction")))
	if err != nil {
		return nil, err
	}

	return &Service{
		repository:  repository,
		provider:    provider,
		store:       store,
		searcher:    searcher,
		assistant:   asst,
		synthesizer: synthesizer,
		extractor:   extractor,
		logger:      o.logger.With("component", "idrak"),
	}, nil
}

// OpenBadger opens (or creates) a BadgerDB note store at path and
// returns a Service that owns it.
func OpenBadger(path string, opts ...Option) (*Service, error) {
	o := applyOptions(opts)

	backend, err := badger.OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	repo, err := badger.NewNoteRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	svc, err := open(repo, o, opts)
	if err != nil {
		backend.Close()
		return nil, err
	}
	svc.backend = backend
	return svc, nil
}

// OpenMongo connects to the MongoDB note collection described by cfg,
// ensures its indexes and returns a Service that owns the connection.
func OpenMongo(ctx context.Context, cfg mongo.Config, opts ...Option) (*Service, error) {
	o := applyOptions(opts)

	repo, err := mongo.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	svc, err := open(repo, o, opts)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return svc, nil
}

func open(repo storage.NoteRepository, o *options, opts []Option) (*Service, error) {
	provider := o.provider
	ownsProvider := false
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(o.aiConfig)
		if err != nil {
			return nil, err
		}
		ownsProvider = true
	}

	svc, err := New(repo, provider, opts...)
	if err != nil {
		if ownsProvider {
			provider.Close()
		}
		return nil, err
	}
	svc.ownsStore = true
	svc.ownsProvider = ownsProvider
	return svc, nil
}

// Close releases the resources the Service opened itself.
func (s *Service) Close() error {
	var errs []error
	if s.ownsProvider {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if s.ownsStore {
		if err := s.repository.Close(); err != nil {
			s.logger.Error("error closing note repository", "err", err)
			errs = append(errs, err)
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Repository returns the underlying note store.
func (s *Service) Repository() storage.NoteRepository {
	return s.repository
}

// Provider returns the AI provider.
func (s *Service) Provider() ai.AIProvider {
	return s.provider
}

// Searcher returns the similarity searcher, for callers that want to
// attach a search.SearchMonitor.
func (s *Service) Searcher() *search.Searcher {
	return s.searcher
}

// Extract derives the structured document for a transcript.
func (s *Service) Extract(ctx context.Context, transcript string) (*core.Extraction, error) {
	return s.extractor.Extract(ctx, transcript)
}

// SaveNote validates and stores a new note. Tasks and tags are
// normalized first.
func (s *Service) SaveNote(ctx context.Context, in NoteInput) (*core.Note, error) {
	note := in.note()
	if err := core.ValidateNote(note); err != nil {
		return nil, err
	}

	saved, err := s.repository.AddNote(ctx, note)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, core.Invalid("note %s already exists", note.Id)
		}
		return nil, core.Upstream(err)
	}
	s.logger.Debug("note saved", "owner", saved.Owner, "id", saved.Id, "tasks", len(saved.Tasks))
	return saved, nil
}

// UpdateNote overwrites the given fields of a note. The result tells
// whether anything changed; a missing note is reported as NotFound.
func (s *Service) UpdateNote(ctx context.Context, owner string, id core.ID, changes NoteChanges) (storage.UpdateResult, error) {
	if err := validateRef(owner, id); err != nil {
		return storage.UpdateResult{}, err
	}
	update := changes.update()
	if update.Transcript != nil && strings.TrimSpace(*update.Transcript) == "" {
		return storage.UpdateResult{}, core.ErrEmptyTranscript
	}

	result, err := s.repository.UpdateNote(ctx, owner, id, update)
	if err != nil {
		return result, core.Upstream(err)
	}
	if !result.Found() {
		return result, core.NotFound("note %s", id)
	}
	s.logger.Debug("note updated", "owner", owner, "id", id, "modified", result.Modified)
	return result, nil
}

// SetTaskCompleted marks the task at index (zero based) as completed or
// open again.
func (s *Service) SetTaskCompleted(ctx context.Context, owner string, id core.ID, index int, completed bool) (storage.UpdateResult, error) {
	note, err := s.GetNote(ctx, owner, id)
	if err != nil {
		return storage.UpdateResult{}, err
	}
	if index < 0 || index >= len(note.Tasks) {
		return storage.UpdateResult{}, core.Invalid("task index %d out of range (note has %d tasks)", index, len(note.Tasks))
	}

	tasks := core.RawTasks(note.Tasks)
	tasks[index].Completed = completed
	return s.UpdateNote(ctx, owner, id, NoteChanges{Tasks: &tasks})
}

// GetNote returns a note. The audio payload is kept; the embedding is
// not. Stores hand tasks back in canonical form.
func (s *Service) GetNote(ctx context.Context, owner string, id core.ID) (*core.Note, error) {
	if err := validateRef(owner, id); err != nil {
		return nil, err
	}
	note, err := s.repository.GetNote(ctx, owner, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.NotFound("note %s", id)
		}
		return nil, core.Upstream(err)
	}
	note.Embedding = nil
	return note, nil
}

// NotesByTag returns owner's notes carrying tag, most recently updated
// first, without audio or embeddings.
func (s *Service) NotesByTag(ctx context.Context, owner, tag string) ([]*core.Note, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, core.Invalid("tag cannot be empty")
	}

	notes, err := s.repository.ListNotesByTag(ctx, owner, tag)
	if err != nil {
		return nil, core.Upstream(err)
	}
	result := make([]*core.Note, len(notes))
	for i, n := range notes {
		result[i] = n.Redacted()
	}
	return result, nil
}

// EmbedNote embeds a note's current text and stores the vector.
func (s *Service) EmbedNote(ctx context.Context, owner string, id core.ID) (*core.Embedding, error) {
	return s.store.EmbedNote(ctx, owner, id)
}

// EmbedText embeds text and, when id is set, stores the vector on that note.
func (s *Service) EmbedText(ctx context.Context, owner, text string, id core.ID) ([]float32, error) {
	return s.store.EmbedText(ctx, owner, text, id)
}

// Search returns up to k of owner's notes most similar to query.
func (s *Service) Search(ctx context.Context, owner string, query search.QuerySpec, k int) ([]core.SearchResult, error) {
	return s.searcher.Search(ctx, owner, query, k)
}

// Related returns up to k notes most similar to the note with id.
func (s *Service) Related(ctx context.Context, owner string, id core.ID, k int) ([]core.SearchResult, error) {
	return s.searcher.Related(ctx, owner, id, k)
}

// SynthesizeTopic labels what the given notes have in common.
func (s *Service) SynthesizeTopic(ctx context.Context, owner string, ids []core.ID) (string, error) {
	return s.synthesizer.SynthesizeNotes(ctx, owner, ids)
}

// Ask answers question from owner's notes and the prior conversation.
func (s *Service) Ask(ctx context.Context, owner string, history assistant.History, question string) (string, assistant.History, error) {
	return s.assistant.Ask(ctx, owner, history, question)
}

// BuildCorpusContext renders owner's notes into the corpus block used
// for question answering.
func (s *Service) BuildCorpusContext(ctx context.Context, owner string) (string, error) {
	return s.assistant.Assembler().BuildCorpusContext(ctx, owner)
}

func validateRef(owner string, id core.ID) error {
	if err := core.ValidateOwner(owner); err != nil {
		return err
	}
	if id.IsZero() {
		return core.ErrEmptyID
	}
	return nil
}
