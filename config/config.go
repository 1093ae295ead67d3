// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads the idrak settings file.
//
// Settings come from three layers, later ones winning: built-in
// defaults, a YAML file, and environment variables (optionally read
// from .env files first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/poiesic/idrak/ai"
	"github.com/poiesic/idrak/assistant"
	"github.com/poiesic/idrak/storage/mongo"
	"gopkg.in/yaml.v3"
)

const (
	// StoreBadger keeps notes in an embedded BadgerDB directory.
	StoreBadger = "badger"
	// StoreMongo keeps notes in a MongoDB collection.
	StoreMongo = "mongo"

	// DefaultPath is the settings file looked up when none is given.
	DefaultPath = "idrak.yaml"
)

// Environment variables that override file settings.
const (
	EnvStore           = "IDRAK_STORE"
	EnvDBPath          = "IDRAK_DB_PATH"
	EnvMongoURI        = "MONGO_URI"
	EnvMongoDatabase   = "IDRAK_MONGO_DATABASE"
	EnvHost            = "IDRAK_AI_HOST"
	EnvAPIKey          = "IDRAK_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvEmbeddingModel  = "IDRAK_EMBEDDING_MODEL"
	EnvCompletionModel = "IDRAK_COMPLETION_MODEL"
	EnvTopicModel      = "IDRAK_TOPIC_MODEL"
)

// Config is the root settings structure.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	AI        AIConfig        `yaml:"ai"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// StoreConfig selects and configures the note store.
type StoreConfig struct {
	Type  string      `yaml:"type"`
	Path  string      `yaml:"path"`
	Mongo MongoConfig `yaml:"mongo"`
}

// MongoConfig holds MongoDB connection details.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// AIConfig configures the OpenAI-compatible provider. Host sets both
// the embedding and completion hosts unless they are given separately.
type AIConfig struct {
	Host            string `yaml:"host"`
	EmbeddingHost   string `yaml:"embedding_host"`
	CompletionHost  string `yaml:"completion_host"`
	APIKey          string `yaml:"api_key"`
	EmbeddingModel  string `yaml:"embedding_model"`
	CompletionModel string `yaml:"completion_model"`
	TopicModel      string `yaml:"topic_model"`
	TopicMaxTokens  int    `yaml:"topic_max_tokens"`
}

// AssistantConfig bounds what is sent when answering questions.
// Zero means unlimited.
type AssistantConfig struct {
	MaxHistoryTurns int `yaml:"max_history_turns"`
	MaxCorpusChars  int `yaml:"max_corpus_chars"`
}

// Default returns the built-in settings.
func Default() *Config {
	defaults := ai.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			Type: StoreBadger,
			Path: "idrak.db",
			Mongo: MongoConfig{
				Database:   mongo.DefaultDatabase,
				Collection: mongo.DefaultCollection,
			},
		},
		AI: AIConfig{
			Host:            defaults.EmbeddingHost,
			EmbeddingModel:  defaults.EmbeddingModel,
			CompletionModel: defaults.CompletionModel,
			TopicModel:      defaults.TopicModel,
			TopicMaxTokens:  defaults.TopicMaxTokens,
		},
	}
}

// Load reads the settings file at path over the defaults. A missing
// file yields the defaults. Environment overrides are not applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadEnv reads .env files into the process environment without
// replacing variables that are already set. With no arguments it reads
// ./.env if present.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(files...)
}

// ApplyEnv overrides settings with the environment variables that are set.
func (c *Config) ApplyEnv() {
	override := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := os.LookupEnv(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	override(&c.Store.Type, EnvStore)
	override(&c.Store.Path, EnvDBPath)
	override(&c.Store.Mongo.URI, EnvMongoURI)
	override(&c.Store.Mongo.Database, EnvMongoDatabase)
	override(&c.AI.Host, EnvHost)
	override(&c.AI.APIKey, EnvAPIKey, EnvOpenAIAPIKey)
	override(&c.AI.EmbeddingModel, EnvEmbeddingModel)
	override(&c.AI.CompletionModel, EnvCompletionModel)
	override(&c.AI.TopicModel, EnvTopicModel)
}

// Validate checks the store selection and the AI settings.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreBadger:
		if c.Store.Path == "" {
			return errors.New("config: store.path is required for the badger store")
		}
	case StoreMongo:
		if c.Store.Mongo.URI == "" {
			return errors.New("config: store.mongo.uri is required for the mongo store")
		}
	default:
		return fmt.Errorf("config: unknown store type %q (want %s or %s)", c.Store.Type, StoreBadger, StoreMongo)
	}
	if c.Assistant.MaxHistoryTurns < 0 || c.Assistant.MaxCorpusChars < 0 {
		return errors.New("config: assistant limits cannot be negative")
	}
	return c.ProviderConfig().Validate()
}

// ProviderConfig builds the AI provider configuration.
func (c *Config) ProviderConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithAPIToken(c.AI.APIKey),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithTopicModel(c.AI.TopicModel),
		ai.WithTopicMaxTokens(c.AI.TopicMaxTokens),
	}
	if c.AI.Host != "" {
		opts = append(opts, ai.WithHost(c.AI.Host))
	}
	if c.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.AI.EmbeddingHost))
	}
	if c.AI.CompletionHost != "" {
		opts = append(opts, ai.WithCompletionHost(c.AI.CompletionHost))
	}
	return ai.NewConfig(opts...)
}

// MongoConfig returns the connection settings for the mongo store.
func (c *Config) MongoConfig() mongo.Config {
	return mongo.Config{
		URI:        c.Store.Mongo.URI,
		Database:   c.Store.Mongo.Database,
		Collection: c.Store.Mongo.Collection,
	}
}

// Policy returns the question answering limits.
func (c *Config) Policy() assistant.Policy {
	return assistant.Policy{
		MaxHistoryTurns: c.Assistant.MaxHistoryTurns,
		MaxCorpusChars:  c.Assistant.MaxCorpusChars,
	}
}
