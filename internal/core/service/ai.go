package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dalton-cole/primeta/internal/adapters/api"
	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/jobs"
)

// Cache types distinguishing the kinds of AI content cached per file.
const (
	CacheTypeExplanation = "explanation"
	CacheTypeSuggestions = "suggestions"
	CacheTypeChallenge   = "challenge"
)

// ErrAiDisabled is returned when no Gemini API key is configured.
var ErrAiDisabled = errors.New("ai features are not configured")

// File contents are truncated to this many bytes when embedded in a
// prompt.
const maxPromptContent = 30_000

// AiService generates explanations of repository files through the Gemini
// API, fronted by the persistent response cache. Cache writes are
// dispatched as fire-and-forget background jobs, so a read racing a write
// from another request may still miss; that window is accepted.
type AiService struct {
	client *api.GeminiClient
	cache  db.AiCacheStore
	files  db.FileStore
	queue  *jobs.Queue
	logger *slog.Logger
}

// NewAiService initializes a new AiService.
func NewAiService(client *api.GeminiClient, cache db.AiCacheStore, files db.FileStore, queue *jobs.Queue, logger *slog.Logger) *AiService {
	return &AiService{
		client: client,
		cache:  cache,
		files:  files,
		queue:  queue,
		logger: logger,
	}
}

// GenerateForFile returns the cached content for the triple, or generates
// it, schedules the cache write, and returns it. A missing file returns
// db.ErrNotFound.
func (s *AiService) GenerateForFile(ctx context.Context, repositoryID uint, filePath, cacheType string) (string, error) {
	if cached, err := s.cache.Get(repositoryID, filePath, cacheType); err == nil {
		return cached.Content, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		s.logger.Warn("ai cache read failed", "repository_id", repositoryID, "path", filePath, "error", err)
	}

	if !s.client.Enabled() {
		return "", ErrAiDisabled
	}

	file, err := s.files.GetFileByPath(repositoryID, filePath)
	if err != nil {
		return "", err
	}

	prompt, err := buildPrompt(cacheType, file.Path, file.Content)
	if err != nil {
		return "", err
	}

	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.queue.Enqueue(jobs.Job{
		Key: fmt.Sprintf("ai-cache:%d:%s:%s", repositoryID, filePath, cacheType),
		Run: func(context.Context) error {
			return s.cache.Put(repositoryID, filePath, cacheType, text)
		},
	})

	return text, nil
}

// ExplainCode generates an explanation for the given code without
// touching the cache.
func (s *AiService) ExplainCode(ctx context.Context, path, content string) (string, error) {
	if !s.client.Enabled() {
		return "", ErrAiDisabled
	}
	prompt, err := buildPrompt(CacheTypeExplanation, path, content)
	if err != nil {
		return "", err
	}
	return s.client.GenerateContent(ctx, prompt)
}

func buildPrompt(cacheType, path, content string) (string, error) {
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}
	lang := DisplayLanguage(path)

	switch cacheType {
	case CacheTypeExplanation:
		return fmt.Sprintf(`You are helping a developer understand an unfamiliar codebase.

Explain the following %s file, `+"`%s`"+`, in clear prose. Cover what the
file is responsible for, how its main pieces fit together, and anything a
newcomer would find surprising. Keep it concise.

%s`, lang, path, content), nil
	case CacheTypeSuggestions:
		return fmt.Sprintf(`Review the following %s file, `+"`%s`"+`, and suggest concrete
improvements: readability, structure, correctness, idioms. List the most
impactful suggestions first.

%s`, lang, path, content), nil
	case CacheTypeChallenge:
		return fmt.Sprintf(`Create a short learning challenge for a developer studying the
following %s file, `+"`%s`"+`. Pose two or three questions that test whether
they understood how the code works, then give the answers.

%s`, lang, path, content), nil
	default:
		return "", fmt.Errorf("unknown cache type %q", cacheType)
	}
}
