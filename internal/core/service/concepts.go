package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dalton-cole/primeta/internal/adapters/api"
	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

// Approximate token budget for the extraction prompt and the rough
// chars-per-token estimate used against it.
const (
	conceptTokenBudget  = 24_000
	charsPerToken       = 4
	conceptSnippetLimit = 4_000
)

// ConceptService extracts key concepts for a repository by sending a
// bounded selection of its files to the model.
type ConceptService struct {
	client   *api.GeminiClient
	files    db.FileStore
	concepts db.ConceptStore
	logger   *slog.Logger
}

// NewConceptService initializes a new ConceptService.
func NewConceptService(client *api.GeminiClient, files db.FileStore, concepts db.ConceptStore, logger *slog.Logger) *ConceptService {
	return &ConceptService{
		client:   client,
		files:    files,
		concepts: concepts,
		logger:   logger,
	}
}

type conceptPayload struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	KeyFiles     []string `json:"key_files"`
	WhyImportant string   `json:"why_important"`
}

// ExtractConcepts asks the model for the repository's key concepts and
// replaces the stored concept set and key-file flags with the result.
func (s *ConceptService) ExtractConcepts(ctx context.Context, repositoryID uint) error {
	if !s.client.Enabled() {
		return ErrAiDisabled
	}

	files, err := s.files.ListFiles(repositoryID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("repository %d has no files to analyze", repositoryID)
	}

	selected := selectFilesForBudget(files, conceptTokenBudget)
	if len(selected) == 0 {
		return fmt.Errorf("repository %d has no files within the token budget", repositoryID)
	}

	prompt, err := s.buildExtractionPrompt(repositoryID, selected)
	if err != nil {
		return err
	}

	raw, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return err
	}

	payloads, err := parseConceptResponse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse concept response: %w", err)
	}

	concepts := make([]entities.KeyConcept, 0, len(payloads))
	keyPathSet := make(map[string]bool)
	for _, p := range payloads {
		keyFiles, err := json.Marshal(p.KeyFiles)
		if err != nil {
			return err
		}
		concepts = append(concepts, entities.KeyConcept{
			Name:         p.Name,
			Description:  p.Description,
			KeyFiles:     keyFiles,
			WhyImportant: p.WhyImportant,
		})
		for _, path := range p.KeyFiles {
			keyPathSet[path] = true
		}
	}

	if err := s.concepts.ReplaceForRepository(repositoryID, concepts); err != nil {
		return err
	}

	keyPaths := make([]string, 0, len(keyPathSet))
	for path := range keyPathSet {
		keyPaths = append(keyPaths, path)
	}
	sort.Strings(keyPaths)
	if err := s.files.SetKeyFiles(repositoryID, keyPaths); err != nil {
		return err
	}

	s.logger.Info("extracted key concepts", "repository_id", repositoryID, "concepts", len(concepts), "key_files", len(keyPaths))
	return nil
}

// selectFilesForBudget orders files by priority weight and greedily takes
// them until the next file would push the estimated token count past the
// budget. Key files and core source weigh lightest; tests and CI config
// weigh heaviest.
func selectFilesForBudget(files []entities.RepositoryFile, budget int) []entities.RepositoryFile {
	ordered := make([]entities.RepositoryFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi, wj := selectionWeight(ordered[i]), selectionWeight(ordered[j])
		if wi != wj {
			return wi < wj
		}
		return ordered[i].Path < ordered[j].Path
	})

	var selected []entities.RepositoryFile
	tokens := 0
	for _, f := range ordered {
		size := int(f.Size)
		if size > conceptSnippetLimit {
			size = conceptSnippetLimit
		}
		cost := size / charsPerToken
		if tokens+cost > budget {
			break
		}
		tokens += cost
		selected = append(selected, f)
	}
	return selected
}

func selectionWeight(f entities.RepositoryFile) int {
	path := strings.ToLower(f.Path)
	switch {
	case isTestOrCIPath(path):
		return 3
	case f.IsKeyFile, isCoreSourcePath(path):
		return 1
	default:
		return 2
	}
}

func isTestOrCIPath(path string) bool {
	if strings.Contains(path, "_test.") || strings.Contains(path, ".test.") {
		return true
	}
	for _, prefix := range []string{"test/", "tests/", "spec/", ".github/", ".circleci/", ".gitlab/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return strings.HasSuffix(path, ".yml") && strings.Contains(path, "ci")
}

func isCoreSourcePath(path string) bool {
	for _, prefix := range []string{"app/", "lib/", "src/", "cmd/", "internal/", "pkg/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (s *ConceptService) buildExtractionPrompt(repositoryID uint, selected []entities.RepositoryFile) (string, error) {
	var manifest strings.Builder
	for _, f := range selected {
		fmt.Fprintf(&manifest, "- %s (%s, %d lines)\n", f.Path, f.Language, f.LineCount)
	}

	var snippets strings.Builder
	for _, f := range selected {
		full, err := s.files.GetFileByPath(repositoryID, f.Path)
		if err != nil {
			return "", err
		}
		content := full.Content
		if len(content) > conceptSnippetLimit {
			content = content[:conceptSnippetLimit]
		}
		fmt.Fprintf(&snippets, "=== %s ===\n%s\n\n", f.Path, content)
	}

	return fmt.Sprintf(`You are analyzing a source-code repository to find its key concepts:
named clusters of related files that each explain one architectural theme.

Files in scope:
%s
File contents:
%s
Respond with only a JSON array, no prose, where each element has the keys
"name", "description", "key_files" (array of paths from the manifest
above), and "why_important" (why those files matter for understanding the
codebase). Identify between 3 and 8 concepts.`, manifest.String(), snippets.String()), nil
}

// parseConceptResponse tolerates the model wrapping its JSON in a
// markdown code fence.
func parseConceptResponse(raw string) ([]conceptPayload, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var payloads []conceptPayload
	if err := json.Unmarshal([]byte(text), &payloads); err != nil {
		return nil, err
	}
	return payloads, nil
}
