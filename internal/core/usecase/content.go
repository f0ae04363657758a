package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
)

// contentPromptLimit caps how much parsed text is handed to the model
// for summary-style generation.
const contentPromptLimit = 24000

// ContentUseCase generates derived artifacts (summary, sample
// questions, FAQ) from a document's parsed text.
type ContentUseCase struct {
	repo      ports.DocumentRepository
	source    ports.TextSource
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewContentUseCase(
	repo ports.DocumentRepository,
	source ports.TextSource,
	generator ports.AnswerGenerator,
	logger *slog.Logger,
) *ContentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentUseCase{repo: repo, source: source, generator: generator, logger: logger}
}

func (c *ContentUseCase) Summarize(ctx context.Context, name string) (string, error) {
	return c.generate(ctx, name, "summary",
		"Write a concise summary of the following document. Capture the key facts and conclusions in plain prose.")
}

func (c *ContentUseCase) GenerateQuestions(ctx context.Context, name string) (string, error) {
	return c.generate(ctx, name, "questions",
		"Based on the following document, write 5 questions a reader is likely to ask. Number them 1-5, one per line.")
}

func (c *ContentUseCase) GenerateFAQ(ctx context.Context, name string) (string, error) {
	return c.generate(ctx, name, "faq",
		"Based on the following document, write a FAQ of 5 question and answer pairs. Format each as 'Q:' and 'A:' lines.")
}

func (c *ContentUseCase) generate(ctx context.Context, name, kind, instruction string) (string, error) {
	if _, err := c.repo.GetByName(ctx, name); err != nil {
		return "", err
	}
	text, _, err := c.source.Load(ctx, name)
	if err != nil {
		return "", err
	}
	if len(text) > contentPromptLimit {
		text = text[:contentPromptLimit]
	}

	prompt := fmt.Sprintf("%s\n\nDocument:\n%s", instruction, text)
	out, err := c.generator.GenerateFromPrompt(ctx, prompt)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstream, "generate "+kind, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", domain.WrapError(domain.ErrUpstream, "generate "+kind, fmt.Errorf("model returned empty output"))
	}

	c.logger.Info("content generated", "name", name, "kind", kind, "length", len(out))
	return out, nil
}
