package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/llm"
	"github.com/paperpilot/paperpilot/llm/retry"
	"github.com/paperpilot/paperpilot/types"
)

// ReviewRequest carries everything one review pass needs.
type ReviewRequest struct {
	Topic     string
	Draft     string
	PaperType string
	Language  types.Language
	Model     types.ModelConfig
}

// Reviewer critiques and revises a composed draft.
type Reviewer struct {
	factory ProviderFactory
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewReviewer creates a reviewer. A nil retryer gets the default backoff
// policy with retryable-error classification.
func NewReviewer(factory ProviderFactory, retryer retry.Retryer, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryer == nil {
		policy := retry.DefaultPolicy()
		policy.Classifier = types.IsRetryable
		retryer = retry.NewBackoffRetryer(policy, logger)
	}
	return &Reviewer{
		factory: factory,
		retryer: retryer,
		logger:  logger.With(zap.String("component", "reviewer")),
	}
}

// Review returns a revised version of the draft with reviewer annotations.
// The revision must keep the paper type's required sections.
func (r *Reviewer) Review(ctx context.Context, req ReviewRequest) (string, error) {
	if strings.TrimSpace(req.Draft) == "" {
		return "", types.NewError(types.ErrInvalidInput, "draft is empty")
	}

	paperType, err := GetPaperType(req.PaperType)
	if err != nil {
		return "", err
	}

	provider, err := r.factory(req.Model, r.logger)
	if err != nil {
		return "", err
	}

	r.logger.Info("reviewing draft",
		zap.String("topic", req.Topic),
		zap.String("paper_type", paperType.Key),
		zap.String("backend", provider.Name()),
		zap.Int("draft_chars", len(req.Draft)))

	resp, err := retry.DoWithResultTyped[*llm.ChatResponse](r.retryer, ctx, func() (*llm.ChatResponse, error) {
		return provider.Completion(ctx, &llm.ChatRequest{
			Messages:    r.buildPrompt(req, paperType),
			MaxTokens:   req.Model.MaxTokens,
			Temperature: req.Model.Temperature,
		})
	})
	if err != nil {
		return "", types.NewErrorf(types.ErrGeneration, "review failed for topic %q", req.Topic).
			WithCause(err).WithProvider(provider.Name())
	}

	revised := strings.TrimSpace(resp.Text())
	if revised == "" {
		return "", types.NewError(types.ErrGeneration, "model backend returned an empty review").
			WithProvider(provider.Name())
	}

	r.logger.Info("review completed",
		zap.String("topic", req.Topic),
		zap.Int("revised_chars", len(revised)))
	return revised, nil
}

func (r *Reviewer) buildPrompt(req ReviewRequest, paperType PaperType) []llm.Message {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Review and revise the following academic paper on %q.\n\n", req.Topic)
	sb.WriteString("Improve structure, argument flow, citation usage, and clarity. ")
	fmt.Fprintf(&sb, "The paper is a %s and must keep these sections:\n", paperType.Name)
	for _, section := range paperType.Sections {
		fmt.Fprintf(&sb, "- %s\n", section)
	}
	sb.WriteString("\n")
	sb.WriteString(req.Language.Directive())
	sb.WriteString("\nReturn the complete revised paper in Markdown, not a list of comments.\n\n")
	sb.WriteString("---\n\n")
	sb.WriteString(req.Draft)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a rigorous academic reviewer. You revise papers directly, strengthening methodology, structure, and citations while preserving the authors' intent."},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}
