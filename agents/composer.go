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

// referenceTokenBudget bounds how much of the reference material enters the
// prompt; the rest of the window is left for the generated document.
const referenceTokenBudget = 6000

// maxPromptReferences caps how many references the prompt cites.
const maxPromptReferences = 10

// ComposeRequest carries everything one draft generation needs.
type ComposeRequest struct {
	Topic      string
	PaperType  string
	Language   types.Language
	References []types.Reference
	Model      types.ModelConfig
}

// Composer turns a topic and collected references into a full paper draft.
type Composer struct {
	factory ProviderFactory
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewComposer creates a composer. A nil retryer gets the default backoff
// policy with retryable-error classification.
func NewComposer(factory ProviderFactory, retryer retry.Retryer, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryer == nil {
		policy := retry.DefaultPolicy()
		policy.Classifier = types.IsRetryable
		retryer = retry.NewBackoffRetryer(policy, logger)
	}
	return &Composer{
		factory: factory,
		retryer: retryer,
		logger:  logger.With(zap.String("component", "composer")),
	}
}

// Compose generates a structured paper draft. Backend failures and empty
// responses surface as a generation error; the caller records it on the
// project and the stage can be re-run.
func (c *Composer) Compose(ctx context.Context, req ComposeRequest) (string, error) {
	paperType, err := GetPaperType(req.PaperType)
	if err != nil {
		return "", err
	}

	provider, err := c.factory(req.Model, c.logger)
	if err != nil {
		return "", err
	}

	prompt := c.buildPrompt(req, paperType)

	c.logger.Info("composing draft",
		zap.String("topic", req.Topic),
		zap.String("paper_type", paperType.Key),
		zap.String("backend", provider.Name()),
		zap.Int("references", len(req.References)))

	resp, err := retry.DoWithResultTyped[*llm.ChatResponse](c.retryer, ctx, func() (*llm.ChatResponse, error) {
		return provider.Completion(ctx, &llm.ChatRequest{
			Messages:    prompt,
			MaxTokens:   req.Model.MaxTokens,
			Temperature: req.Model.Temperature,
		})
	})
	if err != nil {
		return "", types.NewErrorf(types.ErrGeneration, "draft generation failed for topic %q", req.Topic).
			WithCause(err).WithProvider(provider.Name())
	}

	draft := strings.TrimSpace(resp.Text())
	if draft == "" {
		return "", types.NewError(types.ErrGeneration, "model backend returned an empty draft").
			WithProvider(provider.Name())
	}

	c.logger.Info("draft composed",
		zap.String("topic", req.Topic),
		zap.Int("draft_chars", len(draft)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return draft, nil
}

func (c *Composer) buildPrompt(req ComposeRequest, paperType PaperType) []llm.Message {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write a complete academic paper on the topic: %q.\n\n", req.Topic)
	fmt.Fprintf(&sb, "Paper type: %s. %s\n", paperType.Name, paperType.Description)
	fmt.Fprintf(&sb, "Target length: %s.\n\n", paperType.WordCount)
	sb.WriteString("Structure the paper with exactly these sections, as Markdown headings:\n")
	for _, section := range paperType.Sections {
		fmt.Fprintf(&sb, "- %s\n", section)
	}
	sb.WriteString("\n")
	sb.WriteString(req.Language.Directive())
	sb.WriteString("\n")

	if block := formatReferences(req.References); block != "" {
		sb.WriteString("\nGround the paper in the following collected references. ")
		sb.WriteString("Cite them as [n] in the text and list them in the References section:\n\n")
		sb.WriteString(block)
		sb.WriteString("\n")
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an expert academic writer. You produce well-structured, rigorous papers in Markdown with numbered citations."},
		{Role: llm.RoleUser, Content: sb.String()},
	}
}

// formatReferences renders numbered citations with abstracts, bounded by
// the reference token budget.
func formatReferences(refs []types.Reference) string {
	if len(refs) == 0 {
		return ""
	}
	if len(refs) > maxPromptReferences {
		refs = refs[:maxPromptReferences]
	}

	items := make([]string, 0, len(refs))
	for i, ref := range refs {
		var item strings.Builder
		fmt.Fprintf(&item, "[%d] %s", i+1, ref.Citation())
		if ref.Abstract != "" {
			fmt.Fprintf(&item, "\n    Abstract: %s", ref.Abstract)
		}
		if ref.URL != "" {
			fmt.Fprintf(&item, "\n    URL: %s", ref.URL)
		}
		items = append(items, item.String())
	}
	return llm.JoinWithinBudget(items, "\n\n", referenceTokenBudget)
}
