package expansion

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"conceptgraph-backend/application/ports"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

const expanderSystemPrompt = `You are a research-corpus concept expansion service.
Given a concept and optional context, respond with a single JSON object using
exactly these keys:
  relatedConcepts: [{name, type, relationship, evidenceQuote, paperId, paperTitle, section, confidence}]
  supportingEvidence: [{finding, paperId, paperTitle, section, quote}]
  counterArguments: [{argument, paperId, paperTitle, limitationType}]
  crossDomain: [{domain, concept, connection, paperId, evidenceQuote}]
  analysisNotes: string
Node types are one of: concept, evidence, counter_argument, cross_domain,
organism, technique, molecule, gene, process, phenomenon. Relationships are
one of: regulates, enables, disrupts, precedes, correlates_with, required_for,
inhibits, activates, produces, expressed_in, interacts_with, part_of,
measured_by, supports, contradicts, extends. Omit categories you have nothing
for. Respond with JSON only.`

// OpenAIExpander answers the expansion contract from a language model.
// Intended for development and demos when no corpus-backed oracle is
// reachable; selected via ORACLE_PROVIDER=openai.
type OpenAIExpander struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIExpander creates an LLM-backed expander
func NewOpenAIExpander(apiKey, model string, logger *zap.Logger) *OpenAIExpander {
	return &OpenAIExpander{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Expand implements ports.ConceptExpander
func (e *OpenAIExpander) Expand(ctx context.Context, req ports.ExpansionRequest) (*ports.ExpansionResponse, error) {
	userPrompt := fmt.Sprintf(
		"Concept: %s\nContext: %s\nReturn at most %d entries per category. Include counter-arguments: %t. Include cross-domain connections: %t.",
		req.ConceptName, req.ConceptContext, req.MaxSourceResults,
		req.IncludeCounterArguments, req.IncludeCrossDomain,
	)

	completion, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: expanderSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, pkgerrors.NewExternalError("openai expander", "completion failed").WithCause(err)
	}
	if len(completion.Choices) == 0 {
		return nil, pkgerrors.NewExternalError("openai expander", "empty completion")
	}

	var resp ports.ExpansionResponse
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &resp); err != nil {
		return nil, pkgerrors.NewExternalError("openai expander", "malformed completion").WithCause(err)
	}

	e.logger.Debug("llm expansion generated",
		zap.String("concept", req.ConceptName),
		zap.String("model", e.model),
		zap.Int("relatedConcepts", len(resp.RelatedConcepts)),
	)

	return &resp, nil
}
