package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/pkg/anthropic"
	"github.com/dateradar/pricing-cli/pkg/gemini"
	"github.com/dateradar/pricing-cli/pkg/openai"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare_json",
			in:   `{"tier": "MAJOR"}`,
			want: `{"tier": "MAJOR"}`,
		},
		{
			name: "fenced",
			in:   "Here you go:\n```json\n{\"tier\": \"PEAK\"}\n```",
			want: `{"tier": "PEAK"}`,
		},
		{
			name: "fenced_no_language",
			in:   "```\n{\"tier\": \"MINOR\"}\n```",
			want: `{"tier": "MINOR"}`,
		},
		{
			name: "surrounding_whitespace",
			in:   "  {\"tier\": \"MEDIUM\"}  \n",
			want: `{"tier": "MEDIUM"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestParseOpinion(t *testing.T) {
	op, err := parseOpinion(`{"tier": "MAJOR", "confidence": 0.85, "reasoning": "40th anniversary of the album"}`)
	require.NoError(t, err)
	assert.Equal(t, "MAJOR", op.Tier)
	require.NotNil(t, op.Confidence)
	assert.InDelta(t, 0.85, *op.Confidence, 1e-9)
	assert.Equal(t, "40th anniversary of the album", op.Rationale)
}

func TestParseOpinion_MissingConfidence(t *testing.T) {
	op, err := parseOpinion(`{"tier": "MINOR", "reasoning": "tangential"}`)
	require.NoError(t, err)
	assert.Nil(t, op.Confidence, "absent confidence must stay nil so the classifier can default it")
}

func TestParseOpinion_Invalid(t *testing.T) {
	_, err := parseOpinion(`I think this is a MAJOR event.`)
	require.Error(t, err)

	_, err = parseOpinion(`{"confidence": 0.9}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tier")
}

func TestUserPrompt(t *testing.T) {
	got := userPrompt(consensus.Request{
		ItemLabel: "1966 Topps Batman card",
		Category:  "trading cards",
		EventName: "Batman Day",
		EventDate: "September 20",
	})
	assert.Contains(t, got, "ITEM: 1966 Topps Batman card")
	assert.Contains(t, got, "CATEGORY: trading cards")
	assert.Contains(t, got, "EVENT: Batman Day")
	assert.Contains(t, got, "EVENT DATE: September 20")
}

type stubAnthropic struct {
	gotReq anthropic.MessageRequest
	resp   *anthropic.MessageResponse
	err    error
}

func (s *stubAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.gotReq = req
	return s.resp, s.err
}

func TestAnthropicOracle(t *testing.T) {
	stub := &stubAnthropic{resp: &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{
			{Type: "text", Text: "```json\n{\"tier\": \"PEAK\", \"confidence\": 0.9, \"reasoning\": \"50th anniversary\"}\n```"},
		},
	}}
	o := NewAnthropic(stub, "")

	op, err := o.ClassifyTier(context.Background(), consensus.Request{ItemLabel: "poster", EventName: "Jaws 50th"})
	require.NoError(t, err)
	assert.Equal(t, "claude", o.Name())
	assert.Equal(t, "PEAK", op.Tier)

	assert.Equal(t, defaultAnthropicModel, stub.gotReq.Model)
	assert.Equal(t, int64(classifyMaxTokens), stub.gotReq.MaxTokens)
	require.Len(t, stub.gotReq.System, 1)
	assert.Contains(t, stub.gotReq.System[0].Text, "pricing analyst for collectibles")
}

type stubOpenAI struct {
	gotReq openai.ChatCompletionRequest
	resp   *openai.ChatCompletionResponse
	err    error
}

func (s *stubOpenAI) ChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	s.gotReq = req
	return s.resp, s.err
}

func TestOpenAIOracle(t *testing.T) {
	stub := &stubOpenAI{resp: &openai.ChatCompletionResponse{
		Choices: []openai.Choice{
			{Message: openai.Message{Role: "assistant", Content: `{"tier": "MEDIUM", "confidence": 0.7, "reasoning": "birthday"}`}},
		},
	}}
	o := NewOpenAI(stub, "gpt-4o")

	op, err := o.ClassifyTier(context.Background(), consensus.Request{ItemLabel: "vinyl", EventName: "Artist birthday"})
	require.NoError(t, err)
	assert.Equal(t, "openai", o.Name())
	assert.Equal(t, "MEDIUM", op.Tier)

	assert.Equal(t, "gpt-4o", stub.gotReq.Model)
	require.Len(t, stub.gotReq.Messages, 2)
	assert.Equal(t, "system", stub.gotReq.Messages[0].Role)
}

func TestOpenAIOracle_NoChoices(t *testing.T) {
	stub := &stubOpenAI{resp: &openai.ChatCompletionResponse{}}
	o := NewOpenAI(stub, "")

	_, err := o.ClassifyTier(context.Background(), consensus.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

type stubGemini struct {
	gotReq gemini.GenerateContentRequest
	resp   *gemini.GenerateContentResponse
	err    error
}

func (s *stubGemini) GenerateContent(_ context.Context, req gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	s.gotReq = req
	return s.resp, s.err
}

func TestGeminiOracle(t *testing.T) {
	stub := &stubGemini{resp: &gemini.GenerateContentResponse{
		Candidates: []gemini.Candidate{
			{Content: gemini.Content{Parts: []gemini.Part{
				{Text: `{"tier": "MINOR", "confidence": 0.6, "reasoning": "awareness day"}`},
			}}},
		},
	}}
	o := NewGemini(stub, "")

	op, err := o.ClassifyTier(context.Background(), consensus.Request{ItemLabel: "pin", EventName: "Awareness day"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", o.Name())
	assert.Equal(t, "MINOR", op.Tier)

	require.NotNil(t, stub.gotReq.SystemInstruction)
	assert.Contains(t, stub.gotReq.SystemInstruction.Parts[0].Text, "Respond with ONLY a JSON object")
}

func TestGeminiOracle_EmptyResponse(t *testing.T) {
	stub := &stubGemini{resp: &gemini.GenerateContentResponse{}}
	o := NewGemini(stub, "")

	_, err := o.ClassifyTier(context.Background(), consensus.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}
