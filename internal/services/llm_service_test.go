package services

import (
	"context"
	"strings"
	"testing"

	"github.com/justsurfingit/job-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// cannedModel answers every prompt with the same text and remembers the last prompt.
type cannedModel struct {
	reply  string
	prompt string
}

func (m *cannedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt += text.Text
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *cannedModel) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	m.prompt += prompt
	return m.reply, nil
}

func TestExtractJobDetails(t *testing.T) {
	db := testutil.NewDB(t)
	model := &cannedModel{reply: "```json\n" + `{
		"company_name": "Acme",
		"title": "Go Engineer",
		"description": "Build APIs",
		"employment_type": "full_time",
		"salary_min": 6000000,
		"salary_max": null,
		"prefectures": ["Tokyo", "osaka", "Atlantis"],
		"features": ["remote", "REMOTE", "unknown"]
	}` + "\n```"}
	svc := &LLMService{Client: model, Master: NewMasterService(db)}

	got, err := svc.ExtractJobDetails(context.Background(), "<html><body>Go Engineer at Acme</body></html>")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, "Go Engineer", got.Title)
	require.NotNil(t, got.SalaryMin)
	assert.Equal(t, 6_000_000, *got.SalaryMin)
	assert.Nil(t, got.SalaryMax)

	tokyo := testutil.PrefectureID(t, db, "13")
	osaka := testutil.PrefectureID(t, db, "27")
	assert.ElementsMatch(t, []uint{tokyo, osaka}, got.PrefectureIDs)
	assert.Equal(t, []uint{testutil.FeatureID(t, db, "remote")}, got.FeatureIDs)

	assert.Contains(t, model.prompt, "Go Engineer at Acme")
	assert.Contains(t, model.prompt, "Hokkaido")
}

func TestExtractJobDetailsErrors(t *testing.T) {
	db := testutil.NewDB(t)

	disabled := &LLMService{Master: NewMasterService(db)}
	assert.False(t, disabled.Enabled())
	_, err := disabled.ExtractJobDetails(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)

	svc := &LLMService{Client: &cannedModel{reply: "Sorry, I cannot help with that."}, Master: NewMasterService(db)}
	_, err = svc.ExtractJobDetails(context.Background(), "x")
	assert.ErrorContains(t, err, "malformed JSON")

	// long input is truncated before it reaches the model
	model := &cannedModel{reply: "{}"}
	svc.Client = model
	_, err = svc.ExtractJobDetails(context.Background(), strings.Repeat("字", maxExtractInput+500))
	require.NoError(t, err)
	assert.Equal(t, maxExtractInput, strings.Count(model.prompt, "字"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1}  `))
}
