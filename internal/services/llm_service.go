package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// maxExtractInput keeps prompts within the model's comfortable context size.
const maxExtractInput = 20000

type LLMService struct {
	// Held so the client is not recreated per request; nil when no API key is configured
	Client llms.Model
	Master *MasterService
}

// NewLLMService builds a Gemini client. An empty apiKey leaves extraction disabled.
func NewLLMService(ctx context.Context, apiKey, model string, master *MasterService) (*LLMService, error) {
	s := &LLMService{Master: master}
	if apiKey == "" {
		return s, nil
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	s.Client = llm
	return s, nil
}

func (s *LLMService) Enabled() bool { return s != nil && s.Client != nil }

const jobExtractionPrompt = `
You are a job posting extraction agent for a Japanese job portal. Analyze the raw HTML/text of a job posting and extract structured data.

### INSTRUCTIONS:
1. Ignore navigation menus, footers, "similar jobs" lists and advertisements.
2. Output valid JSON only. Do not wrap the output in markdown code blocks.
3. employment_type must be one of: full_time, part_time, contract, internship.
4. salary_min and salary_max are yearly amounts in yen as integers, or null.
5. prefectures must use names from this list: %s
6. features must use slugs from this list: %s

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company",
    "title": "Job title",
    "description": "A clean summary of responsibilities and requirements without HTML tags",
    "employment_type": "full_time",
    "salary_min": null,
    "salary_max": null,
    "prefectures": ["Tokyo"],
    "features": ["remote"]
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails turns a pasted posting into a draft the employer can review.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (*dtos.ExtractedJob, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("job extraction is not configured: %w", ErrUnavailable)
	}
	if r := []rune(rawHTML); len(r) > maxExtractInput {
		rawHTML = string(r[:maxExtractInput])
	}

	features, err := s.Master.Features(ctx)
	if err != nil {
		return nil, err
	}
	prefectures, err := s.Master.Prefectures(ctx)
	if err != nil {
		return nil, err
	}
	featureSlugs := make([]string, 0, len(features))
	featureIDs := make(map[string]uint, len(features))
	for _, f := range features {
		featureSlugs = append(featureSlugs, f.Slug)
		featureIDs[f.Slug] = f.ID
	}
	prefNames := make([]string, 0, len(prefectures))
	prefIDs := make(map[string]uint, len(prefectures)*2)
	for _, p := range prefectures {
		prefNames = append(prefNames, p.Name)
		prefIDs[strings.ToLower(p.Name)] = p.ID
		prefIDs[p.Code] = p.ID
	}

	prompt := fmt.Sprintf(jobExtractionPrompt, strings.Join(prefNames, ", "), strings.Join(featureSlugs, ", "), rawHTML)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	var out dtos.ExtractedJob
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &out); err != nil {
		return nil, fmt.Errorf("llm returned malformed JSON: %w", err)
	}

	out.FeatureIDs = []uint{}
	for _, slug := range out.Features {
		if id, ok := featureIDs[strings.ToLower(strings.TrimSpace(slug))]; ok {
			out.FeatureIDs = append(out.FeatureIDs, id)
		}
	}
	out.PrefectureIDs = []uint{}
	for _, name := range out.Prefectures {
		if id, ok := prefIDs[strings.ToLower(strings.TrimSpace(name))]; ok {
			out.PrefectureIDs = append(out.PrefectureIDs, id)
		}
	}
	out.FeatureIDs = uniqueIDs(out.FeatureIDs)
	out.PrefectureIDs = uniqueIDs(out.PrefectureIDs)
	return &out, nil
}

// stripCodeFence removes a ```json fence models sometimes add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
