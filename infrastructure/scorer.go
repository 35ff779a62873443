package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ScoreResult is what the LLM returns for one completed assessment session.
type ScoreResult struct {
	Overall        float64 `json:"overall"`
	Technical      float64 `json:"technical"`
	ProblemSolving float64 `json:"problem_solving"`
	Communication  float64 `json:"communication"`
	Completion     float64 `json:"completion"`
	Summary        string  `json:"summary"`
}

type Scorer struct {
	client *openai.Client
	model  string
}

func NewScorer() *Scorer {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		panic("OPENAI_API_KEY environment variable not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Scorer{client: openai.NewClient(apiKey), model: model}
}

// Score evaluates an assessment transcript and returns scores 0-100 plus a
// short hiring-manager-facing summary.
func (s *Scorer) Score(ctx context.Context, assessmentType, transcript string) (*ScoreResult, error) {
	prompt := fmt.Sprintf(
		`You are an evaluator for a %s candidate assessment. Below is the full transcript of the candidate's session.

Transcript:
%s

Score the candidate on these parameters, each 0-100:
 technical (depth and correctness of technical work)
 problem_solving (approach, decomposition, handling of obstacles)
 communication (clarity of reasoning and written answers)
 completion (how much of the assessment was finished)
Then compute overall as the weighted aggregate and write a 2-4 sentence summary.

Return strict JSON with structure:
{
  "overall": float,
  "technical": float,
  "problem_solving": float,
  "communication": float,
  "completion": float,
  "summary": string
}

IMPORTANT: Return ONLY the raw JSON without any markdown formatting, code blocks, or additional text.`,
		assessmentType, transcript)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("scoring response has no choices")
	}

	cleaned := cleanJSONResponse(resp.Choices[0].Message.Content)
	var result ScoreResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to parse scoring JSON: %w\nResponse: %s", err, cleaned)
	}

	return &result, nil
}

// cleanJSONResponse strips markdown fences and anything outside the outermost
// JSON object. Models wrap output in ```json blocks often enough that this is
// load-bearing.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}

	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start != -1 && end != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}
