package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "math/rand"
  "net"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// PlanModule is one module entry of a suggested learning plan.
type PlanModule struct {
  Skill              string   `json:"skill"`
  Type               string   `json:"type"`
  DurationMinutes    int      `json:"duration_minutes"`
  Priority           string   `json:"priority"`
  Title              string   `json:"title"`
  Description        string   `json:"description"`
  LearningObjectives []string `json:"learning_objectives"`
}

// PlanSuggestion is the structured module plan returned by the suggestion
// source.
type PlanSuggestion struct {
  Modules             []PlanModule `json:"modules"`
  EstimatedTotalHours float64      `json:"estimated_total_hours"`
  RecommendedPace     string       `json:"recommended_pace"`
  SuccessTips         []string     `json:"success_tips"`
}

// PlanRequest is the bounded prompt context sent to the suggestion source.
type PlanRequest struct {
  OpportunityTitle string
  Organization     string
  SkillGaps        []types.SkillGap
  MaxModules       int
  MaxHours         float64
}

// SkillExtraction is the categorized skill profile extracted from an
// opportunity description.
type SkillExtraction struct {
  Technical                 []string `json:"technical"`
  Soft                      []string `json:"soft"`
  Tools                     []string `json:"tools"`
  Languages                 []string `json:"languages"`
  EstimatedPreparationHours int      `json:"estimated_preparation_hours"`
}

// SuggestionClient is the external AI collaborator. Either call can block
// for a long time or fail arbitrarily; callers must always have a
// deterministic fallback available.
type SuggestionClient interface {
  GeneratePlan(ctx context.Context, req PlanRequest) (*PlanSuggestion, error)
  ExtractSkills(ctx context.Context, opportunity *types.Opportunity) (*SkillExtraction, error)
}

type aiSuggestionClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client

  maxRetries int
}

func NewAISuggestionClient(log *logger.Logger) (SuggestionClient, error) {
  apiKey := os.Getenv("AI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing AI_API_KEY")
  }

  baseURL := os.Getenv("AI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("AI_MODEL")
  if model == "" {
    model = "gpt-4o-mini"
  }

  timeoutSec := 60
  if v := os.Getenv("AI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  maxRetries := 2
  if v := os.Getenv("AI_MAX_RETRIES"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
      maxRetries = parsed
    }
  }

  return &aiSuggestionClient{
    log:        log.With("service", "AISuggestionClient"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
    maxRetries: maxRetries,
  }, nil
}

type suggestionHTTPError struct {
  StatusCode int
  Body       string
}

func (e *suggestionHTTPError) Error() string {
  return fmt.Sprintf("suggestion source http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
  if code == 408 || code == 429 {
    return true
  }
  if code >= 500 && code <= 599 {
    return true
  }
  return false
}

func isRetryableErr(err error) bool {
  if err == nil {
    return false
  }
  if errors.Is(err, context.DeadlineExceeded) {
    return true
  }
  var netErr net.Error
  if errors.As(err, &netErr) {
    if netErr.Timeout() {
      return true
    }
  }
  var httpErr *suggestionHTTPError
  if errors.As(err, &httpErr) {
    return isRetryableHTTP(httpErr.StatusCode)
  }
  return false
}

func jitterSleep(base time.Duration) time.Duration {
  // +/- 20%
  if base <= 0 {
    return 0
  }
  j := 0.2
  f := 1 - j + rand.Float64()*2*j
  return time.Duration(float64(base) * f)
}

func (c *aiSuggestionClient) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanSuggestion, error) {
  missing := make([]string, 0, len(req.SkillGaps))
  for _, gap := range req.SkillGaps {
    missing = append(missing, gap.Skill)
  }

  prompt := fmt.Sprintf(`Create a learning path for:

OPPORTUNITY: %s at %s
MISSING SKILLS: %s

Return EXACTLY this JSON (no commentary):
{
  "modules": [
    {
      "skill": "first skill",
      "type": "video",
      "duration_minutes": 15,
      "priority": "critical",
      "title": "Introduction to the skill",
      "description": "short description",
      "learning_objectives": ["obj1", "obj2"]
    }
  ],
  "estimated_total_hours": 10,
  "recommended_pace": "2h per day",
  "success_tips": ["tip 1", "tip 2"]
}

Limits: %d modules maximum, total duration at most %.0f hours.`,
    req.OpportunityTitle, req.Organization, strings.Join(missing, ", "),
    req.MaxModules, req.MaxHours)

  raw, err := c.complete(ctx, prompt)
  if err != nil {
    return nil, err
  }

  var plan PlanSuggestion
  if err := json.Unmarshal([]byte(StripJSONFences(raw)), &plan); err != nil {
    return nil, fmt.Errorf("decode plan suggestion: %w", err)
  }
  return &plan, nil
}

func (c *aiSuggestionClient) ExtractSkills(ctx context.Context, opportunity *types.Opportunity) (*SkillExtraction, error) {
  if opportunity == nil {
    return nil, fmt.Errorf("missing opportunity")
  }

  prompt := fmt.Sprintf(`Analyze this opportunity and extract the required skills.

TITLE: %s
ORGANIZATION: %s
DESCRIPTION: %s

Return EXACTLY this JSON (no commentary):
{
  "technical": ["skill"],
  "soft": ["skill"],
  "tools": ["tool"],
  "languages": ["language"],
  "estimated_preparation_hours": 10
}`,
    opportunity.Title, opportunity.Organization, opportunity.Description)

  raw, err := c.complete(ctx, prompt)
  if err != nil {
    return nil, err
  }

  var extraction SkillExtraction
  if err := json.Unmarshal([]byte(StripJSONFences(raw)), &extraction); err != nil {
    return nil, fmt.Errorf("decode skill extraction: %w", err)
  }
  return &extraction, nil
}

// complete sends one chat-completion request and returns the raw assistant
// text, retrying transient failures with exponential backoff and jitter.
func (c *aiSuggestionClient) complete(ctx context.Context, prompt string) (string, error) {
  payload := map[string]any{
    "model": c.model,
    "messages": []map[string]string{
      {"role": "system", "content": "You are a career-preparation planning assistant. Respond with JSON only."},
      {"role": "user", "content": prompt},
    },
  }
  body, err := json.Marshal(payload)
  if err != nil {
    return "", err
  }

  var lastErr error
  backoff := 500 * time.Millisecond
  for attempt := 0; attempt <= c.maxRetries; attempt++ {
    if attempt > 0 {
      select {
      case <-ctx.Done():
        return "", ctx.Err()
      case <-time.After(jitterSleep(backoff)):
      }
      backoff *= 2
    }

    text, callErr := c.doCall(ctx, body)
    if callErr == nil {
      return text, nil
    }
    lastErr = callErr
    if ctx.Err() != nil {
      return "", ctx.Err()
    }
    if !isRetryableErr(callErr) {
      break
    }
    c.log.Warn("suggestion call failed, retrying", "attempt", attempt+1, "error", callErr)
  }
  return "", lastErr
}

func (c *aiSuggestionClient) doCall(ctx context.Context, body []byte) (string, error) {
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
  if err != nil {
    return "", err
  }
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("Authorization", "Bearer "+c.apiKey)

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return "", err
  }
  defer resp.Body.Close()

  respBody, err := io.ReadAll(resp.Body)
  if err != nil {
    return "", err
  }
  if resp.StatusCode != http.StatusOK {
    return "", &suggestionHTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
  }

  var parsed struct {
    Choices []struct {
      Message struct {
        Content string `json:"content"`
      } `json:"message"`
    } `json:"choices"`
  }
  if err := json.Unmarshal(respBody, &parsed); err != nil {
    return "", fmt.Errorf("decode completion response: %w", err)
  }
  if len(parsed.Choices) == 0 {
    return "", fmt.Errorf("completion response has no choices")
  }
  return parsed.Choices[0].Message.Content, nil
}

// StripJSONFences unwraps a markdown-fenced JSON payload. Models sometimes
// wrap the requested JSON in ```json blocks despite instructions.
func StripJSONFences(text string) string {
  text = strings.TrimSpace(text)
  if idx := strings.Index(text, "```json"); idx >= 0 {
    text = text[idx+len("```json"):]
    if end := strings.Index(text, "```"); end >= 0 {
      text = text[:end]
    }
    return strings.TrimSpace(text)
  }
  if idx := strings.Index(text, "```"); idx >= 0 {
    text = text[idx+len("```"):]
    if end := strings.Index(text, "```"); end >= 0 {
      text = text[:end]
    }
    return strings.TrimSpace(text)
  }
  return text
}
