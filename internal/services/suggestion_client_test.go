package services

import (
  "context"
  "encoding/json"
  "net/http"
  "net/http/httptest"
  "sync/atomic"
  "testing"
  "time"

  "github.com/opportuci/opportuci-backend/internal/types"
)

func TestStripJSONFences(t *testing.T) {
  tests := []struct {
    name string
    in   string
    want string
  }{
    {"plain", `{"a":1}`, `{"a":1}`},
    {"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
    {"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
    {"fence with prose", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy!", `{"a":1}`},
    {"whitespace", "  {\"a\":1}\n", `{"a":1}`},
  }
  for _, tc := range tests {
    t.Run(tc.name, func(t *testing.T) {
      if got := StripJSONFences(tc.in); got != tc.want {
        t.Fatalf("got %q, want %q", got, tc.want)
      }
    })
  }
}

func TestIsRetryableHTTP(t *testing.T) {
  for _, code := range []int{408, 429, 500, 502, 503} {
    if !isRetryableHTTP(code) {
      t.Errorf("%d should be retryable", code)
    }
  }
  for _, code := range []int{400, 401, 404, 422} {
    if isRetryableHTTP(code) {
      t.Errorf("%d should not be retryable", code)
    }
  }
}

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) (*aiSuggestionClient, *httptest.Server) {
  t.Helper()
  srv := httptest.NewServer(handler)
  t.Cleanup(srv.Close)
  return &aiSuggestionClient{
    log:        testLog(t),
    baseURL:    srv.URL,
    apiKey:     "test-key",
    model:      "test-model",
    httpClient: &http.Client{Timeout: 5 * time.Second},
    maxRetries: maxRetries,
  }, srv
}

func completionResponse(content string) []byte {
  body, _ := json.Marshal(map[string]any{
    "choices": []map[string]any{
      {"message": map[string]string{"content": content}},
    },
  })
  return body
}

func TestGeneratePlanParsesFencedPayload(t *testing.T) {
  content := "```json\n{\"modules\":[{\"skill\":\"python\",\"title\":\"Intro\",\"duration_minutes\":15}],\"estimated_total_hours\":2}\n```"
  client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
    if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
      t.Errorf("auth header = %q", got)
    }
    w.Write(completionResponse(content))
  }, 0)

  plan, err := client.GeneratePlan(context.Background(), PlanRequest{
    OpportunityTitle: "Backend Intern",
    Organization:     "Acme",
    SkillGaps:        []types.SkillGap{{Skill: "python"}},
    MaxModules:       8,
    MaxHours:         40,
  })
  if err != nil {
    t.Fatalf("GeneratePlan: %v", err)
  }
  if len(plan.Modules) != 1 || plan.Modules[0].Skill != "python" {
    t.Fatalf("plan = %+v", plan)
  }
  if plan.EstimatedTotalHours != 2 {
    t.Fatalf("hours = %v, want 2", plan.EstimatedTotalHours)
  }
}

func TestGeneratePlanRetriesTransientFailures(t *testing.T) {
  var calls atomic.Int32
  client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
    if calls.Add(1) == 1 {
      w.WriteHeader(http.StatusServiceUnavailable)
      return
    }
    w.Write(completionResponse(`{"modules":[{"skill":"go","title":"Intro"}],"estimated_total_hours":1}`))
  }, 2)

  plan, err := client.GeneratePlan(context.Background(), PlanRequest{MaxModules: 8, MaxHours: 40})
  if err != nil {
    t.Fatalf("GeneratePlan: %v", err)
  }
  if len(plan.Modules) != 1 {
    t.Fatalf("plan = %+v", plan)
  }
  if got := calls.Load(); got != 2 {
    t.Fatalf("calls = %d, want retry after the 503", got)
  }
}

func TestGeneratePlanDoesNotRetryClientErrors(t *testing.T) {
  var calls atomic.Int32
  client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
    calls.Add(1)
    w.WriteHeader(http.StatusBadRequest)
  }, 3)

  _, err := client.GeneratePlan(context.Background(), PlanRequest{MaxModules: 8, MaxHours: 40})
  if err == nil {
    t.Fatal("expected error")
  }
  if got := calls.Load(); got != 1 {
    t.Fatalf("calls = %d, 400 must not be retried", got)
  }
}

func TestExtractSkills(t *testing.T) {
  content := `{"technical":["Python"],"soft":["teamwork"],"tools":[],"languages":["english"],"estimated_preparation_hours":8}`
  client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
    w.Write(completionResponse(content))
  }, 0)

  extraction, err := client.ExtractSkills(context.Background(), &types.Opportunity{Title: "Intern", Description: "APIs"})
  if err != nil {
    t.Fatalf("ExtractSkills: %v", err)
  }
  if len(extraction.Technical) != 1 || extraction.Technical[0] != "Python" {
    t.Fatalf("extraction = %+v", extraction)
  }
  if extraction.EstimatedPreparationHours != 8 {
    t.Fatalf("prep hours = %d, want 8", extraction.EstimatedPreparationHours)
  }
}

func TestExtractSkillsNilOpportunity(t *testing.T) {
  client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
    t.Error("server must not be called")
  }, 0)
  if _, err := client.ExtractSkills(context.Background(), nil); err == nil {
    t.Fatal("expected error for nil opportunity")
  }
}
