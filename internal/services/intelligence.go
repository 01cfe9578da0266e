package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "github.com/redis/go-redis/v9"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/normalization"
  pkgerrors "github.com/opportuci/opportuci-backend/internal/pkg/errors"
  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

const intelligenceCacheTTL = 24 * time.Hour

// educationLevels ranks education levels for the match-score bonus, lowest
// first. The slice fixes lookup order so substring matching stays
// deterministic.
var educationLevels = []string{"secondary", "baccalaureate", "bts", "license", "master", "phd"}

func educationRank(level string) int {
  for i, name := range educationLevels {
    if name == level {
      return i + 1
    }
  }
  return 0
}

// OpportunityIntelligenceService analyzes opportunities into categorized
// skill requirements and scores user/opportunity compatibility.
type OpportunityIntelligenceService interface {
  AnalyzeOpportunity(ctx context.Context, opportunityID uuid.UUID, forceRefresh bool) (*types.OpportunityIntelligence, error)
  GetSkillRequirements(ctx context.Context, opportunityID uuid.UUID) (SkillRequirements, error)
  CalculateMatchScore(ctx context.Context, userID, opportunityID uuid.UUID) (float64, error)
}

type opportunityIntelligenceService struct {
  db               *gorm.DB
  log              *logger.Logger
  cache            *redis.Client
  opportunityRepo  repos.OpportunityRepo
  intelligenceRepo repos.OpportunityIntelligenceRepo
  userRepo         repos.UserRepo
  suggestions      SuggestionClient
}

func NewOpportunityIntelligenceService(
  db *gorm.DB,
  baseLog *logger.Logger,
  cache *redis.Client,
  opportunityRepo repos.OpportunityRepo,
  intelligenceRepo repos.OpportunityIntelligenceRepo,
  userRepo repos.UserRepo,
  suggestions SuggestionClient,
) OpportunityIntelligenceService {
  return &opportunityIntelligenceService{
    db:               db,
    log:              baseLog.With("service", "OpportunityIntelligenceService"),
    cache:            cache,
    opportunityRepo:  opportunityRepo,
    intelligenceRepo: intelligenceRepo,
    userRepo:         userRepo,
    suggestions:      suggestions,
  }
}

func intelligenceCacheKey(opportunityID uuid.UUID) string {
  return fmt.Sprintf("opp_intelligence_%s", opportunityID)
}

// AnalyzeOpportunity returns the skill-requirement analysis for an
// opportunity, extracting it through the suggestion source on a cache miss.
// Extraction failure degrades to the stored analysis when one exists, or to
// an empty profile; only a missing opportunity is an error.
func (s *opportunityIntelligenceService) AnalyzeOpportunity(ctx context.Context, opportunityID uuid.UUID, forceRefresh bool) (*types.OpportunityIntelligence, error) {
  if !forceRefresh && s.cache != nil {
    cached, err := s.cache.Get(ctx, intelligenceCacheKey(opportunityID)).Result()
    if err == nil {
      var row types.OpportunityIntelligence
      if unmarshalErr := json.Unmarshal([]byte(cached), &row); unmarshalErr == nil {
        s.log.Debug("intelligence cache hit", "opportunity_id", opportunityID)
        return &row, nil
      }
    }
  }

  opportunity, err := s.opportunityRepo.GetByID(ctx, nil, opportunityID)
  if err != nil {
    return nil, fmt.Errorf("load opportunity: %w", err)
  }

  row, err := s.intelligenceRepo.GetOrCreate(ctx, nil, opportunityID)
  if err != nil {
    return nil, fmt.Errorf("load intelligence row: %w", err)
  }

  if s.suggestions == nil {
    return s.withDefaultProfile(row), nil
  }

  extraction, err := s.suggestions.ExtractSkills(ctx, opportunity)
  if err != nil {
    s.log.Warn("skill extraction failed", "error", err, "opportunity_id", opportunityID)
    return s.withDefaultProfile(row), nil
  }

  profile := SkillRequirements{
    types.SkillCategoryTechnical: normalization.NormalizeSkills(extraction.Technical),
    types.SkillCategorySoft:      normalization.NormalizeSkills(extraction.Soft),
    types.SkillCategoryTools:     normalization.NormalizeSkills(extraction.Tools),
    types.SkillCategoryLanguages: normalization.NormalizeSkills(extraction.Languages),
  }
  encoded, err := json.Marshal(profile)
  if err != nil {
    return nil, fmt.Errorf("encode extracted skills: %w", err)
  }

  now := time.Now().UTC()
  row.ExtractedSkills = datatypes.JSON(encoded)
  if extraction.EstimatedPreparationHours > 0 {
    row.EstimatedPreparationHours = extraction.EstimatedPreparationHours
  }
  row.LastAnalyzedAt = &now
  if err := s.intelligenceRepo.Save(ctx, nil, row); err != nil {
    return nil, fmt.Errorf("save intelligence row: %w", err)
  }

  if s.cache != nil {
    if encodedRow, marshalErr := json.Marshal(row); marshalErr == nil {
      if cacheErr := s.cache.Set(ctx, intelligenceCacheKey(opportunityID), encodedRow, intelligenceCacheTTL).Err(); cacheErr != nil {
        s.log.Warn("failed to cache intelligence", "error", cacheErr, "opportunity_id", opportunityID)
      }
    }
  }

  s.log.Info("opportunity analyzed", "opportunity_id", opportunityID)
  return row, nil
}

// withDefaultProfile ensures a row always carries a decodable profile, even
// when no extraction ever succeeded.
func (s *opportunityIntelligenceService) withDefaultProfile(row *types.OpportunityIntelligence) *types.OpportunityIntelligence {
  if len(row.ExtractedSkills) > 0 {
    return row
  }
  fallback := SkillRequirements{
    types.SkillCategoryTechnical: {},
    types.SkillCategorySoft:      {},
    types.SkillCategoryTools:     {},
    types.SkillCategoryLanguages: {"french"},
  }
  encoded, _ := json.Marshal(fallback)
  row.ExtractedSkills = datatypes.JSON(encoded)
  return row
}

// GetSkillRequirements returns the categorized required-skill profile for an
// opportunity. Analysis failure degrades to an empty profile; only a missing
// opportunity is an error.
func (s *opportunityIntelligenceService) GetSkillRequirements(ctx context.Context, opportunityID uuid.UUID) (SkillRequirements, error) {
  row, err := s.AnalyzeOpportunity(ctx, opportunityID, false)
  if err != nil {
    if errors.Is(err, pkgerrors.ErrNotFound) {
      return nil, err
    }
    s.log.Warn("analysis unavailable, using empty requirements", "error", err, "opportunity_id", opportunityID)
    return SkillRequirements{}, nil
  }

  var profile SkillRequirements
  if err := json.Unmarshal(row.ExtractedSkills, &profile); err != nil {
    s.log.Warn("stored skill profile is malformed", "error", err, "opportunity_id", opportunityID)
    return SkillRequirements{}, nil
  }
  return profile, nil
}

// CalculateMatchScore scores user/opportunity compatibility in [0, 1]:
// 70% skill overlap, 30% education fit. Unanalyzable opportunities score a
// neutral 0.5.
func (s *opportunityIntelligenceService) CalculateMatchScore(ctx context.Context, userID, opportunityID uuid.UUID) (float64, error) {
  user, err := s.userRepo.GetByID(ctx, nil, userID)
  if err != nil {
    return 0, fmt.Errorf("load user: %w", err)
  }

  requirements, err := s.GetSkillRequirements(ctx, opportunityID)
  if err != nil {
    return 0, err
  }

  required := make([]string, 0)
  for _, category := range requirementCategories {
    required = append(required, requirements[category]...)
  }
  if len(required) == 0 {
    return 0.5, nil
  }

  userSkills := make(map[string]struct{})
  for _, skill := range normalization.ParseSkillList(user.Skills) {
    userSkills[skill] = struct{}{}
  }

  matching := 0
  for _, skill := range required {
    if _, ok := userSkills[normalization.ParseInputString(skill)]; ok {
      matching++
    }
  }
  matchRatio := float64(matching) / float64(len(required))

  opportunity, err := s.opportunityRepo.GetByID(ctx, nil, opportunityID)
  if err != nil {
    return 0, fmt.Errorf("load opportunity: %w", err)
  }
  educationBonus := educationMatch(user.EducationLevel, opportunity.EducationLevel)

  score := matchRatio*0.7 + educationBonus*0.3
  if score < 0 {
    score = 0
  }
  if score > 1 {
    score = 1
  }
  return score, nil
}

// educationMatch scores the user's education level against the requirement.
// Meeting it scores 1.0, one level below 0.7, further below 0.4. A target
// with no stated requirement scores a neutral 0.5.
func educationMatch(userLevel, requiredLevel string) float64 {
  if strings.TrimSpace(requiredLevel) == "" {
    return 0.5
  }

  userRank := educationRank(normalization.ParseInputString(userLevel))

  requiredRank := 3
  requiredLower := strings.ToLower(requiredLevel)
  for i, level := range educationLevels {
    if strings.Contains(requiredLower, level) {
      requiredRank = i + 1
      break
    }
  }

  switch {
  case userRank >= requiredRank:
    return 1.0
  case userRank == requiredRank-1:
    return 0.7
  default:
    return 0.4
  }
}
