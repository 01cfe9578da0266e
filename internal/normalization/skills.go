package normalization

import (
  "strings"
)

// ParseInputString lowercases and trims a single free-text token.
func ParseInputString(input string) string {
  normalized := strings.ToLower(strings.TrimSpace(input))
  return normalized
}

// ParseSkillList splits a comma-separated skill declaration into normalized
// tokens. Empty entries are dropped and duplicates keep their first position.
// The result is comparable: normalizing it again returns it unchanged.
func ParseSkillList(raw string) []string {
  return NormalizeSkills(strings.Split(raw, ","))
}

// NormalizeSkills normalizes a list of free-text skills.
func NormalizeSkills(skills []string) []string {
  out := make([]string, 0, len(skills))
  seen := make(map[string]struct{}, len(skills))
  for _, skill := range skills {
    normalized := ParseInputString(skill)
    if normalized == "" {
      continue
    }
    if _, ok := seen[normalized]; ok {
      continue
    }
    seen[normalized] = struct{}{}
    out = append(out, normalized)
  }
  return out
}
