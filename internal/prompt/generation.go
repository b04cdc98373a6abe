package prompt

import (
	"fmt"
	"strings"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// jsonInstruction is appended to every generation prompt. The output
// contract is strict: downstream parsing extracts the first JSON value and
// discards surrounding prose.
const jsonInstruction = `Respond with a single JSON object exactly matching the schema above.
No markdown fences, no commentary before or after the JSON.`

// artifactSchemas maps each artifact type to the JSON shape the generator
// must produce.
var artifactSchemas = map[string]string{
	domain.ArtifactCompetitorList: `{
  "competitors": [{"name": "string", "positioning": "string", "weakness": "string"}],
  "summary": "string"
}`,
	domain.ArtifactOffer: `{
  "headline": "string",
  "deliverables": ["string"],
  "price": "string",
  "guarantee": "string"
}`,
	domain.ArtifactBusinessPlan: `{
  "problem": "string",
  "solution": "string",
  "target_customer": "string",
  "revenue_model": "string",
  "distribution": "string",
  "costs": "string",
  "advantage": "string",
  "milestones": ["string"]
}`,
	domain.ArtifactPitch: `{
  "one_liner": "string",
  "problem": "string",
  "solution": "string",
  "ask": "string"
}`,
	domain.ArtifactOutreachEmail: `{
  "subject": "string",
  "body": "string",
  "call_to_action": "string"
}`,
	domain.ArtifactGrowthPlan: `{
  "goals": ["string"],
  "channels": [{"channel": "string", "experiment": "string"}],
  "metrics": ["string"]
}`,
}

// genericSchema backs types without a dedicated schema.
const genericSchema = `{
  "title": "string",
  "sections": [{"heading": "string", "content": "string"}]
}`

// GenerationPrompt builds the full system prompt for generating one
// artifact of the given type, grounded in the assembled venture context.
func GenerationPrompt(artifactType string, assembled Assembled) string {
	schema, ok := artifactSchemas[artifactType]
	if !ok {
		schema = genericSchema
	}

	var sb strings.Builder
	sb.WriteString(assembled.SystemPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "## Task\nDraft a %q document for this venture.\n", artifactType)
	sb.WriteString("Schema:\n")
	sb.WriteString(schema)
	sb.WriteString("\n\n")
	sb.WriteString(jsonInstruction)
	return sb.String()
}
