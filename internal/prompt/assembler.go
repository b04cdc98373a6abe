// Package prompt builds the layered, token-budgeted system prompt for the
// copilot and the bounded conversation window sent with each turn.
//
// Token counts are estimated with a fixed chars-per-token ratio; the same
// estimate drives both truncation decisions and reported usage so the two
// never disagree.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// CharsPerToken is the fixed estimation ratio.
const CharsPerToken = 4

// Default budgets, overridable through Budgets.
const (
	DefaultArtifactTokenBudget = 600
	DefaultHistoryTokenBudget  = 2000
)

// artifactLineMax caps the rendered length of one artifact summary line.
const artifactLineMax = 160

const persona = `You are a pragmatic venture-building copilot. You help a founder move
their business through a five-phase workflow, one concrete step at a time.
Be specific, be brief, and ground every suggestion in the venture state you
are given. Never invent facts about the venture.`

// EstimateTokens estimates the token count of s.
func EstimateTokens(s string) int {
	return (len(s) + CharsPerToken - 1) / CharsPerToken
}

// Budgets tunes the assembler's token limits.
type Budgets struct {
	ArtifactTokens int
	HistoryTokens  int
}

// Input carries everything the assembler layers into the system prompt.
type Input struct {
	UserName    string
	Venture     *domain.Venture
	PhaseNumber int
	Criteria    domain.GateCriteria
	Artifacts   []domain.Artifact
}

// Assembled is the build result. Hash is a deterministic digest of the
// system prompt, stored with each assistant turn so a conversation record
// can be audited against the exact prompt version it was generated with.
type Assembled struct {
	SystemPrompt string
	Hash         string
	Tokens       int
}

// Assemble builds the layered system prompt: persona, user profile,
// venture state, phase constraints, and a token-budgeted artifact summary.
func Assemble(in Input, b Budgets) Assembled {
	if b.ArtifactTokens <= 0 {
		b.ArtifactTokens = DefaultArtifactTokenBudget
	}

	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\n")
	sb.WriteString(profileLayer(in.UserName))
	sb.WriteString("\n\n")
	sb.WriteString(ventureLayer(in.Venture))
	sb.WriteString("\n\n")
	sb.WriteString(phaseLayer(in.PhaseNumber, in.Criteria))

	if art := artifactLayer(in.Artifacts, b.ArtifactTokens); art != "" {
		sb.WriteString("\n\n")
		sb.WriteString(art)
	}

	sp := sb.String()
	sum := sha256.Sum256([]byte(sp))
	return Assembled{
		SystemPrompt: sp,
		Hash:         hex.EncodeToString(sum[:]),
		Tokens:       EstimateTokens(sp),
	}
}

func profileLayer(userName string) string {
	if strings.TrimSpace(userName) == "" {
		userName = "the founder"
	}
	return fmt.Sprintf("## Founder\nYou are assisting %s.", userName)
}

func ventureLayer(v *domain.Venture) string {
	var sb strings.Builder
	sb.WriteString("## Venture state\n")
	sb.WriteString("Name: " + v.Name)
	fields := []struct {
		label string
		value string
	}{
		{"Problem", v.ProblemStatement},
		{"Solution", v.Solution},
		{"Target customer", v.TargetCustomer},
		{"Offer", v.Offer},
		{"Revenue model", v.RevenueModel},
		{"Distribution channel", v.DistributionChannel},
		{"Estimated costs", v.EstimatedCosts},
		{"Advantage", v.Advantage},
		{"Legal entity", v.LegalEntity},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		sb.WriteString("\n" + f.label + ": " + f.value)
	}
	return sb.String()
}

func phaseLayer(number int, crit domain.GateCriteria) string {
	var done, open []string
	for _, c := range crit {
		if c.Satisfied {
			done = append(done, c.Label)
		} else {
			open = append(open, c.Label)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Current phase: %d — %s\n", number, domain.PhaseTitle(number))
	if len(done) > 0 {
		sb.WriteString("Completed gates: " + strings.Join(done, "; ") + "\n")
	}
	if len(open) > 0 {
		sb.WriteString("Remaining gates: " + strings.Join(open, "; ") + "\n")
	}
	next := number + 1
	if next > domain.PhaseCount {
		next = domain.PhaseCount
	}
	fmt.Fprintf(&sb,
		"Only discuss work belonging to phase %d and phase %d. Do not reveal or plan for later phases.",
		number, next)
	return sb.String()
}

// artifactLayer renders artifacts as single truncated lines, ordered by
// phase then creation time (the repo query guarantees that order), and
// stops once the token budget is exceeded, appending an explicit truncation
// marker instead of silently dropping data.
func artifactLayer(arts []domain.Artifact, budget int) string {
	if len(arts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Artifacts\n")
	used := EstimateTokens(sb.String())
	included := 0
	for _, a := range arts {
		line := artifactLine(a)
		cost := EstimateTokens(line + "\n")
		if used+cost > budget {
			break
		}
		sb.WriteString(line + "\n")
		used += cost
		included++
	}
	if rest := len(arts) - included; rest > 0 {
		fmt.Fprintf(&sb, "… %d more truncated\n", rest)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func artifactLine(a domain.Artifact) string {
	content := strings.Join(strings.Fields(a.ContentJSON), " ")
	line := fmt.Sprintf("[P%d] %s %q v%d: %s", a.PhaseNumber, a.Type, a.Name, a.Version, content)
	if len(line) > artifactLineMax {
		line = line[:artifactLineMax-1] + "…"
	}
	return line
}

// BoundedHistory selects the most recent conversation turns that fit under
// the history token budget, working backward from the newest message. At
// least one message is always kept when any exist.
func BoundedHistory(msgs []domain.ChatMessage, budget int) []domain.ChatMessage {
	if budget <= 0 {
		budget = DefaultHistoryTokenBudget
	}
	if len(msgs) == 0 {
		return nil
	}

	used := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := EstimateTokens(msgs[i].Content)
		if used+cost > budget && start < len(msgs) {
			break
		}
		used += cost
		start = i
	}
	return msgs[start:]
}
