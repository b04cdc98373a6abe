// Package services – CopilotService
//
// This file implements CopilotService, the application-level component that
// owns chat turns and artifact generation. It validates input, resolves the
// venture's current phase, reserves quota BEFORE the model call (never
// refunded on failure), assembles the phase-aware prompt, and persists the
// user/assistant pair with the prompt hash it was generated against.
//
// Observability: the public methods are OpenTelemetry-instrumented; spans
// carry venture/conversation identifiers.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
	"github.com/venturekit/go-venture-backend/internal/llm"
	"github.com/venturekit/go-venture-backend/internal/prompt"
	"github.com/venturekit/go-venture-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultConversationTitle is the placeholder set on new threads, replaced
// by an auto-generated title on the first turn.
const defaultConversationTitle = "New conversation"

// Completer is the slice of llm.Gateway the copilot depends on.
type Completer interface {
	Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (*llm.Response, error)
	Generate(ctx context.Context, prompt string) (*llm.Response, error)
}

// ChatReply is the outcome of one copilot turn.
type ChatReply struct {
	ConversationID string    `json:"conversation_id"`
	PhaseNumber    int       `json:"phase_number"`
	Reply          string    `json:"reply"`
	TokensUsed     int       `json:"tokens_used"`
	QuotaRemaining int       `json:"quota_remaining"`
	Mock           bool      `json:"mock,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// CopilotService coordinates prompt assembly, quota, the LLM gateway, and
// conversation persistence.
type CopilotService struct {
	DB    *gorm.DB
	LLM   Completer
	Quota *QuotaService

	// ChatCost and GenerateCost are the quota units debited per operation.
	ChatCost     int
	GenerateCost int

	// Optional guards
	MaxPromptRunes int

	// Budgets tunes prompt assembly; zero values fall back to package
	// defaults.
	Budgets prompt.Budgets

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// Chat runs one copilot turn: validate, resolve the conversation and its
// phase, reserve quota, assemble the prompt, call the model, persist both
// turns. conversationID may be empty to target the default thread of the
// venture's current phase.
func (s *CopilotService) Chat(ctx context.Context, userID, ventureID, conversationID, message string) (*ChatReply, error) {
	tr := otel.Tracer("services/CopilotService")
	ctx, span := tr.Start(ctx, "Chat",
		trace.WithAttributes(
			attribute.String("venture.id", ventureID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(message) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	v, err := repo.GetVenture(ctx, s.DB, ventureID, userID)
	if err != nil {
		return nil, ErrVentureNotFound
	}

	conv, phaseNumber, err := s.resolveConversation(ctx, ventureID, conversationID)
	if err != nil {
		return nil, err
	}

	// Quota is debited before the model call and stays debited even if the
	// call fails: failed attempts consume budget.
	remaining, err := s.Quota.Reserve(ctx, userID, s.chatCost())
	if err != nil {
		return nil, err
	}

	asm, err := s.assemble(ctx, userID, v, phaseNumber)
	if err != nil {
		return nil, err
	}

	history, err := repo.ListMessages(ctx, s.DB, conv.ID)
	if err != nil {
		return nil, err
	}
	window := prompt.BoundedHistory(history, s.Budgets.HistoryTokens)

	msgs := make([]llm.Message, 0, len(window)+1)
	for _, m := range window {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: domain.RoleUser, Content: message})

	resp, err := s.LLM.Chat(ctx, asm.SystemPrompt, msgs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := domain.ChatMessage{Role: domain.RoleUser, Content: message, Timestamp: now}
	assistantMsg := domain.ChatMessage{Role: domain.RoleAssistant, Content: resp.Content, Timestamp: now}
	if err := repo.AppendMessagePair(ctx, s.DB, conv.ID, userMsg, assistantMsg, asm.Hash); err != nil {
		return nil, err
	}

	if len(history) == 0 && s.shouldAutoTitle(conv.Title) {
		if title := s.titleFromPrompt(message); title != "" {
			// Best effort; the reply is already persisted.
			_ = repo.UpdateConversationTitle(ctx, s.DB, conv.ID, title)
		}
	}

	return &ChatReply{
		ConversationID: conv.ID,
		PhaseNumber:    phaseNumber,
		Reply:          resp.Content,
		TokensUsed:     resp.TokensUsed,
		QuotaRemaining: remaining,
		Mock:           resp.Mock,
		Timestamp:      now,
	}, nil
}

// GenerateArtifact produces a structured document of the given type for the
// venture's current phase and stores it as a new artifact. Responses that
// carry no parseable JSON are preserved raw rather than discarded.
func (s *CopilotService) GenerateArtifact(ctx context.Context, userID, ventureID, artifactType, name string) (*domain.Artifact, int, error) {
	tr := otel.Tracer("services/CopilotService")
	ctx, span := tr.Start(ctx, "GenerateArtifact",
		trace.WithAttributes(
			attribute.String("venture.id", ventureID),
			attribute.String("artifact.type", artifactType),
		),
	)
	defer span.End()

	if !domain.ValidArtifactType(artifactType) {
		return nil, 0, ErrInvalidArtifactType
	}

	v, err := repo.GetVenture(ctx, s.DB, ventureID, userID)
	if err != nil {
		return nil, 0, ErrVentureNotFound
	}
	phaseNumber, err := s.activePhase(ctx, ventureID)
	if err != nil {
		return nil, 0, err
	}

	remaining, err := s.Quota.Reserve(ctx, userID, s.generateCost())
	if err != nil {
		return nil, 0, err
	}

	asm, err := s.assemble(ctx, userID, v, phaseNumber)
	if err != nil {
		return nil, 0, err
	}

	resp, err := s.LLM.Generate(ctx, prompt.GenerationPrompt(artifactType, asm))
	if err != nil {
		return nil, 0, err
	}

	content, jerr := llm.ExtractJSON(resp.Content)
	if jerr != nil {
		raw, merr := encodeRawFallback(resp.Content)
		if merr != nil {
			return nil, 0, merr
		}
		content = raw
	}

	if strings.TrimSpace(name) == "" {
		name = s.titleFromPrompt(strings.ReplaceAll(artifactType, "_", " "))
	}
	a, err := repo.CreateArtifact(ctx, s.DB, ventureID, phaseNumber, artifactType, name, content)
	if err != nil {
		return nil, 0, err
	}
	return a, remaining, nil
}

// History returns the messages of one conversation, oldest first.
// conversationID may be empty to read the default thread of phaseNumber
// (or of the current phase when phaseNumber <= 0); a missing default thread
// is an empty history, not an error.
func (s *CopilotService) History(ctx context.Context, userID, ventureID, conversationID string, phaseNumber int) (string, []domain.ChatMessage, error) {
	tr := otel.Tracer("services/CopilotService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("venture.id", ventureID)),
	)
	defer span.End()

	if _, err := repo.GetVenture(ctx, s.DB, ventureID, userID); err != nil {
		return "", nil, ErrVentureNotFound
	}

	if conversationID == "" {
		if phaseNumber <= 0 {
			n, err := s.activePhase(ctx, ventureID)
			if err != nil {
				return "", nil, err
			}
			phaseNumber = n
		}
		convs, err := repo.ListConversations(ctx, s.DB, ventureID, phaseNumber)
		if err != nil {
			return "", nil, err
		}
		if len(convs) == 0 {
			return "", []domain.ChatMessage{}, nil
		}
		conversationID = convs[0].ID
	} else if _, err := repo.GetConversation(ctx, s.DB, conversationID, ventureID); err != nil {
		return "", nil, ErrConversationNotFound
	}

	msgs, err := repo.ListMessages(ctx, s.DB, conversationID)
	if err != nil {
		return "", nil, err
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return conversationID, msgs, nil
}

// resolveConversation maps an optional explicit conversation ID to a thread
// and its phase. Empty ID targets the default thread of the current phase,
// created on first use.
func (s *CopilotService) resolveConversation(ctx context.Context, ventureID, conversationID string) (*domain.Conversation, int, error) {
	if conversationID != "" {
		conv, err := repo.GetConversation(ctx, s.DB, conversationID, ventureID)
		if err != nil {
			return nil, 0, ErrConversationNotFound
		}
		return conv, conv.PhaseNumber, nil
	}
	phaseNumber, err := s.activePhase(ctx, ventureID)
	if err != nil {
		return nil, 0, err
	}
	conv, err := repo.GetOrCreateConversation(ctx, s.DB, ventureID, phaseNumber)
	if err != nil {
		return nil, 0, err
	}
	return conv, phaseNumber, nil
}

// activePhase returns the venture's lowest-numbered active phase. Phase 5
// never completes, so a seeded venture always has one.
func (s *CopilotService) activePhase(ctx context.Context, ventureID string) (int, error) {
	phases, err := repo.ListPhases(ctx, s.DB, ventureID)
	if err != nil {
		return 0, err
	}
	for _, ph := range phases {
		if ph.Status == domain.PhaseStatusActive {
			return ph.Number, nil
		}
	}
	return domain.PhaseCount, nil
}

// assemble builds the layered system prompt from current venture state.
func (s *CopilotService) assemble(ctx context.Context, userID string, v *domain.Venture, phaseNumber int) (prompt.Assembled, error) {
	ph, err := repo.GetPhase(ctx, s.DB, v.ID, phaseNumber)
	if err != nil {
		return prompt.Assembled{}, ErrPhaseNotFound
	}
	crit, err := domain.DecodeCriteria(ph.CriteriaJSON)
	if err != nil {
		return prompt.Assembled{}, err
	}
	arts, err := repo.ListArtifacts(ctx, s.DB, v.ID, 0)
	if err != nil {
		return prompt.Assembled{}, err
	}
	return prompt.Assemble(prompt.Input{
		UserName:    userID,
		Venture:     v,
		PhaseNumber: phaseNumber,
		Criteria:    crit,
		Artifacts:   arts,
	}, s.Budgets), nil
}

func (s *CopilotService) chatCost() int {
	if s.ChatCost > 0 {
		return s.ChatCost
	}
	return 1
}

func (s *CopilotService) generateCost() int {
	if s.GenerateCost > 0 {
		return s.GenerateCost
	}
	return 3
}

// shouldAutoTitle reports whether the thread still carries a placeholder
// title.
func (s *CopilotService) shouldAutoTitle(title string) bool {
	t := strings.TrimSpace(title)
	return t == "" || strings.EqualFold(t, defaultConversationTitle)
}

// titleFromPrompt derives a short title from the first user prompt: the
// leading words, title-cased, clipped to TitleMaxLen runes.
func (s *CopilotService) titleFromPrompt(p string) string {
	words := strings.Fields(p)
	if len(words) > 6 {
		words = words[:6]
	}
	locale := s.TitleLocale
	if locale == language.Und {
		locale = language.English
	}
	title := cases.Title(locale, cases.NoLower).String(strings.Join(words, " "))

	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if runes := []rune(title); len(runes) > max {
		title = string(runes[:max])
	}
	return strings.TrimSpace(title)
}
