// Package domain defines the persistence models for ventures, phases,
// artifacts, conversations, and daily rate limits. These types are mapped
// with GORM and form the core data layer of the venture copilot backend.
package domain

import (
	"time"
)

// Venture represents a single business idea owned by one user. It carries
// the mutable business-plan fields that phase gates evaluate against.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for efficient retrieval.
//   - Name: human-readable venture name.
//   - ProblemStatement..LegalEntity: business-plan fields, updated via
//     partial field updates from the client.
//   - LegalEntitySkipped: explicit opt-out for the entity-choice gate.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Venture struct {
	ID     string `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID string `json:"user_id" gorm:"type:varchar(64);not null;index:idx_user_ventures"`
	Name   string `json:"name"    gorm:"type:varchar(255);not null;default:'New venture'"`

	ProblemStatement    string `json:"problem_statement"    gorm:"type:text"`
	Solution            string `json:"solution"             gorm:"type:text"`
	TargetCustomer      string `json:"target_customer"      gorm:"type:text"`
	Offer               string `json:"offer"                gorm:"type:text"`
	RevenueModel        string `json:"revenue_model"        gorm:"type:text"`
	DistributionChannel string `json:"distribution_channel" gorm:"type:text"`
	EstimatedCosts      string `json:"estimated_costs"      gorm:"type:text"`
	Advantage           string `json:"advantage"            gorm:"type:text"`
	LegalEntity         string `json:"legal_entity"         gorm:"type:varchar(64)"`
	LegalEntitySkipped  bool   `json:"legal_entity_skipped" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Venture.
func (Venture) TableName() string { return "ventures" }

// PlanFields returns the eight declared business-plan fields checked by the
// phase 2 completeness gate, in declaration order.
func (v *Venture) PlanFields() []string {
	return []string{
		v.ProblemStatement,
		v.Solution,
		v.TargetCustomer,
		v.Offer,
		v.RevenueModel,
		v.DistributionChannel,
		v.EstimatedCosts,
		v.Advantage,
	}
}

// Phase lifecycle statuses. A venture always has exactly five phases,
// numbered 1..5. Phase 1 starts active, 2..5 start locked. Phase 5 never
// completes; satisfying its gates raises a cycle-complete signal instead.
const (
	PhaseStatusLocked   = "locked"
	PhaseStatusActive   = "active"
	PhaseStatusComplete = "complete"
)

// Phase is one of the five ordered workflow stages of a venture. Gate
// criteria are stored as an ordered JSON array on the row (the set is fixed
// once seeded; only satisfied values mutate).
type Phase struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	VentureID    string `json:"venture_id"    gorm:"type:char(36);not null;uniqueIndex:ux_venture_phase,priority:1"`
	Number       int    `json:"number"        gorm:"not null;uniqueIndex:ux_venture_phase,priority:2;check:number BETWEEN 1 AND 5"`
	Title        string `json:"title"         gorm:"type:varchar(255);not null"`
	Status       string `json:"status"        gorm:"type:varchar(16);not null;check:status IN ('locked','active','complete')"`
	CriteriaJSON string `json:"-"             gorm:"column:criteria_json;type:text;not null"`
	Satisfied    bool   `json:"satisfied"     gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Phase.
func (Phase) TableName() string { return "phases" }

// Artifact is a typed, versioned JSON document scoped to (venture, phase).
// Updates bump Version and archive the prior content verbatim in
// ArtifactVersion.
type Artifact struct {
	ID          string `json:"id"           gorm:"type:char(36);primaryKey"`
	VentureID   string `json:"venture_id"   gorm:"type:char(36);not null;index:idx_venture_artifacts"`
	PhaseNumber int    `json:"phase_number" gorm:"not null"`
	Type        string `json:"type"         gorm:"type:varchar(64);not null"`
	Name        string `json:"name"         gorm:"type:varchar(255);not null"`
	ContentJSON string `json:"content"      gorm:"column:content_json;type:text;not null"`
	Version     int    `json:"version"      gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Artifact.
func (Artifact) TableName() string { return "artifacts" }

// ArtifactVersion is the immutable version-history side table. One row is
// written per artifact update, preserving the content that was replaced.
type ArtifactVersion struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ArtifactID  string    `json:"artifact_id" gorm:"type:char(36);not null;uniqueIndex:ux_artifact_version,priority:1"`
	Version     int       `json:"version"     gorm:"not null;uniqueIndex:ux_artifact_version,priority:2"`
	ContentJSON string    `json:"content"     gorm:"column:content_json;type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for ArtifactVersion.
func (ArtifactVersion) TableName() string { return "artifact_versions" }

// Conversation roles for chat turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LegacyBlobCap bounds the number of messages kept in the legacy JSON blob.
// The normalized message log is authoritative; the blob is a bounded cache.
const LegacyBlobCap = 50

// Conversation is a chat thread scoped to (venture, phase). The default
// thread per phase is unique; explicit-id resumption always re-checks the
// owning venture.
type Conversation struct {
	ID           string `json:"id"           gorm:"type:char(36);primaryKey"`
	VentureID    string `json:"venture_id"   gorm:"type:char(36);not null;uniqueIndex:ux_venture_phase_conv,priority:1"`
	PhaseNumber  int    `json:"phase_number" gorm:"not null;uniqueIndex:ux_venture_phase_conv,priority:2"`
	Title        string `json:"title"        gorm:"type:varchar(255);not null;default:'New conversation'"`
	MessagesJSON string `json:"-"            gorm:"column:messages_json;type:text;not null;default:'[]'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// ConversationMessage is one row of the normalized append-only message log.
// Seq orders messages within a conversation; the unique index makes repeated
// delivery of the same append idempotent.
type ConversationMessage struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;uniqueIndex:ux_conv_seq,priority:1"`
	Seq            int       `json:"seq"             gorm:"not null;uniqueIndex:ux_conv_seq,priority:2"`
	Role           string    `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	PromptHash     string    `json:"prompt_hash"     gorm:"type:char(64)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for ConversationMessage.
func (ConversationMessage) TableName() string { return "conversation_messages" }

// ChatMessage is the transport/blob representation of a single chat turn.
// It is what the legacy MessagesJSON blob serializes and what the prompt
// assembler and API return.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RateLimit holds the daily usage counter for one billing entity. Rows are
// unique per (entity, UTC calendar day); the counter resets implicitly when
// the date key rolls over, no reset job exists.
type RateLimit struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	EntityID string `json:"entity_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_entity_day,priority:1"`
	Date     string `json:"date"      gorm:"type:char(10);not null;uniqueIndex:ux_entity_day,priority:2"`
	Used     int    `json:"used"      gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for RateLimit.
func (RateLimit) TableName() string { return "rate_limits" }
