// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for conversations
// and their messages.
//
// Two storage representations coexist:
//   - a legacy JSON blob on the conversation row, capped at the most recent
//     LegacyBlobCap messages (a bounded cache, last-writer-wins), and
//   - a normalized append-only message log ordered by Seq (authoritative).
//
// Writes go to both sinks; reads prefer the log and fall back to parsing
// the blob only for conversations created before the log existed.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturekit/go-venture-backend/internal/domain"
)

// GetOrCreateConversation returns the default thread for (venture, phase),
// creating it if absent. A create racing another caller loses on the unique
// index and re-fetches the winner's row.
func GetOrCreateConversation(ctx context.Context, db *gorm.DB, ventureID string, phaseNumber int) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("venture_id = ? AND phase_number = ?", ventureID, phaseNumber).
		First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = domain.Conversation{
		ID:           uuid.NewString(),
		VentureID:    ventureID,
		PhaseNumber:  phaseNumber,
		Title:        "New conversation",
		MessagesJSON: "[]",
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			var winner domain.Conversation
			if ferr := db.WithContext(ctx).
				Where("venture_id = ? AND phase_number = ?", ventureID, phaseNumber).
				First(&winner).Error; ferr == nil {
				return &winner, nil
			}
		}
		return nil, err
	}
	return &c, nil
}

// GetConversation fetches a conversation by explicit ID scoped to its
// owning venture. Lookups for another venture's thread return ErrNotFound,
// never content.
func GetConversation(ctx context.Context, db *gorm.DB, id, ventureID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND venture_id = ?", id, ventureID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns all threads of a venture, optionally filtered
// to one phase (phaseNumber <= 0 lists all), most recent activity first.
func ListConversations(ctx context.Context, db *gorm.DB, ventureID string, phaseNumber int) ([]domain.Conversation, error) {
	q := db.WithContext(ctx).Where("venture_id = ?", ventureID)
	if phaseNumber > 0 {
		q = q.Where("phase_number = ?", phaseNumber)
	}
	var out []domain.Conversation
	err := q.Order("updated_at desc").Find(&out).Error
	return out, err
}

// AppendMessagePair persists a user turn and the assistant turn answering
// it, in that order. In one transaction it
//   - rewrites the legacy blob with the most recent LegacyBlobCap messages,
//   - inserts the two new rows into the normalized log (Seq continues from
//     the current log tail, or from the blob length for pre-migration
//     threads), tolerating duplicate (conversation, seq) inserts.
//
// promptHash records which assembled system prompt the assistant turn was
// generated against.
func AppendMessagePair(ctx context.Context, db *gorm.DB, conversationID string, userMsg, assistantMsg domain.ChatMessage, promptHash string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Conversation
		if err := tx.Where("id = ?", conversationID).First(&c).Error; err != nil {
			return err
		}

		blob := decodeBlob(c.MessagesJSON)
		blob = append(blob, userMsg, assistantMsg)
		if len(blob) > domain.LegacyBlobCap {
			blob = blob[len(blob)-domain.LegacyBlobCap:]
		}
		raw, err := json.Marshal(blob)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Conversation{}).Where("id = ?", c.ID).Updates(map[string]any{
			"messages_json": string(raw),
			"updated_at":    time.Now().UTC(),
		}).Error; err != nil {
			return err
		}

		seq, err := nextSeq(tx, c)
		if err != nil {
			return err
		}
		for i, m := range []domain.ChatMessage{userMsg, assistantMsg} {
			row := &domain.ConversationMessage{
				ID:             uuid.NewString(),
				ConversationID: c.ID,
				Seq:            seq + i,
				Role:           m.Role,
				Content:        m.Content,
				PromptHash:     promptHash,
				CreatedAt:      m.Timestamp,
			}
			if err := tx.Create(row).Error; err != nil {
				// Repeated delivery of the same pair lands on the same
				// seq; the unique index makes the insert a no-op.
				if isUniqueViolation(err) {
					continue
				}
				return err
			}
		}
		return nil
	})
}

// nextSeq computes the next log sequence number for a conversation. For
// threads that predate the normalized log it continues from the blob length
// so ordering stays monotonic across the migration boundary.
func nextSeq(tx *gorm.DB, c domain.Conversation) (int, error) {
	var max *int
	err := tx.Model(&domain.ConversationMessage{}).
		Where("conversation_id = ?", c.ID).
		Select("MAX(seq)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max != nil {
		return *max + 1, nil
	}
	// Log empty: continue from the pre-append blob length (c still holds
	// the row as loaded, before the rewrite above).
	return len(decodeBlob(c.MessagesJSON)), nil
}

// ListMessages returns a conversation's messages in order. The normalized
// log is preferred; when it is empty the legacy blob is parsed instead
// (backward-compatibility path, explicit fallback chain).
func ListMessages(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.ChatMessage, error) {
	var rows []domain.ConversationMessage
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		out := make([]domain.ChatMessage, 0, len(rows))
		for _, r := range rows {
			out = append(out, domain.ChatMessage{Role: r.Role, Content: r.Content, Timestamp: r.CreatedAt})
		}
		return out, nil
	}

	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", conversationID).First(&c).Error; err != nil {
		return nil, err
	}
	return decodeBlob(c.MessagesJSON), nil
}

// UpdateConversationTitle renames a thread. Missing rows are ErrNotFound.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// decodeBlob parses the legacy JSON blob, treating malformed or empty
// content as an empty history (the log is authoritative anyway).
func decodeBlob(raw string) []domain.ChatMessage {
	if raw == "" {
		return nil
	}
	var msgs []domain.ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil
	}
	return msgs
}
