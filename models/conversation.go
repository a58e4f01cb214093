package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Conversation represents one row in the conversations table. The row is
// created on upload and updated once when analysis completes; clips is the
// JSONB analysis document. Every read and write is scoped to UserID.
type Conversation struct {
	ID                       uuid.UUID       `json:"id"`
	UserID                   string          `json:"user_id"`
	FileName                 string          `json:"file_name"`
	FilePath                 string          `json:"file_path"`
	RelationshipType         string          `json:"relationship_type"`
	EmotionalState           string          `json:"emotional_state"`
	ConversationTags         []string        `json:"conversation_tags,omitempty"`
	FileSize                 int64           `json:"file_size"`
	FileType                 string          `json:"file_type"`
	ConsentGiven             bool            `json:"consent_given"`
	UploadTimestamp          time.Time       `json:"upload_timestamp"`
	OverallManipulationScore *float64        `json:"overall_manipulation_score,omitempty"`
	TwelveLabsIndexID        *string         `json:"twelve_labs_index_id,omitempty"`
	TwelveLabsVideoID        *string         `json:"twelve_labs_video_id,omitempty"`
	Clips                    json.RawMessage `json:"clips,omitempty"`
	Summary                  *string         `json:"summary,omitempty"`
	MediatorPerspective      *string         `json:"mediator_perspective,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
}
