package handlers

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"

	"gaslytics/backend/analysis"
	"gaslytics/backend/models"
	"gaslytics/backend/utils"
)

const conversationsTable = "conversations"

// userID resolves the requesting user. Identity is established by the
// storage provider's session on the SPA side and forwarded as a header;
// every read and write below is filtered on it.
func userID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get("X-User-Id"))
}

// CreateConversationRequest is the metadata recorded alongside an uploaded
// conversation video.
type CreateConversationRequest struct {
	FileName         string   `json:"fileName" validate:"required"`
	FilePath         string   `json:"filePath" validate:"required"`
	RelationshipType string   `json:"relationshipType"`
	EmotionalState   string   `json:"emotionalState"`
	ConversationTags []string `json:"conversationTags"`
	FileSize         int64    `json:"fileSize"`
	FileType         string   `json:"fileType"`
}

// UploadConversationFile stores raw video bytes in the conversation bucket
// under a path prefixed with the caller's user id and returns that path.
func (h *ApplicationHandler) UploadConversationFile(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.Logger.Errorf("Error getting file from request: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Error getting file: %v", err))
	}

	src, err := file.Open()
	if err != nil {
		h.Logger.Errorf("Error opening uploaded file: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error opening file: %v", err))
	}
	defer src.Close()

	storagePath := fmt.Sprintf("%s/%s%s", uid, uuid.NewString(), filepath.Ext(file.Filename))

	contentType := file.Header.Get("Content-Type")
	if _, err := h.DB.Storage.UploadFile(h.StorageBucket, storagePath, src,
		storage_go.FileOptions{ContentType: &contentType}); err != nil {
		h.Logger.Errorf("Error uploading file to storage at %s: %v", storagePath, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error uploading file: %v", err))
	}

	h.Logger.WithFields(map[string]interface{}{
		"user_id":      uid,
		"storage_path": storagePath,
		"file_size":    file.Size,
	}).Info("Conversation video uploaded")

	return utils.RespondWithJSON(c, fiber.StatusCreated, fiber.Map{
		"file_path": storagePath,
		"file_name": file.Filename,
	})
}

// CreateConversation inserts the metadata row for an uploaded video.
func (h *ApplicationHandler) CreateConversation(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	payload := new(CreateConversationRequest)
	if err := c.BodyParser(payload); err != nil {
		h.Logger.Errorf("Error parsing create conversation payload: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	if !strings.HasPrefix(payload.FilePath, uid+"/") {
		return utils.RespondWithError(c, fiber.StatusForbidden, "Unauthorized file access")
	}

	now := time.Now().UTC()
	row := models.Conversation{
		ID:               uuid.New(),
		UserID:           uid,
		FileName:         payload.FileName,
		FilePath:         payload.FilePath,
		RelationshipType: payload.RelationshipType,
		EmotionalState:   payload.EmotionalState,
		ConversationTags: payload.ConversationTags,
		FileSize:         payload.FileSize,
		FileType:         payload.FileType,
		ConsentGiven:     true,
		UploadTimestamp:  now,
		CreatedAt:        now,
	}

	body, _, err := h.DB.From(conversationsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		h.Logger.Errorf("Error creating conversation record: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError,
			fmt.Sprintf("Could not create conversation record: %v", err))
	}

	var created []models.Conversation
	if err := json.Unmarshal(body, &created); err != nil || len(created) == 0 {
		h.Logger.Errorf("Error unmarshalling created conversation: %v, body: %s", err, string(body))
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to confirm conversation creation")
	}

	h.Logger.WithFields(map[string]interface{}{
		"conversation_id": created[0].ID,
		"user_id":         uid,
	}).Info("Conversation created")
	return utils.RespondWithJSON(c, fiber.StatusCreated, created[0])
}

// ListConversations returns the caller's conversations, newest first.
func (h *ApplicationHandler) ListConversations(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	body, _, err := h.DB.From(conversationsTable).
		Select("*", "", false).
		Eq("user_id", uid).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		h.Logger.Errorf("Error fetching conversations for user %s: %v", uid, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch conversations")
	}

	var conversations []models.Conversation
	if err := json.Unmarshal(body, &conversations); err != nil {
		h.Logger.Errorf("Error unmarshalling conversations: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to process conversations")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, conversations)
}

// GetConversation fetches one conversation, only if the caller owns it.
func (h *ApplicationHandler) GetConversation(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "User not authenticated")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid conversation ID format")
	}

	conversation, err := h.getConversationByIDAndUser(id, uid)
	if err != nil {
		if err == ErrRecordNotFound {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Conversation not found")
		}
		h.Logger.Errorf("Error fetching conversation %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch conversation")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, conversation)
}

// GetConversationURL issues a time-limited signed URL for the conversation's
// video. The storage path must sit under the caller's own prefix.
func (h *ApplicationHandler) GetConversationURL(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "User not authenticated")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid conversation ID format")
	}

	conversation, err := h.getConversationByIDAndUser(id, uid)
	if err != nil {
		if err == ErrRecordNotFound {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Conversation not found")
		}
		h.Logger.Errorf("Error fetching conversation %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch conversation")
	}

	if !strings.HasPrefix(conversation.FilePath, uid+"/") {
		return utils.RespondWithError(c, fiber.StatusForbidden, "Unauthorized file access")
	}

	signed, err := h.DB.Storage.CreateSignedUrl(h.StorageBucket, conversation.FilePath, h.SignedURLExpirySeconds)
	if err != nil {
		h.Logger.Errorf("Error creating signed URL for %s: %v", conversation.FilePath, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to create signed URL")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"signed_url": signed.SignedURL,
		"expires_in": h.SignedURLExpirySeconds,
	})
}

// UpdateAnalysisRequest attaches analysis output to a conversation.
type UpdateAnalysisRequest struct {
	OverallManipulationScore *float64 `json:"overallManipulationScore"`
	TwelveLabsIndexID        *string  `json:"twelveLabsIndexId"`
	TwelveLabsVideoID        *string  `json:"twelveLabsVideoId"`
	Clips                    any      `json:"clips"`
	Summary                  *string  `json:"summary"`
	MediatorPerspective      *string  `json:"mediatorPerspective"`
}

// UpdateConversationAnalysis records analysis results on the caller's row.
// Clip payloads go through the schema validator again before they are
// written; the database only ever stores validated documents.
func (h *ApplicationHandler) UpdateConversationAnalysis(c *fiber.Ctx) error {
	uid := userID(c)
	if uid == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "User not authenticated")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid conversation ID format")
	}

	payload := new(UpdateAnalysisRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}

	updates := map[string]interface{}{}
	if payload.OverallManipulationScore != nil {
		updates["overall_manipulation_score"] = *payload.OverallManipulationScore
	}
	if payload.TwelveLabsIndexID != nil {
		updates["twelve_labs_index_id"] = *payload.TwelveLabsIndexID
	}
	if payload.TwelveLabsVideoID != nil {
		updates["twelve_labs_video_id"] = *payload.TwelveLabsVideoID
	}
	if payload.Clips != nil {
		validation := analysis.ValidateAnalysisData(payload.Clips)
		if !validation.IsValid {
			return utils.RespondWithError(c, fiber.StatusBadRequest,
				fmt.Sprintf("Analysis data validation failed: %s", validation.Error))
		}
		updates["clips"] = validation.Data
	}
	if payload.Summary != nil {
		updates["summary"] = *payload.Summary
	}
	if payload.MediatorPerspective != nil {
		updates["mediator_perspective"] = *payload.MediatorPerspective
	}
	if len(updates) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No analysis fields to update")
	}

	_, count, err := h.DB.From(conversationsTable).
		Update(updates, "", "exact").
		Eq("id", id.String()).
		Eq("user_id", uid).
		Execute()
	if err != nil {
		h.Logger.Errorf("Error updating analysis for conversation %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to update conversation")
	}
	if count == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Conversation not found")
	}

	h.Logger.WithFields(map[string]interface{}{
		"conversation_id": id,
		"user_id":         uid,
	}).Info("Conversation analysis updated")
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"conversation_id": id})
}

func (h *ApplicationHandler) getConversationByIDAndUser(id uuid.UUID, uid string) (*models.Conversation, error) {
	var conversation models.Conversation
	_, err := h.DB.From(conversationsTable).
		Select("*", "exact", false).
		Eq("id", id.String()).
		Eq("user_id", uid).
		Single().
		ExecuteTo(&conversation)
	if err != nil {
		// PGRST116 is PostgREST's "zero (or multiple) rows for a
		// single-object request". Anything else is a real DB failure
		// and surfaces as a 500 upstream.
		if strings.Contains(err.Error(), "PGRST116") {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &conversation, nil
}
