package handlers

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"gaslytics/backend/models"
	"gaslytics/backend/processor"
)

// ErrRecordNotFound is returned when a database record is not found.
var ErrRecordNotFound = errors.New("record not found")

// VideoProcessor is the one operation handlers need from the orchestrator.
// Declared here so tests can substitute a fake.
type VideoProcessor interface {
	ProcessVideo(ctx context.Context, videoURL string, progress processor.ProgressFunc) models.ProcessingResult
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Processor VideoProcessor
	Logger    *logrus.Logger
	DB        *supa.Client

	// StorageBucket is the Supabase bucket conversation videos live in.
	StorageBucket string
	// SignedURLExpirySeconds bounds playback URL lifetime.
	SignedURLExpirySeconds int
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(proc VideoProcessor, logger *logrus.Logger, db *supa.Client, bucket string, signedURLExpiry int) *ApplicationHandler {
	return &ApplicationHandler{
		Processor:              proc,
		Logger:                 logger,
		DB:                     db,
		StorageBucket:          bucket,
		SignedURLExpirySeconds: signedURLExpiry,
	}
}
