package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"gaslytics/backend/models"
	"gaslytics/backend/utils"
)

// ProcessVideoRequest is the JSON body for the streaming processing endpoint.
type ProcessVideoRequest struct {
	VideoURL string `json:"videoUrl" validate:"required,url"`
}

var validate = validator.New()

// HealthCheck reports server liveness.
func (h *ApplicationHandler) HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"message":   "Gaslytics processing server is running",
	})
}

// ProcessVideo runs one orchestration for the submitted video URL and relays
// every progress and log event over a Server-Sent Events stream, ending with
// a single "complete" frame carrying the full ProcessingResult. One request
// maps to one run for the lifetime of the connection; a client disconnect
// does not stop the server-side run.
func (h *ApplicationHandler) ProcessVideo(c *fiber.Ctx) error {
	payload := new(ProcessVideoRequest)
	if err := c.BodyParser(payload); err != nil {
		h.Logger.Errorf("Error parsing process-video payload: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		h.Logger.Errorf("Validation error for process-video payload: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Validation failed: %v", utils.FormatValidationErrors(err)))
	}

	videoURL := payload.VideoURL
	h.Logger.WithField("video_url", videoURL).Info("Processing video request received")

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	proc := h.Processor
	logger := h.Logger
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		writeEvent(w, fiber.Map{
			"type":    "connected",
			"message": "Connected to processing server",
		})

		sendLog := func(level, message string) {
			writeEvent(w, fiber.Map{
				"type":      "log",
				"level":     level,
				"message":   message,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		}

		onProgress := func(stage string, progress int, message string) {
			if message == "" {
				message = stage
			}
			logger.WithFields(map[string]interface{}{
				"stage":    stage,
				"progress": progress,
			}).Info(message)
			writeEvent(w, fiber.Map{
				"type":      "progress",
				"stage":     stage,
				"progress":  progress,
				"message":   message,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		}

		sendLog("info", "Starting video processing pipeline...")

		result := proc.ProcessVideo(context.Background(), videoURL, onProgress)

		if result.Success {
			sendLog("success", fmt.Sprintf("Processing completed! Found %d clips", clipCount(result)))
		} else {
			sendLog("error", fmt.Sprintf("Processing failed: %s", result.Error))
		}

		writeEvent(w, fiber.Map{
			"type":      "complete",
			"result":    result,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	return nil
}

// writeEvent sends one SSE frame. Write errors mean the client went away;
// the run keeps going regardless, so they are dropped.
func writeEvent(w *bufio.Writer, payload fiber.Map) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	_ = w.Flush()
}

func clipCount(result models.ProcessingResult) int {
	if result.AnalysisResult == nil {
		return 0
	}
	return len(result.AnalysisResult.Clips)
}
