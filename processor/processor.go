package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"gaslytics/backend/analysis"
	"gaslytics/backend/gemini"
	"gaslytics/backend/models"
	"gaslytics/backend/twelvelabs"
)

// ProgressFunc receives stage transitions during one orchestration run.
// Progress is a 0-100 percentage; message is optional human-readable detail.
type ProgressFunc func(stage string, progress int, message string)

// VideoAnalyzer is the slice of the TwelveLabs client the processor needs.
type VideoAnalyzer interface {
	CreateTask(ctx context.Context, indexID, videoURL string) (twelvelabs.Task, error)
	WaitForDone(ctx context.Context, taskID string, onStatus func(twelvelabs.Task)) (twelvelabs.Task, error)
	Analyze(ctx context.Context, videoID, prompt string) (string, error)
}

// InsightsGenerator produces the optional narrative summary from validated
// clips. A nil generator disables the step.
type InsightsGenerator interface {
	GenerateInsights(ctx context.Context, clips []models.Clip) (gemini.Insights, error)
}

// Processor drives one video URL through indexing, tactic analysis, schema
// validation and the optional insights step. Steps run strictly sequentially;
// the first failure short-circuits into a failed ProcessingResult. Nothing is
// retried at this layer.
type Processor struct {
	video    VideoAnalyzer
	insights InsightsGenerator
	indexID  string
	logger   *logrus.Logger
}

func New(video VideoAnalyzer, insights InsightsGenerator, indexID string, logger *logrus.Logger) *Processor {
	return &Processor{
		video:    video,
		insights: insights,
		indexID:  indexID,
		logger:   logger,
	}
}

// ProcessVideo runs one complete orchestration for videoURL. The returned
// result is a value: built once, never mutated afterward.
func (p *Processor) ProcessVideo(ctx context.Context, videoURL string, progress ProgressFunc) models.ProcessingResult {
	notify := progress
	if notify == nil {
		notify = func(string, int, string) {}
	}

	log := p.logger.WithField("video_url", videoURL)
	log.Info("Starting video processing")
	notify("Initializing TwelveLabs client", 5, "Setting up API connection...")
	notify("Client initialized", 10, "TwelveLabs API client ready")

	notify("Uploading video to TwelveLabs", 15, "Sending video URL to TwelveLabs for processing...")
	task, err := p.video.CreateTask(ctx, p.indexID, videoURL)
	if err != nil {
		msg := friendlyError(err)
		log.WithError(err).Error("Task creation failed")
		notify("Error", 0, msg)
		return models.ProcessingResult{Success: false, Error: msg}
	}
	log.WithField("task_id", task.ID).Info("Upload task created")
	notify("Video uploaded", 25, fmt.Sprintf("Task created with ID: %s", task.ID))

	notify("Processing video", 30, "TwelveLabs is indexing the video...")
	task, err = p.video.WaitForDone(ctx, task.ID, func(t twelvelabs.Task) {
		log.WithField("status", t.Status).Info("Task status changed")
		switch t.Status {
		case "pending":
			notify("Queued", 35, "Video queued for processing...")
		case "validating":
			notify("Validating", 40, "Validating uploaded video...")
		case "indexing":
			notify("Indexing video", 50, "TwelveLabs is analyzing video content...")
		}
	})
	if err != nil {
		msg := friendlyError(err)
		log.WithError(err).Error("Polling for task completion failed")
		notify("Error", 0, msg)
		return models.ProcessingResult{Success: false, Error: msg}
	}

	if task.Status != "ready" {
		msg := fmt.Sprintf("Indexing failed with status %s", task.Status)
		log.Error(msg)
		notify("Error", 0, fmt.Sprintf("Processing failed: %s", task.Status))
		return models.ProcessingResult{Success: false, Error: msg}
	}
	log.WithField("video_id", task.VideoID).Info("Video indexed")
	notify("Video ready", 65, fmt.Sprintf("Video successfully indexed with ID: %s", task.VideoID))

	notify("Starting analysis", 75, "Running AI analysis for manipulation detection...")
	rawResult, err := p.video.Analyze(ctx, task.VideoID, analysisPrompt)
	if err != nil {
		msg := fmt.Sprintf("Analysis failed: %s", friendlyError(err))
		log.WithError(err).Error("Analysis call failed")
		notify("Analysis failed", 0, msg)
		return models.ProcessingResult{Success: false, Error: msg}
	}
	notify("Analysis complete", 90, "AI analysis finished, parsing results...")

	// The model tends to wrap its JSON in Markdown fences; strip them before
	// parsing. An unparseable response fails the whole run: no partial result
	// is returned and the insights step never fires.
	cleaned := gemini.StripCodeFences(rawResult)
	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		msg := fmt.Sprintf("Could not parse analysis result as JSON: %v", err)
		log.WithError(err).Error("Analysis result parse failed")
		notify("Error", 0, msg)
		return models.ProcessingResult{Success: false, Error: msg}
	}

	validation := analysis.ValidateAnalysisData(parsed)
	if !validation.IsValid {
		msg := fmt.Sprintf("Analysis data validation failed: %s", validation.Error)
		log.Error(msg)
		notify("Error", 0, msg)
		return models.ProcessingResult{Success: false, Error: msg}
	}
	result := validation.Data
	notify("Results parsed", 95, fmt.Sprintf("Found %d manipulation instances", len(result.Clips)))

	if p.insights != nil && !result.IsRaw() && len(result.Clips) > 0 {
		notify("Generating insights", 97, "Requesting conversation summary...")
		insights, err := p.insights.GenerateInsights(ctx, result.Clips)
		if err != nil {
			// Insights are an enrichment: losing them must not discard a
			// validated analysis.
			log.WithError(err).Warn("Insights generation failed, continuing without summary")
		} else {
			result.Summary = insights.Summary
			result.MediatorPerspective = insights.MediatorPerspective
		}
	}

	notify("Complete", 100, "Video analysis completed successfully!")
	log.Info("Video processing completed")

	return models.ProcessingResult{
		Success:        true,
		VideoID:        task.VideoID,
		IndexID:        p.indexID,
		AnalysisResult: result,
	}
}

// friendlyError maps common HTTP status codes buried in external-service
// errors to actionable messages. Advisory only; nothing retries on it.
func friendlyError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"):
		return "Authentication error - please check API key"
	case strings.Contains(msg, "400"):
		return "Bad request - please check request parameters"
	case strings.Contains(msg, "429"):
		return "Rate limit exceeded - please try again later"
	default:
		return msg
	}
}
