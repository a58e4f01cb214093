package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gaslytics/backend/models"
)

// Validation is the outcome of checking an analysis payload against the clip
// schema the detection prompt asks the model for.
type Validation struct {
	IsValid bool
	Error   string
	Data    *models.AnalysisResult
}

// timecodeRe checks format only, not value ranges: "00:00:60.00" passes. The
// upstream model occasionally emits out-of-range components and tightening
// here would reject otherwise usable results, so the leniency is kept.
var timecodeRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d{2})?$`)

var requiredClipFields = []string{
	"startTime", "endTime", "transcript", "tactic", "justification", "confidence", "solution",
}

// ValidateAnalysisData validates a decoded analysis payload. Rules run in
// order and the first failure wins. A payload that self-identifies as raw
// (unparsed) model output is accepted unchanged. On success the returned data
// contains only the seven canonical fields per clip; extra input fields are
// dropped. The function is pure and idempotent: re-validating its own output
// yields an identical result.
func ValidateAnalysisData(data any) Validation {
	obj, ok := asObject(data)
	if !ok {
		return Validation{Error: "Analysis data must be an object"}
	}

	if raw, present := obj["raw"]; present && truthy(raw) {
		return Validation{IsValid: true, Data: &models.AnalysisResult{Raw: stringify(raw)}}
	}

	clipsVal, present := obj["clips"]
	clips, isArray := clipsVal.([]any)
	if !present || !isArray {
		return Validation{Error: `Analysis data must contain a "clips" array`}
	}

	validated := make([]models.Clip, 0, len(clips))
	for i, el := range clips {
		clip, err := validateClip(el, i+1)
		if err != nil {
			return Validation{Error: err.Error()}
		}
		validated = append(validated, clip)
	}

	return Validation{IsValid: true, Data: &models.AnalysisResult{Clips: validated}}
}

// validateClip checks one clip entry. idx is 1-based and names the offending
// entry in every error.
func validateClip(el any, idx int) (models.Clip, error) {
	clip, ok := el.(map[string]any)
	if !ok {
		clip = nil
	}

	for _, field := range requiredClipFields {
		v, present := clip[field]
		if !present || v == nil {
			return models.Clip{}, fmt.Errorf(
				"Clip %d is missing required fields. Required: %s",
				idx, strings.Join(requiredClipFields, ", "))
		}
		if s, isStr := v.(string); isStr && s == "" {
			return models.Clip{}, fmt.Errorf(
				"Clip %d is missing required fields. Required: %s",
				idx, strings.Join(requiredClipFields, ", "))
		}
	}

	start, startOK := clip["startTime"].(string)
	end, endOK := clip["endTime"].(string)
	if !startOK || !endOK || !timecodeRe.MatchString(start) || !timecodeRe.MatchString(end) {
		return models.Clip{}, fmt.Errorf(
			"Clip %d has invalid time format. Expected: HH:MM:SS.ss or HH:MM:SS", idx)
	}

	tactic, tacticOK := clip["tactic"].(string)
	if !tacticOK || !isValidTactic(tactic) {
		return models.Clip{}, fmt.Errorf(
			"Clip %d has invalid tactic. Allowed: %s", idx, strings.Join(models.ValidTactics, ", "))
	}

	confidence, confOK := asNumber(clip["confidence"])
	if !confOK || confidence < 0 || confidence > 100 {
		return models.Clip{}, fmt.Errorf(
			"Clip %d has invalid confidence. Must be a number between 0-100", idx)
	}

	transcript, trOK := clip["transcript"].(string)
	justification, juOK := clip["justification"].(string)
	solution, soOK := clip["solution"].(string)
	if !trOK || !juOK || !soOK {
		return models.Clip{}, fmt.Errorf(
			"Clip %d has invalid field types. transcript, justification, and solution must be strings", idx)
	}

	return models.Clip{
		StartTime:     start,
		EndTime:       end,
		Transcript:    transcript,
		Tactic:        tactic,
		Justification: justification,
		Confidence:    confidence,
		Solution:      solution,
	}, nil
}

// asObject coerces the input into a generic JSON object. Typed values such as
// *models.AnalysisResult round-trip through JSON so re-validation of already
// validated data hits the same code path.
func asObject(data any) (map[string]any, bool) {
	if data == nil {
		return nil, false
	}
	if m, ok := data.(map[string]any); ok {
		return m, true
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func isValidTactic(tactic string) bool {
	for _, t := range models.ValidTactics {
		if tactic == t {
			return true
		}
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
