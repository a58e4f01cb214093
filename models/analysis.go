package models

import (
	"encoding/json"
	"errors"
)

// AnalysisResult is the outcome of analyzing one video: either a validated
// clip list (optionally enriched with narrative insights) or, when the model
// output could not be parsed as structured JSON upstream, the raw text. The
// two variants are mutually exclusive.
type AnalysisResult struct {
	Clips               []Clip
	Summary             string
	MediatorPerspective string
	Raw                 string
}

// IsRaw reports whether this result carries unparsed model output.
func (r AnalysisResult) IsRaw() bool {
	return r.Raw != ""
}

type analysisResultJSON struct {
	Clips               []Clip `json:"clips,omitempty"`
	Summary             string `json:"summary,omitempty"`
	MediatorPerspective string `json:"mediatorPerspective,omitempty"`
	Raw                 string `json:"raw,omitempty"`
}

// MarshalJSON writes only the active variant so the persisted document is
// always {"clips": ...} or {"raw": ...}, never both.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	if r.IsRaw() {
		return json.Marshal(analysisResultJSON{Raw: r.Raw})
	}
	clips := r.Clips
	if clips == nil {
		clips = []Clip{}
	}
	return json.Marshal(analysisResultJSON{
		Clips:               clips,
		Summary:             r.Summary,
		MediatorPerspective: r.MediatorPerspective,
	})
}

func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var aux analysisResultJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Raw != "" && aux.Clips != nil {
		return errors.New("analysis result cannot carry both clips and raw data")
	}
	r.Clips = aux.Clips
	r.Summary = aux.Summary
	r.MediatorPerspective = aux.MediatorPerspective
	r.Raw = aux.Raw
	return nil
}

// ProcessingResult is the outcome of one end-to-end orchestration run. It is
// built once, returned, and never mutated afterward.
type ProcessingResult struct {
	Success        bool            `json:"success"`
	VideoID        string          `json:"videoId,omitempty"`
	IndexID        string          `json:"indexId,omitempty"`
	AnalysisResult *AnalysisResult `json:"analysisResult,omitempty"`
	Error          string          `json:"error,omitempty"`
}
