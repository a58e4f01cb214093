package models

// Clip is one detected manipulation instance in a conversation video. The
// record is produced by the external video-analysis model and carried through
// unchanged; timestamps are fixed-point timecodes (HH:MM:SS or HH:MM:SS.ss).
type Clip struct {
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	Transcript    string  `json:"transcript"`
	Tactic        string  `json:"tactic"`
	Justification string  `json:"justification"`
	Confidence    float64 `json:"confidence"`
	Solution      string  `json:"solution"`
}

// ValidTactics are the six manipulation-pattern categories the analysis
// prompt asks for. The strings are part of the wire contract with the model.
var ValidTactics = []string{
	"Gaslighting",
	"Blame-shifting",
	"Emotional blackmail",
	"Self-presentation as victim",
	"Exaggeration / overstatement",
	"Dominance & control",
}
