package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gaslytics/backend/models"
)

// Insights is the two-field narrative the counselor prompt asks for.
type Insights struct {
	Summary             string `json:"summary"`
	MediatorPerspective string `json:"mediatorPerspective"`
}

// Client calls the Gemini generateContent API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

const defaultModel = "gemini-1.5-flash"

func New(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   defaultModel,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateInsights sends the validated clip list to the model and returns the
// conversation summary and mediator perspective. The model is instructed to
// answer with a single JSON object; code fences around it are tolerated.
func (c *Client) GenerateInsights(ctx context.Context, clips []models.Clip) (Insights, error) {
	if len(clips) == 0 {
		return Insights{}, errors.New("cannot generate insights from empty analysis")
	}

	prompt, err := buildPrompt(clips)
	if err != nil {
		return Insights{}, err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return Insights{}, fmt.Errorf("marshal request: %w", err)
	}

	// The key goes in a header, never the URL: transport errors embed the
	// full URL and would otherwise leak it into logs.
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Insights{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Insights{}, errors.New(redact(err.Error(), c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(resp.Body)
		return Insights{}, fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(redact(string(rb), c.apiKey), 400))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Insights{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Insights{}, errors.New("gemini returned no candidates")
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	cleaned := StripCodeFences(text)

	var insights Insights
	if err := json.Unmarshal([]byte(cleaned), &insights); err != nil {
		return Insights{}, fmt.Errorf("gemini response is not valid JSON: %w", err)
	}
	if insights.Summary == "" || insights.MediatorPerspective == "" {
		return Insights{}, errors.New("invalid response format from Gemini API")
	}
	return insights, nil
}

func buildPrompt(clips []models.Clip) (string, error) {
	clipsJSON, err := json.MarshalIndent(clips, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal clips: %w", err)
	}
	return `You are an expert relationship counselor and communication analyst.
Based on the following JSON data which contains transcribed clips of a conversation, please provide:
1.  **Conversation Summary**: A brief, neutral summary of the entire conversation's dynamics and key topics.
2.  **Mediator's Perspective**: A compassionate and insightful perspective as a neutral mediator. Offer advice on how the participants could have communicated more effectively and suggest a path toward resolution.

Here is the analysis data:
` + "```json\n" + string(clipsJSON) + "\n```" + `

Please format your response as a single JSON object with two keys: "summary" and "mediatorPerspective".
Do not include the names of the speakers.`, nil
}

// StripCodeFences removes Markdown ``` and ```json wrappers a model commonly
// puts around JSON output.
func StripCodeFences(s string) string {
	t := strings.ReplaceAll(s, "```json", "")
	t = strings.ReplaceAll(t, "```", "")
	return strings.TrimSpace(t)
}

func redact(s, apiKey string) string {
	if apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, apiKey, "[REDACTED]")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
