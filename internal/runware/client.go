// Package runware is a minimal client for Runware text-to-image inference.
package runware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/httpclient"
)

const (
	defaultSteps = 30
	taskType     = "imageInference"
)

// ErrNoImages is returned when a response decodes but carries no images.
var ErrNoImages = errors.New("runware returned no images")

type Size struct {
	Width  int
	Height int
}

var aspectSizes = map[string]Size{
	"1:1":  {1024, 1024},
	"3:2":  {1152, 768},
	"2:3":  {768, 1152},
	"4:3":  {1024, 768},
	"3:4":  {768, 1024},
	"16:9": {1280, 704},
	"9:16": {704, 1280},
}

// SizeFor maps an aspect ratio to pixel dimensions; unknown ratios fall back to 1:1.
func SizeFor(aspectRatio string) Size {
	if s, ok := aspectSizes[strings.TrimSpace(aspectRatio)]; ok {
		return s
	}
	return aspectSizes["1:1"]
}

type Request struct {
	Prompt      string
	AspectRatio string
	NumImages   int
	Steps       int
}

type Image struct {
	TaskUUID  string `json:"taskUUID,omitempty"`
	ImageUUID string `json:"imageUUID,omitempty"`
	ImageURL  string `json:"imageURL"`
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, apiKey, model string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		log:        log,
	}
}

type inferenceTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	Model          string `json:"model"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Steps          int    `json:"steps"`
	NumberResults  int    `json:"numberResults"`
	OutputType     string `json:"outputType"`
	IncludeCost    bool   `json:"includeCost"`
}

func (c *Client) newTask(req Request) inferenceTask {
	size := SizeFor(req.AspectRatio)
	steps := req.Steps
	if steps <= 0 {
		steps = defaultSteps
	}
	n := req.NumImages
	if n <= 0 {
		n = 1
	}
	return inferenceTask{
		TaskType:       taskType,
		TaskUUID:       uuid.NewString(),
		PositivePrompt: req.Prompt,
		Model:          c.model,
		Width:          size.Width,
		Height:         size.Height,
		Steps:          steps,
		NumberResults:  n,
		OutputType:     "URL",
	}
}

// Generate runs one inference task and returns the decoded response.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	task := c.newTask(req)
	body, err := json.Marshal([]inferenceTask{task})
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.log.Info("runware inference", zap.String("task_uuid", task.TaskUUID), zap.String("model", task.Model), zap.Int("images", task.NumberResults))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post runware: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		c.log.Error("runware request failed", zap.Int("status", resp.StatusCode), zap.String("body", httpclient.TruncateBody(rawBody)))
		return nil, fmt.Errorf("runware error: status=%d body=%s", resp.StatusCode, httpclient.TruncateBody(rawBody))
	}

	result, err := DecodeResult(rawBody)
	if err != nil {
		return nil, fmt.Errorf("decode runware response: %w (body=%s)", err, httpclient.TruncateBody(rawBody))
	}
	images := len(result.Images())
	c.log.Debug("runware response", zap.Stringer("shape", result.shape), zap.Int("images", images))
	if images == 0 {
		return nil, ErrNoImages
	}
	return result, nil
}
