package runware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// shape tags which response layout a Result was decoded from.
type shape int

const (
	shapeList shape = iota + 1
	shapeEnvelope
)

func (s shape) String() string {
	switch s {
	case shapeList:
		return "list"
	case shapeEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// Result is either a bare image array or an object wrapping one under data or images.
type Result struct {
	shape  shape
	list   []Image
	errors []APIError
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Images returns the images with a URL, whatever the response shape was.
func (r *Result) Images() []Image {
	if r == nil {
		return nil
	}
	out := make([]Image, 0, len(r.list))
	for _, img := range r.list {
		if img.ImageURL != "" {
			out = append(out, img)
		}
	}
	return out
}

// DecodeResult inspects the first JSON token to pick the variant.
func DecodeResult(raw []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	switch trimmed[0] {
	case '[':
		var list []Image
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return &Result{shape: shapeList, list: list}, nil
	case '{':
		var env struct {
			Data   []Image    `json:"data"`
			Images []Image    `json:"images"`
			Errors []APIError `json:"errors"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if len(env.Errors) > 0 && len(env.Data) == 0 && len(env.Images) == 0 {
			return nil, fmt.Errorf("runware rejected task: %s", joinErrors(env.Errors))
		}
		list := env.Data
		if len(list) == 0 {
			list = env.Images
		}
		return &Result{shape: shapeEnvelope, list: list, errors: env.Errors}, nil
	default:
		return nil, fmt.Errorf("unexpected response shape starting with %q", trimmed[0])
	}
}

func joinErrors(errs []APIError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, strings.TrimSpace(e.Code+" "+e.Message))
	}
	return strings.Join(parts, "; ")
}
