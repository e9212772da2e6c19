// Package validate checks generation requests before a job is admitted. A
// validation failure never produces a job record, which keeps "bad request"
// distinct from "admitted job that later failed".
package validate

import (
	"fmt"
	"unicode/utf8"

	"mediaforge/internal/domain"
)

const (
	MinPromptLen = 3
	MaxPromptLen = 2000

	MaxEditReferences  = 3
	MaxVideoReferences = 1
)

// Error names the violated constraint. It is the only error type returned by
// this package.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

var imageModels = map[string]bool{
	"gemini-2.5-flash-image":  true,
	"imagen-4.0-generate-001": true,
}

var editModels = map[string]bool{
	"gemini-2.5-flash-image": true,
}

var videoModels = map[string]bool{
	"veo-3.0-generate-001": true,
	"veo-2.0-generate-001": true,
}

var imageAspectRatios = map[string]bool{
	"1:1": true, "3:4": true, "4:3": true, "9:16": true, "16:9": true,
}

var videoAspectRatios = map[string]bool{
	"16:9": true, "9:16": true,
}

// videoDurations maps an output resolution to its allowed clip lengths in
// seconds. 1080p encoding is only offered for 8 second clips.
var videoDurations = map[string][]int{
	"720p":  {4, 6, 8},
	"1080p": {8},
}

// Request validates req against the rules of the given backend.
func Request(backend domain.Backend, req domain.Request) error {
	switch backend {
	case domain.BackendImage:
		return Image(req)
	case domain.BackendEdit:
		return Edit(req)
	case domain.BackendVideo:
		return Video(req)
	}
	return domain.ErrUnknownBackend
}

// Image validates a text-to-image request.
func Image(req domain.Request) error {
	if err := prompt(req.Prompt); err != nil {
		return err
	}
	if !imageModels[req.Model] {
		return invalid("model", "%q is not a supported image model", req.Model)
	}
	if !imageAspectRatios[req.AspectRatio] {
		return invalid("aspect_ratio", "%q is not a supported aspect ratio", req.AspectRatio)
	}
	if len(req.ReferenceImages) > 0 {
		return invalid("reference_images", "image generation does not accept reference images")
	}
	return nil
}

// Edit validates an image-editing request.
func Edit(req domain.Request) error {
	if err := prompt(req.Prompt); err != nil {
		return err
	}
	if !editModels[req.Model] {
		return invalid("model", "%q is not a supported edit model", req.Model)
	}
	if !imageAspectRatios[req.AspectRatio] {
		return invalid("aspect_ratio", "%q is not a supported aspect ratio", req.AspectRatio)
	}
	if n := len(req.ReferenceImages); n == 0 {
		return invalid("reference_images", "editing requires at least one reference image")
	} else if n > MaxEditReferences {
		return invalid("reference_images", "at most %d reference images allowed, got %d", MaxEditReferences, n)
	}
	return nil
}

// Video validates a text/image-to-video request.
func Video(req domain.Request) error {
	if err := prompt(req.Prompt); err != nil {
		return err
	}
	if !videoModels[req.Model] {
		return invalid("model", "%q is not a supported video model", req.Model)
	}
	if !videoAspectRatios[req.AspectRatio] {
		return invalid("aspect_ratio", "%q is not a supported video aspect ratio", req.AspectRatio)
	}
	durations, ok := videoDurations[req.Resolution]
	if !ok {
		return invalid("resolution", "%q is not a supported resolution", req.Resolution)
	}
	if !containsInt(durations, req.DurationSeconds) {
		return invalid("duration_seconds", "%ds is not available at %s", req.DurationSeconds, req.Resolution)
	}
	if n := len(req.ReferenceImages); n > MaxVideoReferences {
		return invalid("reference_images", "at most %d reference image allowed, got %d", MaxVideoReferences, n)
	}
	return nil
}

func prompt(p string) error {
	n := utf8.RuneCountInString(p)
	if n < MinPromptLen {
		return invalid("prompt", "must be at least %d characters", MinPromptLen)
	}
	if n > MaxPromptLen {
		return invalid("prompt", "must be at most %d characters", MaxPromptLen)
	}
	return nil
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
