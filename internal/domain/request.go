package domain

// Request is the validated input for a generation job. Image and edit jobs
// use Prompt, Model, AspectRatio and ReferenceImages; video jobs additionally
// carry Resolution and DurationSeconds.
type Request struct {
	Prompt          string
	Model           string
	AspectRatio     string
	Resolution      string
	DurationSeconds int
	ReferenceImages []ReferenceImage
}

// ReferenceImage is an input asset attached to an edit or video request.
type ReferenceImage struct {
	MimeType string
	Data     []byte
}
