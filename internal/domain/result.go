package domain

import "time"

// Artifact is one generated output held inline.
type Artifact struct {
	MediaType string
	Data      []byte
}

// Remote points at a provider-hosted artifact that must be fetched on demand.
// ExpiresAt is the provider's own retention deadline for the hosted file,
// independent of the job's retention window.
type Remote struct {
	URI       string
	MediaType string
	ExpiresAt time.Time
}

// Result is the success payload of a completed job: either a list of inline
// artifacts or a single remote reference.
type Result struct {
	Artifacts []Artifact
	Remote    *Remote
}

// ArtifactCount returns how many artifacts a download call can index into.
func (r *Result) ArtifactCount() int {
	if r == nil {
		return 0
	}
	if r.Remote != nil {
		return 1
	}
	return len(r.Artifacts)
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{}
	if len(r.Artifacts) > 0 {
		out.Artifacts = make([]Artifact, len(r.Artifacts))
		copy(out.Artifacts, r.Artifacts)
	}
	if r.Remote != nil {
		remote := *r.Remote
		out.Remote = &remote
	}
	return out
}
