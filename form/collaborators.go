package form

import (
	"context"

	"github.com/wanderly/guide-apply/model"
)

// DraftStore persists in-progress answers between visits. Implementations
// are single-writer per wizard instance; concurrent writers racing on the
// same key are resolved last-write-wins.
type DraftStore interface {
	Load() (*model.FormDraft, error)
	Save(draft model.FormDraft) error
	Clear() error
}

// Uploader resolves a pending attachment to a durable file.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (fileID, publicURL string, err error)
}

// Submitter delivers the finished application to the server and returns
// the canonical acknowledgment. Adapters own any normalization of
// inconsistent upstream response shapes.
type Submitter interface {
	Submit(ctx context.Context, values model.FormValues) (model.SubmissionResult, error)
}

// Hooks are fire-and-forget notifications to the surrounding UI. Any of
// them may be nil.
type Hooks struct {
	OnSuccess    func(result model.SubmissionResult, values model.FormValues)
	OnError      func(err error)
	OnDraftSaved func(draft model.FormDraft)
}

func (h Hooks) success(result model.SubmissionResult, values model.FormValues) {
	if h.OnSuccess != nil {
		h.OnSuccess(result, values)
	}
}

func (h Hooks) failure(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h Hooks) draftSaved(draft model.FormDraft) {
	if h.OnDraftSaved != nil {
		h.OnDraftSaved(draft)
	}
}
