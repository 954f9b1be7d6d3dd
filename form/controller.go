// Package form implements the headless become-a-guide wizard: page
// navigation, draft autosave, preview mode and the one-shot submission
// flow. Rendering and network I/O are injected collaborators; the
// controller only owns state.
package form

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/wanderly/guide-apply/log"
	"github.com/wanderly/guide-apply/model"
)

// TotalPages is the fixed length of the wizard page sequence.
const TotalPages = 6

// Mode of the wizard surface.
type Mode int

const (
	Editing Mode = iota
	Previewing
)

// GuardState tracks the one-shot submission guard. Once armed it never
// returns to idle: a failed submit leaves it in flight so a reload is the
// only retry path, and a completed submit is terminal. This keeps a
// double-invoked render pass (or an impatient double click) from creating
// two applications on the server.
type GuardState int

const (
	GuardIdle GuardState = iota
	GuardInFlight
	GuardCompleted
)

// Controller drives one wizard instance. It is not safe for concurrent
// use; all calls are expected from a single UI goroutine.
type Controller struct {
	drafts    DraftStore
	uploads   Uploader
	submitter Submitter
	hooks     Hooks

	values model.FormValues

	page         int
	mode         Mode
	acknowledged bool
	missing      []string

	guard GuardState
	token uuid.UUID

	saving bool
	now    func() time.Time
}

// New builds a controller over the injected collaborators and restores a
// previously saved draft if the store has one. A broken draft store is
// not fatal; the wizard just starts blank. drafts and uploads may be nil
// when the host has no persistence or attachments; a nil submitter is
// reported through the error hook on the first submit attempt, before
// the guard is armed.
func New(drafts DraftStore, uploads Uploader, submitter Submitter, hooks Hooks) *Controller {
	c := &Controller{
		drafts:    drafts,
		uploads:   uploads,
		submitter: submitter,
		hooks:     hooks,
		page:      1,
		now:       time.Now,
	}

	if drafts != nil {
		draft, err := drafts.Load()
		if err != nil {
			log.Debugf("form.draft.load: %s", err)
		} else if draft != nil {
			c.values = draft.Values
		}
	}
	return c
}

func (c *Controller) Page() int                { return c.page }
func (c *Controller) Mode() Mode               { return c.mode }
func (c *Controller) Guard() GuardState        { return c.guard }
func (c *Controller) Values() model.FormValues { return c.values }
func (c *Controller) IsSaving() bool           { return c.saving }

// MissingFields returns the labels recorded by the last eligibility pass.
func (c *Controller) MissingFields() []string { return c.missing }

// Edit applies a field mutation to the working answer set.
func (c *Controller) Edit(mutate func(v *model.FormValues)) {
	mutate(&c.values)
}

// Acknowledge records whether the applicant ticked the final
// confirmation. Submission is blocked until this is true.
func (c *Controller) Acknowledge(ok bool) {
	c.acknowledged = ok
}

// NextPage advances the wizard one page. The current answers are
// autosaved best-effort first; a failed autosave never blocks navigation.
func (c *Controller) NextPage() {
	if c.page >= TotalPages {
		return
	}
	c.autosave()
	c.page++
}

// PrevPage steps back one page. No autosave on the way back.
func (c *Controller) PrevPage() {
	if c.page <= 1 {
		return
	}
	c.page--
}

// GoToPreview switches to the read-only preview after a best-effort
// autosave. Preview is reachable from any page; completeness is only
// enforced at submit time.
func (c *Controller) GoToPreview() {
	c.autosave()
	c.mode = Previewing
}

// BackToForm returns from preview to the page the applicant left off on.
func (c *Controller) BackToForm() {
	c.mode = Editing
}

// SaveDraft persists the current answers verbatim through the draft
// store. Errors are reported through the error hook and logged, never
// returned; a failed save must not interrupt whatever the applicant was
// doing.
func (c *Controller) SaveDraft() {
	if c.drafts == nil {
		return
	}
	c.saving = true
	defer func() { c.saving = false }()

	draft := model.FormDraft{Values: c.values, SavedAt: c.now()}
	if err := c.drafts.Save(draft); err != nil {
		log.Warnf("form.draft.save: %s", err)
		c.hooks.failure(errors.Wrap(err, "save draft"))
		return
	}
	c.hooks.draftSaved(draft)
}

// autosave is the swallow-everything variant used by navigation.
func (c *Controller) autosave() {
	if c.drafts == nil {
		return
	}
	draft := model.FormDraft{Values: c.values, SavedAt: c.now()}
	if err := c.drafts.Save(draft); err != nil {
		log.Debugf("form.draft.autosave: %s", err)
	}
}

// ClearDraft drops the persisted draft on explicit applicant request.
func (c *Controller) ClearDraft() {
	if c.drafts == nil {
		return
	}
	if err := c.drafts.Clear(); err != nil {
		log.Warnf("form.draft.clear: %s", err)
	}
}

// Submit runs the one-shot submission flow and reports whether the server
// acknowledged the application.
//
// Preconditions: the confirmation is acknowledged, the completeness table
// passes, and the guard is idle. A duplicate call while a submission is
// in flight or already completed is a silent no-op. Once the guard is
// armed, attachment uploads are resolved before the payload is built;
// any failure from that point on goes to the error hook exactly once and
// leaves the guard in flight, so the attempt cannot be silently retried
// with half its side effects already applied.
func (c *Controller) Submit(ctx context.Context) bool {
	if c.guard != GuardIdle {
		log.Debugf("form.submit: ignoring duplicate call (guard=%d)", c.guard)
		return false
	}
	if !c.acknowledged {
		return false
	}
	if c.missing = MissingFields(c.values); len(c.missing) > 0 {
		return false
	}
	if c.submitter == nil {
		c.hooks.failure(errors.New("no submitter configured"))
		return false
	}

	token, err := uuid.NewV4()
	if err != nil {
		c.hooks.failure(errors.Wrap(err, "mint submission token"))
		return false
	}
	c.token = token
	c.guard = GuardInFlight

	if err := c.resolveAttachments(ctx); err != nil {
		c.hooks.failure(errors.Wrap(err, "upload qualification"))
		return false
	}

	result, err := c.submitter.Submit(ctx, c.values)
	if err != nil {
		c.hooks.failure(errors.Wrapf(err, "submit application (token %s)", c.token))
		return false
	}

	c.guard = GuardCompleted
	if c.drafts != nil {
		if err := c.drafts.Clear(); err != nil {
			log.Warnf("form.submit.clear_draft: %s", err)
		}
	}
	c.hooks.success(result, c.values)
	return true
}

// resolveAttachments uploads every qualification document that does not
// have a durable URL yet. Already uploaded files are left alone so a
// preview-edit-preview loop does not duplicate them server-side.
func (c *Controller) resolveAttachments(ctx context.Context) error {
	for i := range c.values.Qualifications {
		att := &c.values.Qualifications[i]
		if att.Uploaded {
			continue
		}
		if c.uploads == nil {
			return errors.Errorf("no uploader configured for %s", att.Filename)
		}
		fileID, publicURL, err := c.uploads.Upload(ctx, att.Data, att.Filename)
		if err != nil {
			return errors.Wrapf(err, "%s", att.Filename)
		}
		att.FileID = fileID
		att.PublicURL = publicURL
		att.Uploaded = true
		att.Data = nil
	}
	return nil
}
