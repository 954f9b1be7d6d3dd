package form

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/wanderly/guide-apply/draft"
	"github.com/wanderly/guide-apply/model"
)

func completeValues() model.FormValues {
	return model.FormValues{
		Name:            "Ayse Demir",
		Age:             34,
		Sex:             "female",
		City:            "Istanbul",
		Bio:             "Licensed guide since 2015.",
		Occupation:      "Tour guide",
		Zipcode:         "34000",
		ResidenceSince:  "2010-04-01",
		ExperienceYears: 9,
		ToursGiven:      120,
		Languages:       []string{"tr", "en"},
		Services:        []string{"walking-tour"},
		TargetGroups:    []string{"families"},
		MinPeople:       2,
		MaxPeople:       8,
		MinDuration:     60,
		MaxDuration:     240,
		PricePerHour:    40,
		PricePerExtra:   5,
		Currency:        "EUR",
		QuestionAnswers: [5]string{"a", "b", "c", "d", "e"},
	}
}

type fakeSubmitter struct {
	calls  int
	err    error
	result model.SubmissionResult

	// onSubmit lets a test reenter the controller mid-flight.
	onSubmit func()
}

func (s *fakeSubmitter) Submit(ctx context.Context, values model.FormValues) (model.SubmissionResult, error) {
	s.calls++
	if s.onSubmit != nil {
		s.onSubmit()
	}
	if s.err != nil {
		return model.SubmissionResult{}, s.err
	}
	return s.result, nil
}

type fakeUploader struct {
	calls    int
	err      error
	onUpload func()
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte, filename string) (string, string, error) {
	u.calls++
	if u.onUpload != nil {
		u.onUpload()
	}
	if u.err != nil {
		return "", "", u.err
	}
	return fmt.Sprintf("file-%d", u.calls), "https://files.example.com/" + filename, nil
}

func newTestController(submitter Submitter, uploader Uploader, hooks Hooks) *Controller {
	c := New(draft.NewMemoryStore(), uploader, submitter, hooks)
	c.Edit(func(v *model.FormValues) { *v = completeValues() })
	c.Acknowledge(true)
	return c
}

func TestNavigationBounds(t *testing.T) {
	c := New(draft.NewMemoryStore(), nil, nil, Hooks{})

	c.PrevPage()
	if c.Page() != 1 {
		t.Errorf("PrevPage on first page moved to %d", c.Page())
	}

	for i := 0; i < TotalPages+3; i++ {
		c.NextPage()
	}
	if c.Page() != TotalPages {
		t.Errorf("NextPage overshot to %d, want %d", c.Page(), TotalPages)
	}

	c.PrevPage()
	if c.Page() != TotalPages-1 {
		t.Errorf("PrevPage moved to %d", c.Page())
	}
}

func TestPreviewToggleKeepsPage(t *testing.T) {
	c := New(draft.NewMemoryStore(), nil, nil, Hooks{})
	c.NextPage()
	c.NextPage()

	c.GoToPreview()
	if c.Mode() != Previewing {
		t.Fatal("expected preview mode")
	}
	c.BackToForm()
	if c.Mode() != Editing || c.Page() != 3 {
		t.Errorf("back to form landed on page %d mode %v", c.Page(), c.Mode())
	}
}

func TestDraftRoundTripThroughNavigation(t *testing.T) {
	store := draft.NewMemoryStore()
	c := New(store, nil, nil, Hooks{})
	c.Edit(func(v *model.FormValues) {
		v.Name = "Ayse Demir"
		v.Languages = []string{"tr"}
	})
	c.NextPage()
	c.Edit(func(v *model.FormValues) { v.City = "Istanbul" })
	c.GoToPreview()

	saved, err := store.Load()
	if err != nil || saved == nil {
		t.Fatalf("load draft: %v %v", saved, err)
	}
	if !reflect.DeepEqual(saved.Values, c.Values()) {
		t.Errorf("draft values diverged from controller:\n got %+v\nwant %+v", saved.Values, c.Values())
	}

	// A fresh controller over the same store picks the draft back up.
	restored := New(store, nil, nil, Hooks{})
	if !reflect.DeepEqual(restored.Values(), c.Values()) {
		t.Error("restored controller should start from the saved draft")
	}
}

func TestAutosaveFailureDoesNotBlockNavigation(t *testing.T) {
	c := New(failingStore{}, nil, nil, Hooks{
		OnError: func(err error) { t.Errorf("autosave failure must stay silent, got %v", err) },
	})
	c.NextPage()
	if c.Page() != 2 {
		t.Errorf("navigation blocked by autosave failure, page=%d", c.Page())
	}
	c.GoToPreview()
	if c.Mode() != Previewing {
		t.Error("preview blocked by autosave failure")
	}
}

type failingStore struct{}

func (failingStore) Load() (*model.FormDraft, error) { return nil, fmt.Errorf("disk gone") }
func (failingStore) Save(model.FormDraft) error      { return fmt.Errorf("disk gone") }
func (failingStore) Clear() error                    { return fmt.Errorf("disk gone") }

func TestSaveDraftReportsErrorsWithoutThrowing(t *testing.T) {
	var reported error
	c := New(failingStore{}, nil, nil, Hooks{OnError: func(err error) { reported = err }})
	c.SaveDraft()
	if reported == nil {
		t.Error("explicit SaveDraft should forward the failure to OnError")
	}
}

func TestMissingFieldsDeterministicOrder(t *testing.T) {
	v := model.FormValues{}
	first := MissingFields(v)
	second := MissingFields(v)
	if !reflect.DeepEqual(first, second) {
		t.Error("MissingFields must be a pure function of its input")
	}
	if len(first) == 0 {
		t.Fatal("empty form should fail many rules")
	}
	if first[0] != "Full name" {
		t.Errorf("labels must come back in table order, got %q first", first[0])
	}
}

func TestMissingFieldsRangeOrdering(t *testing.T) {
	v := completeValues()
	v.MinPeople, v.MaxPeople = 5, 3
	missing := MissingFields(v)
	found := false
	for _, label := range missing {
		if label == "Group size range" {
			found = true
		}
	}
	if !found {
		t.Errorf("minPeople > maxPeople must fail the range rule, got %v", missing)
	}
}

func TestSubmitHappyPath(t *testing.T) {
	store := draft.NewMemoryStore()
	submitter := &fakeSubmitter{result: model.SubmissionResult{ID: 42}}
	var got model.SubmissionResult
	c := New(store, nil, submitter, Hooks{
		OnSuccess: func(result model.SubmissionResult, _ model.FormValues) { got = result },
	})
	c.Edit(func(v *model.FormValues) { *v = completeValues() })
	c.Acknowledge(true)
	c.SaveDraft()

	if !c.Submit(context.Background()) {
		t.Fatal("submit should succeed")
	}
	if c.Guard() != GuardCompleted {
		t.Errorf("guard = %d, want completed", c.Guard())
	}
	if got.ID != 42 {
		t.Errorf("OnSuccess got id %d, want 42", got.ID)
	}
	if remaining, _ := store.Load(); remaining != nil {
		t.Error("draft must be cleared after a verified submit")
	}
}

func TestSubmitBlockedByPreconditions(t *testing.T) {
	submitter := &fakeSubmitter{}

	c := newTestController(submitter, nil, Hooks{})
	c.Acknowledge(false)
	if c.Submit(context.Background()) || submitter.calls != 0 {
		t.Error("submit without confirmation must not reach the server")
	}

	c = newTestController(submitter, nil, Hooks{})
	c.Edit(func(v *model.FormValues) { v.Name = "" })
	if c.Submit(context.Background()) {
		t.Error("incomplete form must not submit")
	}
	if submitter.calls != 0 {
		t.Error("incomplete form must not reach the server")
	}
	if len(c.MissingFields()) == 0 {
		t.Error("blocked submit should surface the missing field labels")
	}
	if c.Guard() != GuardIdle {
		t.Error("validation failure must not arm the guard")
	}
}

func TestSubmitWithoutSubmitterReportsInsteadOfPanicking(t *testing.T) {
	var reported error
	c := New(draft.NewMemoryStore(), nil, nil, Hooks{OnError: func(err error) { reported = err }})
	c.Edit(func(v *model.FormValues) { *v = completeValues() })
	c.Acknowledge(true)

	if c.Submit(context.Background()) {
		t.Fatal("submit without a submitter must fail")
	}
	if reported == nil {
		t.Error("missing submitter should reach OnError")
	}
	if c.Guard() != GuardIdle {
		t.Errorf("guard = %d, want idle (wiring bug, not a submission attempt)", c.Guard())
	}
}

func TestSubmitGuardIsOneShot(t *testing.T) {
	submitter := &fakeSubmitter{result: model.SubmissionResult{ID: 7}}
	c := newTestController(submitter, nil, Hooks{})

	if !c.Submit(context.Background()) {
		t.Fatal("first submit should succeed")
	}
	if c.Submit(context.Background()) {
		t.Error("second submit must be a no-op")
	}
	if submitter.calls != 1 {
		t.Errorf("server saw %d submissions, want 1", submitter.calls)
	}
}

func TestRapidDoubleSubmitDuringUpload(t *testing.T) {
	submitter := &fakeSubmitter{result: model.SubmissionResult{ID: 7}}
	uploader := &fakeUploader{}
	var c *Controller
	// The second call lands while the first is still resolving uploads,
	// the way a double-invoked render pass would issue it.
	uploader.onUpload = func() { c.Submit(context.Background()) }

	c = newTestController(submitter, uploader, Hooks{})
	c.Edit(func(v *model.FormValues) {
		v.Qualifications = []model.Attachment{{Filename: "license.pdf", Data: []byte("pdf")}}
	})

	if !c.Submit(context.Background()) {
		t.Fatal("submit should succeed")
	}
	if submitter.calls != 1 {
		t.Errorf("server saw %d submissions, want 1", submitter.calls)
	}
	if uploader.calls != 1 {
		t.Errorf("uploader saw %d calls, want 1", uploader.calls)
	}
}

func TestUploadFailureLeavesGuardInFlight(t *testing.T) {
	submitter := &fakeSubmitter{}
	uploader := &fakeUploader{err: fmt.Errorf("bucket unavailable")}
	var reported error
	c := newTestController(submitter, uploader, Hooks{OnError: func(err error) { reported = err }})
	c.Edit(func(v *model.FormValues) {
		v.Qualifications = []model.Attachment{{Filename: "license.pdf", Data: []byte("pdf")}}
	})

	if c.Submit(context.Background()) {
		t.Fatal("submit should fail")
	}
	if reported == nil {
		t.Error("upload failure must reach OnError")
	}
	if submitter.calls != 0 {
		t.Error("payload must not be sent after a failed upload")
	}
	if c.Guard() != GuardInFlight {
		t.Errorf("guard = %d, want in-flight (fail closed)", c.Guard())
	}

	// Fail closed: even after the transient error clears, this instance
	// refuses to retry.
	uploader.err = nil
	if c.Submit(context.Background()) || submitter.calls != 0 {
		t.Error("failed attempt must not be retryable without a fresh controller")
	}
}

func TestServerErrorLeavesGuardInFlight(t *testing.T) {
	store := draft.NewMemoryStore()
	submitter := &fakeSubmitter{err: fmt.Errorf("503")}
	var reported error
	c := New(store, nil, submitter, Hooks{OnError: func(err error) { reported = err }})
	c.Edit(func(v *model.FormValues) { *v = completeValues() })
	c.Acknowledge(true)
	c.SaveDraft()

	if c.Submit(context.Background()) {
		t.Fatal("submit should fail")
	}
	if reported == nil {
		t.Error("server error must reach OnError")
	}
	if c.Guard() != GuardInFlight {
		t.Errorf("guard = %d, want in-flight", c.Guard())
	}
	if remaining, _ := store.Load(); remaining == nil {
		t.Error("draft must survive a failed submit")
	}
}

func TestAlreadyUploadedAttachmentsAreNotReuploaded(t *testing.T) {
	submitter := &fakeSubmitter{result: model.SubmissionResult{ID: 1}}
	uploader := &fakeUploader{}
	c := newTestController(submitter, uploader, Hooks{})
	c.Edit(func(v *model.FormValues) {
		v.Qualifications = []model.Attachment{
			{Filename: "old.pdf", Uploaded: true, FileID: "file-0", PublicURL: "https://files.example.com/old.pdf"},
			{Filename: "new.pdf", Data: []byte("pdf")},
		}
	})

	if !c.Submit(context.Background()) {
		t.Fatal("submit should succeed")
	}
	if uploader.calls != 1 {
		t.Errorf("uploader saw %d calls, want 1 (only the pending file)", uploader.calls)
	}
	quals := c.Values().Qualifications
	if !quals[1].Uploaded || quals[1].PublicURL == "" {
		t.Errorf("pending attachment not resolved: %+v", quals[1])
	}
	if quals[0].FileID != "file-0" {
		t.Error("already uploaded attachment must be untouched")
	}
}
