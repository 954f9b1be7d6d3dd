package lifecycle

import (
	"testing"
	"time"

	"github.com/wanderly/guide-apply/model"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func event(id int64, kind model.EventKind, at time.Time) model.TimelineEvent {
	return model.TimelineEvent{ID: id, Kind: kind, Timestamp: at}
}

func adminEvent(id int64, action model.AdminActionKind, at time.Time) model.TimelineEvent {
	ev := event(id, model.EventAdminAction, at)
	ev.AdminAction = action
	return ev
}

func TestNeedsSupplementalResponse(t *testing.T) {
	pending := &model.Application{ID: 1, Status: model.StatusPending}

	tests := []struct {
		name   string
		app    *model.Application
		events []model.TimelineEvent
		want   bool
	}{
		{
			name: "nil snapshot",
			app:  nil,
			want: false,
		},
		{
			name: "empty timeline while pending",
			app:  pending,
			want: false,
		},
		{
			name: "status overrides empty timeline",
			app:  &model.Application{ID: 1, Status: model.StatusNeedsMoreInfo},
			want: true,
		},
		{
			name: "status overrides answered timeline",
			app:  &model.Application{ID: 1, Status: model.StatusNeedsMoreInfo},
			events: []model.TimelineEvent{
				adminEvent(1, model.ActionRequireMoreInfo, t0),
				event(2, model.EventUserResponse, t0.Add(time.Hour)),
			},
			want: true,
		},
		{
			name: "unanswered request",
			app:  pending,
			events: []model.TimelineEvent{
				event(1, model.EventSubmissionRecorded, t0),
				adminEvent(2, model.ActionRequireMoreInfo, t0.Add(time.Hour)),
			},
			want: true,
		},
		{
			name: "answered request",
			app:  pending,
			events: []model.TimelineEvent{
				adminEvent(1, model.ActionRequireMoreInfo, t0),
				event(2, model.EventUserResponse, t0.Add(time.Minute)),
			},
			want: false,
		},
		{
			name: "same-instant response does not answer",
			app:  pending,
			events: []model.TimelineEvent{
				adminEvent(1, model.ActionRequireMoreInfo, t0),
				event(2, model.EventUserResponse, t0),
			},
			want: true,
		},
		{
			name: "only the latest request counts",
			app:  pending,
			events: []model.TimelineEvent{
				adminEvent(1, model.ActionRequireMoreInfo, t0),
				event(2, model.EventUserResponse, t0.Add(time.Minute)),
				adminEvent(3, model.ActionRequireMoreInfo, t0.Add(2*time.Minute)),
			},
			want: true,
		},
		{
			name: "out of order delivery",
			app:  pending,
			events: []model.TimelineEvent{
				event(3, model.EventUserResponse, t0.Add(time.Minute)),
				adminEvent(2, model.ActionRequireMoreInfo, t0),
				event(1, model.EventSubmissionRecorded, t0.Add(-time.Hour)),
			},
			want: false,
		},
		{
			name: "equal timestamps pick the later request by id",
			app:  pending,
			events: []model.TimelineEvent{
				adminEvent(5, model.ActionRequireMoreInfo, t0),
				adminEvent(4, model.ActionRequireMoreInfo, t0),
				event(3, model.EventUserResponse, t0),
			},
			want: true,
		},
		{
			name: "non-request admin actions are ignored",
			app:  pending,
			events: []model.TimelineEvent{
				adminEvent(1, model.ActionReview, t0),
				adminEvent(2, model.ActionApprove, t0.Add(time.Minute)),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsSupplementalResponse(tt.app, tt.events)
			if got != tt.want {
				t.Errorf("NeedsSupplementalResponse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShowRespondAffordance(t *testing.T) {
	unanswered := []model.TimelineEvent{
		adminEvent(1, model.ActionRequireMoreInfo, t0),
	}

	rejected := &model.Application{ID: 1, Status: model.StatusRejected}
	if ShowRespondAffordance(rejected, unanswered) {
		t.Error("rejected application must not offer a respond control")
	}

	pending := &model.Application{ID: 1, Status: model.StatusPending}
	if !ShowRespondAffordance(pending, unanswered) {
		t.Error("pending application with open request should offer a respond control")
	}

	if ShowRespondAffordance(nil, unanswered) {
		t.Error("nil snapshot must not offer a respond control")
	}
}

func TestDescribeStatus(t *testing.T) {
	tests := []struct {
		status   model.Status
		label    string
		severity Severity
	}{
		{model.StatusDrafted, "Draft", SeverityInfo},
		{model.StatusPending, "Under review", SeverityInfo},
		{model.StatusNeedsMoreInfo, "Action required", SeverityWarning},
		{model.StatusApproved, "Approved", SeveritySuccess},
		{model.StatusRejected, "Rejected", SeverityError},
		{model.Status("bogus"), "Unknown", SeverityInfo},
		{model.Status(""), "Unknown", SeverityInfo},
	}
	for _, tt := range tests {
		badge := DescribeStatus(tt.status)
		if badge.Label != tt.label || badge.Severity != tt.severity {
			t.Errorf("DescribeStatus(%q) = %+v, want {%s %s}", tt.status, badge, tt.label, tt.severity)
		}
	}
}

func TestArchivePDFURL(t *testing.T) {
	app := &model.Application{
		InternalTags: []string{"featured", "pdf:https://cdn.example.com/a.pdf", "pdf:https://cdn.example.com/b.pdf"},
	}
	url, ok := ArchivePDFURL(app)
	if !ok || url != "https://cdn.example.com/a.pdf" {
		t.Errorf("ArchivePDFURL() = %q, %v; want first pdf tag", url, ok)
	}

	if _, ok := ArchivePDFURL(&model.Application{InternalTags: []string{"featured"}}); ok {
		t.Error("no pdf tag should yield no URL")
	}
	if _, ok := ArchivePDFURL(nil); ok {
		t.Error("nil snapshot should yield no URL")
	}
}
