// Package lifecycle derives applicant-facing review state from an
// application snapshot and its timeline. Everything here is a pure
// function over inputs owned by the server; malformed or missing data
// degrades to the conservative answer instead of failing.
package lifecycle

import (
	"sort"

	"github.com/wanderly/guide-apply/model"
)

// Severity tiers used by the presentation layer to pick styling.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// StatusBadge is the human-facing summary of one application status.
type StatusBadge struct {
	Label    string
	Severity Severity
}

var statusBadges = map[model.Status]StatusBadge{
	model.StatusDrafted:       {Label: "Draft", Severity: SeverityInfo},
	model.StatusPending:       {Label: "Under review", Severity: SeverityInfo},
	model.StatusNeedsMoreInfo: {Label: "Action required", Severity: SeverityWarning},
	model.StatusApproved:      {Label: "Approved", Severity: SeveritySuccess},
	model.StatusRejected:      {Label: "Rejected", Severity: SeverityError},
}

var unknownBadge = StatusBadge{Label: "Unknown", Severity: SeverityInfo}

// DescribeStatus maps a status to its badge. Unmapped values get a
// generic badge; this never panics.
func DescribeStatus(status model.Status) StatusBadge {
	if badge, ok := statusBadges[status]; ok {
		return badge
	}
	return unknownBadge
}

// NeedsSupplementalResponse reports whether the most recent reviewer
// request for more information is still unanswered.
//
// The snapshot status is authoritative: needs_more_info short-circuits to
// true no matter what the timeline says. Otherwise the latest
// require_more_info action is located (ties on timestamp broken by the
// larger event id) and the answer is whether any user response was
// recorded strictly after it. A response at the exact same instant does
// not count as an answer.
func NeedsSupplementalResponse(app *model.Application, events []model.TimelineEvent) bool {
	if app == nil {
		return false
	}
	if app.Status == model.StatusNeedsMoreInfo {
		return true
	}

	events = sortedByTime(events)

	var request *model.TimelineEvent
	for i := range events {
		ev := &events[i]
		if ev.Kind != model.EventAdminAction || ev.AdminAction != model.ActionRequireMoreInfo {
			continue
		}
		if request == nil || after(ev, request) {
			request = ev
		}
	}
	if request == nil {
		return false
	}

	for i := range events {
		ev := &events[i]
		if ev.Kind == model.EventUserResponse && ev.Timestamp.After(request.Timestamp) {
			return false
		}
	}
	return true
}

// ShowRespondAffordance reports whether the UI should render a "respond"
// control. Terminal statuses never get one even if the timeline still
// carries an unanswered request.
func ShowRespondAffordance(app *model.Application, events []model.TimelineEvent) bool {
	if app == nil {
		return false
	}
	switch app.Status {
	case model.StatusApproved, model.StatusRejected:
		return false
	}
	return NeedsSupplementalResponse(app, events)
}

// ArchivePDFURL extracts the archived-PDF location from the snapshot's
// internal tags. The first matching tag in slice order wins; with the tag
// convention being server-written this is an arbitrary but stable choice.
func ArchivePDFURL(app *model.Application) (string, bool) {
	if app == nil {
		return "", false
	}
	for _, tag := range app.InternalTags {
		if url, ok := model.IsPDFTag(tag); ok {
			return url, true
		}
	}
	return "", false
}

// after orders events by timestamp, larger id winning ties.
func after(a, b *model.TimelineEvent) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

// sortedByTime returns a copy of events in timestamp order. The server
// should already deliver them ordered, but the source is not trusted for
// correctness of the scan above.
func sortedByTime(events []model.TimelineEvent) []model.TimelineEvent {
	out := make([]model.TimelineEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return after(&out[j], &out[i])
	})
	return out
}
