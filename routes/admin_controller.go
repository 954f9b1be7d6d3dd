package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/wanderly/guide-apply/app"
	"github.com/wanderly/guide-apply/httpx"
	"github.com/wanderly/guide-apply/lifecycle"
	"github.com/wanderly/guide-apply/log"
	"github.com/wanderly/guide-apply/model"
)

// actionTransitions maps each reviewer action to the status it leaves the
// application in.
var actionTransitions = map[model.AdminActionKind]model.Status{
	model.ActionReview:          model.StatusPending,
	model.ActionApprove:         model.StatusApproved,
	model.ActionReject:          model.StatusRejected,
	model.ActionRequireMoreInfo: model.StatusNeedsMoreInfo,
}

func ListApplications(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, applicant_key, status, notes, created_at, updated_at
			FROM guide_application
			ORDER BY created_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_applications", err)
			return
		}
		defer rows.Close()

		type listEntry struct {
			model.Application
			ApplicantKey string `json:"applicantKey"`
			StatusLabel  string `json:"statusLabel"`
		}

		applications := []listEntry{}
		for rows.Next() {
			entry := listEntry{}
			err = rows.Scan(
				&entry.ID, &entry.ApplicantKey, &entry.Status, &entry.Notes,
				&entry.CreatedAt, &entry.UpdatedAt,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_applications.scan", err)
				return
			}
			entry.StatusLabel = lifecycle.DescribeStatus(entry.Status).Label
			applications = append(applications, entry)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_applications.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"applications": applications,
		})
	}
}

func GetApplicationById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		application, events, err := loadApplication(r, app, applicationId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_application", err)
			return
		}
		if application == nil {
			httpx.LogNotFound(w, "get_application", applicationId)
			return
		}

		pdfUrl, _ := lifecycle.ArchivePDFURL(application)
		render.JSON(w, r, map[string]any{
			"application":       application,
			"timeline":          events,
			"needsSupplemental": lifecycle.NeedsSupplementalResponse(application, events),
			"archivePdfUrl":     pdfUrl,
		})
	}
}

type adminActionRequest struct {
	Action    model.AdminActionKind `json:"action"`
	Note      string                `json:"note"`
	ActorName string                `json:"actorName"`
}

func RecordAdminAction(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := adminActionRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		status, known := actionTransitions[req.Action]
		if !known {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.action", "unknown action %q", req.Action)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		now := time.Now()
		var eventId int64
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO timeline_event (application_id, kind, admin_action, note, actor_name, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			applicationId,
			model.EventAdminAction,
			req.Action,
			req.Note,
			req.ActorName,
			now,
		).Scan(&eventId)
		if err != nil {
			httpx.LogInternalError(w, "db.admin_action.event", err)
			return
		}

		// The note lands on the timeline event either way; the snapshot
		// notes only change when the reviewer actually wrote one.
		res, err := tx.ExecContext(r.Context(), `
			UPDATE guide_application
			SET status = ?,
				notes = CASE WHEN ? = '' THEN notes ELSE ? END,
				updated_at = ?
			WHERE id = ?`,
			status,
			req.Note,
			req.Note,
			now,
			applicationId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.admin_action.status", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.admin_action.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "admin_action", applicationId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.admin_action.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":     eventId,
			"status": status,
		})
	}
}

type tagRequest struct {
	Tag string `json:"tag"`
}

func AddApplicationTag(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := tagRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil || req.Tag == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO application_tag (application_id, tag)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING`,
			applicationId,
			req.Tag,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.add_tag", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
