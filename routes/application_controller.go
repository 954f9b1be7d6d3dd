package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
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

// applicantKey identifies the caller on the applicant surface. Session
// management is handled upstream; the proxy forwards the key here.
func applicantKey(r *http.Request) string {
	return r.Header.Get("X-Applicant-Key")
}

func CreateApplication(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := applicantKey(r)
		if key == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.applicant_key")
			return
		}

		values := model.FormValues{}
		err := render.DecodeJSON(r.Body, &values)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := values.Validate(); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate_values", "%s", err)
			return
		}

		valuesJson, err := json.Marshal(values)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_application.encode_values", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		now := time.Now()
		var applicationId int64
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO guide_application (applicant_key, status, form_values, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			key,
			model.StatusPending,
			string(valuesJson),
			now,
			now,
		).Scan(&applicationId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_application", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO timeline_event (application_id, kind, timestamp)
			VALUES (?, ?, ?)`,
			applicationId,
			model.EventSubmissionRecorded,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_application.event", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_application.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": applicationId,
		})
	}
}

func UpdateApplication(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		values := model.FormValues{}
		err = render.DecodeJSON(r.Body, &values)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := values.Validate(); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate_values", "%s", err)
			return
		}

		valuesJson, err := json.Marshal(values)
		if err != nil {
			httpx.LogInternalError(w, "db.update_application.encode_values", err)
			return
		}

		// Updates are only allowed while the application is editable; an
		// approved or rejected application is frozen.
		res, err := app.ExecContext(r.Context(), `
			UPDATE guide_application
			SET form_values = ?, updated_at = ?
			WHERE id = ?
				AND applicant_key = ?
				AND status IN (?, ?)`,
			string(valuesJson),
			time.Now(),
			applicationId,
			applicantKey(r),
			model.StatusDrafted,
			model.StatusNeedsMoreInfo,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_application", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_application.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_application.not_editable")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetMyApplication(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := applicantKey(r)
		if key == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.applicant_key")
			return
		}

		var applicationId int64
		err := app.QueryRowContext(r.Context(), `
			SELECT id FROM guide_application
			WHERE applicant_key = ?
			ORDER BY created_at DESC
			LIMIT 1`,
			key,
		).Scan(&applicationId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_my_application", key)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_my_application", err)
			return
		}

		application, events, err := loadApplication(r, app, applicationId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_my_application.load", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"application":       application,
			"needsSupplemental": lifecycle.NeedsSupplementalResponse(application, events),
		})
	}
}

func GetApplicationTimeline(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(),
			"SELECT 1 FROM guide_application WHERE id = ?", applicationId,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_timeline", applicationId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_timeline.application", err)
			return
		}

		events, err := loadTimeline(r, app, applicationId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_timeline", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"timeline": events,
		})
	}
}

type supplementRequest struct {
	ApplicationID int64                     `json:"applicationId"`
	UserResponse  model.UserResponsePayload `json:"userResponse"`
}

func SubmitSupplement(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applicationId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := supplementRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.ApplicationID != 0 && req.ApplicationID != applicationId {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.application_id_mismatch")
			return
		}

		application, events, err := loadApplication(r, app, applicationId)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_supplement.load", err)
			return
		}
		if application == nil {
			httpx.LogNotFound(w, "submit_supplement", applicationId)
			return
		}
		if !lifecycle.NeedsSupplementalResponse(application, events) {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "submit_supplement.nothing_requested")
			return
		}

		payloadJson, err := json.Marshal(req.UserResponse)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_supplement.encode_payload", err)
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
			INSERT INTO timeline_event (application_id, kind, response_payload, timestamp)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			applicationId,
			model.EventUserResponse,
			string(payloadJson),
			now,
		).Scan(&eventId)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_supplement.event", err)
			return
		}

		// Answering the open request puts the application back in review.
		_, err = tx.ExecContext(r.Context(), `
			UPDATE guide_application
			SET status = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			model.StatusPending,
			now,
			applicationId,
			model.StatusNeedsMoreInfo,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.submit_supplement.status", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.submit_supplement.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": eventId,
		})
	}
}

// loadApplication reads one application with its tags and timeline.
// A missing id yields (nil, nil, nil).
func loadApplication(r *http.Request, app app.App, applicationId int64) (*model.Application, []model.TimelineEvent, error) {
	application := model.Application{ID: applicationId}
	var valuesJson string
	err := app.QueryRowContext(r.Context(), `
		SELECT status, notes, form_values, created_at, updated_at
		FROM guide_application
		WHERE id = ?`,
		applicationId,
	).Scan(&application.Status, &application.Notes, &valuesJson, &application.CreatedAt, &application.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	values := model.FormValues{}
	if err := json.Unmarshal([]byte(valuesJson), &values); err != nil {
		return nil, nil, err
	}
	application.Values = &values

	rows, err := app.QueryContext(r.Context(), `
		SELECT tag FROM application_tag
		WHERE application_id = ?
		ORDER BY tag`,
		applicationId,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, nil, err
		}
		application.InternalTags = append(application.InternalTags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	events, err := loadTimeline(r, app, applicationId)
	if err != nil {
		return nil, nil, err
	}
	return &application, events, nil
}

func loadTimeline(r *http.Request, app app.App, applicationId int64) ([]model.TimelineEvent, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT id, kind, admin_action, note, actor_name, response_payload, timestamp
		FROM timeline_event
		WHERE application_id = ?
		ORDER BY timestamp, id`,
		applicationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.TimelineEvent{}
	for rows.Next() {
		ev := model.TimelineEvent{}
		var payloadJson string
		err = rows.Scan(&ev.ID, &ev.Kind, &ev.AdminAction, &ev.Note, &ev.ActorName, &payloadJson, &ev.Timestamp)
		if err != nil {
			return nil, err
		}
		if payloadJson != "" {
			payload := model.UserResponsePayload{}
			if err := json.Unmarshal([]byte(payloadJson), &payload); err != nil {
				return nil, err
			}
			ev.Response = &payload
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
