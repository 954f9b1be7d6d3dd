// Package client adapts the guide-applications REST API to the wizard's
// collaborator contracts. Response-shape quirks of the upstream API stay
// in here; the wizard only ever sees the canonical forms.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"

	"github.com/wanderly/guide-apply/model"
)

type Client struct {
	base         string
	applicantKey string
	http         *http.Client
}

func New(base, applicantKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, applicantKey: applicantKey, http: httpClient}
}

// submitResponse covers the three id shapes upstream deployments have
// been seen returning: {id}, {applicationId} and {application: {id}}.
type submitResponse struct {
	ID            int64 `json:"id"`
	ApplicationID int64 `json:"applicationId"`
	Application   *struct {
		ID int64 `json:"id"`
	} `json:"application"`
}

func (resp submitResponse) id() (int64, bool) {
	switch {
	case resp.ID != 0:
		return resp.ID, true
	case resp.ApplicationID != 0:
		return resp.ApplicationID, true
	case resp.Application != nil && resp.Application.ID != 0:
		return resp.Application.ID, true
	}
	return 0, false
}

// Submit posts the finished application and normalizes the acknowledgment
// to the canonical {id} shape.
func (c *Client) Submit(ctx context.Context, values model.FormValues) (model.SubmissionResult, error) {
	body, err := json.Marshal(values)
	if err != nil {
		return model.SubmissionResult{}, errors.Wrap(err, "encode application")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/api/guide-applications", bytes.NewReader(body))
	if err != nil {
		return model.SubmissionResult{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("X-Applicant-Key", c.applicantKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.SubmissionResult{}, errors.Wrap(err, "submit application")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return model.SubmissionResult{}, errors.Errorf("submit application: %s: %s", resp.Status, msg)
	}

	var ack submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return model.SubmissionResult{}, errors.Wrap(err, "decode acknowledgment")
	}
	id, ok := ack.id()
	if !ok {
		return model.SubmissionResult{}, errors.New("acknowledgment carried no application id")
	}
	return model.SubmissionResult{ID: id}, nil
}

type uploadResponse struct {
	FileID    string `json:"fileId"`
	PublicURL string `json:"publicUrl"`
}

// Upload sends one qualification document and returns its durable handle.
func (c *Client) Upload(ctx context.Context, data []byte, filename string) (string, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", "", errors.Wrap(err, "build multipart")
	}
	if _, err := part.Write(data); err != nil {
		return "", "", errors.Wrap(err, "write multipart")
	}
	if err := mw.Close(); err != nil {
		return "", "", errors.Wrap(err, "close multipart")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/api/uploads", &body)
	if err != nil {
		return "", "", errors.Wrap(err, "build request")
	}
	req.Header.Set("content-type", mw.FormDataContentType())
	req.Header.Set("X-Applicant-Key", c.applicantKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", errors.Wrapf(err, "upload %s", filename)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", "", errors.Errorf("upload %s: %s: %s", filename, resp.Status, msg)
	}

	var ack uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", "", errors.Wrap(err, "decode upload response")
	}
	return ack.FileID, ack.PublicURL, nil
}

// FetchTimeline loads the approval history for one application.
func (c *Client) FetchTimeline(ctx context.Context, applicationID int64) ([]model.TimelineEvent, error) {
	url := fmt.Sprintf("%s/api/guide-applications/%d/timeline", c.base, applicationID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("X-Applicant-Key", c.applicantKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch timeline")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch timeline: %s", resp.Status)
	}

	var payload struct {
		Timeline []model.TimelineEvent `json:"timeline"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode timeline")
	}
	return payload.Timeline, nil
}
