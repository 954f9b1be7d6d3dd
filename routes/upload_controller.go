package routes

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/wanderly/guide-apply/app"
	"github.com/wanderly/guide-apply/httpx"
	"github.com/wanderly/guide-apply/log"
)

const maxUploadSize = 10 << 20 // 10 MiB per qualification document

func UploadAttachment(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Bound the whole body, not just the in-memory buffer, so an
		// oversized document is rejected instead of stored truncated.
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		err := r.ParseMultipartForm(maxUploadSize)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.LogStatus(w, http.StatusRequestEntityTooLarge, log.DebugLevel, "request.file_too_large")
			return
		}
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_multipart")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_file")
			return
		}
		defer file.Close()

		fileId, err := uuid.NewV4()
		if err != nil {
			httpx.LogInternalError(w, "upload.file_id", err)
			return
		}

		// Keep the original name for humans, the uuid for uniqueness.
		name := fileId.String() + "_" + filepath.Base(header.Filename)
		path := filepath.Join(app.UploadDir, name)

		if err := os.MkdirAll(app.UploadDir, 0o755); err != nil {
			httpx.LogInternalError(w, "upload.mkdir", err)
			return
		}
		dst, err := os.Create(path)
		if err != nil {
			httpx.LogInternalError(w, "upload.create", err)
			return
		}
		defer dst.Close()

		size, err := io.Copy(dst, file)
		if err != nil {
			httpx.LogInternalError(w, "upload.write", err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO upload (id, filename, path, size, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			fileId.String(),
			header.Filename,
			path,
			size,
			time.Now(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_upload", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"fileId":    fileId.String(),
			"publicUrl": app.PublicBase + "/files/" + name,
		})
	}
}
