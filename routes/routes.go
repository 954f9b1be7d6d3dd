package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wanderly/guide-apply/app"
	"github.com/wanderly/guide-apply/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/files", serveUploadedFiles(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// applicant surface
	api.Post("/guide-applications", CreateApplication(app))
	api.Put(`/guide-applications/{id:^\d+$}`, UpdateApplication(app))
	api.Get("/guide-applications/my-application", GetMyApplication(app))
	api.Get(`/guide-applications/{id:^\d+$}/timeline`, GetApplicationTimeline(app))
	api.Post(`/guide-applications/{id:^\d+$}/supplement`, SubmitSupplement(app))
	api.Post("/uploads", UploadAttachment(app))

	// review surface
	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		r.Get("/guide-applications", ListApplications(app))
		r.Get(`/guide-applications/{id:^\d+$}`, GetApplicationById(app))
		r.Post(`/guide-applications/{id:^\d+$}/actions`, RecordAdminAction(app))
		r.Post(`/guide-applications/{id:^\d+$}/tags`, AddApplicationTag(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func serveUploadedFiles(app app.App) http.Handler {
	return http.StripPrefix("/files", http.FileServer(http.Dir(app.UploadDir)))
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
