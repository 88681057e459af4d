package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"accreditdocs/internal/http/middleware"
	"accreditdocs/internal/model"
	"accreditdocs/internal/service"
)

// Deps is everything the routes need.
type Deps struct {
	DB        *sql.DB
	Documents service.DocumentService
	Ledger    service.Ledger
	Gate      service.Gate
	Tokens    middleware.TokenParser
}

// RegisterRoutes attaches the HTTP API to app. Health probes are public; everything else needs a
// bearer token.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	authed := middleware.Auth(d.Tokens, Unauthorized)

	docs := app.Group("/documents", authed)
	docs.Get("/", ListDocuments(d.Documents, d.Gate))
	docs.Post("/", UploadDocument(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents, d.Gate))
	docs.Patch("/:id", RenameDocument(d.Documents))
	docs.Delete("/:id", DeleteDocument(d.Documents))
	docs.Get("/:id/download", DownloadDocument(d.Documents))
	docs.Get("/:id/download-url", DownloadURL(d.Documents))
	docs.Get("/:id/access", AccessStatus(d.Ledger, d.Gate))
	docs.Post("/:id/access-requests", SubmitAccessRequest(d.Ledger))
	docs.Get("/:id/access-requests", ListDocumentAccessRequests(d.Ledger))

	requests := app.Group("/access-requests", authed)
	requests.Get("/mine", ListMyAccessRequests(d.Ledger))
	requests.Post("/:id/approve", ResolveAccessRequest(d.Ledger, model.DecisionApprove))
	requests.Post("/:id/reject", ResolveAccessRequest(d.Ledger, model.DecisionReject))
}
