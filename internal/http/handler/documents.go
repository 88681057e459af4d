package handler

import (
	"mime"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"accreditdocs/internal/http/middleware"
	"accreditdocs/internal/model"
	"accreditdocs/internal/service"
)

// DocumentResponse is a document plus the caller's standing on it.
type DocumentResponse struct {
	model.Document
	Badge model.Badge `json:"badge"`
}

// DocumentListResponse is a page of documents with badges.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"data"`
	Total int                `json:"total"`
}

type renameRequest struct {
	Name string `json:"name" validate:"notblank,max=255"`
}

// currentActor reads the actor placed by the auth middleware.
// When it is missing the 401 has been written and ok is false.
func currentActor(c *fiber.Ctx) (model.Actor, bool, error) {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return model.Actor{}, false, Unauthorized(c, "authentication required")
	}
	return actor, true, nil
}

// pathID validates a UUID path parameter. It writes the 400 itself and reports ok=false.
func pathID(c *fiber.Ctx, name string) (string, bool, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false, writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	return id, true, nil
}

// pagination parses limit/offset with the same defaults the services apply.
func pagination(c *fiber.Ctx) (limit, offset int, ok bool, err error) {
	limit, convErr := strconv.Atoi(c.Query("limit", "10"))
	if convErr != nil {
		return 0, 0, false, writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, convErr = strconv.Atoi(c.Query("offset", "0"))
	if convErr != nil {
		return 0, 0, false, writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}
	return limit, offset, true, nil
}

// ListDocuments godoc
// @Summary      List documents
// @Description  Lists documents newest first with the caller's badge on each. owner=me or a user id narrows to one owner.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int     false  "page size"  default(10)
// @Param        offset  query  int     false  "offset"     default(0)
// @Param        owner   query  string  false  "me or a user id"
// @Success      200  {object}  DocumentListResponse
// @Failure      400  {object}  errorPayload
// @Failure      401  {object}  errorPayload
// @Router       /documents [get]
func ListDocuments(docSvc service.DocumentService, gate service.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		limit, offset, ok, err := pagination(c)
		if !ok {
			return err
		}

		var res *service.DocumentListResult
		switch owner := c.Query("owner"); owner {
		case "":
			res, err = docSvc.List(c.UserContext(), limit, offset)
		case "me":
			res, err = docSvc.ListByOwner(c.UserContext(), actor.ID, limit, offset)
		default:
			ownerID, convErr := strconv.ParseInt(owner, 10, 64)
			if convErr != nil || ownerID <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_OWNER", "owner must be me or a user id")
			}
			res, err = docSvc.ListByOwner(c.UserContext(), ownerID, limit, offset)
		}
		if err != nil {
			return writeServiceError(c, err)
		}

		out := DocumentListResponse{Items: make([]DocumentResponse, 0, len(res.Items)), Total: res.Total}
		for _, d := range res.Items {
			badge, err := gate.Badge(c.UserContext(), actor.ID, d.ID)
			if err != nil {
				return writeServiceError(c, err)
			}
			out.Items = append(out.Items, DocumentResponse{Document: d, Badge: badge})
		}
		return c.JSON(out)
	}
}

// UploadDocument godoc
// @Summary      Upload a document
// @Description  Stores the file; the caller becomes its owner.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "document"
// @Success      201  {object}  model.Document
// @Failure      400  {object}  errorPayload
// @Failure      401  {object}  errorPayload
// @Router       /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := docSvc.Upload(c.UserContext(), actor, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument godoc
// @Summary   Get document metadata
// @Tags      documents
// @Produce   json
// @Security  BearerAuth
// @Param     id  path  string  true  "document id"
// @Success   200  {object}  DocumentResponse
// @Failure   400  {object}  errorPayload
// @Failure   404  {object}  errorPayload
// @Router    /documents/{id} [get]
func GetDocument(docSvc service.DocumentService, gate service.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}

		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		badge, err := gate.Badge(c.UserContext(), actor.ID, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(DocumentResponse{Document: *doc, Badge: badge})
	}
}

// RenameDocument godoc
// @Summary   Rename a document
// @Tags      documents
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path  string         true  "document id"
// @Param     body  body  renameRequest  true  "new name"
// @Success   200  {object}  model.Document
// @Failure   400  {object}  errorPayload
// @Failure   403  {object}  errorPayload
// @Failure   404  {object}  errorPayload
// @Router    /documents/{id} [patch]
func RenameDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}
		var body renameRequest
		if done, err := bindJSON(c, &body); done {
			return err
		}

		doc, err := docSvc.Rename(c.UserContext(), actor, id, body.Name)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument godoc
// @Summary   Delete a document
// @Tags      documents
// @Security  BearerAuth
// @Param     id  path  string  true  "document id"
// @Success   204
// @Failure   403  {object}  errorPayload
// @Failure   404  {object}  errorPayload
// @Router    /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}
		if err := docSvc.Delete(c.UserContext(), actor, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument godoc
// @Summary      Download a document
// @Description  Owner, or a user whose latest access request is approved.
// @Tags         documents
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id  path  string  true  "document id"
// @Success      200  {file}    file
// @Failure      403  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Router       /documents/{id}/download [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}

		dl, err := docSvc.Download(c.UserContext(), actor, id)
		if err != nil {
			return writeServiceError(c, err)
		}

		ct := dl.Info.ContentType
		if ct == "" {
			ct = dl.Document.ContentType
		}
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": dl.Document.Name}))

		size := int(dl.Info.Size)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes the stream once the body is written.
		return c.SendStream(dl.Body, size)
	}
}

// DownloadURL godoc
// @Summary      Presigned download URL
// @Description  Same rule as download; returns a time-limited link to object storage.
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "document id"
// @Success      200  {object}  service.PresignedURL
// @Failure      403  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Router       /documents/{id}/download-url [get]
func DownloadURL(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}

		u, err := docSvc.PresignDownload(c.UserContext(), actor, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}
