package handler

import (
	"github.com/gofiber/fiber/v2"

	"accreditdocs/internal/model"
	"accreditdocs/internal/service"
)

type submitRequest struct {
	Reason string `json:"reason" validate:"notblank"`
}

type resolveRequest struct {
	Response string `json:"response"`
}

// AccessStatusResponse is the caller's standing on one document.
type AccessStatusResponse struct {
	DocumentID  string               `json:"document_id"`
	Badge       model.Badge          `json:"badge"`
	CanDownload bool                 `json:"can_download"`
	Latest      *model.AccessRequest `json:"latest_request"`
}

// AccessStatus godoc
// @Summary      Caller's access to a document
// @Description  Latest request the caller filed for the document and whether download is allowed now.
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "document id"
// @Success      200  {object}  AccessStatusResponse
// @Failure      404  {object}  errorPayload
// @Router       /documents/{id}/access [get]
func AccessStatus(ledger service.Ledger, gate service.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}

		badge, err := gate.Badge(c.UserContext(), actor.ID, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		latest, err := ledger.StatusFor(c.UserContext(), id, actor.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(AccessStatusResponse{
			DocumentID:  id,
			Badge:       badge,
			CanDownload: badge == model.BadgeOwner || badge == model.BadgeApproved,
			Latest:      latest,
		})
	}
}

// SubmitAccessRequest godoc
// @Summary      Request access to a document
// @Description  Files a pending request. Owners cannot request their own documents; one pending request per document.
// @Tags         access
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string         true  "document id"
// @Param        body  body  submitRequest  true  "reason"
// @Success      201  {object}  model.AccessRequest
// @Failure      400  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Failure      409  {object}  errorPayload
// @Router       /documents/{id}/access-requests [post]
func SubmitAccessRequest(ledger service.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}
		var body submitRequest
		if done, err := bindJSON(c, &body); done {
			return err
		}

		req, err := ledger.Submit(c.UserContext(), id, actor, body.Reason)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	}
}

// ListDocumentAccessRequests godoc
// @Summary      Requests filed against a document
// @Description  Owner or administrator only. status filters to pending, approved or rejected.
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Param        id      path   string  true   "document id"
// @Param        status  query  string  false  "pending|approved|rejected"
// @Param        limit   query  int     false  "page size"  default(10)
// @Param        offset  query  int     false  "offset"     default(0)
// @Success      200  {object}  service.AccessRequestListResult
// @Failure      400  {object}  errorPayload
// @Failure      403  {object}  errorPayload
// @Router       /documents/{id}/access-requests [get]
func ListDocumentAccessRequests(ledger service.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}
		limit, offset, ok, err := pagination(c)
		if !ok {
			return err
		}

		var status model.RequestStatus
		if s := c.Query("status"); s != "" {
			if status, err = model.ParseRequestStatus(s); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "status must be pending, approved or rejected")
			}
		}

		res, err := ledger.ListForDocument(c.UserContext(), id, actor, status, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ListMyAccessRequests godoc
// @Summary   Requests the caller has filed
// @Tags      access
// @Produce   json
// @Security  BearerAuth
// @Param     limit   query  int  false  "page size"  default(10)
// @Param     offset  query  int  false  "offset"     default(0)
// @Success   200  {object}  service.AccessRequestListResult
// @Router    /access-requests/mine [get]
func ListMyAccessRequests(ledger service.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		limit, offset, ok, err := pagination(c)
		if !ok {
			return err
		}

		res, err := ledger.ListMine(c.UserContext(), actor, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ResolveAccessRequest godoc
// @Summary      Approve or reject a pending request
// @Description  Document owner only. A decided request cannot be decided again.
// @Tags         access
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string          true   "access request id"
// @Param        body  body  resolveRequest  false  "optional response to the requester"
// @Success      200  {object}  model.AccessRequest
// @Failure      403  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Failure      409  {object}  errorPayload
// @Router       /access-requests/{id}/approve [post]
// @Router       /access-requests/{id}/reject [post]
func ResolveAccessRequest(ledger service.Ledger, decision model.Decision) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok, err := currentActor(c)
		if !ok {
			return err
		}
		id, ok, err := pathID(c, "id")
		if !ok {
			return err
		}
		var body resolveRequest
		if done, err := bindJSON(c, &body); done {
			return err
		}

		req, err := ledger.Resolve(c.UserContext(), id, actor, decision, body.Response)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	}
}
