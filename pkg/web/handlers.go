// Package web provides the HTTP handlers exposing the approval pipeline to
// UI collaborators.
package web

import (
	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/orchestrator"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	orchestrator *orchestrator.Orchestrator
	validator    *validator.Validate
}

func NewAPIHandlers(o *orchestrator.Orchestrator, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		orchestrator: o,
		validator:    validate,
	}
}

func (h *APIHandlers) SubmitRequest(c fiber.Ctx) error {
	var body SubmitRequestBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	request, err := h.orchestrator.Submit(c.Context(), orchestrator.Draft{
		HomeownerID:       body.HomeownerID,
		CommunityID:       body.CommunityID,
		Type:              body.Type,
		Title:             body.Title,
		Description:       body.Description,
		Priority:          body.Priority,
		AssignedNeighbors: body.AssignedNeighbors,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

func (h *APIHandlers) GetRequest(c fiber.Ctx) error {
	request, err := h.orchestrator.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) ListRequests(c fiber.Ctx) error {
	if homeownerID := c.Query("homeowner_id"); homeownerID != "" {
		requests, err := h.orchestrator.ListByHomeowner(c.Context(), homeownerID)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.JSON(fiber.Map{"requests": requests})
	}

	requests, err := h.orchestrator.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	// Optional status filter; legacy aliases normalize onto canonical states.
	if statusParam := c.Query("status"); statusParam != "" {
		status := models.NormalizeStatus(models.RequestStatus(statusParam))
		if !status.Valid() {
			return badRequest(c, "unknown status: "+statusParam)
		}

		filtered := make([]*models.Request, 0)

		for _, request := range requests {
			if request.Status == status {
				filtered = append(filtered, request)
			}
		}

		requests = filtered
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func (h *APIHandlers) DeleteRequest(c fiber.Ctx) error {
	if err := h.orchestrator.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CancelRequest(c fiber.Ctx) error {
	var body CancelBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	request, err := h.orchestrator.Cancel(c.Context(), c.Params("id"), body.ActorID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}

func (h *APIHandlers) OpenReview(c fiber.Ctx) error {
	var body OpenReviewBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.OpenReview{Reviewer: body.Reviewer}
	})
}

func (h *APIHandlers) CompleteReview(c fiber.Ctx) error {
	var body CompleteReviewBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.CompleteReview{
			Reviewer:       body.Reviewer,
			Recommendation: body.Recommendation,
			CCRsReferences: body.CCRsReferences,
		}
	})
}

func (h *APIHandlers) RequestInfo(c fiber.Ctx) error {
	var body RequestInfoBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.RequestInfo{Reviewer: body.Reviewer, Message: body.Message}
	})
}

func (h *APIHandlers) Reply(c fiber.Ctx) error {
	var body ReplyBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.HomeownerReply{ActorID: body.ActorID, Message: body.Message}
	})
}

func (h *APIHandlers) RecordNeighborApproval(c fiber.Ctx) error {
	var body NeighborApprovalBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.RegisterNeighborApproval{
			NeighborID: body.NeighborID,
			Status:     body.Status,
			Comments:   body.Comments,
		}
	})
}

func (h *APIHandlers) RecordBoardVote(c fiber.Ctx) error {
	var body BoardVoteBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.RegisterBoardVote{
			BoardMemberID: body.BoardMemberID,
			Vote:          body.Vote,
		}
	})
}

func (h *APIHandlers) CompleteWork(c fiber.Ctx) error {
	var body CompleteWorkBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.MarkWorkCompleted{ActorID: body.ActorID}
	})
}

func (h *APIHandlers) FileAppeal(c fiber.Ctx) error {
	var body AppealBody

	return h.update(c, &body, func() orchestrator.Mutation {
		return orchestrator.FileAppeal{ActorID: body.ActorID, Reason: body.Reason}
	})
}

// update parses and validates the body, builds the mutation and runs it
// through the orchestrator's single serialized mutation path.
func (h *APIHandlers) update(c fiber.Ctx, body any, build func() orchestrator.Mutation) error {
	if err := c.Bind().JSON(body); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(body); err != nil {
		return badRequest(c, err.Error())
	}

	request, err := h.orchestrator.Update(c.Context(), c.Params("id"), build())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(request)
}
