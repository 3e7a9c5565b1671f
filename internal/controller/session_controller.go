package controller

import (
	"live-chat-be/internal/dto"
	"live-chat-be/internal/pkg/serverutils"
	"live-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IChatService
}

func NewSessionController(service service.IChatService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Get(":roomId", c.Show)
	h.Post(":roomId/close", serverutils.AdvisorJwtMiddleware, c.Close)
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	roomId := ctx.Params("roomId")

	res, err := c.service.GetSessionByRoom(ctx.Context(), roomId)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) Close(ctx *fiber.Ctx) error {
	roomId := ctx.Params("roomId")

	var req dto.CloseSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.AdvisorId == "" {
		if advisorId, ok := ctx.Locals("advisor_id").(string); ok {
			req.AdvisorId = advisorId
		}
	}

	res, err := c.service.CloseSession(ctx.Context(), roomId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success close session", res))
}
