package controller

import (
	"live-chat-be/internal/pkg/serverutils"
	"live-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
}

type conversationController struct {
	service service.IConversationService
}

func NewConversationController(service service.IConversationService) IConversationController {
	return &conversationController{service: service}
}

func (c *conversationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/conversation/v1")
	h.Get("", c.GetAll)
	h.Get(":id", c.Show)
	h.Get(":id/messages", c.GetMessages)
}

func (c *conversationController) GetAll(ctx *fiber.Ctx) error {
	userId := ctx.Query("user_id", "anonymous")

	res, err := c.service.GetAllByUser(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all conversations", res))
}

func (c *conversationController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	res, err := c.service.GetConversation(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation", res))
}

func (c *conversationController) GetMessages(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	res, err := c.service.GetMessages(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation messages", res))
}
