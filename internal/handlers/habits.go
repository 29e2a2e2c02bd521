package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lattivo/habits-api/internal/middleware"
	"github.com/lattivo/habits-api/internal/models"
	"github.com/lattivo/habits-api/internal/store"
	"go.uber.org/zap"
)

// HabitHandler serves the /habits routes. Each handler maps one request to
// one gateway call.
type HabitHandler struct {
	store store.HabitStore
	hub   *Hub
	log   *zap.Logger
	now   func() time.Time
}

func NewHabitHandler(s store.HabitStore, hub *Hub, log *zap.Logger) *HabitHandler {
	return &HabitHandler{store: s, hub: hub, log: log, now: time.Now}
}

func (h *HabitHandler) CreateHabit(c *fiber.Ctx) error {
	var req models.CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return h.invalid(c, models.DecodeError(err))
	}

	habit, err := req.ToHabit(models.DateOf(h.now()))
	if err != nil {
		return h.invalid(c, err)
	}

	if err := h.store.Create(c.UserContext(), habit); err != nil {
		h.log.Error("create habit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create habit",
		})
	}

	middleware.TrackHabitOperation("create")
	resp := models.NewHabitResponse(habit)
	h.hub.Broadcast(habit.OwnerID, HabitEvent{
		Type:    EventHabitCreated,
		OwnerID: habit.OwnerID.String(),
		HabitID: habit.ID.String(),
		Data:    resp,
	})

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *HabitHandler) ListHabits(c *fiber.Ctx) error {
	field, raw := "ownerId", c.Query("ownerId")
	if raw == "" && c.Query("userId") != "" {
		field, raw = "userId", c.Query("userId")
	}
	if raw == "" {
		return h.invalid(c, &models.ValidationError{
			Kind:    models.ErrInvalidField,
			Field:   "ownerId",
			Message: "is required",
		})
	}
	ownerID, err := models.ParseOwnerID(field, raw)
	if err != nil {
		return h.invalid(c, err)
	}

	habits, err := h.store.ListByOwner(c.UserContext(), ownerID)
	if err != nil {
		h.log.Error("list habits", zap.Stringer("ownerId", ownerID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch habits",
		})
	}

	middleware.TrackHabitOperation("list")
	return c.JSON(models.NewHabitList(habits))
}

func (h *HabitHandler) GetHabit(c *fiber.Ctx) error {
	id, ok := habitID(c)
	if !ok {
		return habitNotFound(c)
	}

	habit, err := h.store.Get(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return habitNotFound(c)
	}
	if err != nil {
		h.log.Error("get habit", zap.Stringer("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch habit",
		})
	}

	middleware.TrackHabitOperation("get")
	return c.JSON(models.NewHabitResponse(habit))
}

func (h *HabitHandler) UpdateHabit(c *fiber.Ctx) error {
	id, ok := habitID(c)
	if !ok {
		return habitNotFound(c)
	}

	var req models.UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return h.invalid(c, models.DecodeError(err))
	}
	patch, err := req.Patch()
	if err != nil {
		return h.invalid(c, err)
	}

	habit, err := h.store.Update(c.UserContext(), id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return habitNotFound(c)
	case errors.Is(err, models.ErrInvalidField):
		return h.invalid(c, err)
	case err != nil:
		h.log.Error("update habit", zap.Stringer("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update habit",
		})
	}

	middleware.TrackHabitOperation("update")
	resp := models.NewHabitResponse(habit)
	h.hub.Broadcast(habit.OwnerID, HabitEvent{
		Type:    EventHabitUpdated,
		OwnerID: habit.OwnerID.String(),
		HabitID: habit.ID.String(),
		Data:    resp,
	})

	return c.JSON(resp)
}

func (h *HabitHandler) DeleteHabit(c *fiber.Ctx) error {
	// Delete answers 404 without a body, unlike the other routes.
	id, ok := habitID(c)
	if !ok {
		c.Status(fiber.StatusNotFound)
		return nil
	}

	habit, err := h.store.Delete(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.Status(fiber.StatusNotFound)
		return nil
	}
	if err != nil {
		h.log.Error("delete habit", zap.Stringer("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete habit",
		})
	}

	middleware.TrackHabitOperation("delete")
	h.hub.Broadcast(habit.OwnerID, HabitEvent{
		Type:    EventHabitDeleted,
		OwnerID: habit.OwnerID.String(),
		HabitID: id.String(),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func habitID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func habitNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Habit not found",
	})
}

func (h *HabitHandler) invalid(c *fiber.Ctx, err error) error {
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		ve = &models.ValidationError{Kind: models.ErrInvalidField, Field: "body", Message: err.Error()}
	}
	h.log.Debug("rejected payload", zap.String("field", ve.Field), zap.String("reason", ve.Message))
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": ve.Error(),
		"field": ve.Field,
		"code":  ve.Code(),
	})
}
