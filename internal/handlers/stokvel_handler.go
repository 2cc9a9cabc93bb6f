package handlers

import (
	"fmt"

	"stokvel/internal/middleware"
	"stokvel/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StokvelHandler handles HTTP requests for stokvels, their members and invites.
type StokvelHandler struct {
	stokvels    *services.StokvelService
	memberships *services.MembershipService
	invites     *services.InviteService
	logger      *zap.Logger
}

// NewStokvelHandler creates a new StokvelHandler.
func NewStokvelHandler(stokvels *services.StokvelService, memberships *services.MembershipService, invites *services.InviteService, logger *zap.Logger) *StokvelHandler {
	return &StokvelHandler{
		stokvels:    stokvels,
		memberships: memberships,
		invites:     invites,
		logger:      logger,
	}
}

// RegisterRoutes registers the stokvel routes. The router must already be
// guarded by middleware.AuthRequired.
func (h *StokvelHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/dashboard", h.HandleDashboard)

	stokvelRoutes := router.Group("/stokvels")
	stokvelRoutes.Get("/", h.HandleListOwned)
	stokvelRoutes.Post("/", h.HandleCreate)
	stokvelRoutes.Get("/joined", h.HandleListJoined)
	stokvelRoutes.Post("/join", h.HandleJoin)
	stokvelRoutes.Get("/:id", h.HandleGet)
	stokvelRoutes.Get("/:id/members", h.HandleListMembers)
	stokvelRoutes.Post("/:id/invite", h.HandleInvite)
}

// HandleDashboard returns the greeting and owned stokvels with their progress.
func (h *StokvelHandler) HandleDashboard(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	dashboard, err := h.stokvels.Dashboard(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Could not load dashboard")
	}
	return c.JSON(dashboard)
}

// HandleListOwned lists the stokvels created by the current user.
func (h *StokvelHandler) HandleListOwned(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	stokvels, err := h.stokvels.GetStokvelsForUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve stokvels")
	}

	summaries := make([]services.StokvelSummary, 0, len(stokvels))
	for _, s := range stokvels {
		summaries = append(summaries, services.Summarize(s))
	}
	return c.JSON(summaries)
}

// HandleListJoined lists the stokvels the current user joined with a code.
func (h *StokvelHandler) HandleListJoined(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	stokvels, err := h.stokvels.GetJoinedStokvels(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve joined stokvels")
	}

	summaries := make([]services.StokvelSummary, 0, len(stokvels))
	for _, s := range stokvels {
		summaries = append(summaries, services.Summarize(s))
	}
	return c.JSON(summaries)
}

// HandleCreate creates a stokvel owned by the current user.
func (h *StokvelHandler) HandleCreate(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var in services.CreateStokvelInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	stokvel, err := h.stokvels.CreateStokvel(c.UserContext(), userID, in)
	if err != nil {
		return respondError(c, h.logger, err, "Could not create stokvel")
	}
	return c.Status(fiber.StatusCreated).JSON(services.Summarize(*stokvel))
}

// HandleGet returns a single stokvel with its progress.
func (h *StokvelHandler) HandleGet(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := stokvelID(c)
	if err != nil {
		return badRequest(c, "Invalid stokvel id", err)
	}

	stokvel, err := h.stokvels.GetStokvel(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Stokvel not found")
	}
	// Only the owner hands out the join code.
	if stokvel.UserID != userID {
		stokvel.JoinCode = ""
	}
	return c.JSON(services.Summarize(*stokvel))
}

// HandleListMembers lists the members of a stokvel. Owner only.
func (h *StokvelHandler) HandleListMembers(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := stokvelID(c)
	if err != nil {
		return badRequest(c, "Invalid stokvel id", err)
	}

	stokvel, err := h.stokvels.GetStokvel(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Stokvel not found")
	}
	if stokvel.UserID != userID {
		return respondError(c, h.logger, services.ErrForbidden, "Could not list members")
	}

	members, err := h.memberships.ListMemberships(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Could not list members")
	}
	return c.JSON(members)
}

// InviteRequest is the body of an invite request.
type InviteRequest struct {
	PhoneNumber string `json:"phone_number" form:"phone_number"`
}

// HandleInvite sends the stokvel's join code to a phone number.
func (h *StokvelHandler) HandleInvite(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := stokvelID(c)
	if err != nil {
		return badRequest(c, "Invalid stokvel id", err)
	}

	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.invites.InviteToStokvel(c.UserContext(), userID, id, req.PhoneNumber); err != nil {
		return respondError(c, h.logger, err, "Could not send invite")
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Invite sent to %s!", req.PhoneNumber),
	})
}

// JoinRequest is the body of a join request.
type JoinRequest struct {
	JoinCode string `json:"join_code" form:"join_code"`
}

// HandleJoin adds the current user to the stokvel with the given join code.
func (h *StokvelHandler) HandleJoin(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	stokvel, err := h.memberships.JoinByCode(c.UserContext(), userID, req.JoinCode)
	if err != nil {
		return respondError(c, h.logger, err, "Could not join stokvel")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("You have joined %s.", stokvel.Name),
		"stokvel": services.Summarize(*stokvel),
	})
}

func stokvelID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return uint(id), nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Authentication required",
	})
}
