package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-service/internal/api/dto"
	"github.com/spec-kit/workorder-service/internal/auth"
	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/internal/service"
	"github.com/spec-kit/workorder-service/pkg/util"
)

// WorkOrdersHandler manages work order endpoints.
type WorkOrdersHandler struct {
	service *service.WorkOrderService
}

// NewWorkOrdersHandler constructs handler.
func NewWorkOrdersHandler(workOrderService *service.WorkOrderService) *WorkOrdersHandler {
	return &WorkOrdersHandler{service: workOrderService}
}

// Create POST /work-orders.
func (h *WorkOrdersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	order, err := h.service.Create(c.UserContext(), actorFrom(principal), service.CreateInput{
		OrgID:       req.OrgID,
		BuildingID:  req.BuildingID,
		SpaceID:     req.SpaceID,
		Severity:    req.Severity,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workOrderResponse(order)})
}

// Update PATCH /work-orders/:id.
func (h *WorkOrdersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.UpdateWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	order, err := h.service.Update(c.UserContext(), actorFrom(principal), c.Params("id"), service.UpdateInput{
		Status:              req.Status,
		AssignedTechnician:  req.AssignedTechnician,
		ScheduledDate:       req.ScheduledDate,
		ScheduledTimeWindow: req.ScheduledTimeWindow,
		QuoteAmount:         req.QuoteAmount,
		InvoiceNumber:       req.InvoiceNumber,
		DeclineReason:       req.DeclineReason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(order)})
}

// Get GET /work-orders/:id.
func (h *WorkOrdersHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	order, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(order)})
}

// List GET /work-orders.
func (h *WorkOrdersHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	orders, err := h.service.List(c.UserContext(), parseWorkOrderQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.WorkOrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, workOrderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseWorkOrderQuery(c *fiber.Ctx) repository.WorkOrderFilter {
	filter := repository.WorkOrderFilter{}
	if orgID := c.Query("org_id"); orgID != "" {
		filter.OrgID = &orgID
	}
	if buildingID := c.Query("building_id"); buildingID != "" {
		filter.BuildingID = &buildingID
	}
	if requesterID := c.Query("requester_id"); requesterID != "" {
		filter.RequesterID = &requesterID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.Status(strings.TrimSpace(part)))
		}
	}
	if severityStr := c.Query("severity"); severityStr != "" {
		for _, part := range strings.Split(severityStr, ",") {
			filter.Severities = append(filter.Severities, domain.Severity(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func actorFrom(principal *auth.Principal) service.Actor {
	return service.Actor{ID: principal.Account.ID, Role: principal.Account.Role}
}

func workOrderResponse(order *domain.WorkOrder) dto.WorkOrderResponse {
	return dto.WorkOrderResponse{
		ID:                  order.ID,
		Number:              order.Number,
		OrgID:               order.OrgID,
		BuildingID:          order.BuildingID,
		SpaceID:             order.SpaceID,
		RequesterID:         order.RequesterID,
		Status:              order.Status,
		Severity:            order.Severity,
		Category:            order.Category,
		Description:         order.Description,
		AssignedTechnician:  order.AssignedTechnician,
		ScheduledDate:       order.ScheduledDate,
		ScheduledTimeWindow: order.ScheduledTimeWindow,
		QuoteAmount:         order.QuoteAmount,
		InvoiceNumber:       order.InvoiceNumber,
		CompletedAt:         order.CompletedAt,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}
