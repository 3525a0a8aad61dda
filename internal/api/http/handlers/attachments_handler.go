package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-service/internal/api/dto"
	"github.com/spec-kit/workorder-service/internal/auth"
	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/service"
	"github.com/spec-kit/workorder-service/pkg/util"
)

// AttachmentsHandler manages attachment metadata endpoints.
type AttachmentsHandler struct {
	service *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachmentService *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{service: attachmentService}
}

// Register POST /work-orders/:id/attachments.
func (h *AttachmentsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.RegisterAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	attachment, err := h.service.Register(c.UserContext(), actorFrom(principal), c.Params("id"), service.RegisterAttachmentInput{
		StoragePath: req.StoragePath,
		FileName:    req.FileName,
		MimeType:    req.MimeType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// RegisterBatch POST /work-orders/:id/attachments/batch. Outcomes are
// reported per file, not all-or-nothing.
func (h *AttachmentsHandler) RegisterBatch(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.RegisterAttachmentsBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if len(req.Files) == 0 {
		return util.NewValidationError("files required", nil)
	}

	inputs := make([]service.RegisterAttachmentInput, 0, len(req.Files))
	for _, file := range req.Files {
		inputs = append(inputs, service.RegisterAttachmentInput{
			StoragePath: file.StoragePath,
			FileName:    file.FileName,
			MimeType:    file.MimeType,
			SizeBytes:   file.SizeBytes,
		})
	}

	results := h.service.RegisterBatch(c.UserContext(), actorFrom(principal), c.Params("id"), inputs)
	items := make([]dto.AttachmentBatchItemResponse, 0, len(results))
	for _, result := range results {
		item := dto.AttachmentBatchItemResponse{FileName: result.FileName}
		if result.Err != nil {
			domainErr := util.ToDomainError(result.Err)
			item.Error = &dto.ErrorBody{Code: domainErr.Code, Message: domainErr.Message}
		} else {
			resp := attachmentResponse(result.Attachment)
			item.Attachment = &resp
		}
		items = append(items, item)
	}
	return c.Status(http.StatusMultiStatus).JSON(fiber.Map{"data": items})
}

// List GET /work-orders/:id/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	attachments, err := h.service.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Delete DELETE /attachments/:id.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return util.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          attachment.ID,
		WorkOrderID: attachment.WorkOrderID,
		UploaderID:  attachment.UploaderID,
		StoragePath: attachment.StoragePath,
		FileName:    attachment.FileName,
		MimeType:    attachment.MimeType,
		SizeBytes:   attachment.SizeBytes,
		CreatedAt:   attachment.CreatedAt,
	}
}
