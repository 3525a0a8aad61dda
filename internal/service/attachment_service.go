package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/repository"
	"github.com/spec-kit/workorder-service/internal/storage"
	"github.com/spec-kit/workorder-service/pkg/util"
)

const attachmentPathPrefix = "workorders"

const registerBatchParallelism = 4

// RegisterAttachmentInput describes metadata for one already-uploaded object.
type RegisterAttachmentInput struct {
	StoragePath string
	FileName    string
	MimeType    string
	SizeBytes   int64
}

// AttachmentBatchResult reports the outcome for one file of a batch.
type AttachmentBatchResult struct {
	FileName   string
	Attachment *domain.Attachment
	Err        error
}

// AttachmentService validates and records metadata for uploaded
// objects. Upload and registration are two independent calls with no
// shared transaction; an object without metadata or metadata without
// an object are both accepted outcomes.
type AttachmentService struct {
	orders      repository.WorkOrderRepository
	attachments repository.AttachmentRepository
	blobs       storage.BlobClient
	maxSize     int64
	logger      *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(orders repository.WorkOrderRepository, attachments repository.AttachmentRepository, blobs storage.BlobClient, maxSize int64, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		orders:      orders,
		attachments: attachments,
		blobs:       blobs,
		maxSize:     maxSize,
		logger:      logger,
	}
}

// Register validates the metadata and inserts the row. The storage
// path must encode the owning work order id; there is no check that
// the object actually exists at the path.
func (s *AttachmentService) Register(ctx context.Context, actor Actor, workOrderID string, input RegisterAttachmentInput) (*domain.Attachment, error) {
	if input.SizeBytes <= 0 {
		return nil, util.NewValidationError("size_bytes must be positive", nil)
	}
	if input.SizeBytes > s.maxSize {
		return nil, util.NewValidationError("attachment exceeds the size limit",
			map[string]any{"max_size_bytes": s.maxSize})
	}
	if err := checkPathOwnership(input.StoragePath, workOrderID); err != nil {
		return nil, err
	}

	if _, err := s.orders.GetByID(ctx, workOrderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("work order")
		}
		return nil, err
	}

	attachment := &domain.Attachment{
		WorkOrderID: workOrderID,
		UploaderID:  actor.ID,
		StoragePath: input.StoragePath,
		FileName:    input.FileName,
		MimeType:    input.MimeType,
		SizeBytes:   input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// RegisterBatch registers several files, reporting success or failure
// per file rather than as an all-or-nothing outcome.
func (s *AttachmentService) RegisterBatch(ctx context.Context, actor Actor, workOrderID string, inputs []RegisterAttachmentInput) []AttachmentBatchResult {
	results := make([]AttachmentBatchResult, len(inputs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(registerBatchParallelism)
	for i, input := range inputs {
		i, input := i, input
		group.Go(func() error {
			attachment, err := s.Register(groupCtx, actor, workOrderID, input)
			results[i] = AttachmentBatchResult{
				FileName:   input.FileName,
				Attachment: attachment,
				Err:        err,
			}
			// Per-file outcomes only; never cancel siblings.
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// List returns attachment metadata for a work order.
func (s *AttachmentService) List(ctx context.Context, workOrderID string) ([]domain.Attachment, error) {
	return s.attachments.ListByWorkOrder(ctx, workOrderID)
}

// Delete removes the metadata row and the backing object as two
// independent operations. A failed object delete is logged and
// swallowed; the row is removed regardless, leaving an orphaned blob
// as an accepted limitation.
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("attachment")
		}
		return err
	}

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, attachment.StoragePath); err != nil {
			s.logger.Warn("failed to delete blob, metadata removed anyway",
				zap.String("attachment_id", attachment.ID),
				zap.String("path", attachment.StoragePath),
				zap.Error(err))
		}
	}

	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("attachment")
		}
		return err
	}
	return nil
}

// checkPathOwnership enforces the workorders/{id}/{filename} convention.
func checkPathOwnership(path, workOrderID string) error {
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[0] != attachmentPathPrefix || parts[len(parts)-1] == "" {
		return util.NewValidationError("storage path must follow workorders/{work_order_id}/{filename}",
			map[string]any{"path": path})
	}
	if parts[1] != workOrderID {
		return util.NewValidationError("storage path does not belong to this work order",
			map[string]any{"path": path, "work_order_id": workOrderID})
	}
	return nil
}
