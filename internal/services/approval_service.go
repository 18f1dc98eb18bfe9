package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/store"
)

// ApprovalService owns purchase and supplier payment approvals.
type ApprovalService struct {
	approvals store.ApprovalStore
	audit     *AuditService
	policy    *policy.Policy
	approvers []string
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewApprovalService builds the service. approvers is the designated
// approver list in preference order; the first one receives requests
// that do not name an approver.
func NewApprovalService(approvals store.ApprovalStore, audit *AuditService, p *policy.Policy, approvers []string) *ApprovalService {
	return &ApprovalService{approvals: approvals, audit: audit, policy: p, approvers: approvers, now: time.Now, newID: uuid.New}
}

func (s *ApprovalService) Create(ctx context.Context, actor *models.User, req *dto.CreateApprovalRequest) (*models.ApprovalRequest, error) {
	if !s.policy.CanCreateApproval(actor) {
		return nil, ErrUnauthenticated
	}

	subject := strings.TrimSpace(req.Subject)
	kind := models.ApprovalType(strings.TrimSpace(req.Type))
	approver := models.NormalizeEmail(req.ApproverEmail)
	if approver == "" && len(s.approvers) > 0 {
		approver = models.NormalizeEmail(s.approvers[0])
	}

	errs := fieldErrors{}
	if subject == "" {
		errs.add("subject", "subject is required")
	}
	if !models.ValidApprovalTypes[kind] {
		errs.add("type", "type must be Compra or PagoProveedor")
	}
	switch kind {
	case models.ApprovalCompra:
		if req.EstimatedPrice == nil || *req.EstimatedPrice <= 0 {
			errs.add("estimated_price", "estimated price must be greater than zero")
		}
	case models.ApprovalPagoProveedor:
		if req.TotalAmountToPay == nil || *req.TotalAmountToPay <= 0 {
			errs.add("total_amount_to_pay", "total amount to pay must be greater than zero")
		}
		if strings.TrimSpace(req.Supplier) == "" {
			errs.add("supplier", "supplier is required")
		}
	}
	if approver == "" || !s.policy.IsDesignatedApprover(approver) {
		errs.add("approver_email", "approver must be one of the designated approvers")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	approval := &models.ApprovalRequest{
		Subject:       subject,
		Description:   strings.TrimSpace(req.Description),
		Type:          kind,
		Status:        models.ApprovalPendiente,
		RequesterID:   actor.ID,
		RequesterName: actor.Name,
		ApproverEmail: approver,
		Supplier:      strings.TrimSpace(req.Supplier),
	}
	if kind == models.ApprovalCompra {
		approval.EstimatedPrice = req.EstimatedPrice
	} else {
		approval.TotalAmountToPay = req.TotalAmountToPay
	}
	var err error
	for attempt := 0; attempt < displayIDAttempts; attempt++ {
		approval.ID = s.newID()
		approval.DisplayID = models.ApprovalDisplayID(approval.ID)
		if err = s.approvals.Create(ctx, approval); !errors.Is(err, store.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create approval request: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionApprovalCreated,
		fmt.Sprintf("%s (%s) asignada a %s", approval.DisplayID, approval.Type, approval.ApproverEmail),
		"approval", approval.ID.String())
	return approval, nil
}

// List shows every request to approvers and override roles, and only
// their own requests to everyone else.
func (s *ApprovalService) List(ctx context.Context, actor *models.User, filter store.ApprovalFilter) ([]models.ApprovalRequest, int64, error) {
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}
	if !s.policy.CanAccess(actor, policy.ModuleApprovals) {
		filter.RequesterID = actor.ID
	}
	return s.approvals.Find(ctx, filter)
}

func (s *ApprovalService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "approval request")
	}
	if !s.policy.CanViewApproval(actor, approval) {
		return nil, s.audit.Denied(ctx, actor, "approvals: ver "+approval.DisplayID)
	}
	return approval, nil
}

// Decide records an approver's decision. Aprobado and Rechazado are final;
// InformacionSolicitada may be repeated and keeps the original CreatedAt.
func (s *ApprovalService) Decide(ctx context.Context, actor *models.User, id uuid.UUID, decision, note string) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "approval request")
	}
	if !s.policy.MayDecide(actor, approval) {
		return nil, s.audit.Denied(ctx, actor, "approvals: decidir "+approval.DisplayID)
	}

	to := models.ApprovalStatus(strings.TrimSpace(decision))
	if !models.ValidDecisions[to] {
		return nil, &ValidationError{Fields: map[string]string{"decision": "decision must be Aprobado, Rechazado, or InformacionSolicitada"}}
	}
	from := approval.Status
	if !models.CanDecideApproval(from, to) {
		return nil, fmt.Errorf("%w: %s is already %s", ErrInvalidTransition, approval.DisplayID, from)
	}

	now := s.now().UTC()
	approval.Status = to
	approval.DecisionNote = strings.TrimSpace(note)
	approval.DecidedBy = actor.Email
	approval.DecidedAt = &now
	if err := s.approvals.Update(ctx, approval); err != nil {
		return nil, fmt.Errorf("failed to update approval request: %w", err)
	}

	details := fmt.Sprintf("%s: %s -> %s", approval.DisplayID, from, to)
	if approval.DecisionNote != "" {
		details += ": " + approval.DecisionNote
	}
	s.audit.Record(ctx, actor.Email, ActionApprovalDecision, details, "approval", approval.ID.String())
	return approval, nil
}
