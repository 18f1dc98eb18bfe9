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

const (
	maxSubjectLen = 255
	maxCommentLen = 5000

	// Display IDs keep 32 bits of the uuid; a collision gets a fresh id.
	displayIDAttempts = 5
)

// TicketService owns the support ticket lifecycle.
type TicketService struct {
	tickets store.TicketStore
	audit   *AuditService
	policy  *policy.Policy
	now     func() time.Time
	newID   func() uuid.UUID
}

func NewTicketService(tickets store.TicketStore, audit *AuditService, p *policy.Policy) *TicketService {
	return &TicketService{tickets: tickets, audit: audit, policy: p, now: time.Now, newID: uuid.New}
}

func (s *TicketService) Create(ctx context.Context, actor *models.User, req *dto.CreateTicketRequest) (*models.Ticket, error) {
	if !s.policy.CanAccess(actor, policy.ModuleTickets) {
		return nil, ErrUnauthenticated
	}

	subject := strings.TrimSpace(req.Subject)
	description := strings.TrimSpace(req.Description)
	priority := models.TicketPriority(req.Priority)

	errs := fieldErrors{}
	if subject == "" {
		errs.add("subject", "subject is required")
	} else if len(subject) > maxSubjectLen {
		errs.add("subject", fmt.Sprintf("subject must be at most %d characters", maxSubjectLen))
	}
	if description == "" {
		errs.add("description", "description is required")
	}
	if !models.ValidTicketPriorities[priority] {
		errs.add("priority", "priority must be Low, Medium, or High")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		Subject:     subject,
		Description: description,
		Priority:    priority,
		Status:      models.TicketOpen,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Attachments: []models.Attachment{},
		Comments:    []models.Comment{},
	}
	var err error
	for attempt := 0; attempt < displayIDAttempts; attempt++ {
		ticket.ID = s.newID()
		ticket.DisplayID = models.TicketDisplayID(ticket.ID)
		if err = s.tickets.Create(ctx, ticket); !errors.Is(err, store.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionTicketCreated,
		fmt.Sprintf("%s: %s", ticket.DisplayID, ticket.Subject), "ticket", ticket.ID.String())
	return ticket, nil
}

func (s *TicketService) List(ctx context.Context, actor *models.User, filter store.TicketFilter) ([]models.Ticket, int64, error) {
	if !s.policy.CanAccess(actor, policy.ModuleTickets) {
		return nil, 0, ErrUnauthenticated
	}
	return s.tickets.Find(ctx, filter)
}

func (s *TicketService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Ticket, error) {
	if !s.policy.CanAccess(actor, policy.ModuleTickets) {
		return nil, ErrUnauthenticated
	}
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "ticket")
	}
	return ticket, nil
}

// Transition moves a ticket to a new status. Only support staff may do
// it, and only along the lifecycle allowed by the reopen policy.
func (s *TicketService) Transition(ctx context.Context, actor *models.User, id uuid.UUID, status string) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsSupport(actor) {
		return nil, s.audit.Denied(ctx, actor, "ticket status "+ticket.DisplayID)
	}

	to := models.TicketStatus(status)
	if _, ok := models.TicketStatusRank[to]; !ok {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown ticket status"}}
	}
	from := ticket.Status
	if !s.policy.CanTransition(actor, ticket, string(from), string(to)) {
		return nil, fmt.Errorf("%w: ticket %s cannot move from %s to %s", ErrInvalidTransition, ticket.DisplayID, from, to)
	}

	ticket.Status = to
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionTicketStatus,
		fmt.Sprintf("%s: %s -> %s", ticket.DisplayID, from, to), "ticket", ticket.ID.String())
	return ticket, nil
}

func (s *TicketService) ChangePriority(ctx context.Context, actor *models.User, id uuid.UUID, priority string) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsSupport(actor) {
		return nil, s.audit.Denied(ctx, actor, "ticket priority "+ticket.DisplayID)
	}
	to := models.TicketPriority(priority)
	if !models.ValidTicketPriorities[to] {
		return nil, &ValidationError{Fields: map[string]string{"priority": "priority must be Low, Medium, or High"}}
	}
	if ticket.Status == models.TicketClosed {
		return nil, fmt.Errorf("%w: ticket %s is closed", ErrInvalidTransition, ticket.DisplayID)
	}
	from := ticket.Priority
	if from == to {
		return ticket, nil
	}

	ticket.Priority = to
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionTicketPriority,
		fmt.Sprintf("%s: %s -> %s", ticket.DisplayID, from, to), "ticket", ticket.ID.String())
	return ticket, nil
}

// AddComment appends to the ticket's comment thread without touching its
// status.
func (s *TicketService) AddComment(ctx context.Context, actor *models.User, id uuid.UUID, text string) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Fields: map[string]string{"text": "comment text is required"}}
	}
	if len(text) > maxCommentLen {
		return nil, &ValidationError{Fields: map[string]string{"text": fmt.Sprintf("comment must be at most %d characters", maxCommentLen)}}
	}

	ticket.Comments = append(ticket.Comments, models.Comment{
		ID:          uuid.NewString(),
		Author:      actor.Name,
		AuthorEmail: actor.Email,
		Text:        text,
		Timestamp:   s.now().UTC(),
	})
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionTicketComment, ticket.DisplayID, "ticket", ticket.ID.String())
	return ticket, nil
}

// AddAttachment records metadata for an uploaded blob. Status is unchanged.
func (s *TicketService) AddAttachment(ctx context.Context, actor *models.User, id uuid.UUID, req *dto.AttachmentRequest) (*models.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	att, err := newAttachment(actor, req, s.now())
	if err != nil {
		return nil, err
	}

	ticket.Attachments = append(ticket.Attachments, att)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to add attachment: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionTicketAttachment,
		fmt.Sprintf("%s: %s", ticket.DisplayID, att.FileName), "ticket", ticket.ID.String())
	return ticket, nil
}

func newAttachment(actor *models.User, req *dto.AttachmentRequest, now time.Time) (models.Attachment, error) {
	errs := fieldErrors{}
	if strings.TrimSpace(req.FileName) == "" {
		errs.add("file_name", "file name is required")
	}
	if strings.TrimSpace(req.StorageKey) == "" {
		errs.add("storage_key", "storage key is required")
	}
	if req.Size < 0 {
		errs.add("size", "size cannot be negative")
	}
	if err := errs.err(); err != nil {
		return models.Attachment{}, err
	}
	return models.Attachment{
		ID:          uuid.NewString(),
		FileName:    strings.TrimSpace(req.FileName),
		ContentType: req.ContentType,
		Size:        req.Size,
		StorageKey:  req.StorageKey,
		UploadedBy:  actor.Email,
		UploadedAt:  now.UTC(),
	}, nil
}
