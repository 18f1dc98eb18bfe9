// Package gormstore implements the store contract on PostgreSQL through GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/store"
	"gorm.io/gorm"
)

// New returns a Store whose entity stores all share db.
func New(db *gorm.DB) *store.Store {
	return &store.Store{
		Users:     &userStore{db: db},
		Tickets:   &ticketStore{db: db},
		Fallas:    &fallaStore{db: db},
		Approvals: &approvalStore{db: db},
		Inventory: &inventoryStore{db: db},
		Audit:     &auditStore{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

// --- users ---

type userStore struct{ db *gorm.DB }

func (s *userStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, err
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *userStore) Update(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *userStore) ChangeID(ctx context.Context, oldID, newID string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", oldID).Update("id", newID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *userStore) UpsertByEmail(ctx context.Context, user *models.User) (bool, error) {
	user.Email = models.NormalizeEmail(user.Email)
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", user.Email).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(user).Error
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"name":       user.Name,
			"role":       user.Role,
			"department": user.Department,
		}).Error; err != nil {
			return err
		}
		user.ID = existing.ID
		user.AvatarURL = existing.AvatarURL
		user.CreatedAt = existing.CreatedAt
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert user %s: %w", user.Email, err)
	}
	return created, nil
}

// --- tickets ---

type ticketStore struct{ db *gorm.DB }

func (s *ticketStore) Find(ctx context.Context, f store.TicketFilter) ([]models.Ticket, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&models.Ticket{}).Scopes(ticketScope(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Scopes(paginate(f.Page)).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (s *ticketStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *ticketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	return translate(s.db.WithContext(ctx).Create(ticket).Error)
}

func (s *ticketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	return s.db.WithContext(ctx).Save(ticket).Error
}

// --- fallas ---

type fallaStore struct{ db *gorm.DB }

func (s *fallaStore) Find(ctx context.Context, f store.FallaFilter) ([]models.Falla, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&models.Falla{}).Scopes(fallaScope(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var fallas []models.Falla
	if err := query.Order("created_at DESC").Scopes(paginate(f.Page)).Find(&fallas).Error; err != nil {
		return nil, 0, err
	}
	return fallas, total, nil
}

func (s *fallaStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Falla, error) {
	var falla models.Falla
	if err := s.db.WithContext(ctx).First(&falla, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &falla, nil
}

func (s *fallaStore) Create(ctx context.Context, falla *models.Falla) error {
	return s.db.WithContext(ctx).Create(falla).Error
}

func (s *fallaStore) Update(ctx context.Context, falla *models.Falla) error {
	return s.db.WithContext(ctx).Save(falla).Error
}

// --- approvals ---

type approvalStore struct{ db *gorm.DB }

func (s *approvalStore) Find(ctx context.Context, f store.ApprovalFilter) ([]models.ApprovalRequest, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&models.ApprovalRequest{}).Scopes(approvalScope(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reqs []models.ApprovalRequest
	if err := query.Order("created_at DESC").Scopes(paginate(f.Page)).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (s *approvalStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *approvalStore) Create(ctx context.Context, req *models.ApprovalRequest) error {
	return translate(s.db.WithContext(ctx).Create(req).Error)
}

func (s *approvalStore) Update(ctx context.Context, req *models.ApprovalRequest) error {
	return s.db.WithContext(ctx).Save(req).Error
}

// --- inventory ---

type inventoryStore struct{ db *gorm.DB }

func (s *inventoryStore) Find(ctx context.Context, f store.InventoryFilter) ([]models.InventoryItem, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&models.InventoryItem{}).Scopes(inventoryScope(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.InventoryItem
	if err := query.Order("nombre ASC").Scopes(paginate(f.Page)).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *inventoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *inventoryStore) Create(ctx context.Context, item *models.InventoryItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *inventoryStore) Update(ctx context.Context, item *models.InventoryItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *inventoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.InventoryItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- audit ---

type auditStore struct{ db *gorm.DB }

func (s *auditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *auditStore) List(ctx context.Context, f store.AuditFilter) ([]models.AuditLog, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(auditScope(f))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []models.AuditLog
	if err := query.Order("timestamp DESC, id DESC").Scopes(paginate(f.Page)).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
