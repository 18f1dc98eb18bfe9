package models

import (
	"time"

	"github.com/google/uuid"
)

type ApprovalType string

const (
	ApprovalCompra        ApprovalType = "Compra"
	ApprovalPagoProveedor ApprovalType = "PagoProveedor"
)

type ApprovalStatus string

const (
	ApprovalPendiente             ApprovalStatus = "Pendiente"
	ApprovalAprobado              ApprovalStatus = "Aprobado"
	ApprovalRechazado             ApprovalStatus = "Rechazado"
	ApprovalInformacionSolicitada ApprovalStatus = "InformacionSolicitada"
)

var ValidApprovalTypes = map[ApprovalType]bool{
	ApprovalCompra: true, ApprovalPagoProveedor: true,
}

// ValidDecisions are the statuses an approver may move a request into.
var ValidDecisions = map[ApprovalStatus]bool{
	ApprovalAprobado: true, ApprovalRechazado: true, ApprovalInformacionSolicitada: true,
}

func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalAprobado || s == ApprovalRechazado
}

// ApprovalRequest is a purchase or supplier payment awaiting a decision.
type ApprovalRequest struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DisplayID        string         `gorm:"size:20;not null;uniqueIndex" json:"display_id"`
	Subject          string         `gorm:"size:255;not null" json:"subject"`
	Description      string         `gorm:"type:text" json:"description"`
	Type             ApprovalType   `gorm:"size:20;not null;index" json:"type"`
	Status           ApprovalStatus `gorm:"size:30;not null;default:'Pendiente';index" json:"status"`
	RequesterID      string         `gorm:"size:255;not null;index" json:"requester_id"`
	RequesterName    string         `gorm:"size:255" json:"requester_name"`
	ApproverEmail    string         `gorm:"size:255;not null;index" json:"approver_email"`
	Supplier         string         `gorm:"size:255" json:"supplier,omitempty"`
	EstimatedPrice   *float64       `gorm:"type:numeric(14,2)" json:"estimated_price,omitempty"`
	TotalAmountToPay *float64       `gorm:"type:numeric(14,2)" json:"total_amount_to_pay,omitempty"`
	DecisionNote     string         `gorm:"size:1000" json:"decision_note,omitempty"`
	DecidedBy        string         `gorm:"size:255" json:"decided_by,omitempty"`
	DecidedAt        *time.Time     `json:"decided_at,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func ApprovalDisplayID(id uuid.UUID) string {
	return "APR-" + shortID(id)
}
