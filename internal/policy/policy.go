// Package policy is the single place that decides who may see or change
// what. Services consult it at every entry point; handlers never make
// role decisions of their own.
package policy

import (
	"github.com/portal-hospitalario/backend/internal/models"
)

type Module string

const (
	ModuleTickets   Module = "tickets"
	ModuleFallas    Module = "fallas"
	ModuleApprovals Module = "approvals"
	ModuleInventory Module = "inventory"
	ModuleAudit     Module = "audit"
	ModuleUsers     Module = "users"
)

// DeniedMessage is what a caller sees when the policy refuses an action.
const DeniedMessage = "Acceso Denegado"

type Policy struct {
	electromedicinaEmail string
	approverEmails       map[string]bool
	allowTicketReopen    bool
}

// New builds a Policy. Emails are compared case-insensitively.
func New(electromedicinaEmail string, approverEmails []string, allowTicketReopen bool) *Policy {
	approvers := make(map[string]bool, len(approverEmails))
	for _, e := range approverEmails {
		if e = models.NormalizeEmail(e); e != "" {
			approvers[e] = true
		}
	}
	return &Policy{
		electromedicinaEmail: models.NormalizeEmail(electromedicinaEmail),
		approverEmails:       approvers,
		allowTicketReopen:    allowTicketReopen,
	}
}

func (p *Policy) AllowTicketReopen() bool { return p.allowTicketReopen }

// IsElectromedicina reports whether u is the designated biomedical
// engineering account.
func (p *Policy) IsElectromedicina(u *models.User) bool {
	return u != nil && p.electromedicinaEmail != "" && models.NormalizeEmail(u.Email) == p.electromedicinaEmail
}

// IsDesignatedApprover reports whether email belongs to the approver set.
func (p *Policy) IsDesignatedApprover(email string) bool {
	return p.approverEmails[models.NormalizeEmail(email)]
}

// CanAccess decides module-level access.
func (p *Policy) CanAccess(u *models.User, m Module) bool {
	if u == nil || u.ID == "" {
		return false
	}
	switch m {
	case ModuleTickets:
		return true
	case ModuleFallas:
		return u.IsOverride() || p.IsElectromedicina(u)
	case ModuleApprovals:
		return u.IsOverride() || p.IsDesignatedApprover(u.Email)
	case ModuleInventory:
		return u.IsOverride() || u.Role == models.RoleElectromedicina || p.IsElectromedicina(u)
	case ModuleAudit, ModuleUsers:
		return u.IsOverride()
	}
	return false
}

// IsSupport reports whether u may change ticket status and priority.
func (p *Policy) IsSupport(u *models.User) bool {
	return u != nil && (u.IsOverride() || u.Role == models.RoleElectromedicina || p.IsElectromedicina(u))
}

// CanCreateApproval allows any authenticated user to file a request.
func (p *Policy) CanCreateApproval(u *models.User) bool {
	return u != nil && u.ID != ""
}

// CanViewApproval allows module users and the original requester.
func (p *Policy) CanViewApproval(u *models.User, r *models.ApprovalRequest) bool {
	if p.CanAccess(u, ModuleApprovals) {
		return true
	}
	return u != nil && r != nil && r.RequesterID == u.ID
}

// MayActOnFalla reports whether u may transition f: the assigned
// technician or an override role, always within module access.
func (p *Policy) MayActOnFalla(u *models.User, f *models.Falla) bool {
	if !p.CanAccess(u, ModuleFallas) || f == nil {
		return false
	}
	if u.IsOverride() {
		return true
	}
	return f.AsignadoAID != nil && *f.AsignadoAID == u.ID
}

// CanAssignFalla allows override roles and the electromedicina account to
// hand a falla to a technician.
func (p *Policy) CanAssignFalla(u *models.User) bool {
	return p.CanAccess(u, ModuleFallas)
}

// MayDecide reports whether u may decide r: the assigned approver or an
// override role.
func (p *Policy) MayDecide(u *models.User, r *models.ApprovalRequest) bool {
	if !p.CanAccess(u, ModuleApprovals) || r == nil {
		return false
	}
	if u.IsOverride() {
		return true
	}
	return models.NormalizeEmail(u.Email) == models.NormalizeEmail(r.ApproverEmail)
}

// CanTransition combines the actor check with the lifecycle rules for the
// given entity. Unknown entity types are always denied.
func (p *Policy) CanTransition(u *models.User, entity interface{}, from, to string) bool {
	switch e := entity.(type) {
	case *models.Ticket:
		return p.IsSupport(u) && models.CanMoveTicket(models.TicketStatus(from), models.TicketStatus(to), p.allowTicketReopen)
	case *models.Falla:
		return p.MayActOnFalla(u, e) && models.CanMoveFalla(models.EstadoFalla(from), models.EstadoFalla(to))
	case *models.ApprovalRequest:
		return p.MayDecide(u, e) && models.CanDecideApproval(models.ApprovalStatus(from), models.ApprovalStatus(to))
	}
	return false
}
