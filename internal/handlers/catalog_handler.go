package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/models"
)

// Catalog serves the labels and colors for every enum so clients do not
// hard-code them.
func Catalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ticket_status":   models.TicketStatusDisplay,
		"ticket_priority": models.TicketPriorityDisplay,
		"severidad":       models.SeveridadDisplay,
		"estado_falla":    models.EstadoFallaDisplay,
		"tipo_falla":      models.TipoFallaDisplay,
		"approval_status": models.ApprovalStatusDisplay,
		"approval_type":   models.ApprovalTypeDisplay,
		"roles":           []models.Role{models.RoleAdmin, models.RolePresidente, models.RoleElectromedicina, models.RoleUser},
	})
}
