package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/handlers"
	"github.com/portal-hospitalario/backend/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketHandler
	Fallas    *handlers.FallaHandler
	Approvals *handlers.ApprovalHandler
	Inventory *handlers.InventoryHandler
	Admin     *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, users middleware.UserLoader, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/catalog", handlers.Catalog)

	// Session exchange, stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/session", h.Auth.Session)

	// Everything below needs a session token and a known user
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.LoadUser(users))

	protected.Get("/me", h.Auth.Me)

	tickets := protected.Group("/tickets")
	tickets.Get("/", h.Tickets.List)
	tickets.Post("/", h.Tickets.Create)
	tickets.Get("/:id", h.Tickets.Get)
	tickets.Patch("/:id/status", h.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", h.Tickets.UpdatePriority)
	tickets.Post("/:id/comments", h.Tickets.AddComment)
	tickets.Post("/:id/attachments", h.Tickets.AddAttachment)
	tickets.Post("/:id/attachments/upload-url", h.Tickets.UploadURL)
	tickets.Get("/:id/suggestion", h.Tickets.Suggestion)

	fallas := protected.Group("/fallas")
	fallas.Get("/", h.Fallas.Listar)
	fallas.Post("/", h.Fallas.Crear)
	fallas.Get("/:id", h.Fallas.Obtener)
	fallas.Post("/:id/transicion", h.Fallas.Transicionar)
	fallas.Post("/:id/asignar", h.Fallas.Asignar)
	fallas.Post("/:id/adjuntos", h.Fallas.AgregarAdjunto)
	fallas.Post("/:id/adjuntos/upload-url", h.Fallas.UploadURL)

	approvals := protected.Group("/approvals")
	approvals.Get("/", h.Approvals.List)
	approvals.Post("/", h.Approvals.Create)
	approvals.Get("/:id", h.Approvals.Get)
	approvals.Post("/:id/decision", h.Approvals.Decide)

	inventory := protected.Group("/inventory")
	inventory.Get("/", h.Inventory.List)
	inventory.Post("/", h.Inventory.Create)
	inventory.Get("/:id", h.Inventory.Get)
	inventory.Put("/:id", h.Inventory.Update)
	inventory.Post("/:id/adjust", h.Inventory.Adjust)
	inventory.Delete("/:id", h.Inventory.Delete)

	protected.Get("/audit-logs", h.Admin.AuditLogs)
	protected.Get("/users", h.Admin.ListUsers)
	protected.Put("/users/:id/role", h.Admin.UpdateRole)
}
