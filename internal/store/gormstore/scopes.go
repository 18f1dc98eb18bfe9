package gormstore

import (
	"strings"

	"github.com/portal-hospitalario/backend/internal/store"
	"gorm.io/gorm"
)

// paginate applies a normalized limit/offset.
func paginate(p store.Page) func(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(p.Limit).Offset(p.Offset)
	}
}

// search ORs a case-insensitive substring match over the given columns.
func search(q string, columns ...string) func(db *gorm.DB) *gorm.DB {
	q = strings.TrimSpace(q)
	return func(db *gorm.DB) *gorm.DB {
		if q == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + q + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = col + " ILIKE ?"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

func ticketScope(f store.TicketFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(f.Status) > 0 {
			db = db.Where("status IN ?", f.Status)
		}
		if len(f.Priority) > 0 {
			db = db.Where("priority IN ?", f.Priority)
		}
		if f.UserID != "" {
			db = db.Where("user_id = ?", f.UserID)
		}
		return db.Scopes(search(f.Q, "subject", "description", "display_id"))
	}
}

func fallaScope(f store.FallaFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(f.Severidad) > 0 {
			db = db.Where("severidad IN ?", f.Severidad)
		}
		if len(f.Estado) > 0 {
			db = db.Where("estado IN ?", f.Estado)
		}
		if f.Ubicacion != "" {
			db = db.Where("ubicacion = ?", f.Ubicacion)
		}
		if len(f.TipoFalla) > 0 {
			db = db.Where("tipo_falla IN ?", f.TipoFalla)
		}
		if f.TecnicoID != "" {
			db = db.Where("asignado_a_id = ?", f.TecnicoID)
		}
		if f.Desde != nil {
			db = db.Where("fecha_deteccion >= ?", *f.Desde)
		}
		if f.Hasta != nil {
			db = db.Where("fecha_deteccion <= ?", *f.Hasta)
		}
		return db.Scopes(search(f.Q, "titulo", "descripcion", "equipo_nombre", "equipo_modelo", "equipo_serie"))
	}
}

func approvalScope(f store.ApprovalFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(f.Status) > 0 {
			db = db.Where("status IN ?", f.Status)
		}
		if len(f.Type) > 0 {
			db = db.Where("type IN ?", f.Type)
		}
		if f.RequesterID != "" {
			db = db.Where("requester_id = ?", f.RequesterID)
		}
		return db
	}
}

func inventoryScope(f store.InventoryFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Categoria != "" {
			db = db.Where("categoria = ?", f.Categoria)
		}
		if f.Ubicacion != "" {
			db = db.Where("ubicacion = ?", f.Ubicacion)
		}
		if f.BajoStock {
			db = db.Where("cantidad <= stock_minimo")
		}
		return db.Scopes(search(f.Q, "nombre", "notas"))
	}
}

func auditScope(f store.AuditFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.User != "" {
			db = db.Where("\"user\" = ?", f.User)
		}
		if f.Action != "" {
			db = db.Where("action = ?", f.Action)
		}
		return db
	}
}
