package models

import (
	"time"

	"github.com/google/uuid"
)

type InventoryItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Nombre      string    `gorm:"size:255;not null" json:"nombre"`
	Categoria   string    `gorm:"size:100;index" json:"categoria"`
	Cantidad    int       `gorm:"not null;default:0" json:"cantidad"`
	StockMinimo int       `gorm:"not null;default:0" json:"stock_minimo"`
	Unidad      string    `gorm:"size:30" json:"unidad"`
	Ubicacion   string    `gorm:"size:255;index" json:"ubicacion"`
	Notas       string    `gorm:"type:text" json:"notas"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LowStock reports whether the item is at or below its reorder threshold.
func (i *InventoryItem) LowStock() bool {
	return i.Cantidad <= i.StockMinimo
}
