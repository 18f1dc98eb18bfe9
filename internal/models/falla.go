package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Severidad string

const (
	SeveridadBaja    Severidad = "BAJA"
	SeveridadMedia   Severidad = "MEDIA"
	SeveridadAlta    Severidad = "ALTA"
	SeveridadCritica Severidad = "CRITICA"
)

type TipoFalla string

const (
	TipoElectrica     TipoFalla = "ELECTRICA"
	TipoMecanica      TipoFalla = "MECANICA"
	TipoSoftware      TipoFalla = "SOFTWARE"
	TipoCalibracion   TipoFalla = "CALIBRACION"
	TipoDesgaste      TipoFalla = "DESGASTE"
	TipoUsoInadecuado TipoFalla = "USO_INADECUADO"
	TipoOtra          TipoFalla = "OTRA"
)

type EstadoFalla string

const (
	EstadoReportada           EstadoFalla = "REPORTADA"
	EstadoEnDiagnostico       EstadoFalla = "EN_DIAGNOSTICO"
	EstadoPendientePieza      EstadoFalla = "PENDIENTE_PIEZA"
	EstadoEnReparacionInterna EstadoFalla = "EN_REPARACION_INTERNA"
	EstadoEscaladaExterno     EstadoFalla = "ESCALADA_EXTERNO"
	EstadoEnCalibracion       EstadoFalla = "EN_CALIBRACION"
	EstadoResuelta            EstadoFalla = "RESUELTA"
	EstadoCerrada             EstadoFalla = "CERRADA"
	EstadoDuplicada           EstadoFalla = "DUPLICADA"
	EstadoNoSeReproduce       EstadoFalla = "NO_SE_REPRODUCE"
)

var ValidSeveridades = map[Severidad]bool{
	SeveridadBaja: true, SeveridadMedia: true, SeveridadAlta: true, SeveridadCritica: true,
}

var ValidTiposFalla = map[TipoFalla]bool{
	TipoElectrica: true, TipoMecanica: true, TipoSoftware: true, TipoCalibracion: true,
	TipoDesgaste: true, TipoUsoInadecuado: true, TipoOtra: true,
}

var ValidEstadosFalla = map[EstadoFalla]bool{
	EstadoReportada: true, EstadoEnDiagnostico: true, EstadoPendientePieza: true,
	EstadoEnReparacionInterna: true, EstadoEscaladaExterno: true, EstadoEnCalibracion: true,
	EstadoResuelta: true, EstadoCerrada: true, EstadoDuplicada: true, EstadoNoSeReproduce: true,
}

// TerminalEstados admit no further transition.
var TerminalEstados = map[EstadoFalla]bool{
	EstadoResuelta: true, EstadoCerrada: true, EstadoDuplicada: true, EstadoNoSeReproduce: true,
}

func (e EstadoFalla) Terminal() bool { return TerminalEstados[e] }

// Falla is a reported equipment failure. The equipo fields are a free-text
// snapshot taken when the report is filed.
type Falla struct {
	ID               uuid.UUID                       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Titulo           string                          `gorm:"size:255;not null" json:"titulo"`
	Descripcion      string                          `gorm:"type:text;not null" json:"descripcion"`
	EquipoNombre     string                          `gorm:"size:255;not null" json:"equipo_nombre"`
	EquipoUbicacion  string                          `gorm:"size:255" json:"equipo_ubicacion"`
	EquipoFabricante string                          `gorm:"size:255" json:"equipo_fabricante"`
	EquipoModelo     string                          `gorm:"size:255" json:"equipo_modelo"`
	EquipoSerie      string                          `gorm:"size:255" json:"equipo_serie"`
	Ubicacion        string                          `gorm:"size:255;not null;index" json:"ubicacion"`
	Severidad        Severidad                       `gorm:"size:10;not null;index" json:"severidad"`
	TipoFalla        TipoFalla                       `gorm:"size:30;not null;index" json:"tipo_falla"`
	Estado           EstadoFalla                     `gorm:"size:30;not null;default:'REPORTADA';index" json:"estado"`
	ReportadoPorID   string                          `gorm:"size:255;not null;index" json:"reportado_por_id"`
	AsignadoAID      *string                         `gorm:"size:255;index" json:"asignado_a_id"`
	Adjuntos         datatypes.JSONSlice[Attachment] `gorm:"type:jsonb" json:"adjuntos"`
	FechaDeteccion   time.Time                       `gorm:"not null;index" json:"fecha_deteccion"`
	FechaResolucion  *time.Time                      `json:"fecha_resolucion"`
	CreatedAt        time.Time                       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                       `json:"updated_at"`
}

func (Falla) TableName() string {
	return "fallas"
}
