package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/store"
)

const (
	minTituloLen      = 5
	minDescripcionLen = 10
)

// FallaService owns the equipment failure lifecycle. Every entry point
// requires access to the fallas module.
type FallaService struct {
	fallas store.FallaStore
	users  store.UserStore
	audit  *AuditService
	policy *policy.Policy
	now    func() time.Time
}

func NewFallaService(fallas store.FallaStore, users store.UserStore, audit *AuditService, p *policy.Policy) *FallaService {
	return &FallaService{fallas: fallas, users: users, audit: audit, policy: p, now: time.Now}
}

func (s *FallaService) gate(ctx context.Context, actor *models.User, what string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !s.policy.CanAccess(actor, policy.ModuleFallas) {
		return s.audit.Denied(ctx, actor, what)
	}
	return nil
}

// Crear files a new falla in estado REPORTADA.
func (s *FallaService) Crear(ctx context.Context, actor *models.User, req *dto.CrearFallaRequest) (*models.Falla, error) {
	if err := s.gate(ctx, actor, "fallas: crear"); err != nil {
		return nil, err
	}

	titulo := strings.TrimSpace(req.Titulo)
	descripcion := strings.TrimSpace(req.Descripcion)
	equipo := strings.TrimSpace(req.EquipoNombre)
	ubicacion := strings.TrimSpace(req.Ubicacion)
	severidad := models.Severidad(strings.ToUpper(strings.TrimSpace(req.Severidad)))
	if severidad == "" {
		severidad = models.SeveridadMedia
	}
	tipo := models.TipoFalla(strings.ToUpper(strings.TrimSpace(req.TipoFalla)))
	if tipo == "" {
		tipo = models.TipoOtra
	}

	errs := fieldErrors{}
	if utf8.RuneCountInString(titulo) < minTituloLen {
		errs.add("titulo", fmt.Sprintf("el título debe tener al menos %d caracteres", minTituloLen))
	}
	if utf8.RuneCountInString(descripcion) < minDescripcionLen {
		errs.add("descripcion", fmt.Sprintf("la descripción debe tener al menos %d caracteres", minDescripcionLen))
	}
	if equipo == "" {
		errs.add("equipo_nombre", "el nombre del equipo es obligatorio")
	}
	if ubicacion == "" {
		errs.add("ubicacion", "la ubicación es obligatoria")
	}
	if !models.ValidSeveridades[severidad] {
		errs.add("severidad", "severidad inválida")
	}
	if !models.ValidTiposFalla[tipo] {
		errs.add("tipo_falla", "tipo de falla inválido")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	falla := &models.Falla{
		ID:               uuid.New(),
		Titulo:           titulo,
		Descripcion:      descripcion,
		EquipoNombre:     equipo,
		EquipoUbicacion:  strings.TrimSpace(req.EquipoUbicacion),
		EquipoFabricante: strings.TrimSpace(req.EquipoFabricante),
		EquipoModelo:     strings.TrimSpace(req.EquipoModelo),
		EquipoSerie:      strings.TrimSpace(req.EquipoSerie),
		Ubicacion:        ubicacion,
		Severidad:        severidad,
		TipoFalla:        tipo,
		Estado:           models.EstadoReportada,
		ReportadoPorID:   actor.ID,
		Adjuntos:         []models.Attachment{},
		FechaDeteccion:   s.now().UTC(),
	}
	if err := s.fallas.Create(ctx, falla); err != nil {
		return nil, fmt.Errorf("failed to create falla: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionFallaCreated,
		fmt.Sprintf("%s (%s, %s) en %s", falla.Titulo, falla.EquipoNombre, falla.Severidad, falla.Ubicacion),
		"falla", falla.ID.String())
	return falla, nil
}

func (s *FallaService) Listar(ctx context.Context, actor *models.User, filter store.FallaFilter) ([]models.Falla, int64, error) {
	if err := s.gate(ctx, actor, "fallas: listar"); err != nil {
		return nil, 0, err
	}
	return s.fallas.Find(ctx, filter)
}

func (s *FallaService) Obtener(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Falla, error) {
	if err := s.gate(ctx, actor, "fallas: ver "+id.String()); err != nil {
		return nil, err
	}
	falla, err := s.fallas.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "falla")
	}
	return falla, nil
}

// Transicionar moves a falla to nuevoEstado. A falla in a terminal estado
// is never modified.
func (s *FallaService) Transicionar(ctx context.Context, actor *models.User, id uuid.UUID, nuevoEstado, nota string) (*models.Falla, error) {
	falla, err := s.Obtener(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.MayActOnFalla(actor, falla) {
		return nil, s.audit.Denied(ctx, actor, "fallas: transicionar "+falla.ID.String())
	}

	to := models.EstadoFalla(strings.ToUpper(strings.TrimSpace(nuevoEstado)))
	if !models.ValidEstadosFalla[to] {
		return nil, &ValidationError{Fields: map[string]string{"estado": "estado inválido"}}
	}
	from := falla.Estado
	if !models.CanMoveFalla(from, to) {
		return nil, fmt.Errorf("%w: falla %s no puede pasar de %s a %s", ErrInvalidTransition, falla.ID, from, to)
	}

	now := s.now().UTC()
	falla.Estado = to
	if to == models.EstadoResuelta {
		falla.FechaResolucion = &now
	}
	if err := s.fallas.Update(ctx, falla); err != nil {
		return nil, fmt.Errorf("failed to update falla: %w", err)
	}

	details := fmt.Sprintf("%s -> %s por %s a las %s", from, to, actor.Email, now.Format(time.RFC3339))
	if nota = strings.TrimSpace(nota); nota != "" {
		details += ": " + nota
	}
	s.audit.Record(ctx, actor.Email, ActionFallaTransition, details, "falla", falla.ID.String())
	return falla, nil
}

// Asignar hands a falla to a technician.
func (s *FallaService) Asignar(ctx context.Context, actor *models.User, id uuid.UUID, tecnicoID string) (*models.Falla, error) {
	falla, err := s.Obtener(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAssignFalla(actor) {
		return nil, s.audit.Denied(ctx, actor, "fallas: asignar "+falla.ID.String())
	}
	if falla.Estado.Terminal() {
		return nil, fmt.Errorf("%w: falla %s está en estado terminal %s", ErrInvalidTransition, falla.ID, falla.Estado)
	}

	tecnicoID = strings.TrimSpace(tecnicoID)
	if tecnicoID == "" {
		return nil, &ValidationError{Fields: map[string]string{"tecnico_id": "el técnico es obligatorio"}}
	}
	tecnico, err := s.users.FindByID(ctx, tecnicoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ValidationError{Fields: map[string]string{"tecnico_id": "técnico inexistente"}}
		}
		return nil, err
	}
	// The technician must be able to act on the falla once assigned.
	if !s.policy.CanAccess(tecnico, policy.ModuleFallas) {
		return nil, &ValidationError{Fields: map[string]string{"tecnico_id": "el técnico no tiene acceso al módulo de fallas"}}
	}

	falla.AsignadoAID = &tecnico.ID
	if err := s.fallas.Update(ctx, falla); err != nil {
		return nil, fmt.Errorf("failed to assign falla: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionFallaAssigned,
		fmt.Sprintf("asignada a %s", tecnico.Email), "falla", falla.ID.String())
	return falla, nil
}

func (s *FallaService) AgregarAdjunto(ctx context.Context, actor *models.User, id uuid.UUID, req *dto.AttachmentRequest) (*models.Falla, error) {
	falla, err := s.Obtener(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	att, err := newAttachment(actor, req, s.now())
	if err != nil {
		return nil, err
	}

	falla.Adjuntos = append(falla.Adjuntos, att)
	if err := s.fallas.Update(ctx, falla); err != nil {
		return nil, fmt.Errorf("failed to add adjunto: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionFallaAttachment, att.FileName, "falla", falla.ID.String())
	return falla, nil
}
