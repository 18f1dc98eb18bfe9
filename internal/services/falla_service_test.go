package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/store"
)

func bombaRota() *dto.CrearFallaRequest {
	return &dto.CrearFallaRequest{
		Titulo:       "Bomba rota",
		Descripcion:  "No enciende la bomba de infusión",
		EquipoNombre: "Bomba XYZ",
		Ubicacion:    "UCI",
	}
}

func TestCrearFallaBombaRota(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	before := f.auditCount(t)

	falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}
	if falla.Estado != models.EstadoReportada {
		t.Errorf("estado = %s, want REPORTADA", falla.Estado)
	}
	if falla.FechaDeteccion.IsZero() {
		t.Error("fecha_deteccion not set")
	}
	if falla.Severidad != models.SeveridadMedia || falla.TipoFalla != models.TipoOtra {
		t.Errorf("defaults = %s/%s, want MEDIA/OTRA", falla.Severidad, falla.TipoFalla)
	}
	if falla.ReportadoPorID != f.admin.ID {
		t.Errorf("reportado_por_id = %q, want %q", falla.ReportadoPorID, f.admin.ID)
	}

	if got := f.auditCount(t) - before; got != 1 {
		t.Fatalf("audit entries added = %d, want 1", got)
	}
	entry := f.auditEntries(t)[0]
	if !strings.Contains(entry.Action, "Falla") || entry.EntityID != falla.ID.String() {
		t.Errorf("unexpected audit entry: %+v", entry)
	}
}

func TestCrearFallaValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(r *dto.CrearFallaRequest)
		field string
	}{
		{"short titulo", func(r *dto.CrearFallaRequest) { r.Titulo = "Roto" }, "titulo"},
		{"short descripcion", func(r *dto.CrearFallaRequest) { r.Descripcion = "No anda" }, "descripcion"},
		{"missing equipo", func(r *dto.CrearFallaRequest) { r.EquipoNombre = "  " }, "equipo_nombre"},
		{"missing ubicacion", func(r *dto.CrearFallaRequest) { r.Ubicacion = "" }, "ubicacion"},
		{"bad severidad", func(r *dto.CrearFallaRequest) { r.Severidad = "URGENTE" }, "severidad"},
		{"bad tipo", func(r *dto.CrearFallaRequest) { r.TipoFalla = "MAGIA" }, "tipo_falla"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bombaRota()
			tt.edit(req)
			_, err := f.fallas.Crear(ctx, f.admin, req)
			requireErrorIs(t, err, ErrValidation)
			requireValidationField(t, err, tt.field)
		})
	}

	// Several failures are reported together, one per field.
	_, err := f.fallas.Crear(ctx, f.admin, &dto.CrearFallaRequest{})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %v", err)
	}
}

func TestCrearFallaCountsRunesNotBytes(t *testing.T) {
	f := newFixture(t, false)
	req := bombaRota()
	req.Titulo = "Añejó" // 5 runes, 7 bytes
	if _, err := f.fallas.Crear(context.Background(), f.admin, req); err != nil {
		t.Fatalf("Crear with 5-rune titulo: %v", err)
	}
}

func TestFallasModuleDeniedForOrdinaryUser(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	// Existing ticket data must not influence the decision.
	if _, err := f.tickets.Create(ctx, f.other, &dto.CreateTicketRequest{
		Subject: "Impresora", Description: "No imprime", Priority: "Low",
	}); err != nil {
		t.Fatalf("creating ticket: %v", err)
	}
	falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}

	before := f.auditCount(t)

	list, total, err := f.fallas.Listar(ctx, f.other, store.FallaFilter{})
	requireErrorIs(t, err, ErrForbidden)
	if list != nil || total != 0 {
		t.Fatalf("denied listing returned data: %v (%d)", list, total)
	}
	if err.Error() != "Acceso Denegado" {
		t.Errorf("denial message = %q", err.Error())
	}

	if _, err := f.fallas.Obtener(ctx, f.other, falla.ID); err == nil {
		t.Fatal("Obtener succeeded for ordinary user")
	}
	if _, err := f.fallas.Crear(ctx, f.other, bombaRota()); err == nil {
		t.Fatal("Crear succeeded for ordinary user")
	}
	if _, err := f.fallas.Transicionar(ctx, f.other, falla.ID, "EN_DIAGNOSTICO", ""); err == nil {
		t.Fatal("Transicionar succeeded for ordinary user")
	}

	if got := f.auditCount(t) - before; got != 4 {
		t.Fatalf("denials audited = %d, want 4", got)
	}
	if a := f.auditEntries(t)[0].Action; a != ActionAccessDenied {
		t.Errorf("latest audit action = %q, want %q", a, ActionAccessDenied)
	}
}

func TestFallasModuleAllowedRoles(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	tecnicoRole := f.addUser(t, "sub-tec", "Tomas Tecnico", "tomas@hospital.local", models.RoleElectromedicina)

	tests := []struct {
		name    string
		user    *models.User
		allowed bool
	}{
		{"admin", f.admin, true},
		{"presidente", f.presidente, true},
		{"electromedicina address", f.electro, true},
		{"approver", f.approver, false},
		{"electromedicina role, other address", tecnicoRole, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.fallas.Listar(ctx, tt.user, store.FallaFilter{})
			if tt.allowed && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
			if !tt.allowed {
				requireErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestTransicionarFalla(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}

	// The electromedicina account may only act once assigned.
	_, err = f.fallas.Transicionar(ctx, f.electro, falla.ID, "EN_DIAGNOSTICO", "")
	requireErrorIs(t, err, ErrForbidden)

	if _, err := f.fallas.Asignar(ctx, f.admin, falla.ID, f.electro.ID); err != nil {
		t.Fatalf("Asignar: %v", err)
	}

	before := f.auditCount(t)
	got, err := f.fallas.Transicionar(ctx, f.electro, falla.ID, "en_diagnostico", "revisando fuente")
	if err != nil {
		t.Fatalf("Transicionar: %v", err)
	}
	if got.Estado != models.EstadoEnDiagnostico {
		t.Errorf("estado = %s, want EN_DIAGNOSTICO", got.Estado)
	}
	if f.auditCount(t)-before != 1 {
		t.Fatal("transition not audited exactly once")
	}
	entry := f.auditEntries(t)[0]
	for _, want := range []string{"REPORTADA", "EN_DIAGNOSTICO", electroEmail, "revisando fuente"} {
		if !strings.Contains(entry.Details, want) {
			t.Errorf("audit details %q missing %q", entry.Details, want)
		}
	}

	// REPORTADA is only set at creation; same-state moves are rejected.
	_, err = f.fallas.Transicionar(ctx, f.admin, falla.ID, "REPORTADA", "")
	requireErrorIs(t, err, ErrInvalidTransition)
	_, err = f.fallas.Transicionar(ctx, f.admin, falla.ID, "EN_DIAGNOSTICO", "")
	requireErrorIs(t, err, ErrInvalidTransition)

	_, err = f.fallas.Transicionar(ctx, f.admin, falla.ID, "ARREGLADA", "")
	requireValidationField(t, err, "estado")

	resuelta, err := f.fallas.Transicionar(ctx, f.admin, falla.ID, "RESUELTA", "")
	if err != nil {
		t.Fatalf("Transicionar to RESUELTA: %v", err)
	}
	if resuelta.FechaResolucion == nil {
		t.Error("fecha_resolucion not set on RESUELTA")
	}
}

func TestTerminalFallaIsNeverMutated(t *testing.T) {
	terminals := []models.EstadoFalla{
		models.EstadoResuelta, models.EstadoCerrada, models.EstadoDuplicada, models.EstadoNoSeReproduce,
	}
	targets := []string{"EN_DIAGNOSTICO", "PENDIENTE_PIEZA", "RESUELTA", "CERRADA", "DUPLICADA", "REPORTADA"}

	for _, terminal := range terminals {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFixture(t, false)
			ctx := context.Background()

			falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
			if err != nil {
				t.Fatalf("Crear: %v", err)
			}
			if _, err := f.fallas.Transicionar(ctx, f.admin, falla.ID, string(terminal), ""); err != nil {
				t.Fatalf("moving to %s: %v", terminal, err)
			}
			snapshot, err := f.st.Fallas.FindByID(ctx, falla.ID)
			if err != nil {
				t.Fatalf("FindByID: %v", err)
			}
			auditBefore := f.auditCount(t)

			for _, to := range targets {
				_, err := f.fallas.Transicionar(ctx, f.admin, falla.ID, to, "")
				requireErrorIs(t, err, ErrInvalidTransition)
			}
			_, err = f.fallas.Asignar(ctx, f.admin, falla.ID, f.electro.ID)
			requireErrorIs(t, err, ErrInvalidTransition)

			after, err := f.st.Fallas.FindByID(ctx, falla.ID)
			if err != nil {
				t.Fatalf("FindByID: %v", err)
			}
			if after.Estado != snapshot.Estado || !after.UpdatedAt.Equal(snapshot.UpdatedAt) || after.AsignadoAID != nil {
				t.Fatalf("terminal falla was modified: before %+v after %+v", snapshot, after)
			}
			if f.auditCount(t) != auditBefore {
				t.Fatal("rejected transitions wrote audit entries")
			}
		})
	}
}

func TestAsignarFalla(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	falla, err := f.fallas.Crear(ctx, f.electro, bombaRota())
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}

	_, err = f.fallas.Asignar(ctx, f.admin, falla.ID, "sub-missing")
	requireValidationField(t, err, "tecnico_id")

	got, err := f.fallas.Asignar(ctx, f.electro, falla.ID, f.electro.ID)
	if err != nil {
		t.Fatalf("Asignar: %v", err)
	}
	if got.AsignadoAID == nil || *got.AsignadoAID != f.electro.ID {
		t.Fatalf("asignado_a_id = %v", got.AsignadoAID)
	}

	_, err = f.fallas.Obtener(ctx, f.admin, uuid.New())
	requireErrorIs(t, err, ErrNotFound)
}

func TestAsignarRejectsTechnicianWithoutFallasAccess(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	tecnico := f.addUser(t, "sub-tecnico", "Tomás Técnico", "tecnico@hospital.local", models.RoleElectromedicina)

	falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}

	for _, u := range []*models.User{tecnico, f.other} {
		_, err = f.fallas.Asignar(ctx, f.admin, falla.ID, u.ID)
		requireValidationField(t, err, "tecnico_id")
	}
	stored, err := f.fallas.Obtener(ctx, f.admin, falla.ID)
	if err != nil {
		t.Fatalf("Obtener: %v", err)
	}
	if stored.AsignadoAID != nil {
		t.Fatalf("asignado_a_id = %v, want unassigned", *stored.AsignadoAID)
	}

	// Whoever is accepted can then move the falla.
	if _, err := f.fallas.Asignar(ctx, f.admin, falla.ID, f.electro.ID); err != nil {
		t.Fatalf("Asignar: %v", err)
	}
	got, err := f.fallas.Transicionar(ctx, f.electro, falla.ID, "EN_DIAGNOSTICO", "")
	if err != nil {
		t.Fatalf("Transicionar by assignee: %v", err)
	}
	if got.Estado != models.EstadoEnDiagnostico {
		t.Errorf("estado = %s", got.Estado)
	}
}

func TestAgregarAdjuntoKeepsEstado(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
	if err != nil {
		t.Fatalf("Crear: %v", err)
	}
	got, err := f.fallas.AgregarAdjunto(ctx, f.admin, falla.ID, &dto.AttachmentRequest{
		FileName: "foto.jpg", ContentType: "image/jpeg", Size: 2048, StorageKey: "uploads/fallas/x/foto.jpg",
	})
	if err != nil {
		t.Fatalf("AgregarAdjunto: %v", err)
	}
	if len(got.Adjuntos) != 1 || got.Adjuntos[0].UploadedBy != f.admin.Email {
		t.Fatalf("adjuntos = %+v", got.Adjuntos)
	}
	if got.Estado != models.EstadoReportada {
		t.Errorf("estado changed to %s", got.Estado)
	}

	_, err = f.fallas.AgregarAdjunto(ctx, f.admin, falla.ID, &dto.AttachmentRequest{FileName: "x"})
	requireValidationField(t, err, "storage_key")
}

func TestListarFallasFilters(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f.fallas.now = func() time.Time { clock = clock.Add(time.Hour); return clock }

	mk := func(titulo, ubicacion, severidad, tipo string) *models.Falla {
		t.Helper()
		req := bombaRota()
		req.Titulo, req.Ubicacion, req.Severidad, req.TipoFalla = titulo, ubicacion, severidad, tipo
		falla, err := f.fallas.Crear(ctx, f.admin, req)
		if err != nil {
			t.Fatalf("Crear %s: %v", titulo, err)
		}
		return falla
	}
	mk("Monitor sin imagen", "UCI", "ALTA", "ELECTRICA")
	second := mk("Respirador alarma", "Quirofano", "CRITICA", "SOFTWARE")
	mk("Camilla trabada", "UCI", "BAJA", "MECANICA")

	if _, err := f.fallas.Asignar(ctx, f.admin, second.ID, f.electro.ID); err != nil {
		t.Fatalf("Asignar: %v", err)
	}

	desde := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		filter store.FallaFilter
		want   []string
	}{
		{"all newest first", store.FallaFilter{}, []string{"Camilla trabada", "Respirador alarma", "Monitor sin imagen"}},
		{"ubicacion exact", store.FallaFilter{Ubicacion: "UCI"}, []string{"Camilla trabada", "Monitor sin imagen"}},
		{"severidad set", store.FallaFilter{Severidad: []models.Severidad{models.SeveridadAlta, models.SeveridadCritica}}, []string{"Respirador alarma", "Monitor sin imagen"}},
		{"tipo set", store.FallaFilter{TipoFalla: []models.TipoFalla{models.TipoMecanica}}, []string{"Camilla trabada"}},
		{"tecnico", store.FallaFilter{TecnicoID: f.electro.ID}, []string{"Respirador alarma"}},
		{"desde", store.FallaFilter{Desde: &desde}, []string{"Camilla trabada", "Respirador alarma"}},
		{"free text", store.FallaFilter{Q: "ALARMA"}, []string{"Respirador alarma"}},
		{"estado set", store.FallaFilter{Estado: []models.EstadoFalla{models.EstadoCerrada}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := f.fallas.Listar(ctx, f.admin, tt.filter)
			if err != nil {
				t.Fatalf("Listar: %v", err)
			}
			if int(total) != len(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("got %d (total %d), want %d", len(got), total, len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Titulo != w {
					t.Errorf("position %d = %q, want %q", i, got[i].Titulo, w)
				}
			}
		})
	}
}
