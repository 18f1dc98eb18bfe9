package dto

type CrearFallaRequest struct {
	Titulo           string `json:"titulo"`
	Descripcion      string `json:"descripcion"`
	EquipoNombre     string `json:"equipo_nombre"`
	EquipoUbicacion  string `json:"equipo_ubicacion"`
	EquipoFabricante string `json:"equipo_fabricante"`
	EquipoModelo     string `json:"equipo_modelo"`
	EquipoSerie      string `json:"equipo_serie"`
	Ubicacion        string `json:"ubicacion"`
	Severidad        string `json:"severidad"`
	TipoFalla        string `json:"tipo_falla"`
}

type TransicionFallaRequest struct {
	Estado string `json:"estado"`
	Nota   string `json:"nota"`
}

type AsignarFallaRequest struct {
	TecnicoID string `json:"tecnico_id"`
}
