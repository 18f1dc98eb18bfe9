package models

// Display is the label and badge color a client renders for an enum value.
type Display struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var TicketStatusDisplay = map[TicketStatus]Display{
	TicketOpen:       {Label: "Abierto", Color: "blue"},
	TicketInProgress: {Label: "En progreso", Color: "amber"},
	TicketResolved:   {Label: "Resuelto", Color: "green"},
	TicketClosed:     {Label: "Cerrado", Color: "gray"},
}

var TicketPriorityDisplay = map[TicketPriority]Display{
	PriorityLow:    {Label: "Baja", Color: "gray"},
	PriorityMedium: {Label: "Media", Color: "amber"},
	PriorityHigh:   {Label: "Alta", Color: "red"},
}

var SeveridadDisplay = map[Severidad]Display{
	SeveridadBaja:    {Label: "Baja", Color: "green"},
	SeveridadMedia:   {Label: "Media", Color: "yellow"},
	SeveridadAlta:    {Label: "Alta", Color: "orange"},
	SeveridadCritica: {Label: "Crítica", Color: "red"},
}

var EstadoFallaDisplay = map[EstadoFalla]Display{
	EstadoReportada:           {Label: "Reportada", Color: "blue"},
	EstadoEnDiagnostico:       {Label: "En diagnóstico", Color: "indigo"},
	EstadoPendientePieza:      {Label: "Pendiente de pieza", Color: "amber"},
	EstadoEnReparacionInterna: {Label: "En reparación interna", Color: "orange"},
	EstadoEscaladaExterno:     {Label: "Escalada a externo", Color: "purple"},
	EstadoEnCalibracion:       {Label: "En calibración", Color: "cyan"},
	EstadoResuelta:            {Label: "Resuelta", Color: "green"},
	EstadoCerrada:             {Label: "Cerrada", Color: "gray"},
	EstadoDuplicada:           {Label: "Duplicada", Color: "slate"},
	EstadoNoSeReproduce:       {Label: "No se reproduce", Color: "zinc"},
}

var TipoFallaDisplay = map[TipoFalla]Display{
	TipoElectrica:     {Label: "Eléctrica", Color: "yellow"},
	TipoMecanica:      {Label: "Mecánica", Color: "orange"},
	TipoSoftware:      {Label: "Software", Color: "blue"},
	TipoCalibracion:   {Label: "Calibración", Color: "cyan"},
	TipoDesgaste:      {Label: "Desgaste", Color: "amber"},
	TipoUsoInadecuado: {Label: "Uso inadecuado", Color: "red"},
	TipoOtra:          {Label: "Otra", Color: "gray"},
}

var ApprovalStatusDisplay = map[ApprovalStatus]Display{
	ApprovalPendiente:             {Label: "Pendiente", Color: "amber"},
	ApprovalAprobado:              {Label: "Aprobado", Color: "green"},
	ApprovalRechazado:             {Label: "Rechazado", Color: "red"},
	ApprovalInformacionSolicitada: {Label: "Información solicitada", Color: "blue"},
}

var ApprovalTypeDisplay = map[ApprovalType]Display{
	ApprovalCompra:        {Label: "Compra", Color: "indigo"},
	ApprovalPagoProveedor: {Label: "Pago a proveedor", Color: "teal"},
}
