package models

// CanMoveTicket reports whether a ticket may go from one status to another.
// Forward moves may skip steps. Backward moves are only legal when reopen
// is enabled, and only into Open or InProgress.
func CanMoveTicket(from, to TicketStatus, allowReopen bool) bool {
	fromRank, ok := TicketStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := TicketStatusRank[to]
	if !ok || from == to {
		return false
	}
	if toRank > fromRank {
		return from != TicketClosed
	}
	return allowReopen && (to == TicketOpen || to == TicketInProgress)
}

// CanMoveFalla reports whether a falla may go from one estado to another.
// REPORTADA is only ever set at creation.
func CanMoveFalla(from, to EstadoFalla) bool {
	if !ValidEstadosFalla[from] || !ValidEstadosFalla[to] {
		return false
	}
	if from.Terminal() || from == to || to == EstadoReportada {
		return false
	}
	return true
}

// CanDecideApproval reports whether a request in status from may receive
// decision to. InformacionSolicitada may be entered repeatedly.
func CanDecideApproval(from, to ApprovalStatus) bool {
	if from.Terminal() || !ValidDecisions[to] {
		return false
	}
	return from == ApprovalPendiente || from == ApprovalInformacionSolicitada
}
