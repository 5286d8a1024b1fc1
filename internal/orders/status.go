package orders

import "essence_back_end/internal/models"

// transitions - statuts atteignables depuis chaque statut (mode strict)
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing: {models.StatusShipped, models.StatusCancelled},
	models.StatusShipped:    {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered:  {},
	models.StatusCancelled:  {},
}

// CanTransition indique si from → to est autorisé.
// En mode permissif tout passage est accepté, sauf vers un statut inconnu.
// Rester sur le même statut est toujours accepté (no-op).
func CanTransition(from, to models.OrderStatus, strict bool) bool {
	if _, ok := transitions[to]; !ok {
		return false
	}
	if from == to || !strict {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses retourne les statuts atteignables depuis from
func NextStatuses(from models.OrderStatus, strict bool) []models.OrderStatus {
	if !strict {
		out := make([]models.OrderStatus, 0, len(models.OrderStatuses))
		for _, s := range models.OrderStatuses {
			if s != from {
				out = append(out, s)
			}
		}
		return out
	}
	return append([]models.OrderStatus(nil), transitions[from]...)
}
