package utils

import (
	"essence_back_end/internal/models"
)

type statusCopy struct {
	Subject string
	Title   string
	Message string
	Icon    string
	Color   string
}

var statusCopies = map[models.OrderStatus]statusCopy{
	models.StatusPending: {
		Subject: "📋 Commande enregistrée - Essence",
		Title:   "Commande enregistrée",
		Message: "Votre commande est enregistrée et sera bientôt préparée.",
		Icon:    "📋",
		Color:   "#6b7280",
	},
	models.StatusProcessing: {
		Subject: "⏳ Votre commande est en préparation - Essence",
		Title:   "Commande en préparation",
		Message: "Nous préparons vos parfums avec soin.",
		Icon:    "⏳",
		Color:   "#3b82f6",
	},
	models.StatusShipped: {
		Subject: "📦 Votre commande a été expédiée - Essence",
		Title:   "Commande expédiée",
		Message: "Votre colis est en route.",
		Icon:    "📦",
		Color:   "#8b5cf6",
	},
	models.StatusDelivered: {
		Subject: "🎉 Votre commande a été livrée - Essence",
		Title:   "Commande livrée",
		Message: "Votre commande a été livrée. Merci de votre confiance !",
		Icon:    "🎉",
		Color:   "#10b981",
	},
	models.StatusCancelled: {
		Subject: "❌ Commande annulée - Essence",
		Title:   "Commande annulée",
		Message: "Votre commande a été annulée.",
		Icon:    "❌",
		Color:   "#ef4444",
	},
}

func copyFor(status models.OrderStatus) statusCopy {
	if c, ok := statusCopies[status]; ok {
		return c
	}
	return statusCopy{
		Subject: "📋 Mise à jour de votre commande - Essence",
		Title:   "Mise à jour de commande",
		Message: "Le statut de votre commande a changé.",
		Icon:    "📋",
		Color:   "#6b7280",
	}
}

func StatusEmailSubject(status models.OrderStatus) string {
	return copyFor(status).Subject
}

// RenderStatusEmail - email envoyé au client quand l'admin change le statut
func RenderStatusEmail(order *models.Order) (string, error) {
	c := copyFor(order.Status)
	return render(statusTemplate, map[string]interface{}{
		"Title":   c.Title,
		"Message": c.Message,
		"Icon":    c.Icon,
		"Color":   c.Color,
		"Name":    order.Customer.Name,
		"OrderID": order.ID.Hex(),
	})
}
