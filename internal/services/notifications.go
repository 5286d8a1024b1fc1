package services

import (
	"context"
	"log"
	"sync"
	"time"

	"essence_back_end/internal/models"
	"essence_back_end/internal/utils"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, userID string, ev OrderEvent) error
}

// Notifier prévient le client d'un événement de commande : message websocket
// via Redis puis email. Les envois partent en arrière-plan et n'échouent jamais la requête.
type Notifier struct {
	events EventPublisher
	mailer EmailSender
	wg     sync.WaitGroup
}

func NewNotifier(events EventPublisher, mailer EmailSender) *Notifier {
	return &Notifier{events: events, mailer: mailer}
}

func (n *Notifier) OrderPlaced(ctx context.Context, order *models.Order) {
	ev := OrderEvent{Type: EventOrderPlaced, OrderID: order.ID.Hex(), Status: order.Status, Total: order.Total, At: order.CreatedAt}
	n.dispatch(ctx, order, ev, func() (string, string, error) {
		html, err := utils.RenderOrderConfirmation(order)
		return utils.OrderConfirmationSubject(order), html, err
	})
}

func (n *Notifier) StatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	ev := OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        order.ID.Hex(),
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Total,
		At:             order.UpdatedAt,
	}
	n.dispatch(ctx, order, ev, func() (string, string, error) {
		html, err := utils.RenderStatusEmail(order)
		return utils.StatusEmailSubject(order.Status), html, err
	})
}

func (n *Notifier) dispatch(ctx context.Context, order *models.Order, ev OrderEvent, email func() (string, string, error)) {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if n.events != nil {
			if err := n.events.Publish(ctx, order.UserID, ev); err != nil {
				log.Printf("⚠️ Erreur publication événement %s: %v", ev.Type, err)
			}
		}

		if n.mailer == nil || order.Customer.Email == "" {
			return
		}
		subject, html, err := email()
		if err != nil {
			log.Printf("❌ Erreur rendu email %s: %v", ev.Type, err)
			return
		}
		if err := n.mailer.Send(ctx, order.Customer.Email, subject, html); err != nil {
			log.Printf("❌ Erreur envoi email %s: %v", ev.Type, err)
			return
		}
		log.Printf("📧 Email %s envoyé pour la commande %s", ev.Type, ev.OrderID)
	}()
}

// Wait attend la fin des envois en cours (arrêt du serveur, tests)
func (n *Notifier) Wait() {
	n.wg.Wait()
}
