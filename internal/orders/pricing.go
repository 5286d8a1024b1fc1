package orders

import (
	"github.com/shopspring/decimal"

	"essence_back_end/internal/models"
)

// lineTotal calcule prix × quantité sans dérive flottante
func lineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// Total additionne les lignes d'une commande
func Total(items []models.OrderItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(lineTotal(item.Price, item.Quantity))
	}
	return sum.InexactFloat64()
}

// PricePolicy décide du prix unitaire retenu pour une ligne
type PricePolicy struct {
	// TrustClientOfferPrice accepte le prix envoyé par le client pour les offres
	TrustClientOfferPrice bool
}

func (p PricePolicy) unitPrice(item SellableItem, line Line) (float64, error) {
	if !p.TrustClientOfferPrice || line.Price == nil || item.Source() != models.SourceOffer {
		// prix serveur : l'indication du client est ignorée
		return item.Price(), nil
	}
	if *line.Price < 0 {
		return 0, ErrInvalidPrice
	}
	return *line.Price, nil
}
