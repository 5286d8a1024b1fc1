package utils

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"
	"time"

	"essence_back_end/internal/models"
)

var funcs = template.FuncMap{
	"money": func(v float64) string { return formatMoney(v) },
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Code de connexion</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre code de connexion</h2>
		<p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">{{.Code}}</p>
		<p>Ce code expire dans {{.Minutes}} minutes. Ne le partagez avec personne.</p>
		<p style="margin-top: 30px; color: #555;">L'équipe Essence</p>
	</div>
</body>
</html>`))

var orderTemplate = template.Must(template.New("order").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Merci pour votre commande, {{.Customer.Name}}</h2>
		<p>Commande n° <strong>{{.ID.Hex}}</strong></p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Article</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
			{{range .Items}}
				<tr>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.ProductName}}{{if .VariantName}} ({{.VariantName}}){{end}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{.Quantity}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{money .Price}}</td>
					<td style="padding: 10px; border: 1px solid #ddd;">{{money .LineTotal}}</td>
				</tr>
			{{end}}
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">{{money .Total}}</td>
				</tr>
			</tfoot>
		</table>
		<p>Livraison à : {{.Customer.Address}}</p>
		<p style="margin-top: 30px; color: #555;">Cordialement,<br><strong>L'équipe Essence</strong></p>
	</div>
</body>
</html>`))

var statusTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 12px;">
		<h2 style="color: {{.Color}};">{{.Icon}} {{.Title}}</h2>
		<p>Bonjour {{.Name}},</p>
		<p>{{.Message}}</p>
		<p>Commande n° <strong>{{.OrderID}}</strong></p>
		<p style="margin-top: 30px; color: #555;">L'équipe Essence</p>
	</div>
</body>
</html>`))

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderOTPEmail(code string, ttl time.Duration) (string, error) {
	minutes := int(ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return render(otpTemplate, map[string]interface{}{"Code": code, "Minutes": minutes})
}

// RenderOrderConfirmation - email envoyé au client après la prise de commande
func RenderOrderConfirmation(order *models.Order) (string, error) {
	return render(orderTemplate, order)
}

func OrderConfirmationSubject(order *models.Order) string {
	return "🛒 Confirmation de votre commande Essence n° " + order.ID.Hex()
}

// formatMoney - deux décimales, virgule décimale
func formatMoney(v float64) string {
	s := strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
	return s + " €"
}
