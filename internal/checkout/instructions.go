package checkout

import "github.com/hounsou/bookstore/internal/domain/models"

// Instructions returns the static payment instructions shown after
// checkout. Mobile-money payments are manual transfers referencing the
// order number; nothing here talks to a gateway.
func Instructions(method models.PaymentMethod) string {
	switch method {
	case models.PaymentMTNMoMo:
		return "Envoyez le montant total par MTN Mobile Money au 97 00 00 00 " +
			"en indiquant votre numéro de commande en référence."
	case models.PaymentMoovMoney:
		return "Envoyez le montant total par Moov Money au 95 00 00 00 " +
			"en indiquant votre numéro de commande en référence."
	case models.PaymentCeltiisCash:
		return "Envoyez le montant total par Celtiis Cash au 40 00 00 00 " +
			"en indiquant votre numéro de commande en référence."
	case models.PaymentCard:
		return "Le paiement par carte sera confirmé par notre équipe ; " +
			"vous recevrez un lien de paiement par e-mail."
	default:
		return ""
	}
}
