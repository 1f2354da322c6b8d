package models

import "strings"

const PaymentCreditCard = "credit_card"

type PaymentDetails struct {
	Method         string `json:"method"`
	CardholderName string `json:"cardholder_name"`
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
}

// NormalizedCardNumber strips every non-digit character.
func (p *PaymentDetails) NormalizedCardNumber() string {
	var b strings.Builder
	for _, r := range p.CardNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskedCardNumber keeps only the last four digits.
func (p *PaymentDetails) MaskedCardNumber() string {
	n := p.NormalizedCardNumber()
	if len(n) < 4 {
		return "****"
	}
	return "**** **** **** " + n[len(n)-4:]
}

// Validate returns a field name and message for the first failing check.
func (p *PaymentDetails) Validate() (field, msg string) {
	switch {
	case strings.TrimSpace(p.CardholderName) == "":
		return "cardholder_name", "cardholder name is required"
	case strings.TrimSpace(p.CardNumber) == "":
		return "card_number", "card number is required"
	case len(p.NormalizedCardNumber()) != 16:
		return "card_number", "card number must contain exactly 16 digits"
	case strings.TrimSpace(p.Expiry) == "":
		return "expiry", "card expiry is required"
	case strings.TrimSpace(p.CVV) == "":
		return "cvv", "card CVV is required"
	}
	return "", ""
}

// PaymentDescriptor is the payment summary persisted on an order; the full card
// number and CVV are never stored.
type PaymentDescriptor struct {
	Method         string `json:"method"`
	CardholderName string `json:"cardholder_name"`
	MaskedCard     string `json:"masked_card"`
}

func (p *PaymentDetails) Descriptor() PaymentDescriptor {
	method := p.Method
	if method == "" {
		method = PaymentCreditCard
	}
	return PaymentDescriptor{
		Method:         method,
		CardholderName: strings.TrimSpace(p.CardholderName),
		MaskedCard:     p.MaskedCardNumber(),
	}
}
