package models

import (
	"fmt"
	"strings"
)

type Address struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

// Snapshot renders the address as the single line stored on an order.
func (a *Address) Snapshot() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.Recipient, a.Street, a.City, a.PostalCode, a.Province)
}

type AddressInput struct {
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

func (in *AddressInput) Normalize() {
	in.Recipient = strings.TrimSpace(in.Recipient)
	in.Street = strings.TrimSpace(in.Street)
	in.City = strings.TrimSpace(in.City)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Province = strings.TrimSpace(in.Province)
	in.Country = strings.TrimSpace(in.Country)
	in.Phone = strings.TrimSpace(in.Phone)
}

// HasMinimum reports whether street, city and postal code are present,
// which is what the address book requires to save an entry.
func (in *AddressInput) HasMinimum() bool {
	return strings.TrimSpace(in.Street) != "" &&
		strings.TrimSpace(in.City) != "" &&
		strings.TrimSpace(in.PostalCode) != ""
}

// Complete reports whether every field needed to ship to this address is
// filled. Checkout accepts an inline address only when it is complete.
func (in *AddressInput) Complete() bool {
	for _, s := range []string{in.Recipient, in.Street, in.City, in.Country, in.PostalCode, in.Province, in.Phone} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

func (in *AddressInput) ToAddress(userID int64) *Address {
	return &Address{
		UserID:     userID,
		Recipient:  in.Recipient,
		Street:     in.Street,
		City:       in.City,
		PostalCode: in.PostalCode,
		Province:   in.Province,
		Country:    in.Country,
		Phone:      in.Phone,
		IsDefault:  in.IsDefault,
	}
}
