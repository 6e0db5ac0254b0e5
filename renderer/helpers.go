package renderer

import "github.com/Rhymond/go-money"

// Amount displays cents in currency, e.g. "$12.34".
func Amount(cents int64, currency string) string {
	return money.New(cents, currency).Display()
}
