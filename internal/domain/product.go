package domain

import "strings"

// Product identifies one of the two loan products
type Product string

const (
	// ProductSTL is the fixed short-term loan (daily installments)
	ProductSTL Product = "stl"
	// ProductLRA is the amortized loan with user-entered terms (monthly installments)
	ProductLRA Product = "lra"
)

// ParseProduct parses a product name case-insensitively
func ParseProduct(s string) (Product, error) {
	switch Product(strings.ToLower(strings.TrimSpace(s))) {
	case ProductSTL:
		return ProductSTL, nil
	case ProductLRA:
		return ProductLRA, nil
	}
	return "", ErrProductInvalid
}

// Valid returns true for a known product
func (p Product) Valid() bool {
	return p == ProductSTL || p == ProductLRA
}

// PathPrefix returns the loan API resource prefix, e.g. "customers-stl"
func (p Product) PathPrefix() string {
	return "customers-" + string(p)
}

// Label returns the display label ("STL" / "LRA")
func (p Product) Label() string {
	return strings.ToUpper(string(p))
}
