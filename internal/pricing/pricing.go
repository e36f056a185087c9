package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DefaultTable sert quand SIZE_PRICE_TABLE n'est pas défini.
const DefaultTable = "500g=1500,1kg=3000,2kg=6000"

// Variant est un couple (taille, prix) porté par un produit.
type Variant struct {
	Size  string
	Price float64
}

// Table est la grille taille → prix des produits sans variantes. Les clés
// sont normalisées.
type Table struct {
	prices map[string]float64
}

// NormalizeSize retire les espaces et passe en minuscules: "500 G" et
// "500g" désignent la même taille.
func NormalizeSize(size string) string {
	var b strings.Builder
	b.Grow(len(size))
	for _, r := range size {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NewTable construit une grille depuis une map taille → prix.
func NewTable(prices map[string]float64) Table {
	t := Table{prices: make(map[string]float64, len(prices))}
	for size, price := range prices {
		t.prices[NormalizeSize(size)] = price
	}
	return t
}

// ParseTable lit le format "taille=prix,taille=prix" de l'environnement.
func ParseTable(raw string) (Table, error) {
	prices := make(map[string]float64)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		size, priceStr, ok := strings.Cut(entry, "=")
		if !ok {
			return Table{}, fmt.Errorf("invalid price table entry %q", entry)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(priceStr), 64)
		if err != nil || price < 0 {
			return Table{}, fmt.Errorf("invalid price for size %q: %q", size, priceStr)
		}
		if NormalizeSize(size) == "" {
			return Table{}, fmt.Errorf("empty size in price table entry %q", entry)
		}
		prices[size] = price
	}
	return NewTable(prices), nil
}

// Lookup retourne le prix de repli d'une taille.
func (t Table) Lookup(size string) (float64, bool) {
	price, ok := t.prices[NormalizeSize(size)]
	return price, ok
}

// Sizes liste les tailles normalisées de la grille.
func (t Table) Sizes() []string {
	sizes := make([]string, 0, len(t.prices))
	for size := range t.prices {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}

// Resolve choisit le prix de vente d'une taille. Les variantes priment; la
// grille ne sert qu'aux produits sans variantes.
func (t Table) Resolve(variants []Variant, size string) (float64, bool) {
	want := NormalizeSize(size)
	if want == "" {
		return 0, false
	}
	if len(variants) > 0 {
		for _, v := range variants {
			if NormalizeSize(v.Size) == want {
				return v.Price, true
			}
		}
		return 0, false
	}
	return t.Lookup(want)
}
