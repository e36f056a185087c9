package orders

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"ghee_back_end/internal/apperr"
	"ghee_back_end/internal/models"
)

var (
	validate   = validator.New()
	phoneRegex = regexp.MustCompile(`^[0-9+\- ]{7,20}$`)
)

// fieldRule borne un champ d'adresse; tous sont obligatoires.
type fieldRule struct {
	label string
	value func(*models.ShippingAddress) *string
	max   int
}

var addressRules = []fieldRule{
	{"Name", func(a *models.ShippingAddress) *string { return &a.Name }, 100},
	{"Email", func(a *models.ShippingAddress) *string { return &a.Email }, 100},
	{"Phone", func(a *models.ShippingAddress) *string { return &a.Phone }, 20},
	{"Address", func(a *models.ShippingAddress) *string { return &a.Address }, 200},
	{"City", func(a *models.ShippingAddress) *string { return &a.City }, 50},
	{"State", func(a *models.ShippingAddress) *string { return &a.State }, 50},
	{"Zip code", func(a *models.ShippingAddress) *string { return &a.ZipCode }, 10},
}

func trimAddress(a *models.ShippingAddress) {
	for _, rule := range addressRules {
		v := rule.value(a)
		*v = strings.TrimSpace(*v)
	}
	a.Email = strings.ToLower(a.Email)
}

// validateAddress ajoute à errs toutes les erreurs de l'adresse.
func validateAddress(a *models.ShippingAddress, errs *apperr.FieldErrors) {
	trimAddress(a)
	for _, rule := range addressRules {
		v := *rule.value(a)
		switch {
		case v == "":
			errs.Addf("Shipping %s is required", strings.ToLower(rule.label))
		case len([]rune(v)) > rule.max:
			errs.Addf("Shipping %s cannot exceed %d characters", strings.ToLower(rule.label), rule.max)
		}
	}
	if a.Email != "" && validate.Var(a.Email, "email") != nil {
		errs.Add("Shipping email is invalid")
	}
	if a.Phone != "" && !phoneRegex.MatchString(a.Phone) {
		errs.Add("Shipping phone must be 7 to 20 digits")
	}
}

// ShippingPatch est une mise à jour partielle de l'adresse de livraison.
type ShippingPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zipCode"`
}

func (p ShippingPatch) empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Address == nil &&
		p.City == nil && p.State == nil && p.ZipCode == nil
}

func (p ShippingPatch) apply(a *models.ShippingAddress) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.Name, p.Name)
	set(&a.Email, p.Email)
	set(&a.Phone, p.Phone)
	set(&a.Address, p.Address)
	set(&a.City, p.City)
	set(&a.State, p.State)
	set(&a.ZipCode, p.ZipCode)
}

// enumError reproduit le message des énumérations refusées.
func enumError(field string, allowed []string) string {
	return "Invalid " + field + ". Must be one of: " + strings.Join(allowed, ", ")
}
