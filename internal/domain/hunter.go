package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Hunter is a holder of a hunting license tracked by the registry.
type Hunter struct {
	ID           uuid.UUID  `json:"id"`
	RegistryID   string     `json:"registry_id"`
	Surname      string     `json:"surname"`
	GivenName    string     `json:"given_name"`
	TaxCode      *string    `json:"tax_code,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Municipality *string    `json:"municipality,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Active       bool       `json:"active"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewHunter creates an active hunter. The registry id is mandatory and is
// expected to come from the identifier package.
func NewHunter(registryID, surname, givenName string) Hunter {
	now := time.Now()
	return Hunter{
		ID:         uuid.New(),
		RegistryID: registryID,
		Surname:    NormalizeSurname(surname),
		GivenName:  NormalizeGivenName(givenName),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithBirthDate returns a copy of the hunter carrying the given birth date.
func (h Hunter) WithBirthDate(date *time.Time) Hunter {
	h.BirthDate = date
	h.UpdatedAt = time.Now()
	return h
}

// WithTaxCode returns a copy of the hunter carrying the given tax code.
func (h Hunter) WithTaxCode(code string) Hunter {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		h.TaxCode = nil
	} else {
		h.TaxCode = &code
	}
	h.UpdatedAt = time.Now()
	return h
}

// WithMunicipality returns a copy of the hunter carrying the given municipality.
func (h Hunter) WithMunicipality(municipality string) Hunter {
	municipality = strings.TrimSpace(municipality)
	if municipality == "" {
		h.Municipality = nil
	} else {
		h.Municipality = &municipality
	}
	h.UpdatedAt = time.Now()
	return h
}

// FullName renders "SURNAME Given".
func (h Hunter) FullName() string {
	return strings.TrimSpace(h.Surname + " " + h.GivenName)
}

// NormalizeSurname upper-cases and collapses whitespace.
func NormalizeSurname(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}

// NormalizeGivenName title-cases each word and collapses whitespace.
func NormalizeGivenName(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		words[i] = titleWord(word)
	}
	return strings.Join(words, " ")
}

func titleWord(word string) string {
	runes := []rune(strings.ToLower(word))
	capitalize := true
	for i, r := range runes {
		if capitalize {
			runes[i] = []rune(strings.ToUpper(string(r)))[0]
		}
		capitalize = r == '\'' || r == '’' || r == '-'
	}
	return string(runes)
}
