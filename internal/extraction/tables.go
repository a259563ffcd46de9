package extraction

import "regexp"

// Field is a logical field recognised in structured sheets.
type Field string

const (
	FieldSurname       Field = "surname"
	FieldGivenName     Field = "given_name"
	FieldTaxCode       Field = "tax_code"
	FieldBirthDate     Field = "birth_date"
	FieldMunicipality  Field = "municipality"
	FieldLicenseNumber Field = "license_number"
	FieldYear          Field = "year"
)

// ColumnSynonyms is an ordered table of header variants per logical field.
// Matching is case-insensitive; exact header matches are preferred over
// substring matches and a column is claimed by at most one field.
var ColumnSynonyms = []struct {
	Field    Field
	Synonyms []string
}{
	{FieldSurname, []string{"cognome", "surname", "last name"}},
	{FieldGivenName, []string{"nome", "name", "first name", "firstname"}},
	{FieldTaxCode, []string{"codice fiscale", "cf", "cod. fiscale", "codice_fiscale", "tax code"}},
	{FieldBirthDate, []string{"data nascita", "data di nascita", "nascita", "birth date", "data_nascita"}},
	{FieldMunicipality, []string{"comune", "residenza", "comune residenza", "città", "comune_residenza"}},
	{FieldLicenseNumber, []string{"numero licenza", "licenza", "tesserino", "numero", "n. licenza"}},
	{FieldYear, []string{"anno", "year", "stagione"}},
}

// identityFields are the fields a header row must show at least two of.
var identityFields = []Field{FieldSurname, FieldGivenName, FieldTaxCode}

// FreeTextKeywords identify administrative boilerplate templates.
var FreeTextKeywords = []string{
	"regione autonoma della sardegna",
	"foglio venatorio",
	"in possesso del porto d'arma",
	"assessorato",
}

// HeaderTextKeywords mark the long header cell of the richer templates.
var HeaderTextKeywords = []string{
	"sig.",
	"porto d'arma",
	"porto d arma",
	"autorizzazione",
}

const nameChars = `A-Za-zÀ-ÖØ-öø-ÿ'’\-`

const upperNameChars = `A-ZÀ-ÖØ-Þ'’\-`

// NamePattern extracts a surname (group 1) and given name (group 2). Generic
// patterns match one word at a time instead.
type NamePattern struct {
	Name    string
	Pattern *regexp.Regexp
	Generic bool
}

// FreeTextNamePatterns are tried in order, most specific first.
var FreeTextNamePatterns = []NamePattern{
	{
		Name:    "possession",
		Pattern: regexp.MustCompile(`([` + upperNameChars + `]{2,})\s+([` + upperNameChars + `]{2,}(?:\s+[` + upperNameChars + `]{2,})?)\s+(?i:in\s+possesso\s+del\s+porto)`),
	},
	{
		Name:    "undersigned",
		Pattern: regexp.MustCompile(`(?i)sottoscritt[oa]\s+([` + nameChars + `]{2,})\s+([` + nameChars + `]{2,})`),
	},
	{
		// Matches single capitalized words; the strategy pairs adjacent ones.
		Name:    "capitalized-pair",
		Pattern: regexp.MustCompile(`[A-ZÀ-ÖØ-Þ][` + nameChars + `]+`),
		Generic: true,
	},
}

// genericStopWords are boilerplate words the capitalized-pair pattern must not
// mistake for a name.
var genericStopWords = map[string]bool{
	"REGIONE": true, "AUTONOMA": true, "DELLA": true, "SARDEGNA": true,
	"ASSESSORATO": true, "DIFESA": true, "AMBIENTE": true, "FOGLIO": true,
	"VENATORIO": true, "STAGIONE": true, "VENATORIA": true, "COMUNE": true,
	"POLIZIA": true, "LOCALE": true, "PROVINCIA": true, "AUTORIZZAZIONE": true,
	"PORTO": true, "ARMA": true, "CACCIA": true, "IL": true, "LA": true,
	"SIG": true, "SIGNOR": true, "SIGNORA": true, "DATA": true, "NATO": true,
	"NATA": true, "RESIDENTE": true, "UFFICIO": true, "CORPO": true,
	"FORESTALE": true, "VIGILANZA": true, "AMBIENTALE": true, "TESSERINO": true,
	"SOTTOSCRITTO": true, "SOTTOSCRITTA": true, "DEL": true, "DI": true,
	"IN": true, "PER": true, "ANNO": true, "REGIONALE": true,
}

var (
	salutationPattern   = regexp.MustCompile(`(?i)\bSig(?:\.ra|ra|\.)?\s+([A-ZÀ-ÖØ-Þ][` + nameChars + `]+)\s+([A-ZÀ-ÖØ-Þ][` + nameChars + `]+)`)
	firearmPermitRegexp = regexp.MustCompile(`(?i)porto\s+d['’ ]?\s*arma\s*n(?:r|[°º.o])?\.?\s*([A-Za-z]*\d[A-Za-z0-9\-/]*)`)
	issueDateRegexp     = regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`)
	authorizationRegexp = regexp.MustCompile(`(?i)autorizzazione\s+regionale\s*n(?:r|[°º.o])?\.?\s*([0-9]+)`)
)

// Scan limits.
const (
	classifierRows      = 20
	freeTextRows        = 60
	freeTextColumn      = 1
	headerTextRows      = 6
	headerTextColumns   = 80
	headerTextMinLength = 50
	minNameLength       = 2
)

// DateLayouts are tried in order on textual dates.
var DateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/06",
	"02-01-06",
}

// fileNamePatterns recognise identities in bare file names (extension removed).
var (
	fileNameParenthetical = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)$`)
	fileNameUnderscore    = regexp.MustCompile(`^([` + nameChars + `]+)_([` + nameChars + `]+)_(.+)$`)
	fileNamePlain         = regexp.MustCompile(`^([` + nameChars + `]+)\s+([` + nameChars + `]+(?:\s+[` + nameChars + `]+)?)$`)
	fileNameExtension     = regexp.MustCompile(`(?i)\.(xlsx|xls)$`)
)
