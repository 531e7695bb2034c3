package constants

import "strings"

// Document types accepted by the loader. The type is declared by the caller
// at the boundary; it selects the extractor, the loader never sniffs bytes.
const (
	TypePriceListTable = "PRICE_LIST_TABLE" // PDF, name column then price column
	TypePriceListSheet = "PRICE_LIST_SHEET" // XLSX with named header columns
	TypeRecipeText     = "RECIPE_TEXT"      // markdown-ish recipe document
	TypeExchangeRates  = "EXCHANGE_RATES"   // JSON rate history
)

// DocTypes holds every document type the loader accepts.
var DocTypes = []string{TypePriceListTable, TypePriceListSheet, TypeRecipeText, TypeExchangeRates}

// DefaultExtensions maps a normalized file extension to the document type
// usually shipped with it. Used by the CLI to suggest a type, never to
// override a declared one.
var DefaultExtensions = map[string]string{
	"pdf":  TypePriceListTable,
	"xlsx": TypePriceListSheet,
	"md":   TypeRecipeText,
	"txt":  TypeRecipeText,
	"json": TypeExchangeRates,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ValidDocType reports whether t is one of the accepted document types.
func ValidDocType(t string) bool {
	for _, dt := range DocTypes {
		if dt == t {
			return true
		}
	}
	return false
}
