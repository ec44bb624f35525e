package database

import "strings"

// QuoteIdent quotes a SQL identifier, doubling any embedded quotes.
// Table names arriving through tool calls are interpolated into catalog
// statements (COUNT(*), SUMMARIZE) that cannot take bind parameters.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a SQL string literal, doubling any embedded quotes.
// Used for file paths in view registration statements.
func QuoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}
