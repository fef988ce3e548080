// Package httpapi is the HTTP transport for the trends service.
//
// It parses query parameters, calls internal/trends and shapes the JSON
// responses. Errors that are not caller mistakes are logged and masked.
package httpapi
