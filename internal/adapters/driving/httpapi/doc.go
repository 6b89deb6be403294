// Package httpapi serves the sercha-server REST API.
//
// Routes are registered on a net/http ServeMux using method patterns.
// Handlers translate JSON and multipart requests into driving port calls
// and map domain errors onto HTTP status codes.
package httpapi
