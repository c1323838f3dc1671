// Package api defines the request and response messages of the splitledger.v1
// services. Messages travel as JSON; amounts are decimal strings.
package api
