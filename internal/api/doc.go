// Package api exposes the store as a JSON CRUD surface over HTTP for
// adapters. Routes live under /api; Collection content travels as text for
// text-like files and as base64 otherwise.
package api
