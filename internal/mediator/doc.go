// Package mediator talks to the catalog's HTTP API.
//
// Client implements catalog.Fetcher: it issues GET requests, maps a 404 to
// services.ErrNotFound and any other failure to services.ErrTransport, and
// memoises successful bodies in a TTL cache so repeated lookups within a
// serve refresh window reuse documents. Requests are never retried.
package mediator
