// Package api implements the REST surface of the gateway: read endpoints
// over the state table and alert ledger, plus an HTTP ingestion endpoint for
// readings that do not arrive over the mesh.
package api
