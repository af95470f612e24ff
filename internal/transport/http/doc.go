// Package http implements the HTTP handlers of the Flow Pulse service.
//
// Handlers stay thin: they parse the request, call a service interface and
// translate the result. Domain errors from validation, retention and export
// are mapped to API errors in mapError and written as RFC 7807 problem
// documents by the shared ErrorHandler.
//
// # Routes
//
//	POST   /api/datasets                   upload a CSV (multipart field "file")
//	GET    /api/datasets                   list the caller's datasets, newest first
//	GET    /api/datasets/{id}/equipment    equipment rows in upload order
//	GET    /api/datasets/{id}/summary      counts, averages and type distribution
//	GET    /api/datasets/{id}/statistics   mean, std, min and max per field
//	GET    /api/datasets/{id}/charts       chart series
//	GET    /api/datasets/{id}/report       PDF or XLSX report (?format=)
//	GET    /api/datasets/{id}/export       CSV export
//	DELETE /api/datasets/{id}              remove a dataset
//
// The caller's identity is read from the owner header by the OwnerID
// middleware before any dataset route runs. A dataset that belongs to another
// owner is reported exactly like one that does not exist.
package http
