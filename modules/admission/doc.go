// Package admission exposes the admission core over HTTP with chi.
//
//	POST /check   {"operationType":"merge"}   -> admission decision
//	GET  /usage[?period=YYYY-MM]              -> per-category usage report
//
// Credentials come from "Authorization: Bearer", the X-API-Key header or the
// api_key query parameter. Denials use the decision JSON contract and map to
// 401, 402, 403, 429, 400 or 503.
//
// Protect wraps the handlers of metered operations: it admits (and charges)
// the request, runs the handler, and records an operation log through the
// asynchronous audit recorder.
package admission
