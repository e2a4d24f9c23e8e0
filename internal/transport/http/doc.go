// Package http implements the HTTP handlers of the token verification API.
// Handlers stay thin: they decode and validate the body, call the license
// service and pick the response encoding. Status codes are chosen here and
// nowhere else.
//
// # Endpoints
//
//	POST /api/verify      desktop verification, status follows the verdict
//	POST /verify-token    extension verification, always 200
//	POST /api/register    201 on success
//	POST /api/extend
//	POST /api/delete
//	POST /api/reload
//	GET  /api/status
//	GET  /api/tokens      masked listing
//	GET  /api/health
//
// Failures are rendered through errors.ErrorHandler as
// {"success":false,"message":...,"code":...}.
package http
