// Package gateway is the request/response client for the platform admin API.
//
// # Overview
//
// Every remote effect in the console goes through a *Gateway. It is a thin
// resty client with three responsibilities:
//
//   - attach the operator's bearer credential (from an auth.CredentialProvider)
//     and a fresh X-Request-Id to every call
//   - map responses onto the error taxonomy
//   - handle authorization failure globally: invalidate the credential and run
//     the OnUnauthorized hook
//
// There are no retries. The operator re-triggers failed actions.
//
// # Errors
//
//	*TransportError  errors.Is(err, ErrTransport)     network unreachable, timeout
//	*AuthError       errors.Is(err, ErrUnauthorized)  401 or no usable credential
//	*Rejection       errors.Is(err, ErrRejected)      any other non-2xx
//
// A Rejection carries the server's message field verbatim. MessageOf(err,
// fallback) returns that message or the fallback for everything else.
//
// # Endpoints
//
//	GET    /super-admin/clients?page&limit&search&status
//	GET    /super-admin/clients/{id}
//	POST   /super-admin/clients
//	PATCH  /super-admin/clients/{id}
//	PATCH  /super-admin/clients/{id}/status
//	PATCH  /super-admin/clients/{id}/plans
//	GET    /super-admin/clients/{id}/deletion-preview
//	DELETE /super-admin/clients/{id}
//	POST   /admin/onboard-client
//	GET    /super-admin/plans
//	POST   /super-admin/plans
//	PATCH  /super-admin/plans/{id}
//	DELETE /super-admin/plans/{id}
//	GET    /super-admin/health
package gateway
