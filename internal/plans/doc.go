// Package plans manages the catalog of plan definitions.
//
// A plan bundles intake modules with default risk and sanctions levels and a
// price per verification. The Catalog validates locally, sends one request
// per mutation, journals it and reloads the list. Failures are reported
// through the Notifier with the server's message.
//
// Deleting a plan requires explicit confirmation and never edits clients.
// The backend answers 409 when the plan is still assigned; that surfaces as
// ErrPlanInUse.
package plans
