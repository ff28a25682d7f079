// Package deletion removes a tenant and everything that references it.
//
// # State machine
//
//	Closed --open--> PreviewLoading --loaded--> PreviewReady --continue--> ConfirmPending --execute--> Executing --> Result
//	                       |
//	                       +--failed--> PreviewError
//
// Every Open issues one preview request and bumps the session number; a
// preview that comes back for an older session is dropped. Execute is
// refused unless the current session loaded a preview and the typed text is
// byte-identical to the company name (or email when there is none).
//
// Mismatched confirmations are counted per client by a Limiter. Once the
// limit is reached Execute returns ErrConfirmationLocked without touching the
// network until the window passes.
//
// A failed delete ends in Result with Success false and never reloads the
// directory. A successful delete reloads it once and journals delete_client.
// Close works from every phase except Executing.
package deletion
