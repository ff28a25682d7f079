// Package onboarding provisions a new tenant end to end.
//
// # State machine
//
//	Idle --open--> Editing --submit--> Submitting --succeeded--> Succeeded --dismiss--> Idle
//	                  ^                     |
//	                  +------failed---------+
//
// Submit runs local validation first; an invalid form never reaches the
// network. While Submitting every event except the request outcome returns
// ErrBusy, so the form can be neither edited nor dismissed and a second
// create is impossible. A failure returns to Editing with the entered values
// intact and LastError holding the server message (or "Onboarding failed").
// An authorization failure abandons the session back to Idle.
//
// Success holds the result until Dismiss, journals onboard_client and
// reloads the directory once.
//
// # Export
//
// Export(result, password, portal) is a pure function producing a Record
// with Markdown and HTML renderings for handing credentials to the tenant.
package onboarding
