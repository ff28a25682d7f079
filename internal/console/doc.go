// Package console composes the admin console from its configuration.
//
// New opens the operator journal, builds the credential provider from the
// configured token and token file, and hands one gateway to the client
// directory and the plan catalog. Onboarding and deletion workflows are
// created per operator action with NewOnboarding and NewDeletion; both
// reload the shared directory on success. Every deletion workflow shares one
// failed-confirmation limiter.
package console
