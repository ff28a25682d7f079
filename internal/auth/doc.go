// Package auth supplies the operator's bearer credential to the backend gateway.
//
// # Overview
//
// Operators sign in through the platform's identity provider outside this
// program. The sign-in flow leaves an access token behind (in the config, an
// environment variable, or a token file). This package turns that into a
// CredentialProvider with an explicit lifecycle:
//
//   - acquire: the first Token call fetches from the configured Source
//   - cache: later calls reuse the token until it expires
//   - invalidate: the gateway calls Invalidate on an authorization failure,
//     which drops the cache and clears the source (the token file is removed)
//
// # Sources
//
//	StaticSource("eyJhbG...")          // config value or env var
//	FileSource{Path: "~/.config/..."}  // token file written at sign-in
//	ChainSource{static, file}          // first source that has a token wins
//
// # Expiry
//
// Access tokens are JWTs issued by the identity provider. The console does not
// verify signatures (the backend does) but it does read the exp claim so an
// expired token fails fast with ErrExpiredToken instead of a round trip.
// Opaque tokens are passed through unchanged.
package auth
