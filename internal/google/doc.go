// Package google obtains and persists the OAuth2 credential calchat uses to
// talk to Google Calendar.
//
// A CredentialStore reuses a stored credential while it is valid, refreshes
// it silently when it has expired, and falls back to an interactive consent
// flow in the user's browser only when neither is possible. Every credential
// it produces is written back to its TokenStore.
package google
