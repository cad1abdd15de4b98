// Package middleware groups the Fiber middleware shared by every feature.
//
// # Components
//
//   - auth: rejects requests without the configured API key, read from the
//     X-API-Key header or the api_key query parameter. An empty key disables the check.
//   - rayid: tags every request with an X-Ray-ID, keeping the caller's value when present,
//     so log lines of one request can be correlated.
//
// Both are registered globally in the start command before the features are loaded.
package middleware
