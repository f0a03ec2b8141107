// Package models provides shared data structures for the recipebox project.
//
// This package contains the core data models used by the API server, the
// management commands and the client SDK. Keeping them in a separate package
// lets every component import them without creating circular dependencies.
//
// The models in this package represent:
//   - Users: Accounts that authenticate with email and password
//   - Recipes: Recipes owned by exactly one user
//   - Tokens: Access tokens issued to authenticated users
//
// All structs include JSON tags for API serialization. Request types carry
// gin binding tags so malformed payloads are rejected before reaching services.
package models
