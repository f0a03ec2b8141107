// Package service implements the recipebox business logic on top of the
// storage layer: user accounts and tokens, and per-user recipes.
package service
