// Package main provides the recipebox server binary.
//
// The binary runs the recipe HTTP API (serve) and the management commands
// used around it: wait-for-db, migrate, create-superuser, compact-db,
// gen-secret, verify-token, healthcheck and version.
package main

import (
	"os"

	"github.com/yaroslav/recipebox/cmd/recipebox-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
