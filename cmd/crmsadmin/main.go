// Command crmsadmin runs maintenance tasks against the CRMS database:
// migrations, seeding, attendance repair, analytics refresh and integrity checks.
package main

import (
	"os"

	"github.com/yigit/crms/internal/pkg/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("crmsadmin failed")
		os.Exit(1)
	}
}
