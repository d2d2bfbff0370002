// Scout: a domain-scoped research assistant.
//
// Scout searches the web for what's new in a research domain, remembers what
// it already reported and emails newsletter digests.
//
// Usage:
//
//	scout              # Interactive chat (default)
//	scout serve        # MCP server (stdio transport)
//	scout domains list # Inspect research domains
//	scout memory stats # Inspect the research memory
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/HendryAvila/scout/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var missing *config.MissingError
		var cfgErr *configError
		switch {
		case errors.As(err, &missing), errors.As(err, &cfgErr):
			fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
