package main

import (
	"os"

	"github.com/tenantdesk/tenantdesk/app"
)

func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
