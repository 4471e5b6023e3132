package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/noah-isme/passport-office-api/api/swagger"
)

// @title Passport Office API
// @version 1.0.0
// @description Search, paging and maintenance of civil person records
// @BasePath /api/v1
// @schemes http

func main() {
	rootCmd := &cobra.Command{
		Use:          "passport-api",
		Short:        "Passport office person records service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
