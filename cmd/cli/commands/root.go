// Package commands implements the mapgen CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/climateview/mapgen/pkg/api/v1/client"
)

// flag names
const (
	flagServerAddress = "server-address"
)

// environment variable names
const (
	envServerAddress = "MAPGEN_SERVER_ADDRESS"
)

// DefaultServerAddress is used when neither the flag nor the environment
// variable is set.
const DefaultServerAddress = "http://localhost:8080"

// serverAddress holds the target API server address. Flag parsing sets this.
var serverAddress string

// apiClient returns a client for the configured server address.
func apiClient() *client.Client {
	addr := serverAddress
	if addr == DefaultServerAddress {
		if env := os.Getenv(envServerAddress); env != "" {
			addr = env
		}
	}
	return client.New(addr)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mapgen",
	Short: "Mapgen CLI - A command line interface for the mapgen API",
	Long:  `Mapgen CLI is a command line tool for submitting and inspecting map generation requests through the mapgen API.`,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", DefaultServerAddress,
		"Address of the mapgen API server (env: MAPGEN_SERVER_ADDRESS)")

	RootCmd.AddCommand(GetRequestsCmd())
	RootCmd.AddCommand(GetUsersCmd())
}
