package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/climateview/mapgen/internal/types"
)

// GetRequestsCmd returns the requests command group.
func GetRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Manage map generation requests",
	}

	cmd.AddCommand(listRequestsCmd())
	cmd.AddCommand(getRequestCmd())
	cmd.AddCommand(submitRequestCmd())
	return cmd
}

func listRequestsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			requests, err := apiClient().ListRequests(cmd.Context(), status)
			if err != nil {
				return err
			}
			return printJSON(requests)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (EMPTY, GENERATING, CACHED)")
	return cmd
}

func getRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <fingerprint>",
		Short: "Get a request by fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := apiClient().GetRequest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(request)
		},
	}
}

func submitRequestCmd() *cobra.Command {
	var (
		variable string
		years    string
		months   string
		days     string
		hours    string
		area     string
		mapTypes string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a map generation request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := types.MapRequestParams{
				VariableName: variable,
				Years:        splitList(years),
				Months:       splitList(months),
				Days:         splitList(days),
				Hours:        splitList(hours),
				AreaCovered:  splitList(area),
				MapTypes:     splitList(mapTypes),
			}
			if err := params.Validate(); err != nil {
				return err
			}

			resp, err := apiClient().SubmitRequest(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&variable, "variable", "", "Variable name (required)")
	cmd.Flags().StringVar(&years, "years", "", "Comma-separated years")
	cmd.Flags().StringVar(&months, "months", "", "Comma-separated months")
	cmd.Flags().StringVar(&days, "days", "", "Comma-separated days")
	cmd.Flags().StringVar(&hours, "hours", "", "Comma-separated hours")
	cmd.Flags().StringVar(&area, "area", "Global", "Comma-separated areas")
	cmd.Flags().StringVar(&mapTypes, "map-types", "cont", "Comma-separated map types")
	return cmd
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
