package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "masseplan-cli",
		Short: "Masseplan CLI tool",
		Long:  `A command line interface for interacting with the Masseplan API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Masseplan API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(
		classifyCmd(),
		reclassifyCmd(),
		allocateCmd(),
		transferEffectsCmd(),
		aggregateCmd(),
		statsCmd(),
		confirmCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func classifyCmd() *cobra.Command {
	var entryIDs []string

	cmd := &cobra.Command{
		Use:   "classify <case-id>",
		Short: "Run the classification rules over a case",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postAndPrint(fmt.Sprintf("/api/v1/cases/%s/classify", args[0]),
				map[string]any{"entry_ids": entryIDs})
		},
	}
	cmd.Flags().StringSliceVar(&entryIDs, "entries", nil, "Entry IDs to classify (default: all unreviewed)")

	return cmd
}

func reclassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reclassify <case-id>",
		Short: "Rebuild the suggestions of all unreviewed entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postAndPrint(fmt.Sprintf("/api/v1/cases/%s/reclassify", args[0]), nil)
		},
	}
}

func allocateCmd() *cobra.Command {
	var entryIDs []string

	cmd := &cobra.Command{
		Use:   "allocate <case-id>",
		Short: "Resolve the estate allocation of a case's IST entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postAndPrint(fmt.Sprintf("/api/v1/cases/%s/allocate", args[0]),
				map[string]any{"entry_ids": entryIDs})
		},
	}
	cmd.Flags().StringSliceVar(&entryIDs, "entries", nil, "Entry IDs to allocate (default: all IST entries)")

	return cmd
}

func transferEffectsCmd() *cobra.Command {
	var effectIDs []string

	cmd := &cobra.Command{
		Use:   "transfer-effects <case-id>",
		Short: "Materialize insolvency effects into PLAN entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postAndPrint(fmt.Sprintf("/api/v1/cases/%s/effects/transfer", args[0]),
				map[string]any{"effect_ids": effectIDs})
		},
	}
	cmd.Flags().StringSliceVar(&effectIDs, "effects", nil, "Effect IDs to transfer")
	cmd.MarkFlagRequired("effects")

	return cmd
}

func aggregateCmd() *cobra.Command {
	var includeSuggested bool

	cmd := &cobra.Command{
		Use:   "aggregate <case-id> <plan-id>",
		Short: "Build the liquidity forecast table for a plan",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			path := fmt.Sprintf("/api/v1/cases/%s/plans/%s/aggregation", args[0], args[1])
			if includeSuggested {
				path += "?include_suggested=true"
			}
			getAndPrint(path)
		},
	}
	cmd.Flags().BoolVar(&includeSuggested, "include-suggested", false, "Let unconfirmed suggestions fill in categories")

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <case-id>",
		Short: "Show review and classification progress for a case",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Review:")
			getAndPrint(fmt.Sprintf("/api/v1/cases/%s/review/stats", args[0]))
			fmt.Println("Classification:")
			getAndPrint(fmt.Sprintf("/api/v1/cases/%s/classification/stats", args[0]))
		},
	}
}

func confirmCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "confirm <entry-id>",
		Short: "Confirm a ledger entry, promoting its suggestion",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postAndPrint(fmt.Sprintf("/api/v1/entries/%s/confirm", args[0]),
				map[string]any{"actor": actor})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "Reviewer identity recorded in the audit trail")
	cmd.MarkFlagRequired("actor")

	return cmd
}

func postAndPrint(path string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func getAndPrint(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(body), 2000))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
