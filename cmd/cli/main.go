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
		Use:   "paymaster-cli",
		Short: "Paymaster CLI tool",
		Long:  `A command line interface for interacting with the Paymaster API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Paymaster API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Budget commands
	budgetCmd := &cobra.Command{
		Use:   "budget",
		Short: "Budget operations",
	}
	budgetCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current budget snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			printGet("/api/v1/budget/status")
		},
	})
	rootCmd.AddCommand(budgetCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var limit int
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent ledger entries, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			printGet(fmt.Sprintf("/api/v1/ledger/entries?limit=%d", limit))
		},
	}
	recentCmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	ledgerCmd.AddCommand(recentCmd)

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Export the full ledger document",
		Run: func(cmd *cobra.Command, args []string) {
			printGet("/api/v1/ledger/export")
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import a ledger document, replacing current state",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Printf("Error reading file: %v\n", err)
				os.Exit(1)
			}
			printPost("/api/v1/ledger/import", data)
		},
	})
	rootCmd.AddCommand(ledgerCmd)

	// Circuit breaker commands
	breakersCmd := &cobra.Command{
		Use:   "breakers",
		Short: "Circuit breaker operations",
	}
	breakersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List circuit breaker states",
		Run: func(cmd *cobra.Command, args []string) {
			printGet("/api/v1/breakers/")
		},
	})
	breakersCmd.AddCommand(&cobra.Command{
		Use:   "reset <service>",
		Short: "Force a circuit breaker closed",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			printPost(fmt.Sprintf("/api/v1/breakers/%s/reset", args[0]), nil)
		},
	})
	rootCmd.AddCommand(breakersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func printGet(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printPost(path string, body []byte) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
