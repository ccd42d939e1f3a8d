package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type client struct {
	baseURL        string
	timeout        time.Duration
	idempotencyKey string
	asJSON         bool
}

func newRootCmd() *cobra.Command {
	c := &client{}

	rootCmd := &cobra.Command{
		Use:           "bobpool-cli",
		Short:         "Bobpool CLI tool",
		Long:          `A command line interface for interacting with the Bobpool meal pool API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the Bobpool API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.idempotencyKey, "idempotency-key", "", "Idempotency-Key header for writes")
	rootCmd.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		restaurantsCmd(c),
		poolCmd(c),
		depositCmd(c),
		withdrawCmd(c),
		reviseCmd(c),
		ledgerCmd(c),
	)

	return rootCmd
}

func restaurantsCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "restaurants",
		Short: "List restaurants with their pool balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Restaurants []struct {
					ID          int64  `json:"id"`
					Name        string `json:"name"`
					Category    string `json:"category"`
					MemberCount int    `json:"member_count"`
					PoolAmount  int64  `json:"pool_amount"`
				} `json:"restaurants"`
			}
			raw, err := c.do(http.MethodGet, "/api/v1/restaurants", nil, &resp)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), raw)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tMEMBERS\tPOOL")
			for _, r := range resp.Restaurants {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", r.ID, r.Name, r.Category, r.MemberCount, r.PoolAmount)
			}
			return tw.Flush()
		},
	}
}

func poolCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "pool <restaurant-id>",
		Short: "Show the pool summary of a restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Restaurant struct {
					Name string `json:"name"`
				} `json:"restaurant"`
				Entries []struct {
					ID           string `json:"id"`
					DisplayName  string `json:"display_name"`
					SpendAmount  int64  `json:"spend_amount"`
					Contribution int64  `json:"contribution"`
					Kind         string `json:"kind"`
				} `json:"entries"`
				CurrentPool        int64 `json:"current_pool"`
				TotalDeposited     int64 `json:"total_deposited"`
				TotalWithdrawn     int64 `json:"total_withdrawn"`
				DistinctDepositors int   `json:"distinct_depositors"`
				SkippedCount       int   `json:"skipped_count"`
			}
			raw, err := c.do(http.MethodGet, "/api/v1/restaurants/"+args[0]+"/pool", nil, &resp)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), raw)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", resp.Restaurant.Name)
			fmt.Fprintf(out, "Pool: %d (deposited %d, withdrawn %d, %d depositors)\n",
				resp.CurrentPool, resp.TotalDeposited, resp.TotalWithdrawn, resp.DistinctDepositors)
			if resp.SkippedCount > 0 {
				fmt.Fprintf(out, "Skipped malformed entries: %d\n", resp.SkippedCount)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tWHO\tSPEND\tCONTRIBUTION")
			for _, e := range resp.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", e.ID, e.Kind, truncate(e.DisplayName, 30), e.SpendAmount, e.Contribution)
			}
			return tw.Flush()
		},
	}
}

func depositCmd(c *client) *cobra.Command {
	var (
		participants []string
		items        []string
	)

	cmd := &cobra.Command{
		Use:   "deposit <restaurant-id>",
		Short: "Record a split deposit",
		Long:  `Record a split deposit. Each --item is "label=price"; a bare "label"
takes its price from the restaurant menu.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lineItems := make([]map[string]string, 0, len(items))
			for _, raw := range items {
				label, price := parseItem(raw)
				item := map[string]string{"label": label}
				if price != "" {
					item["price"] = price
				}
				lineItems = append(lineItems, item)
			}

			body := map[string]any{
				"participants": participants,
				"items":        lineItems,
			}
			return c.write(cmd.OutOrStdout(), http.MethodPost, "/api/v1/restaurants/"+args[0]+"/deposits", body)
		},
	}

	cmd.Flags().StringArrayVar(&participants, "participant", nil, "Participant name (repeatable, order kept)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "Line item as label=price (repeatable)")
	_ = cmd.MarkFlagRequired("participant")

	return cmd
}

func withdrawCmd(c *client) *cobra.Command {
	var participant, amount string

	cmd := &cobra.Command{
		Use:   "withdraw <restaurant-id>",
		Short: "Record a withdrawal from the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"participant": participant,
				"amount":      amount,
			}
			return c.write(cmd.OutOrStdout(), http.MethodPost, "/api/v1/restaurants/"+args[0]+"/withdrawals", body)
		},
	}

	cmd.Flags().StringVar(&participant, "participant", "", "Who draws from the pool")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to withdraw")
	_ = cmd.MarkFlagRequired("participant")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func reviseCmd(c *client) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "revise <restaurant-id> <entry-id>",
		Short: "Change the spend amount of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"spend_amount": amount}
			return c.write(cmd.OutOrStdout(), http.MethodPatch, "/api/v1/restaurants/"+args[0]+"/entries/"+args[1], body)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "New spend amount")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func ledgerCmd(c *client) *cobra.Command {
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistency := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.checkConsistency(cmd.OutOrStdout())
		},
	}

	ledger.AddCommand(consistency)
	return ledger
}

func (c *client) checkConsistency(out io.Writer) error {
	var report struct {
		Results []struct {
			RestaurantID   int64 `json:"restaurant_id"`
			StoredSum      int64 `json:"stored_sum"`
			AggregatedPool int64 `json:"aggregated_pool"`
			Difference     int64 `json:"difference"`
			IsConsistent   bool  `json:"is_consistent"`
		} `json:"results"`
		IsConsistent bool `json:"is_consistent"`
	}

	raw, err := c.do(http.MethodGet, "/api/v1/ledger/consistency", nil, &report)
	if err != nil {
		return fmt.Errorf("consistency check FAILED: %w", err)
	}
	if c.asJSON {
		if err := printJSON(out, raw); err != nil {
			return err
		}
	} else {
		for _, r := range report.Results {
			status := "ok"
			if !r.IsConsistent {
				status = "MISMATCH"
			}
			fmt.Fprintf(out, "restaurant %d: stored %d, aggregated %d, difference %d (%s)\n",
				r.RestaurantID, r.StoredSum, r.AggregatedPool, r.Difference, status)
		}
	}

	if !report.IsConsistent {
		return fmt.Errorf("consistency check FAILED")
	}

	fmt.Fprintln(out, "Consistency check PASSED")
	return nil
}

// write sends a mutating request and prints the resulting entry and pool.
func (c *client) write(out io.Writer, method, path string, body any) error {
	var resp struct {
		Entry struct {
			ID           string `json:"id"`
			DisplayName  string `json:"display_name"`
			SpendAmount  int64  `json:"spend_amount"`
			Contribution int64  `json:"contribution"`
			Kind         string `json:"kind"`
		} `json:"entry"`
		CurrentPool *int64 `json:"current_pool"`
	}

	raw, err := c.do(method, path, body, &resp)
	if err != nil {
		return err
	}
	if c.asJSON {
		return printJSON(out, raw)
	}

	fmt.Fprintf(out, "%s %s: %s spent %d, contribution %d\n",
		resp.Entry.Kind, resp.Entry.ID, resp.Entry.DisplayName, resp.Entry.SpendAmount, resp.Entry.Contribution)
	if resp.CurrentPool != nil {
		fmt.Fprintf(out, "Pool: %d\n", *resp.CurrentPool)
	} else {
		fmt.Fprintln(out, "Pool: unavailable")
	}
	return nil
}

// do performs a request and decodes a 2xx body into v. It returns the raw body.
func (c *client) do(method, path string, body, v any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(c.baseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.idempotencyKey != "" && method != http.MethodGet {
		req.Header.Set("Idempotency-Key", c.idempotencyKey)
	}

	resp, err := (&http.Client{Timeout: c.timeout}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, raw)
	}

	if v != nil {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return raw, nil
}

func apiError(status int, body []byte) error {
	var e struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return fmt.Errorf("status %d: %s", status, truncate(strings.TrimSpace(string(body)), 200))
	}

	msg := fmt.Sprintf("status %d: %s", status, e.Error)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Retryable {
		msg += " (retryable)"
	}
	return fmt.Errorf("%s", msg)
}

// parseItem splits "label=price". The last "=" separates the price.
func parseItem(raw string) (label, price string) {
	i := strings.LastIndex(raw, "=")
	if i < 0 {
		return strings.TrimSpace(raw), ""
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
}

func printJSON(out io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := out.Write(buf.Bytes())
	return err
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
