package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/calculator-api/internal/lib/utils"
)

type smokeCase struct {
	Name      string
	Num1      float64
	Num2      float64
	Operation string

	WantStatus int
	WantResult float64
	WantCode   string
}

var smokeCases = []smokeCase{
	{Name: "add", Num1: 10, Num2: 5, Operation: "add", WantStatus: http.StatusOK, WantResult: 15},
	{Name: "subtract", Num1: 10, Num2: 5, Operation: "subtract", WantStatus: http.StatusOK, WantResult: 5},
	{Name: "multiply", Num1: 10, Num2: 5, Operation: "multiply", WantStatus: http.StatusOK, WantResult: 50},
	{Name: "divide", Num1: 7, Num2: 2, Operation: "divide", WantStatus: http.StatusOK, WantResult: 3.5},
	{Name: "power", Num1: 2, Num2: 10, Operation: "power", WantStatus: http.StatusOK, WantResult: 1024},
	{Name: "modulo", Num1: 100, Num2: 7, Operation: "modulo", WantStatus: http.StatusOK, WantResult: 2},
	{Name: "divide by zero", Num1: 5, Num2: 0, Operation: "divide", WantStatus: http.StatusBadRequest, WantCode: "DIVISION_BY_ZERO"},
	{Name: "invalid operation", Num1: 5, Num2: 3, Operation: "invalid", WantStatus: http.StatusBadRequest, WantCode: "UNKNOWN_OPERATION"},
}

// smokeResult is one line of the smoke report.
type smokeResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type smokeReport struct {
	Target  string        `json:"target"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Results []smokeResult `json:"results"`
}

func newSmokeCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Replay the canonical calculations against a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: timeout}

			report := runSmoke(cmd.Context(), client, baseURL)
			if err := utils.PrintJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d smoke cases failed", report.Failed, len(report.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the server")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	return cmd
}

func runSmoke(ctx context.Context, client *http.Client, baseURL string) smokeReport {
	target := strings.TrimRight(baseURL, "/") + "/api/calculate"
	report := smokeReport{Target: target}

	for _, tc := range smokeCases {
		res := smokeResult{Name: tc.Name, Passed: true}
		if err := checkSmokeCase(ctx, client, target, tc); err != nil {
			res.Passed = false
			res.Detail = err.Error()
			report.Failed++
		} else {
			report.Passed++
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func checkSmokeCase(ctx context.Context, client *http.Client, target string, tc smokeCase) error {
	body, err := json.Marshal(map[string]any{
		"num1":      tc.Num1,
		"num2":      tc.Num2,
		"operation": tc.Operation,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool     `json:"success"`
		Result  *float64 `json:"result"`
		Code    string   `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != tc.WantStatus {
		return fmt.Errorf("status %d, want %d", resp.StatusCode, tc.WantStatus)
	}

	if tc.WantCode != "" {
		if envelope.Success || envelope.Code != tc.WantCode {
			return fmt.Errorf("code %q, want %q", envelope.Code, tc.WantCode)
		}
		return nil
	}

	if !envelope.Success || envelope.Result == nil || *envelope.Result != tc.WantResult {
		got := "none"
		if envelope.Result != nil {
			got = fmt.Sprint(*envelope.Result)
		}
		return fmt.Errorf("result %s, want %v", got, tc.WantResult)
	}
	return nil
}
