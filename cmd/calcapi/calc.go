package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/calculator-api/internal/calculator"
	"github.com/deppfellow/calculator-api/internal/lib/utils"
)

func newCalcCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "calc <num1> <operation> <num2>",
		Short: "Evaluate one calculation offline and print the response envelope",
		Example: `  calcapi calc 10 add 5
  calcapi calc 5 divide 0 --lang he`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.OutOrStdout(), args[0], args[1], args[2], calculator.MatchLocale(lang))
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "en", "message language, as an Accept-Language value")
	return cmd
}

// runCalc prints the envelope and returns an error carrying the failure
// code so the process exits non-zero.
func runCalc(w io.Writer, num1, operation, num2 string, loc calculator.Locale) error {
	outcome := calculator.Evaluate(calculator.InputFromStrings(num1, operation, num2), loc)
	envelope, _ := calculator.BuildEnvelope(outcome, time.Now())

	if err := utils.PrintJSON(w, envelope); err != nil {
		return err
	}
	if !envelope.Success {
		return fmt.Errorf("calculation failed: %s", envelope.Code)
	}
	return nil
}
