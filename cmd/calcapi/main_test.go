package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/calculator-api/internal/calculator"
	"github.com/deppfellow/calculator-api/internal/handler"
	"github.com/deppfellow/calculator-api/internal/repository"
	"github.com/deppfellow/calculator-api/internal/router"
	"github.com/deppfellow/calculator-api/internal/service"
	"github.com/deppfellow/calculator-api/internal/testutil"
)

func TestRunCalc(t *testing.T) {
	tests := []struct {
		name        string
		args        [3]string
		loc         calculator.Locale
		wantErr     bool
		wantResult  float64
		wantCode    string
		wantCalc    string
		wantMessage string
	}{
		{name: "add", args: [3]string{"10", "add", "5"}, loc: calculator.English, wantResult: 15, wantCalc: "10 + 5"},
		{name: "divide", args: [3]string{"7", "divide", "2"}, loc: calculator.English, wantResult: 3.5, wantCalc: "7 ÷ 2"},
		{name: "divide by zero", args: [3]string{"5", "divide", "0"}, loc: calculator.English, wantErr: true, wantCode: "DIVISION_BY_ZERO"},
		{name: "invalid number", args: [3]string{"abc", "add", "1"}, loc: calculator.English, wantErr: true, wantCode: "INVALID_NUMBER"},
		{name: "hebrew", args: [3]string{"5", "divide", "0"}, loc: calculator.Hebrew, wantErr: true, wantCode: "DIVISION_BY_ZERO", wantMessage: "לא ניתן לחלק באפס"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runCalc(&out, tt.args[0], tt.args[1], tt.args[2], tt.loc)

			var body map[string]any
			require.NoError(t, json.Unmarshal(out.Bytes(), &body))

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantCode, body["code"])
				if tt.wantMessage != "" {
					assert.Contains(t, body["error"], tt.wantMessage)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, tt.wantResult, body["result"])
			assert.Equal(t, tt.wantCalc, body["calculation"])
			assert.Contains(t, body, "id")
		})
	}
}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	s := testutil.NewServer()
	services, err := service.NewService(s, repository.NewRepositories(s))
	require.NoError(t, err)
	return router.NewRouter(s, handler.NewHandlers(s, services))
}

func TestRunSmoke(t *testing.T) {
	ts := httptest.NewServer(newTestRouter(t))
	defer ts.Close()

	report := runSmoke(context.Background(), ts.Client(), ts.URL+"/")

	assert.Equal(t, ts.URL+"/api/calculate", report.Target)
	assert.Equal(t, len(smokeCases), report.Passed)
	assert.Zero(t, report.Failed)
	for _, r := range report.Results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Detail)
	}
}

func TestRunSmoke_ReportsFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"result":0}`))
	}))
	defer ts.Close()

	report := runSmoke(context.Background(), ts.Client(), ts.URL)

	assert.Zero(t, report.Passed)
	assert.Equal(t, len(smokeCases), report.Failed)
	assert.Contains(t, report.Results[0].Detail, "want 15")
}

func TestRootCmd_Calc(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"calc", "2", "power", "10"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"result": 1024`)
	assert.Contains(t, out.String(), `"calculation": "2 ^ 10"`)
}
