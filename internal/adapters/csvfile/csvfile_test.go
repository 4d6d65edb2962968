package csvfile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/crrpricer/internal/adapters/csvfile"
	"github.com/alejandrodnm/crrpricer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_ReadRequests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	body := "label,kind,spot,strike,rate,maturity,volatility,steps\n" +
		"atm-put,put,100,100,0.05,1,0.2,2\n" +
		"otm-call,C,100,120,0.03,0.5,0.3,\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	reqs, err := csvfile.New().ReadRequests(path)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, domain.PricingRequest{
		Label: "atm-put", Kind: domain.Put, Spot: 100, Strike: 100,
		Rate: 0.05, Maturity: 1, Volatility: 0.2, Steps: 2,
	}, reqs[0])
	assert.Equal(t, domain.Call, reqs[1].Kind)
	assert.Equal(t, 0, reqs[1].Steps)
}

func TestFiles_ReadRequests_BadRowsKept(t *testing.T) {
	tests := []struct {
		name    string
		badRow  string
		wantCol string
	}{
		{"unknown kind", "x,straddle,100,100,0.05,1,0.2,2", "column 2"},
		{"empty kind", "x,,100,100,0.05,1,0.2,2", "column 2"},
		{"spot not a number", "x,put,abc,100,0.05,1,0.2,2", "column 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "batch.csv")
			body := "label,kind,spot,strike,rate,maturity,volatility,steps\n" +
				"good,call,100,100,0.05,1,0.2,2\n" +
				tt.badRow + "\n" +
				"after,put,100,100,0.05,1,0.2,2\n"
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			reqs, err := csvfile.New().ReadRequests(path)
			require.NoError(t, err)
			require.Len(t, reqs, 3)

			assert.NoError(t, reqs[0].Invalid)
			assert.Equal(t, domain.Call, reqs[0].Kind)
			assert.NoError(t, reqs[2].Invalid)
			assert.Equal(t, "after", reqs[2].Label)

			require.Error(t, reqs[1].Invalid)
			assert.ErrorIs(t, reqs[1].Invalid, domain.ErrInvalidParameter)
			assert.Contains(t, reqs[1].Invalid.Error(), "line 3")
			assert.Contains(t, reqs[1].Invalid.Error(), tt.wantCol)
		})
	}
}

func TestFiles_ReadRequests_MissingFile(t *testing.T) {
	_, err := csvfile.New().ReadRequests(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestFiles_WriteQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	ok := domain.Quote{
		ID:                 "q1",
		Request:            domain.PricingRequest{Label: "atm-put", Kind: domain.Put, Spot: 100, Strike: 100, Rate: 0.05, Maturity: 1, Volatility: 0.2, Steps: 2},
		PricedAt:           time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Value:              5.7376543770697115,
		Probability:        0.5539,
		ProbabilityInRange: true,
		EarlyExerciseNodes: 1,
	}
	failed := domain.Quote{
		ID:      "q2",
		Request: domain.PricingRequest{Label: "bad", Kind: domain.Call, Spot: -1},
		Err:     domain.ErrInvalidParameter,
	}

	require.NoError(t, csvfile.New().WriteQuotes(path, []domain.Quote{ok, failed}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(lines[0], "id,label,kind,spot,strike"))
	assert.Contains(t, lines[1], "q1,atm-put,put,100,100")
	assert.Contains(t, lines[1], "5.7376543770697115")
	assert.Contains(t, lines[1], "2026-10-18T12:00:00Z")
	assert.Contains(t, lines[2], "q2,bad,call")
	assert.Contains(t, lines[2], "invalid parameter")
}
