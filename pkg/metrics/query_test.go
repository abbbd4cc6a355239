package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrometheus serves canned instant-query results keyed by PromQL text.
// Unknown queries return an empty vector, which the service reads as zero.
func fakePrometheus(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.FormValue("query")

		body, ok := results[query]
		if !ok {
			body = `[]`
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":%s}}`, body)
	}))
}

func scalarVector(value string) string {
	return fmt.Sprintf(`[{"metric":{},"value":[1756200000,%q]}]`, value)
}

func TestGetRoleUsage(t *testing.T) {
	srv := fakePrometheus(t, map[string]string{
		`sum(llm_tokens_total{role="judge", type="prompt"})`:     scalarVector("1200"),
		`sum(llm_tokens_total{role="judge", type="completion"})`: scalarVector("300"),
		`sum(llm_costs_total{role="judge"})`:                     scalarVector("0.25"),
	})
	defer srv.Close()

	svc, err := NewQueryService(srv.URL)
	require.NoError(t, err)

	usage, err := svc.GetRoleUsage(context.Background(), "judge")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), usage.PromptTokens)
	assert.Equal(t, int64(300), usage.CompletionTokens)
	assert.Equal(t, int64(1500), usage.TotalTokens)
	assert.InDelta(t, 0.25, usage.TotalCost, 1e-9)
}

func TestGetRoleUsageNoData(t *testing.T) {
	srv := fakePrometheus(t, nil)
	defer srv.Close()

	svc, err := NewQueryService(srv.URL)
	require.NoError(t, err)

	usage, err := svc.GetRoleUsage(context.Background(), "red_team")
	require.NoError(t, err)
	assert.Zero(t, usage.TotalTokens)
	assert.Zero(t, usage.TotalCost)
}

func TestGetUsageByModel(t *testing.T) {
	srv := fakePrometheus(t, map[string]string{
		`group by (model) (llm_tokens_total)`: `[` +
			`{"metric":{"model":"anthropic/claude-sonnet-4-5"},"value":[1756200000,"1"]},` +
			`{"metric":{"model":"openai/gpt-4o"},"value":[1756200000,"1"]}]`,
		`sum(llm_tokens_total{model="anthropic/claude-sonnet-4-5", type="prompt"})`:     scalarVector("900"),
		`sum(llm_tokens_total{model="anthropic/claude-sonnet-4-5", type="completion"})`: scalarVector("100"),
		`sum(llm_costs_total{model="anthropic/claude-sonnet-4-5"})`:                     scalarVector("0.5"),
		`sum(llm_tokens_total{model="openai/gpt-4o", type="prompt"})`:                   scalarVector("400"),
		`sum(llm_tokens_total{model="openai/gpt-4o", type="completion"})`:               scalarVector("50"),
		`sum(llm_costs_total{model="openai/gpt-4o"})`:                                   scalarVector("0.1"),
	})
	defer srv.Close()

	svc, err := NewQueryService(srv.URL)
	require.NoError(t, err)

	byModel, err := svc.GetUsageByModel(context.Background())
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, int64(1000), byModel["anthropic/claude-sonnet-4-5"].TotalTokens)
	assert.InDelta(t, 0.1, byModel["openai/gpt-4o"].TotalCost, 1e-9)
}

func TestGetUsageByRole(t *testing.T) {
	srv := fakePrometheus(t, map[string]string{
		`group by (role) (llm_tokens_total)`: `[` +
			`{"metric":{"role":"synthesis"},"value":[1756200000,"1"]}]`,
		`sum(llm_tokens_total{role="synthesis", type="prompt"})`:     scalarVector("2000"),
		`sum(llm_tokens_total{role="synthesis", type="completion"})`: scalarVector("800"),
		`sum(llm_costs_total{role="synthesis"})`:                     scalarVector("1.25"),
	})
	defer srv.Close()

	svc, err := NewQueryService(srv.URL)
	require.NoError(t, err)

	byRole, err := svc.GetUsageByRole(context.Background())
	require.NoError(t, err)
	require.Contains(t, byRole, "synthesis")
	assert.Equal(t, int64(2800), byRole["synthesis"].TotalTokens)
	assert.InDelta(t, 1.25, byRole["synthesis"].TotalCost, 1e-9)
}
