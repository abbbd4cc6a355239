// Package metrics provides services for querying and aggregating LLM usage
// data recorded during deliberations.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Usage represents aggregated token and cost figures for one slice of
// deliberation traffic (a role, a model, or everything).
type Usage struct {
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost_usd"`
}

// QueryService provides methods to query deliberation metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

func (q *QueryService) scalarQuery(ctx context.Context, query string) (float64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}

func (q *QueryService) usageForSelector(ctx context.Context, selector string) (*Usage, error) {
	usage := &Usage{}

	prompt, err := q.scalarQuery(ctx,
		fmt.Sprintf(`sum(llm_tokens_total{%s, type="prompt"})`, selector))
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	usage.PromptTokens = int64(prompt)

	completion, err := q.scalarQuery(ctx,
		fmt.Sprintf(`sum(llm_tokens_total{%s, type="completion"})`, selector))
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	usage.CompletionTokens = int64(completion)

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	cost, err := q.scalarQuery(ctx,
		fmt.Sprintf(`sum(llm_costs_total{%s})`, selector))
	if err != nil {
		return nil, fmt.Errorf("failed to query total cost: %w", err)
	}
	usage.TotalCost = cost

	return usage, nil
}

// GetRoleUsage retrieves aggregated token and cost metrics for a single
// role label across all models ("judge", "triage", "synthesis", or a council
// seat role).
func (q *QueryService) GetRoleUsage(ctx context.Context, role string) (*Usage, error) {
	return q.usageForSelector(ctx, fmt.Sprintf("role=%q", role))
}

// labelValues returns the distinct values a label takes across llm_tokens_total.
func (q *QueryService) labelValues(ctx context.Context, label string) ([]string, error) {
	result, _, err := q.queryAPI.Query(ctx,
		fmt.Sprintf(`group by (%s) (llm_tokens_total)`, label), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s values: %w", label, err)
	}

	var values []string
	if vector, ok := result.(model.Vector); ok {
		for _, sample := range vector {
			if value, ok := sample.Metric[model.LabelName(label)]; ok {
				values = append(values, string(value))
			}
		}
	}
	return values, nil
}

func (q *QueryService) usageByLabel(ctx context.Context, label string) (map[string]*Usage, error) {
	values, err := q.labelValues(ctx, label)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*Usage)
	for _, value := range values {
		usage, err := q.usageForSelector(ctx, fmt.Sprintf("%s=%q", label, value))
		if err != nil {
			return nil, fmt.Errorf("failed to query usage for %s=%s: %w", label, value, err)
		}
		result[value] = usage
	}
	return result, nil
}

// GetUsageByModel retrieves usage broken down by model across all roles.
// This shows which models deliberations are actually spending on.
func (q *QueryService) GetUsageByModel(ctx context.Context) (map[string]*Usage, error) {
	return q.usageByLabel(ctx, "model")
}

// GetUsageByRole retrieves usage broken down by role label: council seats
// plus the triage, judge and synthesis steps.
func (q *QueryService) GetUsageByRole(ctx context.Context) (map[string]*Usage, error) {
	return q.usageByLabel(ctx, "role")
}
