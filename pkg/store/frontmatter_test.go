package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, g *Goal, body string)
	}{
		{
			name: "goal with tactics and body",
			input: `---
id: a1b2c3d4
cycle_id: c0ffee00
title: "Ship the app"
why_it_matters: revenue
tactics:
  - id: t1
    title: Write code
    tactic_type: recurring
    start_week: 1
    end_week: 12
    weekly_frequency: 5
created: 2026-02-08T10:00:00Z
updated: 2026-02-08T14:30:00Z
---

# Ship the app

Launch on both stores.
`,
			check: func(t *testing.T, g *Goal, body string) {
				assert.Equal(t, "Ship the app", g.Title)
				assert.Equal(t, "revenue", g.WhyItMatters)
				require.Len(t, g.Tactics, 1)
				assert.Equal(t, TacticRecurring, g.Tactics[0].Type)
				assert.Equal(t, 5, g.Tactics[0].WeeklyFrequency)
				assert.Contains(t, body, "# Ship the app")
				assert.Contains(t, body, "Launch on both stores.")
			},
		},
		{
			name:  "no frontmatter",
			input: "Just some notes without frontmatter.",
			check: func(t *testing.T, g *Goal, body string) {
				assert.Equal(t, "", g.Title)
				assert.Equal(t, "Just some notes without frontmatter.", body)
			},
		},
		{
			name:    "unclosed frontmatter",
			input:   "---\ntitle: broken\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			input:   "---\ntitle: [unterminated\n---\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Goal
			body, err := ParseFrontmatter(tt.input, &g)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, &g, body)
		})
	}
}

func TestSerializeFrontmatterRoundTrip(t *testing.T) {
	created := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
	target := 10000.0
	original := &Goal{
		ID:      "g1",
		CycleID: "c1",
		Title:   "Revenue",
		Indicators: []*LagIndicator{
			{ID: "i1", Name: "MRR", MetricType: MetricCurrency, TargetValue: &target},
		},
		Created: created,
		Updated: created,
	}

	content, err := SerializeFrontmatter(original, "Grow the business.")
	require.NoError(t, err)
	assert.Contains(t, content, "---\n")
	assert.Contains(t, content, "metric_type: currency")

	var parsed Goal
	body, err := ParseFrontmatter(content, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "Grow the business.", body)
	assert.Equal(t, original.Title, parsed.Title)
	require.Len(t, parsed.Indicators, 1)
	require.NotNil(t, parsed.Indicators[0].TargetValue)
	assert.Equal(t, target, *parsed.Indicators[0].TargetValue)
	assert.True(t, created.Equal(parsed.Created))
}

func TestSerializeFrontmatterEmptyBody(t *testing.T) {
	content, err := SerializeFrontmatter(&Cycle{ID: "c1", Title: "Q1"}, "")
	require.NoError(t, err)
	assert.True(t, len(content) > 0)
	assert.Equal(t, "\n", content[len(content)-1:])
	assert.NotContains(t, content, "---\n\n")
}
