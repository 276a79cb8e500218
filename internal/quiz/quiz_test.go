package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

func TestDecode_RetirementIncome(t *testing.T) {
	answers := entity.QuizAnswers{
		"age_range":          "55-64",
		"retirement_savings": "$250,000",
		"income_goal":        "steady income",
		"unrelated":          []any{"a", "b"},
	}

	a, err := Decode(FunnelRetirementIncome, answers)
	require.NoError(t, err)

	ri, ok := a.(RetirementIncome)
	require.True(t, ok)
	assert.Equal(t, "55-64", ri.AgeRange)
	assert.InDelta(t, 250000, a.AllocationAmount(), 0.001)
	assert.Equal(t, "250000", a.Fields()["retirementSavings"])
	assert.NotContains(t, a.Fields(), "hasAdvisor")
}

func TestDecode_GoldIRA(t *testing.T) {
	a, err := Decode(FunnelGoldIRA, entity.QuizAnswers{
		"allocation_amount": "100k-250k",
		"account_type":      "401k",
	})
	require.NoError(t, err)
	assert.InDelta(t, 100000, a.AllocationAmount(), 0.001)
	assert.Equal(t, "401k", a.Fields()["accountType"])
}

func TestDecode_UnknownFunnelIsGeneric(t *testing.T) {
	answers := entity.QuizAnswers{"investable_assets": float64(75000)}
	a, err := Decode("medicare", answers)
	require.NoError(t, err)
	assert.Equal(t, "medicare", a.Funnel())
	assert.InDelta(t, 75000, a.AllocationAmount(), 0.001)
	assert.Nil(t, a.Fields())
}

func TestDecode_ShapeMismatchFallsBack(t *testing.T) {
	a, err := Decode(FunnelGoldIRA, entity.QuizAnswers{"account_type": map[string]any{"x": 1}})
	assert.Error(t, err)
	_, generic := a.(Generic)
	assert.True(t, generic)
}

func TestFlatten(t *testing.T) {
	out := Flatten(entity.QuizAnswers{
		"q1":     "yes",
		"q2":     float64(3),
		"q3":     true,
		"multi":  []any{"stocks", "bonds"},
		"nested": map[string]any{"skip": true},
	}, "quiz_")

	assert.Equal(t, map[string]string{
		"quiz_q1":    "yes",
		"quiz_q2":    "3",
		"quiz_q3":    "true",
		"quiz_multi": "stocks, bonds",
	}, out)
}
