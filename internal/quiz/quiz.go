// Package quiz decodes the open answer bag of a funnel into the typed view a
// consumer needs. The stored answers are never rewritten; views are read-only.
package quiz

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/retirement-leads/internal/entity"
)

const (
	FunnelRetirementIncome = "retirement-income"
	FunnelGoldIRA          = "gold-ira"
)

// Answers is the typed view of one funnel's answers.
type Answers interface {
	Funnel() string
	// AllocationAmount is the amount the visitor said they want to place, in
	// whole dollars; zero when the funnel does not ask for it.
	AllocationAmount() float64
	// Fields are funnel-specific CRM fields, already flattened.
	Fields() map[string]string
}

type RetirementIncome struct {
	AgeRange        string  `mapstructure:"age_range"`
	RetirementStage string  `mapstructure:"retirement_stage"`
	Savings         float64 `mapstructure:"retirement_savings"`
	Allocation      float64 `mapstructure:"allocation_amount"`
	IncomeGoal      string  `mapstructure:"income_goal"`
	HasAdvisor      string  `mapstructure:"has_advisor"`
	State           string  `mapstructure:"state"`
}

func (RetirementIncome) Funnel() string { return FunnelRetirementIncome }

func (a RetirementIncome) AllocationAmount() float64 {
	if a.Allocation > 0 {
		return a.Allocation
	}
	return a.Savings
}

func (a RetirementIncome) Fields() map[string]string {
	return compact(map[string]string{
		"ageRange":          a.AgeRange,
		"retirementStage":   a.RetirementStage,
		"retirementSavings": money(a.Savings),
		"incomeGoal":        a.IncomeGoal,
		"hasAdvisor":        a.HasAdvisor,
		"state":             a.State,
	})
}

type GoldIRA struct {
	AccountType string  `mapstructure:"account_type"`
	Allocation  float64 `mapstructure:"allocation_amount"`
	Timeframe   string  `mapstructure:"timeframe"`
	Motivation  string  `mapstructure:"motivation"`
}

func (GoldIRA) Funnel() string { return FunnelGoldIRA }

func (a GoldIRA) AllocationAmount() float64 { return a.Allocation }

func (a GoldIRA) Fields() map[string]string {
	return compact(map[string]string{
		"accountType": a.AccountType,
		"timeframe":   a.Timeframe,
		"motivation":  a.Motivation,
	})
}

// Generic covers funnels without a known shape.
type Generic struct {
	FunnelType string
	Raw        entity.QuizAnswers
}

func (g Generic) Funnel() string { return g.FunnelType }

func (g Generic) AllocationAmount() float64 {
	for _, k := range []string{"allocation_amount", "allocationAmount", "investable_assets"} {
		if v, ok := g.Raw[k]; ok {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	return 0
}

func (g Generic) Fields() map[string]string { return nil }

// Decode returns the typed view for funnelType. Unknown funnels, and answer
// bags that do not fit their funnel's shape, fall back to Generic.
func Decode(funnelType string, answers entity.QuizAnswers) (Answers, error) {
	var target Answers
	switch funnelType {
	case FunnelRetirementIncome:
		var v RetirementIncome
		if err := decode(answers, &v); err != nil {
			return Generic{FunnelType: funnelType, Raw: answers}, err
		}
		target = v
	case FunnelGoldIRA:
		var v GoldIRA
		if err := decode(answers, &v); err != nil {
			return Generic{FunnelType: funnelType, Raw: answers}, err
		}
		target = v
	default:
		target = Generic{FunnelType: funnelType, Raw: answers}
	}
	return target, nil
}

func decode(in entity.QuizAnswers, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       moneyStringHook,
	})
	if err != nil {
		return eris.Wrap(err, "quiz: build decoder")
	}
	if err := dec.Decode(map[string]any(in)); err != nil {
		return eris.Wrap(err, "quiz: decode answers")
	}
	return nil
}

// Flatten renders the scalar answers as strings keyed by prefix+question,
// in a stable order. Nested values are skipped.
func Flatten(answers entity.QuizAnswers, prefix string) map[string]string {
	out := make(map[string]string, len(answers))
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := answers[k].(type) {
		case string:
			out[prefix+k] = v
		case bool:
			out[prefix+k] = strconv.FormatBool(v)
		case float64:
			out[prefix+k] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			out[prefix+k] = strconv.Itoa(v)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[prefix+k] = strings.Join(parts, ", ")
		}
	}
	return out
}

// moneyStringHook lets "$250,000" and "250k" decode into float fields.
var moneyStringHook mapstructure.DecodeHookFuncKind = func(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.String || to != reflect.Float64 {
		return data, nil
	}
	if f, ok := parseMoney(data.(string)); ok {
		return f, nil
	}
	return data, nil
}

func parseMoney(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	// ranges like "100k-250k" take the lower bound
	if i := strings.Index(s, "-"); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "+")
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1_000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		return parseMoney(n)
	}
	return 0, false
}

func money(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 0, 64)
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}
