package tool

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/tools"
)

// Calculator evaluates arithmetic with langchaingo's starlark calculator.
type Calculator struct {
	inner tools.Calculator
}

func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Name() string { return "calculate" }

func (c *Calculator) Description() string {
	return "Runs a calculation and returns the number - be sure to use floating point syntax if necessary"
}

func (c *Calculator) Call(ctx context.Context, input string) (string, error) {
	return c.inner.Call(ctx, strings.Trim(strings.TrimSpace(input), "`\"'"))
}

// FruitPrice answers unit price questions for the text agent example.
type FruitPrice struct{}

func (FruitPrice) Name() string        { return "ask_fruit_unit_price" }
func (FruitPrice) Description() string { return "Asks the user for the price of a fruit" }

func (FruitPrice) Call(_ context.Context, input string) (string, error) {
	fruit := strings.Trim(strings.TrimSpace(input), "`\"'")
	switch {
	case strings.EqualFold(fruit, "apple"):
		return "Apple unit price is 10/kg", nil
	case strings.EqualFold(fruit, "banana"):
		return "Banana unit price is 6/kg", nil
	default:
		return fruit + " unit price is 20/kg", nil
	}
}
