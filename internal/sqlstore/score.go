package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"sync"

	"modernc.org/sqlite"

	"github.com/alucardeht/poki-launcher/internal/frecency"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs calc_score(decayed_score, sort_text, search)
// for every connection the driver opens afterwards. It returns the decayed
// score plus the fuzzy relevance, or 0 when the text does not match.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("calc_score", 3, calcScore)
	})
	return registerErr
}

func calcScore(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	score, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	text, err := asText(args[1])
	if err != nil {
		return nil, err
	}
	search, err := asText(args[2])
	if err != nil {
		return nil, err
	}

	relevance, ok := frecency.FuzzyMatch(text, search)
	if !ok || relevance <= 0 {
		return 0.0, nil
	}
	return score + float64(relevance), nil
}

func asFloat(v driver.Value) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("calc_score: expected number, got %T", v)
}

func asText(v driver.Value) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("calc_score: expected text, got %T", v)
}
