package caseview

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// Kind picks the input widget for a collected fact.
type Kind int

const (
	KindShortText Kind = iota
	KindLongText
	KindBool
	KindNumber
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindLongText:
		return "long_text"
	case KindStructured:
		return "structured"
	default:
		return "short_text"
	}
}

// LongTextThreshold is the length above which strings get a multi-line editor.
const LongTextThreshold = 80

// Fact is one classified collected_facts entry.
type Fact struct {
	Key   string
	Kind  Kind
	Value any
}

// Classify decides the Kind of a decoded JSON value.
func Classify(value any) Kind {
	switch v := value.(type) {
	case bool:
		return KindBool
	case float64, float32, int, int32, int64, json.Number:
		return KindNumber
	case string:
		if len(v) > LongTextThreshold || strings.Contains(v, "\n") {
			return KindLongText
		}
		return KindShortText
	case nil:
		return KindShortText
	default:
		return KindStructured
	}
}

// Facts classifies every entry, ordered by key.
func Facts(facts types.JSONMap) []Fact {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Fact, 0, len(keys))
	for _, k := range keys {
		out = append(out, Fact{Key: k, Kind: Classify(facts[k]), Value: facts[k]})
	}
	return out
}

// Display renders the value for read-only views.
func (f Fact) Display() string {
	switch f.Kind {
	case KindBool:
		if b, _ := f.Value.(bool); b {
			return "Yes"
		}
		return "No"
	case KindNumber:
		if n, ok := f.Value.(float64); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return fmt.Sprint(f.Value)
	case KindStructured:
		raw, err := json.MarshalIndent(f.Value, "", "  ")
		if err != nil {
			return fmt.Sprint(f.Value)
		}
		return string(raw)
	}
	if f.Value == nil {
		return ""
	}
	return fmt.Sprint(f.Value)
}

// ParseInput converts operator input into a value of the given kind.
func ParseInput(kind Kind, raw string) (any, error) {
	switch kind {
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "yes", "y", "1":
			return true, nil
		case "false", "no", "n", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not yes or no", raw)
	case KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return n, nil
	case KindStructured:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return v, nil
	}
	return raw, nil
}
