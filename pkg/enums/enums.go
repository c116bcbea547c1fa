// Package enums defines the closed string sets stored on cases, orders and
// legal change events. Each type has IsValid and a Parse function.
package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](set []T, kind, value string) (T, error) {
	if i := slices.Index(set, T(value)); i >= 0 {
		return set[i], nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
