package graph

import (
	"math"
	"strings"
)

// Params holds the parsed parameters for a single unit declaration.
type Params struct {
	ID   string
	Type string
	Num  map[string]float64
	Str  map[string]string
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetStr returns a lower-cased string parameter, or def if missing.
func (p Params) GetStr(key, def string) string {
	v, ok := p.Str[key]
	if !ok || v == "" {
		return def
	}

	return strings.ToLower(v)
}

// GetBool reports a flag parameter. Non-zero numbers and "true" count as set.
func (p Params) GetBool(key string) bool {
	if v, ok := p.Num[key]; ok {
		return v != 0
	}

	return p.GetStr(key, "") == "true"
}

// parseParams splits a decoded YAML mapping into numeric and string values.
func parseParams(raw map[string]any) (map[string]float64, map[string]string) {
	num := map[string]float64{}
	str := map[string]string{}

	for k, v := range raw {
		switch t := v.(type) {
		case float64:
			num[k] = t
		case float32:
			num[k] = float64(t)
		case int:
			num[k] = float64(t)
		case int64:
			num[k] = float64(t)
		case uint64:
			num[k] = float64(t)
		case string:
			str[k] = t
		case bool:
			if t {
				num[k] = 1
			} else {
				num[k] = 0
			}
		}
	}

	return num, str
}
