// Package config holds the parameters of learners and experiments.
//
// Learner parameters are string keyed sections, typically the per-agent
// sections of an experiment File. Typed getters distinguish required keys,
// whose absence is an error, from optional keys with a fallback.
package config

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMissingKey = errors.New("missing key")
	ErrBadValue   = errors.New("malformed value")
)

// Params is a section of string valued parameters
type Params map[string]string

// Has checks whether the key is set to a non empty value
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && strings.TrimSpace(v) != ""
}

func (p Params) String(key string) (string, error) {
	if !p.Has(key) {
		return "", errors.Wrapf(ErrMissingKey, "%s", key)
	}
	return strings.TrimSpace(p[key]), nil
}

func (p Params) StringOr(key, fallback string) string {
	if v, err := p.String(key); err == nil {
		return v
	}
	return fallback
}

// Float parses a required float parameter
func (p Params) Float(key string) (float64, error) {
	s, err := p.String(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrBadValue, "%s=%q", key, s)
	}
	return v, nil
}

// FloatOr parses an optional float parameter, returning the fallback when
// the key is absent. A malformed value is still an error.
func (p Params) FloatOr(key string, fallback float64) (float64, error) {
	if !p.Has(key) {
		return fallback, nil
	}
	return p.Float(key)
}

func (p Params) Int(key string) (int, error) {
	s, err := p.String(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrBadValue, "%s=%q", key, s)
	}
	return v, nil
}

func (p Params) IntOr(key string, fallback int) (int, error) {
	if !p.Has(key) {
		return fallback, nil
	}
	return p.Int(key)
}

// With returns a copy of the params with the key set
func (p Params) With(key, value string) Params {
	result := make(Params, len(p)+1)
	for k, v := range p {
		result[k] = v
	}
	result[key] = value
	return result
}

// Keys in sorted order
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
