package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/filters"
	"github.com/RyanBlaney/sonido-scope/session"
)

// splitFilter splits a --filter value "kind:first:second" into its fields.
func splitFilter(s string) (kind, first, second string, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: filter %q is not kind:first:second", filters.ErrInvalidParameter, s)
	}
	return parts[0], parts[1], parts[2], nil
}

// prepare displays names (every loaded signal when empty) and runs the
// requested preprocessing on each: cleanup, then filters in flag order, then
// normalization.
func prepare(s *session.Session, names []string) ([]string, error) {
	if len(names) == 0 {
		names = s.Channels()
	}
	for _, name := range names {
		if err := s.Show(name); err != nil {
			return nil, err
		}
	}

	var (
		normalize = viper.GetString("normalize")
		method    common.NormalizationType
	)
	if normalize != "" {
		m, err := common.ParseNormalization(normalize)
		if err != nil {
			return nil, err
		}
		method = m
	}

	specs := viper.GetStringSlice("filter")
	for _, name := range names {
		if viper.GetBool("cleanup") {
			if err := s.Cleanup(name); err != nil {
				return nil, err
			}
		}
		for _, f := range specs {
			kind, first, second, err := splitFilter(f)
			if err != nil {
				return nil, err
			}
			if err := s.Filter(name, kind, first, second); err != nil {
				return nil, err
			}
		}
		if normalize != "" {
			if err := s.NormalizeWith(name, method); err != nil {
				return nil, err
			}
		}
	}
	return names, nil
}
