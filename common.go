package dispatch

// This file holds the definition of functions commonly used in different parts.

import "github.com/hashicorp/go-multierror"

// keys returns the keys of a map in the form of a slice.
func keys[K comparable, V any](m map[K]V) []K {
	s := make([]K, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	return s
}

// appendErr merges err and extra into one aggregate error, tolerating nils.
func appendErr(err error, extra error) error {
	var merr *multierror.Error
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	if extra != nil {
		merr = multierror.Append(merr, extra)
	}
	return merr.ErrorOrNil()
}
