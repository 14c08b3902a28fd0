package domain

import (
	"sort"
	"strings"

	"realestate-ledger/shared"
)

// DefaultCountryCodes lists the regions whose currencies the public rate
// source is known to convert.
var DefaultCountryCodes = []string{
	"AD", "AS", "AT", "AX", "BE", "BL", "BQ", "BR", "BV", "CA", "CC", "CH",
	"CK", "CN", "CX", "CY", "CZ", "DE", "DK", "EC", "EE", "ES", "FI", "FM", "FO", "FR", "GB",
	"GF", "GG", "GL", "GP", "GR", "GS", "GU", "HK", "HM", "HR", "HU", "ID", "IE", "IL", "IM",
	"IN", "IO", "IS", "IT", "JE", "JP", "KI", "KR", "LI", "LT", "LU", "LV", "MC", "ME", "MF",
	"MH", "MP", "MQ", "MT", "MX", "MY", "NF", "NL", "NO", "NR", "NU", "NZ", "PH", "PL", "PM",
	"PN", "PR", "PS", "PT", "PW", "RE", "RO", "SE", "SG", "SI", "SJ", "SK", "SM", "TC", "TF",
	"TH", "TL", "TR", "TV", "UM", "US", "VA", "VG", "VI", "YT", "ZA",
}

// CountrySet is the fixed set of regions a sale may be recorded in.
// The zero value contains no countries.
type CountrySet struct {
	codes map[shared.Country]struct{}
}

func NewCountrySet(codes ...string) CountrySet {
	set := CountrySet{codes: make(map[shared.Country]struct{}, len(codes))}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		set.codes[shared.Country(c)] = struct{}{}
	}
	return set
}

func DefaultCountrySet() CountrySet {
	return NewCountrySet(DefaultCountryCodes...)
}

func (s CountrySet) Contains(country shared.Country) bool {
	_, ok := s.codes[country]
	return ok
}

func (s CountrySet) Len() int {
	return len(s.codes)
}

// Countries returns the members in lexical order.
func (s CountrySet) Countries() []shared.Country {
	out := make([]shared.Country, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
