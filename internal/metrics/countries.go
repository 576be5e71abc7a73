package metrics

// DefaultCountryNames maps the subsidiary country codes found in the
// exports to display names.
var DefaultCountryNames = CountryNames{
	"AU": "Australia",
	"CN": "China",
	"SG": "Singapore",
	"IN": "India",
	"TW": "Taiwan",
	"NL": "Netherlands",
	"GB": "United Kingdom",
	"US": "United States",
	"HK": "Hong Kong",
}

// CountryNames maps country codes to display names.
type CountryNames map[string]string

// Name returns the display name of code, or code itself when unknown.
func (n CountryNames) Name(code string) string {
	if name, ok := n[code]; ok && name != "" {
		return name
	}
	return code
}

// Merge returns a copy of n with the entries of other added on top.
func (n CountryNames) Merge(other map[string]string) CountryNames {
	out := make(CountryNames, len(n)+len(other))
	for k, v := range n {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
