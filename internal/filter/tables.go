package filter

import "strings"

// countryDialCodes maps lower-cased country names to their international
// dialing prefix. The table is a fixed reference, not a complete registry:
// a country missing here simply exempts its leads from phone checks.
var countryDialCodes = map[string]string{
	"united states":        "+1",
	"canada":               "+1",
	"united kingdom":       "+44",
	"germany":              "+49",
	"france":               "+33",
	"spain":                "+34",
	"italy":                "+39",
	"netherlands":          "+31",
	"belgium":              "+32",
	"switzerland":          "+41",
	"austria":              "+43",
	"sweden":               "+46",
	"norway":               "+47",
	"denmark":              "+45",
	"finland":              "+358",
	"poland":               "+48",
	"czech republic":       "+420",
	"portugal":             "+351",
	"ireland":              "+353",
	"greece":               "+30",
	"romania":              "+40",
	"hungary":              "+36",
	"bulgaria":             "+359",
	"croatia":              "+385",
	"slovakia":             "+421",
	"slovenia":             "+386",
	"lithuania":            "+370",
	"latvia":               "+371",
	"estonia":              "+372",
	"ukraine":              "+380",
	"australia":            "+61",
	"new zealand":          "+64",
	"japan":                "+81",
	"south korea":          "+82",
	"china":                "+86",
	"india":                "+91",
	"singapore":            "+65",
	"israel":               "+972",
	"brazil":               "+55",
	"mexico":               "+52",
	"south africa":         "+27",
	"united arab emirates": "+971",
}

// ccTLDCountries maps country-code top-level domains to the country they
// belong to. Generic TLDs are deliberately absent: an unknown TLD never
// removes a lead.
var ccTLDCountries = map[string]string{
	"us": "united states",
	"ca": "canada",
	"uk": "united kingdom",
	"de": "germany",
	"fr": "france",
	"es": "spain",
	"it": "italy",
	"nl": "netherlands",
	"be": "belgium",
	"ch": "switzerland",
	"at": "austria",
	"se": "sweden",
	"no": "norway",
	"dk": "denmark",
	"fi": "finland",
	"pl": "poland",
	"cz": "czech republic",
	"pt": "portugal",
	"ie": "ireland",
	"gr": "greece",
	"ro": "romania",
	"hu": "hungary",
	"bg": "bulgaria",
	"hr": "croatia",
	"sk": "slovakia",
	"si": "slovenia",
	"lt": "lithuania",
	"lv": "latvia",
	"ee": "estonia",
	"ua": "ukraine",
	"au": "australia",
	"nz": "new zealand",
	"jp": "japan",
	"kr": "south korea",
	"cn": "china",
	"in": "india",
	"sg": "singapore",
	"il": "israel",
	"br": "brazil",
	"mx": "mexico",
	"za": "south africa",
	"ae": "united arab emirates",
}

// dialPrefixFor resolves a country name to its dialing prefix.
func dialPrefixFor(country string) (string, bool) {
	dial, ok := countryDialCodes[strings.ToLower(strings.TrimSpace(country))]
	return dial, ok
}

// normalizePhone strips formatting from a phone number and rewrites a 00
// international prefix to +. Everything except digits and a leading + is
// dropped.
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	return s
}

// containsFold reports whether list contains v under case-insensitive
// comparison, ignoring surrounding whitespace.
func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
