package country

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Country is an ISO 3166-1 alpha-2 region with its English name
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Service is the static reference list of countries competitors can be registered with
type Service struct {
	byCode map[string]Country
	list   []Country
}

// New builds the country list from the CLDR region data
func New() *Service {
	namer := display.English.Regions()
	s := &Service{byCode: make(map[string]Country)}

	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			region, err := language.ParseRegion(code)
			if err != nil || region.String() != code {
				continue
			}
			if code == "ZZ" || !region.IsCountry() || (region.IsPrivateUse() && code != "XK") {
				continue
			}
			name := namer.Name(region)
			if name == "" {
				continue
			}
			c := Country{Code: code, Name: name}
			s.byCode[code] = c
			s.list = append(s.list, c)
		}
	}

	sort.Slice(s.list, func(i, j int) bool {
		return s.list[i].Name < s.list[j].Name
	})
	return s
}

// List returns every country ordered by name
func (s *Service) List() []Country {
	out := make([]Country, len(s.list))
	copy(out, s.list)
	return out
}

// Lookup finds a country by code, case-insensitively
func (s *Service) Lookup(code string) (Country, bool) {
	c, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Valid reports whether code names a known country
func (s *Service) Valid(code string) bool {
	_, ok := s.Lookup(code)
	return ok
}

// Name returns the country name for code, or code itself when unknown
func (s *Service) Name(code string) string {
	if c, ok := s.Lookup(code); ok {
		return c.Name
	}
	return code
}
