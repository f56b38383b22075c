// Package countries is the embedded country registry used to resolve the
// free-text country names of the input dataset to ISO 3166-1 alpha-3 codes.
// Each entry also carries a whole-degree centroid so the map chart can
// place a glyph without real polygon geometry.
//
// Resolution is exact (case-insensitive, whitespace-normalized) against
// canonical names and registry-defined aliases only. There is no heuristic
// string similarity on the resolution path; Levenshtein near-misses are
// offered separately, for log messages about dropped rows.
package countries

import (
	"bufio"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

//go:embed data/countries.tsv
var registryData embed.FS

// Country is one registry entry.
type Country struct {
	Name    string
	Alpha3  string
	Lat     float64
	Lon     float64
	Aliases []string
}

// Registry resolves country names to registry entries.
type Registry struct {
	countries []Country
	byName    map[string]int
	byCode    map[string]int
}

// maxSuggestDistance caps the edit distance Suggest will honor, keeping
// near-miss hints meaningful and the scan cheap.
const maxSuggestDistance = 3

// NewRegistry parses the embedded registry data and builds the name index.
func NewRegistry() (*Registry, error) {
	f, err := registryData.Open("data/countries.tsv")
	if err != nil {
		return nil, fmt.Errorf("open registry data: %w", err)
	}
	defer f.Close()

	r := &Registry{
		byName: make(map[string]int),
		byCode: make(map[string]int),
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 4 {
			return nil, fmt.Errorf("registry data line %d: want at least 4 fields, got %d", line, len(fields))
		}

		lat, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("registry data line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("registry data line %d: longitude: %w", line, err)
		}

		c := Country{
			Name:   fields[0],
			Alpha3: fields[1],
			Lat:    lat,
			Lon:    lon,
		}
		if len(fields) > 4 && fields[4] != "" {
			c.Aliases = strings.Split(fields[4], "|")
		}

		if _, dup := r.byCode[c.Alpha3]; dup {
			return nil, fmt.Errorf("registry data line %d: duplicate code %s", line, c.Alpha3)
		}

		i := len(r.countries)
		r.countries = append(r.countries, c)
		r.byCode[c.Alpha3] = i
		if err := r.index(c.Name, i); err != nil {
			return nil, fmt.Errorf("registry data line %d: %w", line, err)
		}
		for _, alias := range c.Aliases {
			if err := r.index(alias, i); err != nil {
				return nil, fmt.Errorf("registry data line %d: %w", line, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read registry data: %w", err)
	}
	return r, nil
}

func (r *Registry) index(name string, i int) error {
	key := normalize(name)
	if prev, dup := r.byName[key]; dup && prev != i {
		return fmt.Errorf("name %q indexed for both %s and %s",
			name, r.countries[prev].Alpha3, r.countries[i].Alpha3)
	}
	r.byName[key] = i
	return nil
}

// Resolve looks up a country name against canonical names and aliases.
// The second return value is false when the registry has no entry; that is
// the only failure mode and it is not an error.
func (r *Registry) Resolve(name string) (Country, bool) {
	i, ok := r.byName[normalize(name)]
	if !ok {
		return Country{}, false
	}
	return r.countries[i], true
}

// ByCode looks up a registry entry by its alpha-3 code.
func (r *Registry) ByCode(code string) (Country, bool) {
	i, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return r.countries[i], true
}

// Suggest returns canonical names within maxDist edits of the given name,
// closest first. It is advisory output for log lines about unresolvable
// rows and must never be used to resolve.
func (r *Registry) Suggest(name string, maxDist int) []string {
	if maxDist > maxSuggestDistance {
		maxDist = maxSuggestDistance
	}
	query := normalize(name)

	type hit struct {
		name string
		dist int
	}
	var hits []hit
	for _, c := range r.countries {
		dist := levenshtein.ComputeDistance(query, normalize(c.Name))
		if dist <= maxDist {
			hits = append(hits, hit{c.Name, dist})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.name
	}
	return names
}

// All returns every registry entry in data-file order.
func (r *Registry) All() []Country {
	out := make([]Country, len(r.countries))
	copy(out, r.countries)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
