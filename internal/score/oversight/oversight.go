// Package oversight provides the committee-oversight bonus lookup behind
// the SQS information-edge dimension (spec.md §4.6): a static,
// operator-curated fixture mapping a politician to their committee
// assignments and a ticker to its oversight-relevant sector, mirroring
// internal/signal/contracts' fixture-at-startup pattern for the same
// reason — committee rosters and sector taxonomies are not available from
// any fetcher or market-data provider this module talks to, so they are
// supplied out of band rather than invented at scoring time.
package oversight

import (
	"encoding/json"
	"os"
	"strings"
)

// Role is a politician's standing on a committee that oversees a sector.
type Role string

const (
	RoleChair         Role = "chair"
	RoleRankingMember Role = "ranking_member"
	RoleMember        Role = "member"
)

// Assignment is one curated committee-assignment fact.
type Assignment struct {
	PoliticianName string `json:"politician_name"`
	Sector         string `json:"sector"`
	Role           Role   `json:"role"`
}

// Fixture is the on-disk shape: committee assignments plus the
// ticker-to-sector taxonomy needed to relate a trade to them.
type Fixture struct {
	Assignments    []Assignment      `json:"assignments"`
	SectorByTicker map[string]string `json:"sector_by_ticker"`
}

// Lookup answers "does this politician have oversight standing over this
// trade's sector?" against a fixture loaded once at startup.
type Lookup struct {
	byPolitician   map[string][]Assignment
	sectorByTicker map[string]string
}

// NewLookup builds a Lookup from pre-parsed fixture data.
func NewLookup(assignments []Assignment, sectorByTicker map[string]string) *Lookup {
	byPolitician := make(map[string][]Assignment)
	for _, a := range assignments {
		byPolitician[a.PoliticianName] = append(byPolitician[a.PoliticianName], a)
	}
	sectors := make(map[string]string, len(sectorByTicker))
	for ticker, sector := range sectorByTicker {
		sectors[strings.ToUpper(ticker)] = sector
	}
	return &Lookup{byPolitician: byPolitician, sectorByTicker: sectors}
}

// LoadFixture reads a Fixture from path and builds a Lookup.
func LoadFixture(path string) (*Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, err
	}
	return NewLookup(fx.Assignments, fx.SectorByTicker), nil
}

// Score implements spec.md §4.6's information-edge categorical rule: 100
// if the politician chairs or ranks on a committee overseeing the
// ticker's sector; 70 if they merely sit on it; 50 if they hold any
// committee assignment at all (sector-relevant background, just not a
// sector match); 20 otherwise. A nil ticker (unresolved asset) can never
// match a sector, so it falls through to the "any assignment" or
// "otherwise" bands.
func (l *Lookup) Score(politicianName string, ticker *string) float64 {
	assignments := l.byPolitician[politicianName]
	if len(assignments) == 0 {
		return 20
	}

	var sector string
	if ticker != nil {
		sector = l.sectorByTicker[strings.ToUpper(*ticker)]
	}

	bestMember := false
	for _, a := range assignments {
		if sector == "" || a.Sector != sector {
			continue
		}
		switch a.Role {
		case RoleChair, RoleRankingMember:
			return 100
		case RoleMember:
			bestMember = true
		}
	}
	if bestMember {
		return 70
	}
	return 50
}
