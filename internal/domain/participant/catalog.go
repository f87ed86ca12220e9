package participant

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is a read-only, ordered list of participants queryable by ID.
type Catalog struct {
	participants []Participant
	byID         map[string]int
}

type catalogFile struct {
	Participants []Participant `yaml:"participants"`
}

// DefaultCatalog returns the embedded specialist catalog.
func DefaultCatalog() *Catalog {
	catalog, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("participant: embedded catalog: %v", err))
	}
	return catalog
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(file.Participants)
}

// New builds a catalog from participants, preserving order.
func New(participants []Participant) (*Catalog, error) {
	c := &Catalog{
		participants: make([]Participant, 0, len(participants)),
		byID:         make(map[string]int, len(participants)),
	}
	for _, p := range participants {
		id := strings.TrimSpace(p.ID)
		if id == "" || id == UnknownID {
			return nil, fmt.Errorf("%w: participant id %q is reserved or empty", ErrInvalidCatalog, p.ID)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate participant id %q", ErrInvalidCatalog, id)
		}
		if !p.AnimationStyle.Valid() {
			return nil, fmt.Errorf("%w: participant %q has unknown animation style %q", ErrInvalidCatalog, id, p.AnimationStyle)
		}
		p.ID = id
		c.byID[id] = len(c.participants)
		c.participants = append(c.participants, p)
	}
	return c, nil
}

// All returns a copy of the catalog in catalog order.
func (c *Catalog) All() []Participant {
	out := make([]Participant, len(c.participants))
	copy(out, c.participants)
	return out
}

// Get returns the participant with id and whether it exists.
func (c *Catalog) Get(id string) (Participant, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Participant{}, false
	}
	return c.participants[idx], true
}

// Lookup returns the participant with id, or the Unknown record.
func (c *Catalog) Lookup(id string) Participant {
	if p, ok := c.Get(id); ok {
		return p
	}
	return Unknown
}

// Resolve maps ids to participants, dropping unknown ids and duplicates while
// keeping the caller's order.
func (c *Catalog) Resolve(ids []string) []Participant {
	seen := make(map[string]struct{}, len(ids))
	out := make([]Participant, 0, len(ids))
	for _, id := range ids {
		p := c.Lookup(strings.TrimSpace(id))
		if p.ID == UnknownID {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// InCatalogOrder returns the catalog entries whose IDs are in ids.
func (c *Catalog) InCatalogOrder(ids map[string]struct{}) []Participant {
	out := make([]Participant, 0, len(ids))
	for _, p := range c.participants {
		if _, ok := ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
