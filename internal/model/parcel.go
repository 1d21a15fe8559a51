package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrMissingID is returned for parcels without an id.
	ErrMissingID = errors.New("parcel has no id")
	// ErrMissingBlock is returned for parcels without a block key.
	ErrMissingBlock = errors.New("parcel has no block key")
)

// Attributes are the operator-entered values of a parcel. Area is the
// ground truth for combination search and is independent of the geometric
// area of the boundary.
type Attributes struct {
	Area  *float64 `json:"area,omitempty"`
	Price *float64 `json:"price,omitempty"`
	Owner string   `json:"owner,omitempty"`
}

// HasArea reports whether a defined, positive area was entered.
func (a Attributes) HasArea() bool {
	return a.Area != nil && *a.Area > 0
}

// AreaValue returns the entered area, or 0 when absent.
func (a Attributes) AreaValue() float64 {
	if a.Area == nil {
		return 0
	}
	return *a.Area
}

// Float returns a pointer to v, for filling optional attributes.
func Float(v float64) *float64 {
	return &v
}

// Parcel is one subdivided unit of land within a block.
type Parcel struct {
	ID         string     `json:"id"`
	BlockKey   string     `json:"block_key"`
	UnitKey    string     `json:"unit_key"`
	Boundary   Boundary   `json:"boundary"`
	Attributes Attributes `json:"attributes"`
}

func NewParcel(block, unit string, boundary Boundary) Parcel {
	return Parcel{
		ID:       uuid.New().String()[:8],
		BlockKey: block,
		UnitKey:  unit,
		Boundary: boundary,
	}
}

// Validate checks the parcel has an id, a block and a well-formed boundary.
// Combination results identify members by id, so ids must be present.
func (p Parcel) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.BlockKey == "" {
		return fmt.Errorf("parcel %q: %w", p.ID, ErrMissingBlock)
	}
	if err := p.Boundary.Validate(); err != nil {
		return fmt.Errorf("parcel %q: %w", p.ID, err)
	}
	return nil
}

// Snapshot is the set of parcels handed to the engine by the editor.
type Snapshot struct {
	Parcels []Parcel `json:"parcels"`
}

// Find returns the parcel with the given id.
func (s Snapshot) Find(id string) (Parcel, bool) {
	for _, p := range s.Parcels {
		if p.ID == id {
			return p, true
		}
	}
	return Parcel{}, false
}

// BlockGroup holds the parcels of a single block.
type BlockGroup struct {
	BlockKey string
	Parcels  []Parcel
}

// ByBlock groups parcels by block key. Blocks appear in the order of their
// first parcel, and parcels keep their input order within a block.
func (s Snapshot) ByBlock() []BlockGroup {
	return GroupByBlock(s.Parcels)
}

// GroupByBlock groups parcels by block key, see Snapshot.ByBlock.
func GroupByBlock(parcels []Parcel) []BlockGroup {
	index := make(map[string]int)
	var groups []BlockGroup
	for _, p := range parcels {
		i, ok := index[p.BlockKey]
		if !ok {
			i = len(groups)
			index[p.BlockKey] = i
			groups = append(groups, BlockGroup{BlockKey: p.BlockKey})
		}
		groups[i].Parcels = append(groups[i].Parcels, p)
	}
	return groups
}

// Combination is a set of contiguous parcels whose entered areas sum near
// a target.
type Combination struct {
	Members   []string `json:"members"`
	TotalArea float64  `json:"total_area"`
}
