package schema

import "github.com/spektr-org/nexus/engine"

// ============================================================================
// SCHEMA — Describes the shape of a query result for panel suggestions
// ============================================================================
// Profiles are derived from a result by Discover on top of the engine's
// column classification. The suggest package reads them to pick panel
// columns, and the HTTP API returns them so a dashboard editor can offer
// column pickers with sample values.
// ============================================================================

// Role is how a profiled column is best used on a dashboard.
type Role string

const (
	RoleTime      Role = "time"      // x axis of time-based panels
	RoleDimension Role = "dimension" // grouping / filtering axis
	RoleMeasure   Role = "measure"   // aggregated numeric series
	RoleSkipped   Role = "skipped"   // identifiers, free text, empty columns
)

// Profile describes a complete query result.
type Profile struct {
	Name     string          `json:"name"`
	RowCount int             `json:"rowCount"`
	Columns  []ColumnProfile `json:"columns"`

	DiscoveredAt string `json:"discoveredAt,omitempty"`
}

// ColumnProfile describes a single result column.
type ColumnProfile struct {
	Index       int              `json:"index"`
	Name        string           `json:"name"`
	Key         string           `json:"key"`
	DisplayName string           `json:"displayName"`
	Kind        engine.ValueKind `json:"kind"`
	Role        Role             `json:"role"`

	UniqueCount     int      `json:"uniqueCount"`
	NullCount       int      `json:"nullCount"`
	SampleValues    []string `json:"sampleValues,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"

	SkipReason  string `json:"skipReason,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"` // can be restored with RecoverColumns
}

// Column returns the profile of the named column, or nil.
func (p *Profile) Column(name string) *ColumnProfile {
	if p == nil {
		return nil
	}
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i]
		}
	}
	return nil
}

// TimeColumn returns the first time column, or "".
func (p *Profile) TimeColumn() string {
	if names := p.namesWithRole(RoleTime); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Dimensions returns the names of dimension columns in column order.
func (p *Profile) Dimensions() []string { return p.namesWithRole(RoleDimension) }

// Measures returns the names of measure columns in column order.
func (p *Profile) Measures() []string { return p.namesWithRole(RoleMeasure) }

// Skipped returns the names of skipped columns in column order.
func (p *Profile) Skipped() []string { return p.namesWithRole(RoleSkipped) }

func (p *Profile) namesWithRole(role Role) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, c := range p.Columns {
		if c.Role == role {
			out = append(out, c.Name)
		}
	}
	return out
}
