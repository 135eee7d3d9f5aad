package dbcapabilities

import "strings"

// DatabaseID is the canonical identifier for a database technology supported
// by this backend.
type DatabaseID string

const (
	// HANA identifies SAP HANA, the only database this module targets.
	HANA DatabaseID = "hana"
)

// Capability describes what the database supports in a way the backend and
// its callers can consume uniformly.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "SAP HANA".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants).
	ID DatabaseID `json:"id"`

	// Default SQL port of the indexserver.
	DefaultPort int `json:"defaultPort"`

	// Whether the database exposes a built-in/system database and its typical names.
	HasSystemDatabase bool     `json:"hasSystemDatabase"`
	SystemDatabases   []string `json:"systemDatabases,omitempty"`

	// Transaction semantics.
	SupportsTransactions bool `json:"supportsTransactions"`
	SupportsSavepoints   bool `json:"supportsSavepoints"`
	UsesAutocommit       bool `json:"usesAutocommit"`

	// SQL surface quirks.
	CanReturnIDFromInsert   bool `json:"canReturnIdFromInsert"`
	SupportsTimezones       bool `json:"supportsTimezones"`
	RequiresUpperCaseSchema bool `json:"requiresUpperCaseSchema"`
	MaxNameLength           int  `json:"maxNameLength"`
	BulkBatchSize           int  `json:"bulkBatchSize"`

	// Common aliases (directory names, drivers, env labels) that map to this database.
	Aliases []string `json:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseID]Capability{
	HANA: {
		Name:                    "SAP HANA",
		ID:                      HANA,
		DefaultPort:             30015,
		HasSystemDatabase:       true,
		SystemDatabases:         []string{"SYSTEMDB"},
		SupportsTransactions:    true,
		SupportsSavepoints:      false,
		UsesAutocommit:          true,
		CanReturnIDFromInsert:   false,
		SupportsTimezones:       false,
		RequiresUpperCaseSchema: true,
		MaxNameLength:           127,
		BulkBatchSize:           2500,
		Aliases:                 []string{"sap_hana", "saphana", "hdb"},
	},
}

// Get returns the capability for the given database ID.
func Get(id DatabaseID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns the capability for the given database ID and panics if it
// is not registered. Use only with the package's own constants.
func MustGet(id DatabaseID) Capability {
	c, ok := All[id]
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return c
}

// ParseID resolves a database name or alias to its canonical ID.
func ParseID(name string) (DatabaseID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, c := range All {
		if string(id) == name {
			return id, true
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return id, true
			}
		}
	}
	return "", false
}
