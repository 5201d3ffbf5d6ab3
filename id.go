package lifeline

import "github.com/arkline/lifeline/id"

// ID is the primary identifier type for all Lifeline entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
