package redis

// Redis key naming conventions for lifecycle data.
// All keys are prefixed with "lifeline:" to avoid collisions.

const keyPrefix = "lifeline:"

// dispatchKey returns the Hash key for a dispatch entity:
// lifeline:dispatch:{id}
func dispatchKey(id string) string { return keyPrefix + "dispatch:" + id }

// dispatchIDsKey is the Set tracking all dispatch IDs for enumeration.
const dispatchIDsKey = keyPrefix + "dispatch_ids"

// statusKey returns the Set key tracking dispatch IDs in one status:
// lifeline:status:{status}
func statusKey(status string) string { return keyPrefix + "status:" + status }
