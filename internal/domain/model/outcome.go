package model

import "fmt"

// Entity names the kind of record an Outcome refers to.
type Entity string

// Synchronized entity kinds.
const (
	EntityPlanet    Entity = "planet"
	EntityCharacter Entity = "character"
)

// Kind tags how an upsert ended.
type Kind string

// Outcome kinds.
const (
	KindCreated  Kind = "created"
	KindExisting Kind = "existing"
	KindFailed   Kind = "failed"
	KindSkipped  Kind = "skipped"
)

// Outcome is the result of one upsert. Failed and skipped outcomes carry the
// reason in Err; the run continues past them.
type Outcome struct {
	Kind          Kind
	Entity        Entity
	Name          string
	RemoteID      string
	DestinationID int64
	Err           error
}

// OK reports whether the entity is present in the destination after the upsert.
func (o Outcome) OK() bool {
	return o.Kind == KindCreated || o.Kind == KindExisting
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s %q (%s): %s: %v", o.Entity, o.Name, o.RemoteID, o.Kind, o.Err)
	}
	return fmt.Sprintf("%s %q (%s): %s as %d", o.Entity, o.Name, o.RemoteID, o.Kind, o.DestinationID)
}
