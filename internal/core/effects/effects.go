// Package effects describes the side effects of workflow transitions as data.
// Transition hooks return effects; the application layer executes them, so
// the workflow table stays free of I/O.
package effects

// Effect is implemented by every effect value.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Persist targets understood by the executor.
const (
	EntityChurch   = "church"
	OpUpdateFields = "update_fields"
)

// LogEffect asks the shell to emit a structured log line.
type LogEffect struct {
	Level   string // logrus level name; unknown levels log at info
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect is a partial update of a stored entity.
type PersistEffect struct {
	Entity    string
	EntityID  string
	Operation string
	Data      map[string]any // merged into the entity payload; nil values remove keys
}

func (e PersistEffect) EffectType() string { return "persist" }

// UpdateChurchFields merges data into the payload of church id.
func UpdateChurchFields(id string, data map[string]any) PersistEffect {
	return PersistEffect{
		Entity:    EntityChurch,
		EntityID:  id,
		Operation: OpUpdateFields,
		Data:      data,
	}
}

// CompositeEffect runs its effects in order and stops at the first failure.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect does nothing.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
