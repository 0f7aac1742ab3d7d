package types

// MacroTargets holds optional daily macro goals in grams. A nil field means
// no target is set.
type MacroTargets struct {
	P *float64 `json:"p"`
	C *float64 `json:"c"`
	F *float64 `json:"f"`
}

// Person is a user of the tracker. KcalGoal bounds are enforced by callers.
type Person struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	KcalGoal     float64       `json:"kcalGoal"`
	MacroTargets *MacroTargets `json:"macroTargets"`
}

// EnsureMacroTargets sets an empty MacroTargets when none is present.
func (p *Person) EnsureMacroTargets() {
	if p.MacroTargets == nil {
		p.MacroTargets = &MacroTargets{}
	}
}
