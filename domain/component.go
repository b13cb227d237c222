package domain

// Component identifies the blood product a unit was separated into.
type Component string

const (
	ComponentPRBC   Component = "PRBC"
	ComponentPC     Component = "PC"
	ComponentPlasma Component = "PLASMA"
	ComponentWB     Component = "WB"
	ComponentCryo   Component = "CRYO"
)

// Components lists every known component in intake order.
var Components = []Component{ComponentPRBC, ComponentPC, ComponentPlasma, ComponentWB, ComponentCryo}

// TypedComponents are the components that take part in search, blood typing
// and screening. Whole blood and cryo are intake-only.
var TypedComponents = []Component{ComponentPRBC, ComponentPC, ComponentPlasma}

// ParseComponent matches s exactly (case-sensitive) against the known
// components.
func ParseComponent(s string) (Component, bool) {
	for _, c := range Components {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c Component) String() string { return string(c) }
