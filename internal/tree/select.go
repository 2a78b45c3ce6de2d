package tree

// Selection is the outcome of choosing a node: either one action to run
// or a menu to offer.
type Selection struct {
	Action Action   `json:"action,omitempty"`
	Menu   []Action `json:"menu,omitempty"`
}

// IsMenu reports whether the selection is a menu rather than an action.
func (s Selection) IsMenu() bool { return len(s.Menu) > 0 }

// Select resolves what choosing n does. A node without children runs its
// primary action. A node with children offers secondary actions instead of
// re-running the primary one.
func Select(n Node) Selection {
	if len(n.Children) == 0 {
		return Selection{Action: n.Action}
	}
	menu := []Action{ActionViewReport, ActionOpenTerminal}
	if n.ID == NodeTechDebt {
		menu = append(menu, ActionSearchMarkers)
	}
	return Selection{Menu: menu}
}

// ScanKind reports which pipeline scan a primary action launches, if any.
// Only the security action uses the security profile; refresh and
// view-patterns read existing artifacts without scanning.
func ScanKind(a Action) (string, bool) {
	switch a {
	case ActionSecurityScan:
		return "security", true
	case ActionAutoFix, ActionTypeCheck, ActionRunTests, ActionDebtScan, ActionFullScan:
		return "general", true
	default:
		return "", false
	}
}
