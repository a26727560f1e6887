package css

import (
	"mailc/utils/debug"
)

// DumpRules returns readable tree of resolved variables and rules. It exists
// solely for debug reports.
func DumpRules(rules []Rule, vars Vars) string {
	tw := debug.NewTreeWriter()

	names := vars.Names()
	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, vars[name])
	}
	tw.Section(0, "Variables", names, values)

	tw.Line(0, "Rules (%d)", len(rules))
	for i, rule := range rules {
		tw.Line(1, "Rule[%d] %s", i, rule.Selector)
		for prop, value := range rule.Declarations.All() {
			tw.Field(2, prop, value)
		}
	}
	return tw.String()
}
