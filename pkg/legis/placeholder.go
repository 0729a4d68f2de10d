package legis

import (
	"fmt"
	"strings"
)

// PlaceholderSummary is the templated summary served when no model summary
// is available. The template is picked from keywords in the title or
// identifier.
func PlaceholderSummary(identifier, title string) string {
	t := strings.ToLower(title)
	i := strings.ToLower(identifier)

	switch {
	case strings.Contains(t, "tax") || strings.Contains(i, "tax"):
		return fmt.Sprintf("%s addresses tax policy changes. This bill proposes modifications to existing "+
			"tax structures that could affect both individuals and businesses. Key provisions include potential "+
			"changes to tax rates, deductions, or credits. The fiscal impact would vary depending on "+
			"implementation timeline and economic conditions.", identifier)
	case strings.Contains(t, "education") || strings.Contains(i, "edu"):
		return fmt.Sprintf("%s focuses on education reform. This legislation aims to improve educational "+
			"outcomes through funding changes, curriculum standards, or administrative restructuring. If enacted, "+
			"it would impact students, educators, and educational institutions across the jurisdiction.", identifier)
	case strings.Contains(t, "health") || strings.Contains(i, "health"):
		return fmt.Sprintf("%s proposes healthcare system changes. This bill addresses healthcare access, "+
			"coverage, or delivery methods. Key provisions may include insurance reforms, provider regulations, "+
			"or patient protections. Implementation would likely involve coordination between multiple "+
			"healthcare stakeholders.", identifier)
	default:
		return fmt.Sprintf("%s: \"%s\" proposes changes to existing regulations or introduces new policy "+
			"frameworks. The bill addresses specific challenges in its target domain and would establish new "+
			"standards or procedures if enacted. Stakeholders directly affected would include regulatory bodies "+
			"and those operating within the sector targeted by this legislation.", identifier, title)
	}
}
