package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"

	"github.com/flux-sim/flux-sim/sim/policy"
)

var (
	okColor    = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
	hintColor  = color.New(color.FgYellow)
	titleColor = color.New(color.FgCyan, color.Bold)
)

func renderScenario(w io.Writer, rep *ScenarioReport) {
	titleColor.Fprintf(w, "== %s (%s, session %s)\n", rep.Scenario.Name, rep.Scenario.Domain, rep.SessionID)
	hint := 0
	for _, res := range rep.Results {
		mark := okColor.Sprint("ok  ")
		detail := ""
		if !res.Success {
			mark = failColor.Sprint("FAIL")
			detail = "  " + res.Result.Error
		}
		fmt.Fprintf(w, "  %3d %s %-20s entropy=%.4f%s\n", res.Step, mark, res.Action, res.Entropy, detail)
		if res.Goal != nil && res.Goal.Achieved {
			okColor.Fprintf(w, "      goal %s reached: %.4g (target %.4g)\n", res.Goal.Metric, res.Goal.Current, res.Goal.Target)
		}
		for hint < len(rep.Hints) && rep.Hints[hint].Step == res.Step {
			h := rep.Hints[hint].Hint
			hintColor.Fprintf(w, "      hint L%d: %s\n", h.Level, h.Message)
			hint++
		}
	}
	for _, reason := range rep.Rejected {
		failColor.Fprintf(w, "  rejected: %s\n", reason)
	}
	if rep.ResumedAt > 0 {
		fmt.Fprintf(w, "  resumed from snapshot before script step %d\n", rep.ResumedAt+1)
	}
	s := rep.Summary
	fmt.Fprintf(w, "  status=%s steps=%d accuracy=%.3f entropy=[%.4f, %.4f] final=%.4f rejected=%d\n",
		rep.Status, s.TotalSteps, s.Accuracy, s.MinEntropy, s.MaxEntropy, s.FinalEntropy, s.RejectedCount)
	renderAdvice(w, rep.Diagnostics, rep.Advice)
}

func renderAdvice(w io.Writer, d policy.Diagnostics, advice policy.Recommendation) {
	if d.Empty() {
		fmt.Fprintln(w, "  no steps to analyze")
		return
	}
	most := d.MostFailedAction
	if most == "" {
		most = "-"
	}
	fmt.Fprintf(w, "  weak spots: failure_rate=%.3f most_failed=%s stuck=%v\n", d.FailureRate, most, d.Stuck)
	fmt.Fprintf(w, "  advice [%s]: %s\n", advice.Kind, advice.Message)
}

func renderRun(w io.Writer, rep *RunReport) {
	for _, sc := range rep.Scenarios {
		renderScenario(w, sc)
	}
	if len(rep.Competencies) > 0 {
		titleColor.Fprintln(w, "== mastery")
	}
	for _, cr := range rep.Competencies {
		for _, upd := range cr.Updates {
			mark := ""
			if upd.Mastered {
				mark = okColor.Sprint(" mastered")
			}
			fmt.Fprintf(w, "  %-24s %.4f -> %.4f%s\n", cr.Slug, upd.OldP, upd.NewP, mark)
		}
		fmt.Fprintf(w, "    recent_accuracy=%s difficulty=%d (%s) next_type=%s visualize=%v\n",
			cr.Recent, cr.Difficulty, policy.DifficultyLabel(cr.Difficulty), cr.ChallengeType, cr.ShowVisualization)
	}
	if rep.NextCompetency != "" {
		fmt.Fprintf(w, "next competency: %s\n", rep.NextCompetency)
	}
}

func renderMastery(w io.Writer, m map[string]float64) {
	for _, slug := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(w, "  %-24s %.4f\n", slug, m[slug])
	}
}
