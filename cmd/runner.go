package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flux-sim/flux-sim/sim"
	"github.com/flux-sim/flux-sim/sim/mastery"
	"github.com/flux-sim/flux-sim/sim/metrics"
	"github.com/flux-sim/flux-sim/sim/policy"
	"github.com/flux-sim/flux-sim/sim/trace"
)

// ScenarioReport is everything observed while playing one scenario.
type ScenarioReport struct {
	Scenario    Scenario
	SessionID   string
	Status      sim.SessionStatus
	Results     []sim.StepResult
	Log         []trace.StepRecord
	Rejected    []string // admission rejection reasons
	Hints       []StepHint
	ResumedAt   int // step index the session was restored at; 0 when never snapshotted
	Summary     *trace.TraceSummary
	Diagnostics policy.Diagnostics
	Advice      policy.Recommendation
}

// StepHint is a hint and the step that made it due.
type StepHint struct {
	Step int
	Hint policy.Hint
}

// Outcomes returns the success flag of every applied step.
func (r *ScenarioReport) Outcomes() []bool {
	out := make([]bool, len(r.Log))
	for i, s := range r.Log {
		out[i] = s.Success
	}
	return out
}

// CompetencyReport is the post-run policy view of one competency.
type CompetencyReport struct {
	Slug              string
	Updates           []mastery.Update // one per scenario, in scenario order
	Recent            policy.Accuracy // over completed sessions only
	Difficulty        int
	ChallengeType     policy.ChallengeType
	ShowVisualization bool
}

// RunReport is the result of a whole run.
type RunReport struct {
	Scenarios      []*ScenarioReport
	Competencies   []CompetencyReport
	Mastery        map[string]float64
	NextCompetency string // "" when nothing is unlocked
}

// runner plays scenarios against one engine. Engine, recorder and collector
// are safe to share across goroutines; each scenario owns its session.
type runner struct {
	engine      *sim.Engine
	traces      *sim.TraceRecorder
	collector   *metrics.Collector
	policy      *policy.Engine
	model       *mastery.Model
	snapshotDir string
}

func newRunner(cfg Config, content policy.ContentRegistry, snapshotDir string) *runner {
	traces := sim.NewTraceRecorder(trace.TraceConfig{Level: trace.TraceLevel(cfg.TraceLevel)})
	collector := metrics.NewCollector()
	return &runner{
		engine:      sim.NewEngine(cfg.Engine, sim.WithObserver(sim.Observers(traces, collector))),
		traces:      traces,
		collector:   collector,
		policy:      policy.NewEngine(cfg.Policy, content),
		model:       mastery.NewModel(cfg.Mastery),
		snapshotDir: snapshotDir,
	}
}

// run plays every scenario concurrently, then folds outcomes into mastery in
// scenario order so the result does not depend on scheduling. Recent accuracy
// pools only sessions that reached completion.
func (r *runner) run(ctx context.Context, scenarios []Scenario, graph *mastery.Graph, seed map[string]float64) (*RunReport, error) {
	reports := make([]*ScenarioReport, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range scenarios {
		g.Go(func() error {
			rep, err := r.play(gctx, i, sc)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracker := mastery.NewTracker(r.model)
	for slug, p := range seed {
		tracker.Set(slug, p)
	}
	out := &RunReport{Scenarios: reports}
	index := make(map[string]int)
	logs := make(map[string][][]trace.StepRecord)
	for _, rep := range reports {
		slug := rep.Scenario.Competency
		if slug == "" {
			continue
		}
		i, ok := index[slug]
		if !ok {
			i = len(out.Competencies)
			index[slug] = i
			out.Competencies = append(out.Competencies, CompetencyReport{Slug: slug})
		}
		upd := tracker.Observe(slug, rep.Outcomes())
		logrus.Infof("mastery %s: %.4f -> %.4f (mastered=%v)", slug, upd.OldP, upd.NewP, upd.Mastered)
		out.Competencies[i].Updates = append(out.Competencies[i].Updates, upd)
		if rep.Status == sim.StatusCompleted {
			logs[slug] = append(logs[slug], rep.Log)
		}
	}

	out.Mastery = tracker.MasteryMap()
	for i := range out.Competencies {
		cr := &out.Competencies[i]
		cr.Recent = r.policy.RecentAccuracy(logs[cr.Slug])
		cr.Difficulty = r.policy.TargetDifficulty(out.Mastery, cr.Slug, cr.Recent)
		cr.ChallengeType = r.policy.NextChallengeType(out.Mastery, cr.Slug, cr.Recent)
		cr.ShowVisualization = r.policy.ShouldShowVisualization(cr.Recent)
	}
	if graph != nil && graph.Len() > 0 {
		out.NextCompetency, _ = r.model.RecommendNext(out.Mastery, graph, "")
	}
	return out, nil
}

// play runs one scenario. With a snapshot directory the session is
// snapshotted to disk halfway through and the rest of the script continues
// on the restored session.
func (r *runner) play(ctx context.Context, idx int, sc Scenario) (*ScenarioReport, error) {
	var opts []sim.SessionOption
	if sc.Goal != nil {
		opts = append(opts, sim.WithGoal(*sc.Goal))
	}
	s, err := r.engine.StartSession(sc.Domain, sc.InitialState, opts...)
	if err != nil {
		return nil, err
	}
	logrus.Infof("scenario %s: started %s session %s", sc.Name, s.Domain(), s.ID())

	rep := &ScenarioReport{Scenario: sc, SessionID: s.ID()}
	ladder := r.policy.NewHintLadder(sc.Challenge)
	resumeAt := 0
	if r.snapshotDir != "" {
		resumeAt = len(sc.Steps) / 2
	}

steps:
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if resumeAt > 0 && i == resumeAt {
			if s, err = r.resume(s, idx, sc, opts); err != nil {
				return nil, err
			}
			rep.ResumedAt = i
		}

		res, err := s.ApplyAction(st.Action, st.Params)
		switch {
		case errors.Is(err, sim.ErrActionNotAllowed):
			r.traces.RecordAdmission(s.ID(), st.Action, false, err.Error())
			rep.Rejected = append(rep.Rejected, err.Error())
			continue
		case errors.Is(err, sim.ErrSessionNotActive):
			logrus.Infof("scenario %s: session %s, skipping %d remaining steps", sc.Name, s.Status(), len(sc.Steps)-i)
			break steps
		case err != nil:
			return nil, err
		}
		r.traces.RecordAdmission(s.ID(), st.Action, true, "")

		rep.Results = append(rep.Results, res)
		rep.Log = append(rep.Log, trace.StepRecord{
			Step:        res.Step,
			Action:      res.Action,
			Success:     res.Success,
			FailureKind: string(res.Result.Kind),
			Error:       res.Result.Error,
			Entropy:     res.Entropy,
		})
		if h, ok := ladder.NextFromLog(rep.Log); ok {
			rep.Hints = append(rep.Hints, StepHint{Step: res.Step, Hint: h})
		}
	}

	rep.Status = s.Status()
	rep.Summary = trace.Summarize(r.traces.Trace(s.ID()))
	rep.Diagnostics = r.policy.WeakSpots(rep.Log)
	rep.Advice = r.policy.Recommend(rep.Diagnostics)
	return rep, nil
}

func (r *runner) resume(s *sim.Session, idx int, sc Scenario, opts []sim.SessionOption) (*sim.Session, error) {
	data, err := s.MarshalSnapshot()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(r.snapshotDir, fmt.Sprintf("%02d-%s.json", idx, sc.Name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	restored, err := r.engine.RestoreJSON(data, sc.InitialState, opts...)
	if err != nil {
		return nil, err
	}
	logrus.Infof("scenario %s: resumed session %s from %s at step %d", sc.Name, restored.ID(), path, restored.Steps())
	return restored, nil
}
