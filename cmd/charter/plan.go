package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/charterhq/charter/internal/config"
	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/git"
	"github.com/charterhq/charter/internal/output"
	"github.com/charterhq/charter/internal/plan"
	"github.com/charterhq/charter/internal/planner"
)

// planStates are the states a contract can be (re)planned from.
// REWOUND is a parked state; planning is what re-opens it.
var planStates = []contract.State{
	contract.StateDraft,
	contract.StatePlanned,
	contract.StateRewound,
}

// newPlanCmd creates the plan command.
func newPlanCmd() *cobra.Command {
	var (
		fileFlag   string
		textFlag   string
		modelFlag  string
		appendFlag string
	)
	cmd := &cobra.Command{
		Use:   "plan <contract-id>",
		Short: "Attach a structured plan to a contract",
		Long: `Attach a structured plan to a contract and move it to PLANNED.

The plan comes from one of three sources:
  --file   a plan JSON file ({"version": "plan.v1", "title", "steps"})
  --text   a free-form text plan (kept alongside, not hashed)
  (default) generated from the intent by the configured LLM planner

Replanning an already PLANNED contract replaces the plan; since approval
artifacts are keyed by plan hash, any previous approval stops matching.
Planning a REWOUND contract re-opens it.

Examples:
  charter plan ct_1234
  charter plan ct_1234 --file plan.json
  charter plan ct_1234 --model claude-sonnet --append "prefer small steps"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], fileFlag, textFlag, modelFlag, appendFlag)
		},
	}
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Plan JSON file to attach")
	cmd.Flags().StringVar(&textFlag, "text", "", "Free-form text plan")
	cmd.Flags().StringVar(&modelFlag, "model", "", "LLM model for plan generation (overrides config)")
	cmd.Flags().StringVar(&appendFlag, "append", "", "Extra instructions for the planner")
	return cmd
}

// runPlan executes the plan command.
func runPlan(cmd *cobra.Command, id, fileFlag, textFlag, modelFlag, appendFlag string) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())

	store, err := openStore()
	if err != nil {
		return failWith(printer, err)
	}

	c, lock, err := loadLocked(store, id)
	if err != nil {
		return failWith(printer, err)
	}
	defer func() { _ = lock.Release() }()

	if err := contract.AssertState(c, planStates, "plan"); err != nil {
		return failWith(printer, err)
	}

	reopened := c.CurrentState == contract.StateRewound

	var structured *plan.Plan
	switch {
	case fileFlag != "":
		data, readErr := os.ReadFile(fileFlag)
		if readErr != nil {
			return failWith(printer, output.NewUserError("reading plan file: "+readErr.Error()))
		}
		structured, err = plan.Parse(data)
		if err != nil {
			return failWith(printer, output.NewUserError(err.Error()))
		}
	case textFlag != "":
		c.PlanText = textFlag
	default:
		structured, err = generatePlan(cmd, c, modelFlag, appendFlag)
		if err != nil {
			return failWith(printer, err)
		}
	}

	if structured != nil {
		c.PlanStructured = structured
	}

	engine := contract.NewEngine(store)
	reason := "plan attached"
	if reopened {
		reason = "plan attached, contract re-opened after rewind"
	}
	if err := engine.Transition(c, contract.StatePlanned, reason, defaultActor()); err != nil {
		return failWith(printer, err)
	}

	if printer.IsJSON() {
		data := map[string]any{
			"id":    c.ID,
			"state": string(c.CurrentState),
		}
		if c.PlanStructured != nil {
			data["plan"] = c.PlanStructured
		}
		if c.PlanText != "" {
			data["plan_text"] = c.PlanText
		}
		return printer.Success(data)
	}

	printer.KeyValue("Contract", c.ID)
	printer.KeyValue("State", printer.State(string(c.CurrentState)))
	if c.PlanStructured != nil {
		printer.KeyValue("Plan", c.PlanStructured.Title)
		printer.KeyValue("Steps", strconv.Itoa(len(c.PlanStructured.Steps)))
		for _, step := range c.PlanStructured.Steps {
			printer.Print("  %s  %s\n", step.ID, step.Summary)
		}
	}
	return nil
}

// generatePlan drafts a plan from the contract intent via the LLM planner.
func generatePlan(cmd *cobra.Command, c *contract.Contract, modelFlag, appendFlag string) (*plan.Plan, error) {
	root, err := charterRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadWorkspace(filepath.Dir(root))
	if err != nil {
		return nil, err
	}

	model := modelFlag
	if model == "" {
		model = cfg.PlannerModel
	}
	if model == "" {
		return nil, output.NewUserError(
			"no planner model configured: pass --model, set planner_model in .charter/config.toml, or use --file/--text")
	}

	p, err := planner.New(model, planner.Provider(cfg.PlannerProvider))
	if err != nil {
		return nil, err
	}

	pc := planner.PlanContext{
		Intent:     c.Intent,
		ContractID: c.ID,
		AppendText: appendFlag,
	}
	if git.IsRepo() {
		if repoRoot, rootErr := git.RepoRoot(); rootErr == nil {
			pc.RepoName = filepath.Base(repoRoot)
		}
		if branch, branchErr := git.CurrentBranch(); branchErr == nil {
			pc.Branch = branch
		}
	}

	return p.GeneratePlan(cmd.Context(), pc)
}
