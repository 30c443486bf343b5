package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/git"
	"github.com/charterhq/charter/internal/grants"
)

// --- Status tool ---

// StatusInput is the input for the status tool (no parameters needed).
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Repo          string `json:"repo"           jsonschema:"repository name"`
	Branch        string `json:"branch"         jsonschema:"current branch"`
	Head          string `json:"head"           jsonschema:"HEAD commit SHA"`
	CharterDir    string `json:"charter_dir"    jsonschema:"path to .charter directory"`
	DirExists     bool   `json:"dir_exists"     jsonschema:"whether .charter directory exists"`
	ContractCount int    `json:"contract_count" jsonschema:"total number of contracts"`
}

func handleStatus(store *contract.FileStore) mcp.ToolHandlerFor[StatusInput, StatusOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		root, err := git.RepoRoot()
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("getting repo root: %w", err)
		}

		branch, err := git.CurrentBranch()
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("getting current branch: %w", err)
		}

		head, err := git.HEAD()
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("getting HEAD: %w", err)
		}

		dirInfo, statErr := os.Stat(store.Root())
		dirExists := statErr == nil && dirInfo.IsDir()

		entries, err := store.List()
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("listing contracts: %w", err)
		}

		out := StatusOutput{
			Repo:          filepath.Base(root),
			Branch:        branch,
			Head:          head,
			CharterDir:    store.Root(),
			DirExists:     dirExists,
			ContractCount: len(entries),
		}

		return nil, out, nil
	}
}

// --- Show tool ---

// ShowInput is the input for the show tool.
type ShowInput struct {
	ID string `json:"id" jsonschema:"contract ID to display"`
}

// ShowOutput is the output for the show tool.
type ShowOutput struct {
	Contract *contract.Contract `json:"contract" jsonschema:"the full contract record"`
}

func handleShow(store *contract.FileStore) mcp.ToolHandlerFor[ShowInput, ShowOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ShowInput) (*mcp.CallToolResult, ShowOutput, error) {
		if input.ID == "" {
			return nil, ShowOutput{}, errors.New("id is required")
		}

		c, err := store.Load(input.ID)
		if err != nil {
			return nil, ShowOutput{}, fmt.Errorf("loading contract: %w", err)
		}

		return nil, ShowOutput{Contract: c}, nil
	}
}

// --- List tool ---

// ListInput is the input for the list tool.
type ListInput struct {
	State string `json:"state,omitempty" jsonschema:"filter by state name (e.g. APPROVED)"`
}

// ContractSummary is a compact contract record for listing.
type ContractSummary struct {
	ID        string `json:"id"         jsonschema:"contract ID"`
	Intent    string `json:"intent"     jsonschema:"what the contract is for"`
	State     string `json:"state"      jsonschema:"current state"`
	UpdatedAt string `json:"updated_at" jsonschema:"last update timestamp"`
}

// ListOutput is the output for the list tool.
type ListOutput struct {
	Count     int               `json:"count"               jsonschema:"number of contracts returned"`
	Contracts []ContractSummary `json:"contracts,omitempty" jsonschema:"contract summaries, newest first"`
}

func handleList(store *contract.FileStore) mcp.ToolHandlerFor[ListInput, ListOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
		if input.State != "" && !contract.ValidState(contract.State(input.State)) {
			return nil, ListOutput{}, fmt.Errorf("%q is not a valid contract state", input.State)
		}

		entries, err := store.List()
		if err != nil {
			return nil, ListOutput{}, fmt.Errorf("listing contracts: %w", err)
		}

		out := ListOutput{}
		for _, entry := range entries {
			if input.State != "" && string(entry.State) != input.State {
				continue
			}
			out.Contracts = append(out.Contracts, ContractSummary{
				ID:        entry.ID,
				Intent:    entry.Intent,
				State:     string(entry.State),
				UpdatedAt: entry.UpdatedAt,
			})
		}
		out.Count = len(out.Contracts)

		return nil, out, nil
	}
}

// --- Grants tool ---

// GrantsInput is the input for the grants tool.
type GrantsInput struct {
	ID string `json:"id" jsonschema:"contract ID to inspect"`
}

// GrantsOutput is the output for the grants tool.
type GrantsOutput struct {
	Required []string `json:"required"          jsonschema:"grants the contract requires"`
	Approved []string `json:"approved"          jsonschema:"grants already approved"`
	Missing  []string `json:"missing,omitempty" jsonschema:"required grants not yet approved"`
	Passed   bool     `json:"passed"            jsonschema:"whether the grant gate currently passes"`
}

func handleGrants(store *contract.FileStore) mcp.ToolHandlerFor[GrantsInput, GrantsOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input GrantsInput) (*mcp.CallToolResult, GrantsOutput, error) {
		if input.ID == "" {
			return nil, GrantsOutput{}, errors.New("id is required")
		}

		c, err := store.Load(input.ID)
		if err != nil {
			return nil, GrantsOutput{}, fmt.Errorf("loading contract: %w", err)
		}

		missing := grants.Missing(c)
		out := GrantsOutput{
			Required: c.ControlsRequired,
			Approved: c.ControlsApproved,
			Missing:  missing,
			Passed:   len(missing) == 0,
		}

		return nil, out, nil
	}
}

// --- Propose tool ---

// ProposeInput is the input for the propose tool.
type ProposeInput struct {
	Intent string   `json:"intent"           jsonschema:"what the delegated work should accomplish"`
	Grants []string `json:"grants,omitempty" jsonschema:"required control grants in namespace:permission form"`
}

// ProposeOutput is the output for the propose tool.
type ProposeOutput struct {
	ID        string    `json:"id"         jsonschema:"new contract ID"`
	State     string    `json:"state"      jsonschema:"initial state (DRAFT)"`
	CreatedAt time.Time `json:"created_at" jsonschema:"creation timestamp"`
}

func handlePropose(store *contract.FileStore) mcp.ToolHandlerFor[ProposeInput, ProposeOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ProposeInput) (*mcp.CallToolResult, ProposeOutput, error) {
		if input.Intent == "" {
			return nil, ProposeOutput{}, errors.New("intent is required")
		}

		required, err := grants.ParseAll(input.Grants)
		if err != nil {
			return nil, ProposeOutput{}, err
		}

		engine := contract.NewEngine(store)
		c := contract.New(input.Intent)
		c.ControlsRequired = required

		if err := engine.RecordHistory(c, string(contract.StateDraft), "contract proposed", "mcp"); err != nil {
			return nil, ProposeOutput{}, fmt.Errorf("recording contract: %w", err)
		}

		out := ProposeOutput{
			ID:        c.ID,
			State:     string(c.CurrentState),
			CreatedAt: c.CreatedAt,
		}

		return nil, out, nil
	}
}
