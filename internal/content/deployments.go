package content

import (
	"context"
	"strings"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/github"
)

// Deployment states reported to the dashboard.
const (
	StatePending  = "pending"
	StateBuilding = "building"
	StateSuccess  = "success"
	StateFailure  = "failure"
)

// DeploymentStatus is the build state of one commit.
type DeploymentStatus struct {
	SHA   string      `json:"sha"`
	State string      `json:"state"`
	Run   *github.Run `json:"run,omitempty"`
}

// Deployments reads GitHub Actions runs as the site's build signal.
type Deployments struct {
	gw     github.Gateway
	branch string
}

func NewDeployments(gw github.Gateway, branch string) *Deployments {
	return &Deployments{gw: gw, branch: branch}
}

// Status reports the latest run for a commit. No run yet means the build
// has not been picked up: pending.
func (d *Deployments) Status(ctx context.Context, sha string) (*DeploymentStatus, error) {
	if strings.TrimSpace(sha) == "" {
		return nil, apperr.Invalid("sha")
	}
	runs, err := d.gw.ListWorkflowRuns(ctx, github.RunFilter{HeadSHA: sha, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return &DeploymentStatus{SHA: sha, State: StatePending}, nil
	}
	run := runs[0]
	return &DeploymentStatus{SHA: sha, State: stateOf(run), Run: &run}, nil
}

func stateOf(r github.Run) string {
	if r.Status != "completed" {
		return StateBuilding
	}
	switch r.Conclusion {
	case "success":
		return StateSuccess
	case "":
		return StatePending
	}
	return StateFailure
}

// History lists recent runs on the site branch, newest first. limit is
// clamped to 1..100 with 10 as the default.
func (d *Deployments) History(ctx context.Context, limit int) ([]github.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	runs, err := d.gw.ListWorkflowRuns(ctx, github.RunFilter{Branch: d.branch, Limit: limit})
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []github.Run{}
	}
	return runs, nil
}
