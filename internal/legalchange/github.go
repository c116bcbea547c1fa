package legalchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/gosimple/slug"

	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
)

// PullRequest describes the pull request opened for an event.
type PullRequest struct {
	Branch   string
	Title    string
	Body     string
	FilePath string
	File     []byte
}

// PRCreator opens pull requests and returns their URL.
type PRCreator interface {
	CreatePullRequest(ctx context.Context, pr PullRequest) (string, error)
}

// BranchName derives the working branch from the event title.
func BranchName(event *models.LegalChangeEvent) string {
	name := slug.Make(event.Title)
	if len(name) > 60 {
		name = strings.Trim(name[:60], "-")
	}
	if name == "" {
		name = "event"
	}
	return fmt.Sprintf("legal-change/%s-%s", name, event.ID.String()[:8])
}

// BuildPullRequest renders the pull request for an eligible event.
func BuildPullRequest(event *models.LegalChangeEvent) PullRequest {
	a := event.ImpactAssessment
	var body strings.Builder
	fmt.Fprintf(&body, "## %s\n\n%s\n\n", event.Title, event.Summary)
	if event.SourceURL != nil && *event.SourceURL != "" {
		fmt.Fprintf(&body, "Source: %s\n\n", *event.SourceURL)
	}
	fmt.Fprintf(&body, "**Severity:** %s\n\n**Rationale:** %s\n\n", a.Severity, a.Rationale)
	writeList(&body, "Jurisdictions", event.Jurisdictions)
	writeList(&body, "Impacted rules", a.ImpactedRuleIDs)
	writeList(&body, "Impacted products", a.ImpactedProductIDs)
	writeList(&body, "Impacted routes", a.ImpactedRouteIDs)
	writeList(&body, "Required reviewers", a.RequiredReviewers)
	fmt.Fprintf(&body, "Legal change event: `%s`\n", event.ID)

	branch := BranchName(event)
	return PullRequest{
		Branch:   branch,
		Title:    fmt.Sprintf("Legal change: %s", event.Title),
		Body:     body.String(),
		FilePath: fmt.Sprintf("legal-changes/%s.md", strings.TrimPrefix(branch, "legal-change/")),
		File:     []byte(body.String()),
	}
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// GitHubPRCreator opens pull requests against one repository.
type GitHubPRCreator struct {
	client *github.Client
	owner  string
	repo   string
	base   string
}

// NewGitHubPRCreator returns nil when the integration is not configured.
func NewGitHubPRCreator(cfg config.GitHubConfig, httpClient *http.Client) *GitHubPRCreator {
	if !cfg.Enabled() {
		return nil
	}
	base := cfg.BaseBranch
	if base == "" {
		base = "main"
	}
	return &GitHubPRCreator{
		client: github.NewClient(httpClient).WithAuthToken(cfg.Token),
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		base:   base,
	}
}

func (g *GitHubPRCreator) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	baseRef, _, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "refs/heads/"+g.base)
	if err != nil {
		return "", fmt.Errorf("read base branch: %w", err)
	}

	_, _, err = g.client.Git.CreateRef(ctx, g.owner, g.repo, &github.Reference{
		Ref:    github.String("refs/heads/" + pr.Branch),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	})
	if err != nil && !isAlreadyExists(err) {
		return "", fmt.Errorf("create branch %s: %w", pr.Branch, err)
	}

	_, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, pr.FilePath, &github.RepositoryContentFileOptions{
		Message: github.String(pr.Title),
		Content: pr.File,
		Branch:  github.String(pr.Branch),
	})
	if err != nil && !isAlreadyExists(err) {
		return "", fmt.Errorf("commit change note: %w", err)
	}

	created, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Head:  github.String(pr.Branch),
		Base:  github.String(g.base),
		Body:  github.String(pr.Body),
	})
	if err != nil {
		return "", fmt.Errorf("open pull request: %w", err)
	}
	return created.GetHTMLURL(), nil
}

func isAlreadyExists(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	return ghErr.Response.StatusCode == http.StatusUnprocessableEntity
}
