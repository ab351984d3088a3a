// Package github provides the source-control host integration: PR creation,
// PR comments, and preview-deploy discovery.
package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gogh "github.com/google/go-github/v68/github"
)

// Client wraps the GitHub API for soot operations.
type Client struct {
	gh *gogh.Client
}

// NewClient creates a GitHub client authenticated with the given token.
func NewClient(token string) *Client {
	return &Client{
		gh: gogh.NewClient(nil).WithAuthToken(token),
	}
}

// PROptions configures a new pull request.
type PROptions struct {
	Repo   string // "owner/repo"
	Branch string // source branch
	Base   string // target branch (default: "main")
	Title  string
	Body   string
}

// CreatePR opens a pull request and returns the PR URL and number.
func (c *Client) CreatePR(ctx context.Context, opts PROptions) (string, int, error) {
	owner, repo, err := SplitRepo(opts.Repo)
	if err != nil {
		return "", 0, err
	}

	base := opts.Base
	if base == "" {
		base = "main"
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, owner, repo, &gogh.NewPullRequest{
		Title: gogh.Ptr(opts.Title),
		Body:  gogh.Ptr(opts.Body),
		Head:  gogh.Ptr(opts.Branch),
		Base:  gogh.Ptr(base),
	})
	if err != nil {
		return "", 0, fmt.Errorf("creating pull request: %w", err)
	}

	return pr.GetHTMLURL(), pr.GetNumber(), nil
}

// GetDefaultBranch returns the default branch for a repository.
func (c *Client) GetDefaultBranch(ctx context.Context, repoFullName string) (string, error) {
	owner, repo, err := SplitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("getting repository: %w", err)
	}

	return r.GetDefaultBranch(), nil
}

// PostPRComment posts a comment on a pull request and returns the comment URL.
func (c *Client) PostPRComment(ctx context.Context, repoFullName string, prNumber int, body string) (string, error) {
	owner, repo, err := SplitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	comment, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, prNumber, &gogh.IssueComment{
		Body: gogh.Ptr(body),
	})
	if err != nil {
		return "", fmt.Errorf("posting PR comment: %w", err)
	}
	return comment.GetHTMLURL(), nil
}

// previewURLPattern matches preview-deploy URLs the deploy bot posts in PR
// comments once a deployment is live.
var previewURLPattern = regexp.MustCompile(`https://[a-zA-Z0-9\-]+\.vercel\.app`)

// WaitForPreview polls PR comments until the deploy bot reports a ready
// preview URL or the context deadline passes. Returns "" (no error) when the
// deadline elapses without a ready preview.
func (c *Client) WaitForPreview(ctx context.Context, repoFullName string, prNumber int) (string, error) {
	owner, repo, err := SplitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		comments, _, err := c.gh.Issues.ListComments(ctx, owner, repo, prNumber, nil)
		if err == nil {
			if url := findReadyPreview(comments); url != "" {
				return url, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", nil
		case <-ticker.C:
		}
	}
}

func findReadyPreview(comments []*gogh.IssueComment) string {
	for _, comment := range comments {
		body := comment.GetBody()
		user := strings.ToLower(comment.GetUser().GetLogin())
		if !strings.Contains(user, "vercel") && !strings.Contains(strings.ToLower(body), "vercel") {
			continue
		}
		// A comment can appear while the deployment is still building.
		if !strings.Contains(strings.ToLower(body), "ready") {
			continue
		}
		if url := previewURLPattern.FindString(body); url != "" {
			return url
		}
	}
	return ""
}

// SplitRepo splits "owner/repo" into its parts.
func SplitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q, expected \"owner/repo\"", fullName)
	}
	return parts[0], parts[1], nil
}
