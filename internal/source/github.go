package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// GitHub fetches report files from a repository directory. Rate limits are
// handled transparently by the client; setting GITHUB_TOKEN raises them.
type GitHub struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
}

var _ Source = (*GitHub)(nil)

// NewGitHub creates a GitHub-backed source rooted at basePath inside
// owner/repo.
func NewGitHub(owner, repo, basePath string) (*GitHub, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("create rate-limited client: %w", err)
	}
	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHub{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}, nil
}

// List returns the relative paths of all ingestable files under basePath,
// traversing subdirectories iteratively.
func (g *GitHub) List(ctx context.Context) ([]string, error) {
	var paths []string
	type dir struct{ full, rel string }
	queue := []dir{{full: g.basePath}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		_, contents, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, cur.full, nil)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", cur.full, err)
		}
		for _, item := range contents {
			if item.Type == nil || item.Name == nil {
				continue
			}
			rel := path.Join(cur.rel, *item.Name)
			switch *item.Type {
			case "file":
				if ingestableExts[strings.ToLower(path.Ext(*item.Name))] {
					paths = append(paths, rel)
				}
			case "dir":
				queue = append(queue, dir{full: path.Join(cur.full, *item.Name), rel: rel})
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Fetch downloads one file's content.
func (g *GitHub) Fetch(ctx context.Context, relPath string) (*RawDoc, error) {
	fullPath := path.Join(g.basePath, relPath)
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil || fileContent.Content == nil {
		return nil, fmt.Errorf("no content returned for %s", fullPath)
	}
	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fullPath, err)
	}
	return &RawDoc{Path: relPath, Content: content}, nil
}

// HeadSHA returns the SHA of the latest commit touching basePath, used for
// index staleness reporting.
func (g *GitHub) HeadSHA(ctx context.Context) (string, error) {
	commits, _, err := g.client.Repositories.ListCommits(ctx, g.owner, g.repo, &github.CommitsListOptions{
		Path:        g.basePath,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 || commits[0].SHA == nil {
		return "", fmt.Errorf("no commits found for %s", g.basePath)
	}
	return *commits[0].SHA, nil
}
