package github

import (
	gh "github.com/google/go-github/v57/github"
	"github.com/memohq/memomirror/internal/model"
)

// convertIssue maps an upstream issue onto the mirror's model. The
// mirror-local created_at/updated_at stay zero; the store owns those.
func convertIssue(owner, repo string, issue *gh.Issue) model.Issue {
	var body *string
	if issue.Body != nil {
		body = issue.Body
	}

	labels := make([]model.Label, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, convertLabel(owner, repo, label))
	}

	return model.Issue{
		Owner:           owner,
		Repo:            repo,
		Number:          issue.GetNumber(),
		Title:           issue.GetTitle(),
		Body:            body,
		State:           issue.GetState(),
		Labels:          labels,
		GitHubCreatedAt: issue.GetCreatedAt().Time,
	}
}

func convertLabel(owner, repo string, label *gh.Label) model.Label {
	return model.Label{
		Owner:       owner,
		Repo:        repo,
		Name:        label.GetName(),
		Color:       label.GetColor(),
		Description: label.Description,
	}
}
