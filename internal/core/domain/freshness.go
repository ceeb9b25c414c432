package domain

// Freshness counts the recorded resources of one kind and how many of them
// are due for a refresh.
type Freshness struct {
	Total int `json:"total"`
	Stale int `json:"stale"`
}

// ProjectFreshness summarises the freshness marks recorded for a project.
type ProjectFreshness struct {
	Project                ProjectRef `json:"-"`
	IssueComments          Freshness  `json:"issue_comments"`
	IssueEvents            Freshness  `json:"issue_events"`
	PullRequestDiscussions Freshness  `json:"pull_request_discussions"`
	Users                  Freshness  `json:"users"`
}
