package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies which API generation produced an entity.
// Dual-sourced entities are persisted once per source and never merged.
type Source string

const (
	// SourceV2 is the older generation: raw documents with every field the API returns.
	SourceV2 Source = "v2"
	// SourceV3 is the newer generation: typed records with a curated field set.
	SourceV3 Source = "v3"
)

// ProjectRef names a repository as owner/name.
type ProjectRef struct {
	Owner string
	Name  string
}

// ParseProjectRef parses "owner/name".
func ParseProjectRef(s string) (ProjectRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	owner = strings.TrimSpace(owner)
	name = strings.TrimSpace(name)
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return ProjectRef{}, fmt.Errorf("%w: project %q must be owner/name", ErrInvalidInput, s)
	}
	return ProjectRef{Owner: owner, Name: name}, nil
}

// String returns owner/name.
func (p ProjectRef) String() string {
	return p.Owner + "/" + p.Name
}

// Repository is a repository as seen by one source.
type Repository struct {
	ID          int64
	Owner       string
	Name        string
	Description string
	Fork        bool
	HasIssues   bool
	CreatedAt   time.Time
	PushedAt    time.Time
	Source      Source
	Properties  map[string]any
}

// FullName returns the canonical owner/name key.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Ref returns the repository as a project reference.
func (r Repository) Ref() ProjectRef {
	return ProjectRef{Owner: r.Owner, Name: r.Name}
}

// User is a GitHub account.
type User struct {
	Login      string
	Name       string
	Email      string
	Company    string
	Location   string
	CreatedAt  time.Time
	Source     Source
	Properties map[string]any
}

// Organization is a GitHub organization account.
type Organization struct {
	Login       string
	Name        string
	Description string
	CreatedAt   time.Time
	Source      Source
	Properties  map[string]any
}

// Label is an issue label.
type Label struct {
	Name  string
	Color string
}

// Milestone is an issue milestone.
type Milestone struct {
	Number int
	Title  string
	State  string
}

// Issue is a repository issue.
type Issue struct {
	Number     int
	Title      string
	Body       string
	State      string
	Author     string
	Assignees  []string
	Labels     []Label
	Milestone  *Milestone
	Comments   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ClosedAt   time.Time
	Source     Source
	Properties map[string]any
}

// Comment is a comment on an issue or pull request discussion.
type Comment struct {
	ID         int64
	Author     string
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Source     Source
	Properties map[string]any
}

// IssueEvent is a timeline event on an issue (closed, labeled, referenced, ...).
type IssueEvent struct {
	ID         int64
	Event      string
	Actor      string
	CommitID   string
	CreatedAt  time.Time
	Source     Source
	Properties map[string]any
}

// PullRequestMarker is the head or base of a pull request.
type PullRequestMarker struct {
	Label      string
	Ref        string
	SHA        string
	User       string
	Repository string
}

// ReviewComment is a line comment on a pull request diff.
type ReviewComment struct {
	ID        int64
	Author    string
	Body      string
	Path      string
	CommitID  string
	CreatedAt time.Time
}

// PullRequest is a pull request as seen by one source.
type PullRequest struct {
	Number         int
	Title          string
	Body           string
	State          string
	Author         string
	Merged         bool
	MergedBy       string
	Head           *PullRequestMarker
	Base           *PullRequestMarker
	Additions      int
	Deletions      int
	ChangedFiles   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       time.Time
	MergedAt       time.Time
	ReviewComments []ReviewComment
	Discussion     []Comment
	Source         Source
	Properties     map[string]any
}

// GistFile is one file in a gist.
type GistFile struct {
	Filename string
	Language string
	Size     int
	RawURL   string
}

// Gist is a user gist.
type Gist struct {
	ID          string
	Owner       string
	Description string
	Public      bool
	Files       []GistFile
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Source      Source
	Properties  map[string]any
}
