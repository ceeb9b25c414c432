package domain

import "fmt"

// VertexType identifies the schema role of a node in the harvested graph.
// The string form is persisted as the vertex discriminator and must never change.
type VertexType string

const (
	VertexCommit                   VertexType = "COMMIT"
	VertexFile                     VertexType = "FILE"
	VertexGitUser                  VertexType = "GIT_USER"
	VertexEmail                    VertexType = "EMAIL"
	VertexName                     VertexType = "NAME"
	VertexUser                     VertexType = "USER"
	VertexRepository               VertexType = "REPOSITORY"
	VertexOrganization             VertexType = "ORGANIZATION"
	VertexTeam                     VertexType = "TEAM"
	VertexGist                     VertexType = "GIST"
	VertexIssue                    VertexType = "ISSUE"
	VertexIssueEvent               VertexType = "ISSUE_EVENT"
	VertexLabel                    VertexType = "LABEL"
	VertexMilestone                VertexType = "MILESTONE"
	VertexComment                  VertexType = "COMMENT"
	VertexGistFile                 VertexType = "GISTFILE"
	VertexPullRequest              VertexType = "PULLREQUEST"
	VertexPullRequestMarker        VertexType = "PULLREQUESTMARKER"
	VertexPullRequestReviewComment VertexType = "PULLREQUESTREVIEWCOMMENT"
	VertexDiscussion               VertexType = "DISCUSSION"
)

// allVertexTypes lists every kind in declaration order.
var allVertexTypes = []VertexType{
	VertexCommit,
	VertexFile,
	VertexGitUser,
	VertexEmail,
	VertexName,
	VertexUser,
	VertexRepository,
	VertexOrganization,
	VertexTeam,
	VertexGist,
	VertexIssue,
	VertexIssueEvent,
	VertexLabel,
	VertexMilestone,
	VertexComment,
	VertexGistFile,
	VertexPullRequest,
	VertexPullRequestMarker,
	VertexPullRequestReviewComment,
	VertexDiscussion,
}

// AllVertexTypes returns every vertex kind.
func AllVertexTypes() []VertexType {
	out := make([]VertexType, len(allVertexTypes))
	copy(out, allVertexTypes)
	return out
}

// String returns the persisted form of the kind.
func (v VertexType) String() string {
	return string(v)
}

// IsValid returns true if v is one of the defined kinds.
func (v VertexType) IsValid() bool {
	for _, t := range allVertexTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseVertexType converts a persisted string back into a kind.
// Unknown strings fail with ErrInvalidVertexType.
func ParseVertexType(s string) (VertexType, error) {
	v := VertexType(s)
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q not valid: %w", ErrInvalidVertexType, s, ErrInvalidInput)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (v VertexType) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVertexType, string(v))
	}
	return []byte(v), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VertexType) UnmarshalText(text []byte) error {
	parsed, err := ParseVertexType(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// EdgeLabel names the relation between two vertices.
type EdgeLabel string

const (
	EdgeOwner            EdgeLabel = "OWNER"
	EdgeCollaborator     EdgeLabel = "COLLABORATOR"
	EdgeContributor      EdgeLabel = "CONTRIBUTOR"
	EdgeWatcher          EdgeLabel = "WATCHER"
	EdgeFork             EdgeLabel = "FORK"
	EdgeIssue            EdgeLabel = "ISSUE"
	EdgeIssueOwner       EdgeLabel = "ISSUE_OWNER"
	EdgeIssueAssignee    EdgeLabel = "ISSUE_ASSIGNEE"
	EdgeIssueLabel       EdgeLabel = "ISSUE_LABEL"
	EdgeIssueMilestone   EdgeLabel = "ISSUE_MILESTONE"
	EdgeIssueComment     EdgeLabel = "ISSUE_COMMENT"
	EdgeCommentOwner     EdgeLabel = "COMMENT_OWNER"
	EdgeIssueEvent       EdgeLabel = "ISSUE_EVENT"
	EdgeEventActor       EdgeLabel = "EVENT_ACTOR"
	EdgePullRequest      EdgeLabel = "PULLREQUEST"
	EdgePullRequestOwner EdgeLabel = "PULLREQUEST_OWNER"
	EdgePullRequestIssue EdgeLabel = "PULLREQUEST_ISSUE"
	EdgeMergedBy         EdgeLabel = "PULLREQUEST_MERGED_BY"
	EdgeHead             EdgeLabel = "PULLREQUEST_HEAD"
	EdgeBase             EdgeLabel = "PULLREQUEST_BASE"
	EdgeMarkerRepository EdgeLabel = "MARKER_REPOSITORY"
	EdgeReviewComment    EdgeLabel = "PULLREQUEST_REVIEW_COMMENT"
	EdgeDiscussion       EdgeLabel = "PULLREQUEST_DISCUSSION"
	EdgeFollower         EdgeLabel = "FOLLOWER"
	EdgeFollowing        EdgeLabel = "FOLLOWING"
	EdgeWatched          EdgeLabel = "REPO_WATCHED"
	EdgeRepoOwner        EdgeLabel = "REPO_OWNER"
	EdgeGist             EdgeLabel = "GIST"
	EdgeGistFile         EdgeLabel = "GIST_FILE"
	EdgeMember           EdgeLabel = "PUBLIC_MEMBER"
	EdgeOrgRepository    EdgeLabel = "REPOSITORY"
)
