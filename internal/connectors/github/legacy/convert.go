package legacy

import (
	"sort"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

func repositoryFromDocument(d document) domain.Repository {
	return domain.Repository{
		ID:          d.integer("id"),
		Owner:       d.login("owner"),
		Name:        d.str("name"),
		Description: d.str("description"),
		Fork:        d.boolean("fork"),
		HasIssues:   d.boolean("has_issues"),
		CreatedAt:   d.timestamp("created_at"),
		PushedAt:    d.timestamp("pushed_at"),
		Source:      domain.SourceV2,
		Properties:  d,
	}
}

func userFromDocument(d document) domain.User {
	return domain.User{
		Login:      d.str("login"),
		Name:       d.str("name"),
		Email:      d.str("email"),
		Company:    d.str("company"),
		Location:   d.str("location"),
		CreatedAt:  d.timestamp("created_at"),
		Source:     domain.SourceV2,
		Properties: d,
	}
}

func commentFromDocument(d document) domain.Comment {
	return domain.Comment{
		ID:         d.integer("id"),
		Author:     d.login("user"),
		Body:       d.str("body"),
		CreatedAt:  d.timestamp("created_at"),
		UpdatedAt:  d.timestamp("updated_at"),
		Source:     domain.SourceV2,
		Properties: d,
	}
}

func markerFromDocument(d document) *domain.PullRequestMarker {
	if len(d) == 0 {
		return nil
	}
	return &domain.PullRequestMarker{
		Label:      d.str("label"),
		Ref:        d.str("ref"),
		SHA:        d.str("sha"),
		User:       d.login("user"),
		Repository: d.child("repo").str("full_name"),
	}
}

func pullRequestFromDocument(d document) domain.PullRequest {
	return domain.PullRequest{
		Number:       int(d.integer("number")),
		Title:        d.str("title"),
		Body:         d.str("body"),
		State:        d.str("state"),
		Author:       d.login("user"),
		Merged:       d.boolean("merged"),
		MergedBy:     d.login("merged_by"),
		Head:         markerFromDocument(d.child("head")),
		Base:         markerFromDocument(d.child("base")),
		Additions:    int(d.integer("additions")),
		Deletions:    int(d.integer("deletions")),
		ChangedFiles: int(d.integer("changed_files")),
		CreatedAt:    d.timestamp("created_at"),
		UpdatedAt:    d.timestamp("updated_at"),
		ClosedAt:     d.timestamp("closed_at"),
		MergedAt:     d.timestamp("merged_at"),
		Source:       domain.SourceV2,
		Properties:   d,
	}
}

func gistFromDocument(d document) domain.Gist {
	files := d.child("files")
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	gist := domain.Gist{
		ID:          d.str("id"),
		Owner:       d.login("owner"),
		Description: d.str("description"),
		Public:      d.boolean("public"),
		CreatedAt:   d.timestamp("created_at"),
		UpdatedAt:   d.timestamp("updated_at"),
		Source:      domain.SourceV2,
		Properties:  d,
	}
	for _, name := range names {
		f := files.child(name)
		filename := f.str("filename")
		if filename == "" {
			filename = name
		}
		gist.Files = append(gist.Files, domain.GistFile{
			Filename: filename,
			Language: f.str("language"),
			Size:     int(f.integer("size")),
			RawURL:   f.str("raw_url"),
		})
	}
	return gist
}
