package mcp

import (
	"context"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// mockInspector is a mock implementation of driving.GraphInspector.
type mockInspector struct {
	counts    map[domain.VertexType]int
	freshness *domain.ProjectFreshness
	asked     []domain.ProjectRef
	err       error
}

func (m *mockInspector) VertexCounts(_ context.Context) (map[domain.VertexType]int, error) {
	return m.counts, m.err
}

func (m *mockInspector) ProjectFreshness(_ context.Context, project domain.ProjectRef) (*domain.ProjectFreshness, error) {
	m.asked = append(m.asked, project)
	if m.err != nil {
		return nil, m.err
	}
	return m.freshness, nil
}
