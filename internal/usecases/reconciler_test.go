package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/olivergg/autoclean-k8s/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct{}

func (m *mockLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (m *mockLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// mockBranchLister implements domain.BranchLister for testing.
type mockBranchLister struct {
	branches domain.BranchSet
	err      error
	calls    []string
}

func (m *mockBranchLister) LiveBranches(_ context.Context, target domain.RepoTarget) (domain.BranchSet, error) {
	m.calls = append(m.calls, target.Name)
	if m.err != nil {
		return nil, m.err
	}
	return m.branches, nil
}

// mockResourceBranchLister implements domain.ResourceBranchLister for testing.
type mockResourceBranchLister struct {
	deployed    domain.BranchSet
	failedKinds []string
	err         error
	queries     []domain.ResourceQuery
}

func (m *mockResourceBranchLister) DeployedBranches(_ context.Context, q domain.ResourceQuery) (domain.BranchSet, []string, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.deployed, m.failedKinds, nil
}

func TestBranchReconciler_Reconcile(t *testing.T) {
	target := domain.RepoTarget{
		Name:             "webapp",
		URL:              "https://git.example.com/team/webapp.git",
		Namespace:        "previews",
		GetSelector:      "preview=true",
		BranchAnnotation: "preview.example.com/branch",
		Resources:        []string{"ingress", "service", "deployment"},
	}

	tests := []struct {
		name           string
		mockBranches   *mockBranchLister
		mockResources  *mockResourceBranchLister
		wantCandidates []string
		wantFailed     []string
		wantErr        bool
		wantErrMsg     string
	}{
		{
			name: "deployed branches without a live counterpart become candidates",
			mockBranches: &mockBranchLister{
				branches: domain.NewBranchSet("main", "develop"),
			},
			mockResources: &mockResourceBranchLister{
				deployed: domain.NewBranchSet("main", "feature/gone", "bugfix/123"),
			},
			wantCandidates: []string{"bugfix/123", "feature/gone"},
		},
		{
			name: "all deployed branches still live",
			mockBranches: &mockBranchLister{
				branches: domain.NewBranchSet("main", "develop", "feature/active"),
			},
			mockResources: &mockResourceBranchLister{
				deployed: domain.NewBranchSet("main", "feature/active"),
			},
			wantCandidates: []string{},
		},
		{
			name: "nothing deployed yields no candidates",
			mockBranches: &mockBranchLister{
				branches: domain.NewBranchSet("main"),
			},
			mockResources: &mockResourceBranchLister{
				deployed: domain.NewBranchSet(),
			},
			wantCandidates: []string{},
		},
		{
			name: "empty live set makes every deployed branch a candidate",
			mockBranches: &mockBranchLister{
				branches: domain.NewBranchSet(),
			},
			mockResources: &mockResourceBranchLister{
				deployed: domain.NewBranchSet("feature/a", "feature/b"),
			},
			wantCandidates: []string{"feature/a", "feature/b"},
		},
		{
			name: "failed kinds are carried into the result",
			mockBranches: &mockBranchLister{
				branches: domain.NewBranchSet("main"),
			},
			mockResources: &mockResourceBranchLister{
				deployed:    domain.NewBranchSet("main", "feature/gone"),
				failedKinds: []string{"ingress"},
			},
			wantCandidates: []string{"feature/gone"},
			wantFailed:     []string{"ingress"},
		},
		{
			name: "error - live branch listing fails",
			mockBranches: &mockBranchLister{
				err: errors.New("remote unreachable"),
			},
			mockResources: &mockResourceBranchLister{},
			wantErr:       true,
			wantErrMsg:    "failed to list live branches for webapp",
		},
		{
			name: "error - deployed branch listing fails",
			mockBranches: &mockBranchLister{
				branches: domain.NewBranchSet("main"),
			},
			mockResources: &mockResourceBranchLister{
				err: context.Canceled,
			},
			wantErr:    true,
			wantErrMsg: "failed to list deployed branches for webapp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			reconciler := NewBranchReconciler(tt.mockBranches, tt.mockResources, &mockLogger{})

			// Act
			result, err := reconciler.Reconcile(context.Background(), target)

			// Assert
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, target.Name, result.Target.Name)
			assert.Equal(t, tt.wantCandidates, result.Candidates)
			assert.Equal(t, tt.wantFailed, result.FailedKinds)
			assert.Equal(t, len(tt.wantFailed) > 0, result.Degraded())
		})
	}
}

func TestBranchReconciler_Reconcile_QueryBuiltFromTarget(t *testing.T) {
	// Arrange
	target := domain.RepoTarget{
		Name:             "api",
		Namespace:        "staging",
		GetSelector:      "app=api,managed-by=pipeline",
		BranchAnnotation: "deploy.example.com/branch",
		Resources:        []string{"deployment", "service"},
	}
	mockBranches := &mockBranchLister{branches: domain.NewBranchSet("main")}
	mockResources := &mockResourceBranchLister{deployed: domain.NewBranchSet("main")}
	reconciler := NewBranchReconciler(mockBranches, mockResources, &mockLogger{})

	// Act
	_, err := reconciler.Reconcile(context.Background(), target)

	// Assert
	require.NoError(t, err)
	require.Len(t, mockResources.queries, 1)
	q := mockResources.queries[0]
	assert.Equal(t, "staging", q.Namespace)
	assert.Equal(t, "app=api,managed-by=pipeline", q.Selector)
	assert.Equal(t, "deploy.example.com/branch", q.AnnotationKey)
	assert.Equal(t, []string{"deployment", "service"}, q.Kinds)
	assert.Equal(t, []string{"api"}, mockBranches.calls)
}
