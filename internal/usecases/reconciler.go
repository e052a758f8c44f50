// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// BranchReconciler computes which deployed branches no longer exist in the
// repository. It implements the core set arithmetic of the cleanup:
// candidates = deployed - live.
type BranchReconciler struct {
	branches  domain.BranchLister
	resources domain.ResourceBranchLister
	logger    Logger
}

// NewBranchReconciler creates a BranchReconciler with the given dependencies.
// All dependencies are injected to support testing.
func NewBranchReconciler(
	branches domain.BranchLister,
	resources domain.ResourceBranchLister,
	log Logger,
) *BranchReconciler {
	return &BranchReconciler{
		branches:  branches,
		resources: resources,
		logger:    log,
	}
}

// Reconcile builds the live and deployed branch sets for one target and
// returns the stale candidates in lexicographic order. A failure building
// the live set is fatal for the target: an incomplete live set would make
// live branches look deletable, the one mistake this system must not make.
// Per-kind failures building the deployed set are carried in the result's
// FailedKinds instead; the caller decides how to treat a degraded set.
func (r *BranchReconciler) Reconcile(ctx context.Context, target domain.RepoTarget) (*domain.ReconcileResult, error) {
	live, err := r.branches.LiveBranches(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list live branches for %s: %w", target.Name, err)
	}

	r.logger.Debug(ctx, "built live branch set", map[string]interface{}{
		"repository": target.Name,
		"branches":   live.Len(),
	})

	deployed, failedKinds, err := r.resources.DeployedBranches(ctx, domain.ResourceQuery{
		Namespace:     target.Namespace,
		Selector:      target.GetSelector,
		AnnotationKey: target.BranchAnnotation,
		Kinds:         target.Resources,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployed branches for %s: %w", target.Name, err)
	}

	candidates := deployed.Difference(live)

	return &domain.ReconcileResult{
		Target:      target,
		Live:        live,
		Deployed:    deployed,
		Candidates:  candidates.Sorted(),
		FailedKinds: failedKinds,
	}, nil
}
