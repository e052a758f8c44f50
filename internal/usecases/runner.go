package usecases

import (
	"context"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// Runner drives one cleanup pass across all configured repository targets.
// Targets are processed sequentially in the order given; a failure on one
// target never stops the others.
type Runner struct {
	reconciler domain.Reconciler
	deleter    domain.ResourceDeleter
	output     domain.OutputWriter
	logger     Logger
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(
	reconciler domain.Reconciler,
	deleter domain.ResourceDeleter,
	output domain.OutputWriter,
	log Logger,
) *Runner {
	return &Runner{
		reconciler: reconciler,
		deleter:    deleter,
		output:     output,
		logger:     log,
	}
}

// Run reconciles every target and pushes the stale candidates through the
// deletion executor. The returned summary aggregates the whole pass.
func (r *Runner) Run(ctx context.Context, targets []domain.RepoTarget, simulate bool) domain.RunSummary {
	summary := domain.RunSummary{Simulated: simulate}

	for _, target := range targets {
		summary.Targets++
		r.runTarget(ctx, target, simulate, &summary)
	}

	r.logger.Info(ctx, "cleanup pass complete", map[string]interface{}{
		"targets":        summary.Targets,
		"failed_targets": summary.FailedTargets,
		"candidates":     summary.Candidates,
		"deleted":        summary.Deleted,
		"failures":       summary.Failures,
		"simulate":       summary.Simulated,
	})

	return summary
}

func (r *Runner) runTarget(ctx context.Context, target domain.RepoTarget, simulate bool, summary *domain.RunSummary) {
	result, err := r.reconciler.Reconcile(ctx, target)
	if err != nil {
		summary.FailedTargets++
		r.logger.Error(ctx, "failed to reconcile target, skipping", err, map[string]interface{}{
			"repository": target.Name,
			"namespace":  target.Namespace,
		})
		return
	}

	r.logger.Info(ctx, "reconciled branch sets", map[string]interface{}{
		"repository": target.Name,
		"namespace":  target.Namespace,
		"live":       result.Live.Len(),
		"deployed":   result.Deployed.Len(),
		"candidates": len(result.Candidates),
	})

	if result.Degraded() {
		// An unlisted kind means the deployed set may be missing
		// branches, so the candidates below may overstate what is
		// stale. Deletion still proceeds; the operator sees why.
		r.logger.Warn(ctx, "deployed branch set is incomplete, candidates may include branches whose resources could not be listed", map[string]interface{}{
			"repository":   target.Name,
			"namespace":    target.Namespace,
			"failed_kinds": result.FailedKinds,
		})
	}

	// An empty deployed set is indistinguishable from a selector or
	// namespace misconfiguration, so nothing is deleted on its account.
	if result.Deployed.Len() == 0 {
		r.logger.Info(ctx, "no cleanup needed", map[string]interface{}{
			"repository": target.Name,
			"namespace":  target.Namespace,
		})
		return
	}

	for _, branch := range result.Candidates {
		summary.Candidates++
		r.deleteCandidate(ctx, target, branch, simulate, summary)
	}
}

func (r *Runner) deleteCandidate(ctx context.Context, target domain.RepoTarget, branch string, simulate bool, summary *domain.RunSummary) {
	if err := r.output.WriteCandidate(target.Name, branch); err != nil {
		r.logger.Warn(ctx, "failed to write candidate to output", map[string]interface{}{
			"repository": target.Name,
			"branch":     branch,
			"error":      err.Error(),
		})
	}

	outcome, err := r.deleter.Delete(ctx, domain.DeleteRequest{
		Namespace:      target.Namespace,
		Kinds:          target.Resources,
		BaseLabels:     target.DeleteLabels,
		BranchLabelKey: target.BranchLabelKey,
		BranchPrefix:   target.BranchPrefix,
		BranchName:     branch,
		Simulate:       simulate,
	})
	if err != nil {
		summary.Failures++
		r.logger.Error(ctx, "deletion request refused", err, map[string]interface{}{
			"repository": target.Name,
			"namespace":  target.Namespace,
			"branch":     branch,
		})
		return
	}

	summary.Deleted += len(outcome.Deleted)
	summary.Failures += len(outcome.Failures)

	r.logger.Info(ctx, "processed stale branch", map[string]interface{}{
		"repository": target.Name,
		"namespace":  target.Namespace,
		"branch":     branch,
		"selector":   outcome.Selector,
		"deleted":    len(outcome.Deleted),
		"failures":   len(outcome.Failures),
		"simulate":   outcome.Simulated,
	})
}
