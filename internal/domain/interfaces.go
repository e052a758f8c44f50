// Package domain defines the core business entities and interfaces for autoclean-k8s.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
)

// Domain errors for git mirror access, resource discovery and deletion.
var (
	// ErrEmptyRepository indicates the remote repository exists but has no
	// branches yet. Callers treat this as an empty live set, not a failure.
	ErrEmptyRepository = errors.New("remote repository has no branches")

	// ErrMirrorNotFound indicates the local mirror path is missing or is not
	// a valid git repository.
	ErrMirrorNotFound = errors.New("git mirror not found at specified path")

	// ErrUnknownResourceKind indicates a configured resource kind has no
	// known API mapping. Detected before a cleanup pass starts.
	ErrUnknownResourceKind = errors.New("unknown resource kind")

	// ErrEmptySlug indicates a branch name normalized to an empty label
	// value. Deleting with an empty branch label would match unrelated
	// resources, so the deletion is refused.
	ErrEmptySlug = errors.New("branch name normalizes to an empty label value")
)

// MirrorStore maintains local bare mirrors of remote repositories.
// Ensure is called once per target per cleanup pass, so implementations
// refresh (fetch with prune) on every call after the initial clone.
type MirrorStore interface {
	// Ensure clones or refreshes the mirror for the given repository and
	// returns the local filesystem path of the mirror.
	// Returns ErrEmptyRepository when the remote has no references yet.
	Ensure(ctx context.Context, name, url string) (string, error)
}

// BranchLister produces the live branch set for a repository target.
type BranchLister interface {
	// LiveBranches returns the names of all branches currently present on
	// the remote, read from a freshly synchronized local mirror.
	// An empty set is returned only for a genuinely branch-less repository;
	// any transport or storage failure is returned as an error instead.
	LiveBranches(ctx context.Context, target RepoTarget) (BranchSet, error)
}

// ResourceBranchLister produces the deployed branch set from cluster state.
type ResourceBranchLister interface {
	// DeployedBranches queries each kind in q and collects the branch
	// annotation values of the matching resources. Kinds whose query fails
	// are returned in the second value and contribute nothing to the set;
	// the error is non-nil only when the pass as a whole cannot proceed
	// (e.g. the parent context was cancelled).
	DeployedBranches(ctx context.Context, q ResourceQuery) (BranchSet, []string, error)
}

// ResourceDeleter removes every resource belonging to one stale branch.
type ResourceDeleter interface {
	// Delete builds the combined label selector for the request's branch
	// and removes the matching resources of each requested kind. In
	// simulate mode no mutating call is made. Individual failures are
	// recorded in the outcome, not returned: the error is non-nil only
	// when the request itself is unusable (e.g. ErrEmptySlug).
	Delete(ctx context.Context, req DeleteRequest) (*DeleteOutcome, error)
}

// Reconciler compares a target's live and deployed branch sets.
type Reconciler interface {
	// Reconcile builds both branch sets and returns the stale candidates.
	Reconcile(ctx context.Context, target RepoTarget) (*ReconcileResult, error)
}

// Runner drives one full cleanup pass over the configured targets.
type Runner interface {
	// Run reconciles every target and processes the resulting candidates
	// through the deletion executor. Per-target failures are logged and
	// skipped, never returned; the summary reports what happened.
	Run(ctx context.Context, targets []RepoTarget, simulate bool) RunSummary
}

// OutputWriter emits machine-readable cleanup results to standard output,
// keeping them separate from the structured logs on standard error.
type OutputWriter interface {
	// WriteCandidate writes one stale branch as a single line.
	WriteCandidate(repository, branch string) error
}
