// Package domain defines the core business entities and interfaces for autoclean-k8s.
package domain

import "sort"

// BranchSet is an unordered set of git branch names.
// Keys are raw branch names as they appear in refs/heads/ (live set)
// or in resource annotations (deployed set), before any normalization.
type BranchSet map[string]struct{}

// NewBranchSet builds a set from the given branch names.
func NewBranchSet(names ...string) BranchSet {
	s := make(BranchSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts a branch name into the set.
func (s BranchSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether the set contains the given branch name.
func (s BranchSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of branches in the set.
func (s BranchSet) Len() int {
	return len(s)
}

// Difference returns the branches present in s but absent from other.
// Neither receiver nor argument is modified.
func (s BranchSet) Difference(other BranchSet) BranchSet {
	out := make(BranchSet)
	for name := range s {
		if !other.Has(name) {
			out.Add(name)
		}
	}
	return out
}

// Sorted returns the branch names in lexicographic order.
// Used wherever deterministic iteration matters (logs, deletion order).
func (s BranchSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RepoTarget is one validated repository entry from the configuration file.
// All fields are populated by the config loader; defaults are already applied.
type RepoTarget struct {
	// Name is the repository key from the configuration file.
	// It doubles as the mirror directory name, so it is validated
	// to be filesystem-safe at load time.
	Name string

	// URL is the git remote URL the mirror is cloned from.
	URL string

	// Namespace is the Kubernetes namespace holding the branch-scoped resources.
	Namespace string

	// GetSelector is the label selector used to discover deployed resources.
	GetSelector string

	// DeleteLabels are the base labels combined with the branch label
	// to build the deletion selector. Never empty after validation.
	DeleteLabels map[string]string

	// BranchLabelKey is the label key whose value is the normalized branch slug.
	BranchLabelKey string

	// Resources are the resource kinds queried and deleted for this target.
	Resources []string

	// BranchAnnotation is the annotation key carrying the originating
	// branch name on deployed resources.
	BranchAnnotation string

	// BranchPrefix is prepended to the branch name before slug
	// normalization when building the deletion selector. May be empty.
	BranchPrefix string
}

// ResourceQuery describes one deployed-branch discovery pass.
type ResourceQuery struct {
	// Namespace to query.
	Namespace string

	// Selector is the label selector restricting the query to
	// resources managed by the branch-deployment pipeline.
	Selector string

	// AnnotationKey is the annotation holding the originating branch name.
	AnnotationKey string

	// Kinds are the resource kinds to query. Kinds that fail
	// to resolve or to list degrade the result instead of failing it.
	Kinds []string
}

// DeleteRequest describes the removal of every resource belonging to one branch.
type DeleteRequest struct {
	// Namespace the resources live in.
	Namespace string

	// Kinds are the resource kinds to delete from.
	Kinds []string

	// BaseLabels are combined with the branch label into the deletion selector.
	BaseLabels map[string]string

	// BranchLabelKey is the label key matched against the branch slug.
	BranchLabelKey string

	// BranchPrefix is prepended to BranchName before normalization.
	BranchPrefix string

	// BranchName is the raw branch name as recorded in the deployed set.
	BranchName string

	// Simulate suppresses all mutating API calls when true.
	Simulate bool
}

// DeletedResource identifies one resource removed (or matched, in simulate mode).
type DeletedResource struct {
	Kind string
	Name string
}

// DeleteFailure records one resource or kind that could not be deleted.
// Name is empty when the whole kind failed (e.g. the list call errored).
type DeleteFailure struct {
	Kind string
	Name string
	Err  error
}

// DeleteOutcome reports what a deletion pass did (or would have done).
type DeleteOutcome struct {
	// Selector is the combined label selector the pass used.
	Selector string

	// Simulated is true when no mutating calls were made.
	Simulated bool

	// Deleted lists the resources removed. Always empty in simulate
	// mode, which makes no queries and cannot know the matches.
	Deleted []DeletedResource

	// Failures lists resources and kinds that could not be deleted.
	// Failures never abort the rest of the pass.
	Failures []DeleteFailure
}

// ReconcileResult is the outcome of comparing one target's live and deployed sets.
type ReconcileResult struct {
	// Target is the repository this result belongs to.
	Target RepoTarget

	// Live is the branch set read from the git mirror.
	Live BranchSet

	// Deployed is the branch set read from resource annotations.
	// An empty set with no FailedKinds means genuinely nothing is deployed.
	Deployed BranchSet

	// Candidates are the deployed branches with no live counterpart,
	// in lexicographic order.
	Candidates []string

	// FailedKinds lists resource kinds whose discovery query failed.
	// A non-empty list marks the result as degraded: Deployed may be
	// missing branches, so Candidates may overstate what is stale.
	FailedKinds []string
}

// Degraded reports whether any discovery query failed while building
// the deployed set.
func (r *ReconcileResult) Degraded() bool {
	return len(r.FailedKinds) > 0
}

// RunSummary aggregates a full cleanup pass across all targets.
type RunSummary struct {
	// Targets is the number of repository targets processed.
	Targets int

	// FailedTargets counts targets skipped after a reconcile error.
	FailedTargets int

	// Candidates is the total number of stale branches found.
	Candidates int

	// Deleted is the total number of resources removed. Always zero
	// in simulate mode.
	Deleted int

	// Failures counts per-resource and per-kind deletion failures.
	Failures int

	// Simulated is true when the pass ran in simulate mode.
	Simulated bool
}

// DefaultResourceKinds returns the resource kinds queried and deleted
// when a target does not configure its own list.
func DefaultResourceKinds() []string {
	return []string{"ingress", "service", "deployment"}
}
