package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// MirrorBranchLister implements domain.BranchLister on top of a MirrorStore.
// Each call synchronizes the mirror first, so the returned set reflects the
// remote's current refs/heads/ namespace including branch deletions.
type MirrorBranchLister struct {
	store  domain.MirrorStore
	logger Logger
}

// NewMirrorBranchLister creates a MirrorBranchLister reading from the
// given mirror store.
func NewMirrorBranchLister(store domain.MirrorStore, log Logger) *MirrorBranchLister {
	return &MirrorBranchLister{
		store:  store,
		logger: log,
	}
}

// LiveBranches returns the branch names currently present on the remote.
// A branch-less remote yields an empty set; every other failure is
// returned as an error so the caller never mistakes a broken query for
// "zero live branches".
func (l *MirrorBranchLister) LiveBranches(ctx context.Context, target domain.RepoTarget) (domain.BranchSet, error) {
	path, err := l.store.Ensure(ctx, target.Name, target.URL)
	if errors.Is(err, domain.ErrEmptyRepository) {
		l.logger.Warn(ctx, "remote repository has no branches", map[string]interface{}{
			"repository": target.Name,
			"url":        target.URL,
		})
		return domain.NewBranchSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to synchronize mirror for %s: %w", target.Name, err)
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMirrorNotFound, path)
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches for %s: %w", target.Name, err)
	}

	branches := domain.NewBranchSet()
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		// Check context for cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		branches.Add(ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate branches for %s: %w", target.Name, err)
	}

	l.logger.Debug(ctx, "listed live branches", map[string]interface{}{
		"repository":     target.Name,
		"branches_count": branches.Len(),
	})

	return branches, nil
}
