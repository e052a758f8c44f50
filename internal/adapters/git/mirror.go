// Package git provides adapters for synchronizing local bare mirrors of
// remote repositories and reading their branch references. It implements
// domain.MirrorStore and domain.BranchLister using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// Logger defines the logging interface for the git adapters.
// This interface enables dependency injection and testability.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// DefaultRequestTimeout bounds each clone and fetch call so one
// unreachable remote cannot stall a whole cleanup pass.
const DefaultRequestTimeout = 5 * time.Second

// MirrorStoreOptions configures a MirrorStore.
type MirrorStoreOptions struct {
	// Root is the directory holding one bare mirror per repository,
	// named <repository>.git.
	Root string

	// RequestTimeout bounds each remote operation (clone, fetch).
	RequestTimeout time.Duration
}

// DefaultMirrorStoreOptions returns options rooted in the user cache
// directory with the default request timeout.
func DefaultMirrorStoreOptions() (MirrorStoreOptions, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return MirrorStoreOptions{}, fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return MirrorStoreOptions{
		Root:           filepath.Join(cacheDir, "autoclean-k8s", "mirrors"),
		RequestTimeout: DefaultRequestTimeout,
	}, nil
}

// MirrorStore maintains bare mirror clones under a root directory.
// It implements domain.MirrorStore: Ensure clones on first use and
// fetches with prune afterwards, so deleted remote branches disappear
// from the local view.
type MirrorStore struct {
	root    string
	timeout time.Duration
	logger  Logger
}

// NewMirrorStore creates a MirrorStore with the given options.
// A zero RequestTimeout falls back to DefaultRequestTimeout.
func NewMirrorStore(opts MirrorStoreOptions, log Logger) *MirrorStore {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &MirrorStore{
		root:    opts.Root,
		timeout: timeout,
		logger:  log,
	}
}

// Ensure clones or refreshes the mirror for the named repository and
// returns its local path. Returns domain.ErrEmptyRepository when the
// remote advertises no references; callers treat that as a branch-less
// repository, not a failure.
func (s *MirrorStore) Ensure(ctx context.Context, name, url string) (string, error) {
	path := filepath.Join(s.root, name+".git")

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return s.clone(ctx, path, name, url)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open mirror at %s: %w", path, err)
	}

	if err := s.fetch(ctx, repo, name, url); err != nil {
		return "", err
	}
	return path, nil
}

func (s *MirrorStore) clone(ctx context.Context, path, name, url string) (string, error) {
	s.logger.Info(ctx, "creating repository mirror", map[string]interface{}{
		"repository": name,
		"url":        url,
		"path":       path,
	})

	cloneCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := git.PlainCloneContext(cloneCtx, path, true, &git.CloneOptions{
		URL:    url,
		Mirror: true,
	})
	if err != nil {
		// A failed clone may leave a partial repository behind; remove
		// it so the next pass starts from a clean slate.
		os.RemoveAll(path)

		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return "", fmt.Errorf("%w: %s", domain.ErrEmptyRepository, url)
		}
		return "", fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return path, nil
}

func (s *MirrorStore) fetch(ctx context.Context, repo *git.Repository, name, url string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := repo.FetchContext(fetchCtx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Prune:      true,
		Force:      true,
		Tags:       git.NoTags,
	})
	switch {
	case err == nil:
		s.logger.Debug(ctx, "refreshed repository mirror", map[string]interface{}{
			"repository": name,
		})
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		s.logger.Debug(ctx, "repository mirror already up to date", map[string]interface{}{
			"repository": name,
		})
		return nil
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		// The remote lost all of its references since the clone. The
		// stale local refs must not be read as live branches.
		return fmt.Errorf("%w: %s", domain.ErrEmptyRepository, url)
	default:
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
}
