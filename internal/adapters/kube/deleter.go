package kube

import (
	"context"
	"fmt"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/dynamic"

	"github.com/olivergg/autoclean-k8s/internal/domain"
	"github.com/olivergg/autoclean-k8s/internal/slug"
)

// LabelSelectorDeleter implements domain.ResourceDeleter. It removes every
// resource of the requested kinds matching the combined selector built from
// the target's base labels plus the normalized branch label.
type LabelSelectorDeleter struct {
	client  dynamic.Interface
	timeout time.Duration
	logger  Logger
}

// NewLabelSelectorDeleter creates a LabelSelectorDeleter with the given
// per-call timeout. A zero timeout falls back to DefaultRequestTimeout.
func NewLabelSelectorDeleter(client dynamic.Interface, timeout time.Duration, log Logger) *LabelSelectorDeleter {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &LabelSelectorDeleter{
		client:  client,
		timeout: timeout,
		logger:  log,
	}
}

// Delete removes the resources belonging to one stale branch. In simulate
// mode it logs the selector and the equivalent kubectl invocation and makes
// no API call at all. In live mode it lists each kind with the combined
// selector and deletes the matches one by one, the same strategy kubectl
// uses, so every removal gets its own log line. Individual failures are
// recorded in the outcome and never abort the remaining work.
func (d *LabelSelectorDeleter) Delete(ctx context.Context, req domain.DeleteRequest) (*domain.DeleteOutcome, error) {
	branchSlug := slug.Make(req.BranchPrefix + req.BranchName)
	if branchSlug == "" {
		// An empty label value would select resources belonging to no
		// branch at all; refuse rather than guess.
		return nil, fmt.Errorf("%w: %q", domain.ErrEmptySlug, req.BranchName)
	}

	set := make(labels.Set, len(req.BaseLabels)+1)
	for k, v := range req.BaseLabels {
		set[k] = v
	}
	set[req.BranchLabelKey] = branchSlug
	selector := set.String()

	outcome := &domain.DeleteOutcome{
		Selector:  selector,
		Simulated: req.Simulate,
	}

	if req.Simulate {
		d.logger.Info(ctx, "simulate mode, skipping deletion", map[string]interface{}{
			"namespace": req.Namespace,
			"branch":    req.BranchName,
			"selector":  selector,
			"command":   kubectlCommand(req.Namespace, req.Kinds, selector),
		})
		return outcome, nil
	}

	for _, kind := range req.Kinds {
		gvr, err := ResolveKind(kind)
		if err != nil {
			outcome.Failures = append(outcome.Failures, domain.DeleteFailure{Kind: kind, Err: err})
			d.logger.Error(ctx, "cannot delete unknown resource kind", err, map[string]interface{}{
				"namespace": req.Namespace,
				"kind":      kind,
			})
			continue
		}

		listCtx, cancel := context.WithTimeout(ctx, d.timeout)
		list, err := d.client.Resource(gvr).Namespace(req.Namespace).List(listCtx, metav1.ListOptions{
			LabelSelector: selector,
		})
		cancel()
		if err != nil {
			outcome.Failures = append(outcome.Failures, domain.DeleteFailure{Kind: kind, Err: err})
			d.logger.Error(ctx, "failed to list resources for deletion", err, map[string]interface{}{
				"namespace": req.Namespace,
				"kind":      kind,
				"selector":  selector,
			})
			continue
		}

		for _, item := range list.Items {
			name := item.GetName()

			deleteCtx, cancel := context.WithTimeout(ctx, d.timeout)
			err := d.client.Resource(gvr).Namespace(req.Namespace).Delete(deleteCtx, name, metav1.DeleteOptions{})
			cancel()
			switch {
			case err == nil:
				outcome.Deleted = append(outcome.Deleted, domain.DeletedResource{Kind: kind, Name: name})
				d.logger.Info(ctx, "deleted resource", map[string]interface{}{
					"namespace": req.Namespace,
					"kind":      kind,
					"name":      name,
					"branch":    req.BranchName,
				})
			case apierrors.IsNotFound(err):
				// Already gone between the list and the delete.
				d.logger.Debug(ctx, "resource disappeared before deletion", map[string]interface{}{
					"namespace": req.Namespace,
					"kind":      kind,
					"name":      name,
				})
			default:
				outcome.Failures = append(outcome.Failures, domain.DeleteFailure{Kind: kind, Name: name, Err: err})
				d.logger.Error(ctx, "failed to delete resource", err, map[string]interface{}{
					"namespace": req.Namespace,
					"kind":      kind,
					"name":      name,
				})
			}
		}
	}

	return outcome, nil
}

// kubectlCommand renders the kubectl equivalent of a deletion pass for
// simulate-mode logs.
func kubectlCommand(namespace string, kinds []string, selector string) string {
	return fmt.Sprintf("kubectl delete %s --namespace %s --selector %q", strings.Join(kinds, ","), namespace, selector)
}
