package kube

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// AnnotationBranchLister implements domain.ResourceBranchLister by reading
// the branch annotation off every resource matching the query selector.
// A kind whose list call fails contributes nothing to the set and is
// reported back so the caller can flag the result as degraded.
type AnnotationBranchLister struct {
	client  dynamic.Interface
	timeout time.Duration
	logger  Logger
}

// NewAnnotationBranchLister creates an AnnotationBranchLister with the
// given per-query timeout. A zero timeout falls back to
// DefaultRequestTimeout.
func NewAnnotationBranchLister(client dynamic.Interface, timeout time.Duration, log Logger) *AnnotationBranchLister {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &AnnotationBranchLister{
		client:  client,
		timeout: timeout,
		logger:  log,
	}
}

// DeployedBranches queries every kind in q and unions the branch annotation
// values of the matching resources. Resources missing the annotation or
// carrying an empty value are skipped. Per-kind failures are logged as
// warnings and returned in the failed slice; only a cancelled parent
// context aborts the whole pass.
func (l *AnnotationBranchLister) DeployedBranches(ctx context.Context, q domain.ResourceQuery) (domain.BranchSet, []string, error) {
	branches := domain.NewBranchSet()
	var failed []string

	for _, kind := range q.Kinds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		gvr, err := ResolveKind(kind)
		if err != nil {
			l.logger.Warn(ctx, "skipping unknown resource kind", map[string]interface{}{
				"namespace": q.Namespace,
				"kind":      kind,
			})
			failed = append(failed, kind)
			continue
		}

		listCtx, cancel := context.WithTimeout(ctx, l.timeout)
		list, err := l.client.Resource(gvr).Namespace(q.Namespace).List(listCtx, metav1.ListOptions{
			LabelSelector: q.Selector,
		})
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			// The kind degrades to an empty contribution instead of
			// failing the pass; the caller decides what to do with the
			// incomplete set.
			l.logger.Warn(ctx, "failed to list resources, kind contributes no branches", map[string]interface{}{
				"namespace": q.Namespace,
				"kind":      kind,
				"selector":  q.Selector,
				"error":     err.Error(),
			})
			failed = append(failed, kind)
			continue
		}

		found := 0
		for _, item := range list.Items {
			branch := item.GetAnnotations()[q.AnnotationKey]
			if branch == "" {
				continue
			}
			branches.Add(branch)
			found++
		}

		l.logger.Debug(ctx, "collected branch annotations", map[string]interface{}{
			"namespace": q.Namespace,
			"kind":      kind,
			"resources": len(list.Items),
			"annotated": found,
		})
	}

	return branches, failed, nil
}
