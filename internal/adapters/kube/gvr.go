// Package kube provides adapters for discovering and deleting branch-scoped
// Kubernetes resources through the dynamic client. It implements
// domain.ResourceBranchLister and domain.ResourceDeleter.
package kube

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// kindTable maps configured resource kind names to their API addresses.
// Keys are lowercase singular; ResolveKind also accepts plural spellings.
var kindTable = map[string]schema.GroupVersionResource{
	"deployment":  {Group: "apps", Version: "v1", Resource: "deployments"},
	"statefulset": {Group: "apps", Version: "v1", Resource: "statefulsets"},
	"daemonset":   {Group: "apps", Version: "v1", Resource: "daemonsets"},
	"replicaset":  {Group: "apps", Version: "v1", Resource: "replicasets"},
	"job":         {Group: "batch", Version: "v1", Resource: "jobs"},
	"cronjob":     {Group: "batch", Version: "v1", Resource: "cronjobs"},
	"service":     {Group: "", Version: "v1", Resource: "services"},
	"configmap":   {Group: "", Version: "v1", Resource: "configmaps"},
	"secret":      {Group: "", Version: "v1", Resource: "secrets"},
	"pod":         {Group: "", Version: "v1", Resource: "pods"},
	"ingress":     {Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"},
}

// ResolveKind maps a configured resource kind name to its
// GroupVersionResource. Matching is case-insensitive and accepts both
// singular and plural spellings ("ingress", "Ingresses", "deployment").
// Unknown kinds return domain.ErrUnknownResourceKind.
func ResolveKind(kind string) (schema.GroupVersionResource, error) {
	k := strings.ToLower(strings.TrimSpace(kind))
	if gvr, ok := kindTable[k]; ok {
		return gvr, nil
	}
	if trimmed := strings.TrimSuffix(k, "s"); trimmed != k {
		if gvr, ok := kindTable[trimmed]; ok {
			return gvr, nil
		}
	}
	// "ingresses" and friends pluralize with "es".
	if trimmed := strings.TrimSuffix(k, "es"); trimmed != k {
		if gvr, ok := kindTable[trimmed]; ok {
			return gvr, nil
		}
	}
	return schema.GroupVersionResource{}, fmt.Errorf("%w: %s", domain.ErrUnknownResourceKind, kind)
}

// ValidateKinds checks that every configured kind resolves to a known
// resource. Called once before a cleanup pass starts, so a typo in the
// configuration fails fast instead of degrading every query.
func ValidateKinds(kinds []string) error {
	for _, kind := range kinds {
		if _, err := ResolveKind(kind); err != nil {
			return err
		}
	}
	return nil
}
