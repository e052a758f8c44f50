package kube

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"
)

// Logger defines the logging interface for the kube adapters.
// This interface enables dependency injection and testability.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// DefaultRequestTimeout bounds each list and delete call so one slow
// API server cannot stall a whole cleanup pass.
const DefaultRequestTimeout = 5 * time.Second

// NewDynamicClient builds a dynamic Kubernetes client from the ambient
// configuration: in-cluster service account when present, otherwise the
// kubeconfig resolved through the standard loading rules.
func NewDynamicClient() (dynamic.Interface, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes client configuration: %w", err)
	}
	return dynamic.NewForConfig(config)
}
