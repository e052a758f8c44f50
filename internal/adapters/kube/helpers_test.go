package kube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (l *testLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

var (
	deploymentGVR = schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}
	serviceGVR    = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "services"}
	ingressGVR    = schema.GroupVersionResource{Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"}
)

// newFakeClient creates a fake dynamic client pre-populated with the given
// objects via the client API, so namespace and GVR routing behave the same
// way they do against a real API server.
func newFakeClient(t *testing.T, objects ...*unstructured.Unstructured) *dynamicfake.FakeDynamicClient {
	t.Helper()

	gvrToListKind := map[schema.GroupVersionResource]string{
		deploymentGVR: "DeploymentList",
		serviceGVR:    "ServiceList",
		ingressGVR:    "IngressList",
	}
	client := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), gvrToListKind)

	for _, obj := range objects {
		gvr, err := ResolveKind(obj.GetKind())
		require.NoError(t, err)
		_, err = client.Resource(gvr).Namespace(obj.GetNamespace()).Create(context.Background(), obj, metav1.CreateOptions{})
		require.NoError(t, err)
	}
	return client
}

// makeResource builds an unstructured object with the given labels and
// annotations, the shape the adapters read at runtime.
func makeResource(apiVersion, kind, namespace, name string, lbls, annots map[string]string) *unstructured.Unstructured {
	metadata := map[string]interface{}{
		"name":      name,
		"namespace": namespace,
	}
	if len(lbls) > 0 {
		converted := make(map[string]interface{}, len(lbls))
		for k, v := range lbls {
			converted[k] = v
		}
		metadata["labels"] = converted
	}
	if len(annots) > 0 {
		converted := make(map[string]interface{}, len(annots))
		for k, v := range annots {
			converted[k] = v
		}
		metadata["annotations"] = converted
	}
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata":   metadata,
	}}
}

func deployment(namespace, name string, lbls, annots map[string]string) *unstructured.Unstructured {
	return makeResource("apps/v1", "Deployment", namespace, name, lbls, annots)
}

func service(namespace, name string, lbls, annots map[string]string) *unstructured.Unstructured {
	return makeResource("v1", "Service", namespace, name, lbls, annots)
}

func ingress(namespace, name string, lbls, annots map[string]string) *unstructured.Unstructured {
	return makeResource("networking.k8s.io/v1", "Ingress", namespace, name, lbls, annots)
}
