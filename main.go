// Package main is the entry point for the autoclean-k8s CLI application.
// autoclean-k8s deletes (or simulates deleting) branch-scoped Kubernetes
// resources whose originating git branch has been removed.
package main

import (
	"os"
	"sync"

	"k8s.io/client-go/dynamic"

	"github.com/olivergg/autoclean-k8s/cmd"
	"github.com/olivergg/autoclean-k8s/internal/adapters/git"
	"github.com/olivergg/autoclean-k8s/internal/adapters/kube"
	logadapter "github.com/olivergg/autoclean-k8s/internal/adapters/logger"
	"github.com/olivergg/autoclean-k8s/internal/adapters/output"
	"github.com/olivergg/autoclean-k8s/internal/domain"
	"github.com/olivergg/autoclean-k8s/internal/infrastructure/config"
	"github.com/olivergg/autoclean-k8s/internal/usecases"
)

func main() {
	cmd.SetDefaultDependencies(defaultDependencies())
	cmd.Execute()
}

// defaultDependencies wires the production implementations behind the
// command's injection points.
func defaultDependencies() *cmd.Dependencies {
	// The dynamic client reads the kubeconfig once and is shared by the
	// resource lister and the deleter.
	var (
		clientOnce sync.Once
		client     dynamic.Interface
		clientErr  error
	)
	kubeClient := func() (dynamic.Interface, error) {
		clientOnce.Do(func() {
			client, clientErr = kube.NewDynamicClient()
		})
		return client, clientErr
	}

	return &cmd.Dependencies{
		LoggerFactory: func(verbose bool) (cmd.Logger, error) {
			return logadapter.New(verbose)
		},

		ConfigLoader:      config.Load,
		DefaultConfigPath: config.DefaultPath,
		KindValidator:     kube.ValidateKinds,

		BranchListerFactory: func(log cmd.Logger) (domain.BranchLister, error) {
			opts, err := git.DefaultMirrorStoreOptions()
			if err != nil {
				return nil, err
			}
			store := git.NewMirrorStore(opts, log)
			return git.NewMirrorBranchLister(store, log), nil
		},

		ResourceListerFactory: func(log cmd.Logger) (domain.ResourceBranchLister, error) {
			c, err := kubeClient()
			if err != nil {
				return nil, err
			}
			return kube.NewAnnotationBranchLister(c, kube.DefaultRequestTimeout, log), nil
		},

		DeleterFactory: func(log cmd.Logger) (domain.ResourceDeleter, error) {
			c, err := kubeClient()
			if err != nil {
				return nil, err
			}
			return kube.NewLabelSelectorDeleter(c, kube.DefaultRequestTimeout, log), nil
		},

		ReconcilerFactory: func(
			branches domain.BranchLister,
			resources domain.ResourceBranchLister,
			log cmd.Logger,
		) domain.Reconciler {
			return usecases.NewBranchReconciler(branches, resources, log)
		},

		RunnerFactory: func(
			reconciler domain.Reconciler,
			deleter domain.ResourceDeleter,
			out domain.OutputWriter,
			log cmd.Logger,
		) domain.Runner {
			return usecases.NewRunner(reconciler, deleter, out, log)
		},

		OutputWriterFactory: func() domain.OutputWriter {
			return output.NewWriter()
		},

		Stderr: os.Stderr,
	}
}
