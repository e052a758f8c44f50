// Package config provides configuration loading for the autoclean-k8s
// application. The configuration file is a YAML map keyed by repository
// name; every entry is validated once at load time into an immutable
// domain.RepoTarget so misconfigurations fail fast instead of surfacing
// deep inside a cleanup pass.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
	"sigs.k8s.io/yaml"

	"github.com/olivergg/autoclean-k8s/internal/domain"
)

// Default locations, relative to the user's configuration directory.
const (
	// DefaultDirName is the application directory under os.UserConfigDir.
	DefaultDirName = "autoclean-k8s"

	// DefaultFileName is the configuration file name inside DefaultDirName.
	DefaultFileName = "config.yaml"
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrConfigInvalid indicates the configuration file is not valid YAML
	// or does not match the expected structure.
	ErrConfigInvalid = errors.New("configuration is not valid YAML")

	// ErrConfigEmpty indicates the configuration parsed but defines no
	// repository targets.
	ErrConfigEmpty = errors.New("configuration defines no repository targets")

	// ErrMissingField indicates a repository entry lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField indicates a repository entry has a malformed field.
	ErrInvalidField = errors.New("invalid field")
)

// keyPattern restricts repository keys to names that are safe to use as
// mirror directory names.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// repoSpec is the raw YAML shape of one repository entry.
// sigs.k8s.io/yaml converts YAML through JSON, hence the json tags.
type repoSpec struct {
	URL              string            `json:"url"`
	Namespace        string            `json:"namespace"`
	GetLabelSelector string            `json:"getLabelSelector"`
	DeleteLabels     map[string]string `json:"deleteLabels"`
	BranchLabelKey   string            `json:"branchLabelKey"`
	Resources        []string          `json:"resources"`
	BranchAnnotation string            `json:"branchAnnotation"`
	BranchPrefix     string            `json:"branchPrefix"`
}

// DefaultPath returns the configuration file location used when no
// --config flag is given: <UserConfigDir>/autoclean-k8s/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, DefaultDirName, DefaultFileName), nil
}

// Load reads and validates the configuration file at path. Targets are
// returned sorted by repository name so every run processes them in a
// stable order.
//
// Returns ErrConfigNotFound when the file does not exist, ErrConfigInvalid
// when it cannot be parsed, and per-field errors naming the repository key
// and field otherwise.
func Load(path string) ([]domain.RepoTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	// Strict parsing rejects unknown and duplicated fields, so a typoed
	// field name surfaces as a load error instead of a silently ignored
	// setting.
	var specs map[string]repoSpec
	if err := yaml.UnmarshalStrict(data, &specs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfigEmpty, path)
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]domain.RepoTarget, 0, len(names))
	for _, name := range names {
		target, err := buildTarget(name, specs[name])
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	return targets, nil
}

// buildTarget validates one raw entry and converts it into a RepoTarget.
func buildTarget(name string, spec repoSpec) (domain.RepoTarget, error) {
	var zero domain.RepoTarget

	if !keyPattern.MatchString(name) {
		return zero, fmt.Errorf("%w: repository key %q must match %s (it names the mirror directory)",
			ErrInvalidField, name, keyPattern.String())
	}
	if spec.URL == "" {
		return zero, missingField(name, "url")
	}
	if spec.Namespace == "" {
		return zero, missingField(name, "namespace")
	}
	if msgs := validation.IsDNS1123Label(spec.Namespace); len(msgs) > 0 {
		return zero, invalidField(name, "namespace", strings.Join(msgs, "; "))
	}
	if spec.GetLabelSelector == "" {
		return zero, missingField(name, "getLabelSelector")
	}
	if _, err := labels.Parse(spec.GetLabelSelector); err != nil {
		return zero, invalidField(name, "getLabelSelector", err.Error())
	}
	if len(spec.DeleteLabels) == 0 {
		return zero, missingField(name, "deleteLabels")
	}
	if _, err := labels.ValidatedSelectorFromSet(labels.Set(spec.DeleteLabels)); err != nil {
		return zero, invalidField(name, "deleteLabels", err.Error())
	}
	if spec.BranchLabelKey == "" {
		return zero, missingField(name, "branchLabelKey")
	}
	if msgs := validation.IsQualifiedName(spec.BranchLabelKey); len(msgs) > 0 {
		return zero, invalidField(name, "branchLabelKey", strings.Join(msgs, "; "))
	}
	if spec.BranchAnnotation == "" {
		return zero, missingField(name, "branchAnnotation")
	}
	if msgs := validation.IsQualifiedName(spec.BranchAnnotation); len(msgs) > 0 {
		return zero, invalidField(name, "branchAnnotation", strings.Join(msgs, "; "))
	}

	resources := spec.Resources
	if len(resources) == 0 {
		resources = domain.DefaultResourceKinds()
	}
	for _, kind := range resources {
		if strings.TrimSpace(kind) == "" {
			return zero, invalidField(name, "resources", "kind names must be non-empty")
		}
	}

	return domain.RepoTarget{
		Name:             name,
		URL:              spec.URL,
		Namespace:        spec.Namespace,
		GetSelector:      spec.GetLabelSelector,
		DeleteLabels:     spec.DeleteLabels,
		BranchLabelKey:   spec.BranchLabelKey,
		Resources:        resources,
		BranchAnnotation: spec.BranchAnnotation,
		BranchPrefix:     spec.BranchPrefix,
	}, nil
}

func missingField(repo, field string) error {
	return fmt.Errorf("repository %q: %w: %s", repo, ErrMissingField, field)
}

func invalidField(repo, field, reason string) error {
	return fmt.Errorf("repository %q: %w: %s: %s", repo, ErrInvalidField, field, reason)
}
