package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	validator "gopkg.in/go-playground/validator.v9"
)

// DefaultEnvPrefix is the prefix for environment variables that provide
// variable values when the project does not override it.
const DefaultEnvPrefix = "DECL_VAR_"

// A Project is a configuration project on disk, loaded from .decl/project.
type Project struct {
	// RootDir is the absolute path to the root directory of the project.
	RootDir string `json:"-"`

	// Name is the name of the project.
	Name string `json:"name" validate:"required"`

	// EnvPrefix overrides the prefix for environment variables carrying
	// variable values. Empty means DefaultEnvPrefix.
	EnvPrefix string `json:"env_prefix,omitempty" validate:"omitempty,envprefix"`
}

var check = validator.New()

var envPrefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*_$`)

func init() {
	err := check.RegisterValidation("envprefix", func(fl validator.FieldLevel) bool {
		return envPrefixPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("Register custom validator: %v", err))
	}
}

var once sync.Once
var formats map[string]string

func initFormatters() {
	formats = map[string]string{
		"required":  "is required",
		"envprefix": "must be uppercase letters, digits and underscores, ending with an underscore (as in DECL_VAR_)",
	}
}

func validateProject(p *Project) error {
	err := check.Struct(p)
	if err == nil {
		return nil
	}
	once.Do(initFormatters)
	errs := err.(validator.ValidationErrors)
	fe := errs[0]
	format, ok := formats[fe.Tag()]
	if !ok {
		return err
	}
	return fmt.Errorf("project setting %q %s", fe.Field(), format)
}

// FindProject finds a project on disk. If no project is found, nil is
// returned.
//
// The project's root directory is determined by the file .decl/project
// existing. If the given dir does not contain a project, parent directories
// are traversed until a project is found.
func FindProject(dir string) (*Project, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}

	file := filepath.Join(dir, ".decl", "project")
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			parent := filepath.Dir(dir)
			if parent == dir || parent[len(parent)-1] == filepath.Separator {
				// Not found
				return nil, nil
			}
			return FindProject(parent)
		}
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	abs, _ := filepath.Abs(dir)

	d := json.NewDecoder(f)
	d.DisallowUnknownFields()

	p := &Project{RootDir: abs}
	if err := d.Decode(p); err != nil {
		return nil, fmt.Errorf("parse project: %v", err)
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}
	if p.EnvPrefix == "" {
		p.EnvPrefix = DefaultEnvPrefix
	}

	return p, nil
}

// Root returns the absolute path of the project root containing dir, or an
// empty string if dir is not inside a project.
func Root(dir string) (string, error) {
	p, err := FindProject(dir)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	return p.RootDir, nil
}

// Write persists the project to disk.
func (p *Project) Write() error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(p.RootDir, ".decl"), 0744); err != nil {
		return err
	}
	file := filepath.Join(p.RootDir, ".decl", "project")
	return os.WriteFile(file, b, 0644)
}
