package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"github.com/ericmarkmartin/uv/internal/ports"
	"github.com/ericmarkmartin/uv/internal/types"
)

// LockFileAdapter writes resolution outputs into a directory:
// requirements.lock (pinned requirement lines, in manifest order) and
// resolve.report (a YAML summary).
type LockFileAdapter struct {
	Dir string
}

func NewLockFileAdapter(dir string) LockFileAdapter {
	return LockFileAdapter{Dir: dir}
}

func (a LockFileAdapter) WriteLock(requirements []types.Requirement) error {
	path, err := a.ensurePath("requirements.lock")
	if err != nil {
		return err
	}
	var lines []string
	for _, requirement := range requirements {
		lines = append(lines, requirement.String())
	}
	return writeOutput(path, []byte(strings.Join(lines, "\n")+"\n"))
}

func (a LockFileAdapter) WriteReport(report types.ResolveReport) error {
	path, err := a.ensurePath("resolve.report")
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode resolve report").
			WithCause(err)
	}
	return writeOutput(path, data)
}

func (a LockFileAdapter) ensurePath(name string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, name), nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write output file").
			WithCause(err)
	}
	return nil
}

var _ ports.LockWriterPort = LockFileAdapter{}
