package hcl

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

// MergeHCLFiles parses each file from fsys and merges them into one body.
// This mimics how Terraform loads multiple .tf files in a directory: blocks
// accumulate, an attribute may be set in only one file.
func MergeHCLFiles(fsys fs.FS, filePaths []string) (hcl.Body, error) {
	parser := hclparse.NewParser()
	files := make([]*hcl.File, 0, len(filePaths))

	for _, p := range filePaths {
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", p, err)
		}

		file, diags := parser.ParseHCL(content, p)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
		}
		files = append(files, file)
	}

	return hcl.MergeFiles(files), nil
}

// findHCLFiles lists configuration files under root in lexical order.
func findHCLFiles(fsys fs.FS, root string) ([]string, error) {
	var hclFiles []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsHCLBasedOnExtension(d.Name()) {
			hclFiles = append(hclFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}
	sort.Strings(hclFiles)
	return hclFiles, nil
}

// ParseHCLDirectory parses every .hcl file in a directory as one
// configuration layered over DefaultConfig.
func ParseHCLDirectory(dirPath string) (*playercount.Config, error) {
	fsys := os.DirFS(dirPath)
	hclFiles, err := findHCLFiles(fsys, ".")
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no HCL files found in directory %s", dirPath)
	}

	body, err := MergeHCLFiles(fsys, hclFiles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dirPath, err)
	}
	return configFromBody(body, DefaultConfig())
}

// LoadConfig loads the configuration at p, which may be a single file or a
// directory of files. An empty path yields DefaultConfig.
func LoadConfig(p string) (*playercount.Config, error) {
	if p == "" {
		return DefaultConfig(), nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if info.IsDir() {
		return ParseHCLDirectory(p)
	}
	if !IsHCLBasedOnExtension(p) {
		return nil, fmt.Errorf("config file %s: expected a .hcl extension", p)
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseHCLConfig(content, path.Base(p))
}
