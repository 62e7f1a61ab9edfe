package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/levitang/llm-practice/llm"
)

// ReadFileInput is the argument of read_file.
type ReadFileInput struct {
	Path string `json:"path" jsonschema_description:"The relative path of a file in the working directory." jsonschema:"required"`
}

// ReadFile reads a file below Root.
type ReadFile struct {
	Root string
}

func (ReadFile) Name() string { return "read_file" }

func (ReadFile) Description() string {
	return "Read the contents of a given relative file path. Use this when you want to see what's inside a file. Do not use this with directory names."
}

func (ReadFile) Schema() map[string]any { return llm.SchemaFor[ReadFileInput]() }

func (r ReadFile) Call(_ context.Context, input string) (string, error) {
	var in ReadFileInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("failed to parse input for read_file: %w. Input was: %s", err, input)
	}
	if in.Path == "" {
		return "", fmt.Errorf("missing required parameter 'path' for read_file")
	}
	content, err := os.ReadFile(filepath.Join(r.Root, in.Path))
	if err != nil {
		return "", fmt.Errorf("error reading file '%s': %w", in.Path, err)
	}
	return string(content), nil
}

// ListFilesInput is the argument of list_files.
type ListFilesInput struct {
	Path string `json:"path,omitempty" jsonschema_description:"Optional relative path to list files from. Defaults to current directory if not provided."`
}

// ListFiles walks a directory below Root.
type ListFiles struct {
	Root string
}

func (ListFiles) Name() string { return "list_files" }

func (ListFiles) Description() string {
	return "List files and directories at a given path. If no path is provided, lists files in the current directory. Returns a JSON array of strings, directories have a trailing slash."
}

func (ListFiles) Schema() map[string]any { return llm.SchemaFor[ListFilesInput]() }

func (l ListFiles) Call(_ context.Context, input string) (string, error) {
	var in ListFilesInput
	if input != "" && input != "null" {
		if err := json.Unmarshal([]byte(input), &in); err != nil {
			return "", fmt.Errorf("failed to parse input for list_files: %w. Input was: %s", err, input)
		}
	}
	dir := filepath.Join(l.Root, in.Path)
	if dir == "" {
		dir = "."
	}

	files := []string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error listing files in '%s': %w", dir, err)
	}
	out, err := json.Marshal(files)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
