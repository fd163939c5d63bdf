package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "medialib/internal/domain/models/media"
	mediaSvc "medialib/internal/domain/services/media"
)

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "medialib.yaml")
	yaml := `
log:
  level: error
disks:
  local:
    driver: local
    root: ` + filepath.Join(dir, "disk") + `
    url: /storage
catalog:
  driver: sqlite
  table_prefix: cli_
  sqlite:
    path: ` + filepath.Join(dir, "catalog.db") + `
`
	require.NoError(t, os.WriteFile(config, []byte(yaml), 0o644))
	return &cliEnv{dir: dir, config: config}
}

func (e *cliEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	root := NewRootCommand(VersionInfo{Version: "test", Commit: "none"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", e.config}, args...))
	require.NoError(t, root.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCLI_Workflow(t *testing.T) {
	env := newCLIEnv(t)
	env.run(t, "migrate")

	var folder models.Folder
	require.NoError(t, json.Unmarshal([]byte(env.run(t, "--json", "folder", "assert", "Images/Products")), &folder))
	assert.Equal(t, "Products", folder.Name)
	assert.Equal(t, "Images", folder.Location)
	assert.DirExists(t, filepath.Join(env.dir, "disk", "media", "files", "app", "Images", "Products"))

	local := filepath.Join(env.dir, "cover.jpg")
	require.NoError(t, os.WriteFile(local, []byte("cover"), 0o644))
	var file models.File
	require.NoError(t, json.Unmarshal([]byte(env.run(t, "--json", "file", "put", local, "--in", "Images")), &file))
	assert.Equal(t, "cover", file.Name)
	assert.Equal(t, "Images", file.Location)

	listing := env.run(t, "browse", "Images")
	assert.Contains(t, listing, "Products/")
	assert.Contains(t, listing, "cover.jpg")

	env.run(t, "folder", "move", "Images", "/Archive")
	listing = env.run(t, "browse", "Archive")
	assert.Contains(t, listing, "Images/")
	assert.FileExists(t, filepath.Join(env.dir, "disk", "media", "files", "app", "Archive", "Images", file.ID, "cover.jpg"))

	report := env.run(t, "clean", "empty-folders", "--dry-run")
	assert.Contains(t, report, "empty-folders")
	assert.Contains(t, report, "dry run")
}

func TestCLI_ConfigShow(t *testing.T) {
	env := newCLIEnv(t)
	out := env.run(t, "config", "show")
	assert.Contains(t, out, "table_prefix: cli_")
	assert.Contains(t, out, "driver: sqlite")
}

func TestDestination(t *testing.T) {
	id := "5b0f6a44-0b7a-4a39-9f55-3f3c1d0c9a11"
	tests := []struct {
		ref  string
		want mediaSvc.Destination
	}{
		{"/", mediaSvc.ToRoot()},
		{"", mediaSvc.ToRoot()},
		{"Archive/2024", mediaSvc.ToPath("Archive/2024")},
		{id, mediaSvc.ToFolderID(id)},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, destination(tt.ref))
		})
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ask := confirm(strings.NewReader("y\nno\n"), &out)

	assert.True(t, ask(models.SweepLonelyFiles, 3))
	assert.False(t, ask(models.SweepEmptyFolders, 1))
	assert.False(t, ask(models.SweepEmptyFolders, 1))
	assert.Contains(t, out.String(), "Remove 3 lonely files?")
}
