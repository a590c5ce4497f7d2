package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/findreq/pkg/classify"
	ferrors "github.com/matzehuels/findreq/pkg/errors"
	"github.com/matzehuels/findreq/pkg/resolve"
)

func TestScanner_Classify(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"helpers.py":     "",
		"pyproject.toml": "[project]\nname = \"my-app\"\n",
	})

	got, err := New(testOptions(), quiet()).Classify(root, []string{"os", "helpers", "my_app", "numpy"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, classify.BuiltIn, got[0].Category)
	assert.Equal(t, classify.Local, got[1].Category)
	assert.Equal(t, classify.Local, got[2].Category)
	assert.Equal(t, classify.ThirdParty, got[3].Category)
	assert.Equal(t, classify.RuleDefault, got[3].Rule)
}

func TestScanner_Classify_InvalidRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.py")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(testOptions(), quiet()).Classify(file, []string{"os"})
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidPath), "got %v", err)
}

func TestScanner_InvalidNames(t *testing.T) {
	s := New(testOptions(), quiet())
	root := t.TempDir()

	_, err := s.Classify(root, []string{"os", "os.path"})
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidModule), "got %v", err)

	_, err = s.Resolve(context.Background(), root, []string{"../etc"})
	assert.True(t, ferrors.Is(err, ferrors.ErrCodeInvalidModule), "got %v", err)
}

func TestScanner_Resolve(t *testing.T) {
	root := t.TempDir()
	opts := testOptions()
	opts.Prober = stubProber{"flask-login": true}
	opts.Store = func(root string) resolve.Store { return resolve.NewFileStore(root, "") }

	got, err := New(opts, quiet()).Resolve(context.Background(), root, []string{"cv2", "Flask_Login", "zzz"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, resolve.Resolution{Module: "cv2", Package: "opencv-python", Source: resolve.SourceAlias}, got[0])
	assert.Equal(t, "flask-login", got[1].Package)
	assert.Equal(t, resolve.SourceRegistry, got[1].Source)
	assert.Equal(t, "zzz", got[2].Package)
	assert.Equal(t, resolve.SourceFallback, got[2].Source)

	entries, err := resolve.NewFileStore(root, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "flask-login", entries["Flask_Login"])

	opts.Prober = nil
	again, err := New(opts, quiet()).Resolve(context.Background(), root, []string{"Flask_Login"})
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceCache, again[0].Source)
}
