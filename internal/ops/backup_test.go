package ops

import (
	"archive/tar"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir parent %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return got
}

var sampleFiles = map[string]string{
	"save.json":            `{"version":2,"savedAt":"2026-03-02T09:00:00Z","state":{"gold":150}}`,
	"eclipse.db":           "SQLite format 3\x00",
	"telemetry/events.log": "task_created\ntask_completed\n",
}

func TestBackupRestoreDataDir_RoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	writeTree(t, src, sampleFiles)

	archive := filepath.Join(t.TempDir(), "backups", ArchiveName("eclipse", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	if !strings.HasSuffix(archive, "eclipse-20260302T090000Z.tar.zst") {
		t.Fatalf("unexpected archive name %s", archive)
	}
	if err := BackupDataDir(src, archive); err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive missing: %v", err)
	}

	restoreDir := filepath.Join(t.TempDir(), "restore")
	if err := RestoreDataDir(archive, restoreDir); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if got := readTree(t, restoreDir); !reflect.DeepEqual(sampleFiles, got) {
		t.Fatalf("restored files mismatch:\nwant=%v\ngot=%v", sampleFiles, got)
	}
}

func TestBackupDataDir_RejectsBadInput(t *testing.T) {
	if err := BackupDataDir("  ", "out.tar.zst"); err == nil {
		t.Fatalf("expected empty source to be rejected")
	}
	file := filepath.Join(t.TempDir(), "save.json")
	writeTree(t, filepath.Dir(file), map[string]string{"save.json": "{}"})
	if err := BackupDataDir(file, filepath.Join(t.TempDir(), "out.tar.zst")); err == nil {
		t.Fatalf("expected a file source to be rejected")
	}
}

func TestRestoreDataDir_RejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.zst")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	tw := tar.NewWriter(zw)
	if err := tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len("bad")),
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write([]byte("bad")); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zstd writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	if err := RestoreDataDir(archive, filepath.Join(t.TempDir(), "out")); err == nil {
		t.Fatalf("expected restore to reject path traversal archive")
	}
}

func TestDrill(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeTree(t, src, sampleFiles)
	work := t.TempDir()

	res, err := Drill(src, work, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("drill failed: %v", err)
	}
	if res.Digest == "" {
		t.Fatalf("expected a digest")
	}
	want, err := DirDigest(src)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if res.Digest != want {
		t.Fatalf("digest = %s, want %s", res.Digest, want)
	}
	if !reflect.DeepEqual(sampleFiles, readTree(t, res.RestoreDir)) {
		t.Fatalf("drill restore does not match source")
	}
}

func TestDirDigest_ChangesWithContent(t *testing.T) {
	a := filepath.Join(t.TempDir(), "a")
	b := filepath.Join(t.TempDir(), "b")
	writeTree(t, a, map[string]string{"save.json": `{"gold":150}`})
	writeTree(t, b, map[string]string{"save.json": `{"gold":151}`})

	da, err := DirDigest(a)
	if err != nil {
		t.Fatalf("digest a: %v", err)
	}
	db, err := DirDigest(b)
	if err != nil {
		t.Fatalf("digest b: %v", err)
	}
	if da == db {
		t.Fatalf("expected different digests for different content")
	}
}
