package recording

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKey(t *testing.T) {
	tests := []struct {
		prefix, namespace, folder, file string
		want                            string
	}{
		{"SSNREC/", "", "rec1", TimingFile, "SSNREC/rec1/timing"},
		{"SSNREC", "", "rec1", TimingFile, "SSNREC/rec1/timing"},
		{"SSNREC//", "", "rec1", TimingFile, "SSNREC/rec1/timing"},
		{"", "", "rec1", TimingFile, "rec1/timing"},
		{"/", "", "rec1", TimingFile, "rec1/timing"},
		{"SSNREC/", "alice", "rec1", TypescriptFile, "SSNREC/alice/rec1/typescript"},
		{"SSNREC/", "alice/", "rec1", TypescriptFile, "SSNREC/alice/rec1/typescript"},
		{"SSNREC/", "/alice", "rec1", TypescriptFile, "SSNREC/alice/rec1/typescript"},
		{"", "alice", "rec1", TimingFile, "alice/rec1/timing"},
	}

	for _, tt := range tests {
		got := BuildKey(tt.prefix, tt.namespace, tt.folder, tt.file)
		assert.Equal(t, tt.want, got, "BuildKey(%q, %q, %q, %q)", tt.prefix, tt.namespace, tt.folder, tt.file)
	}
}

func TestRecordingKey_String(t *testing.T) {
	k := RecordingKey{Prefix: "recs", Namespace: "bob", Folder: "nginx_1700000000", File: TimingFile}
	assert.Equal(t, "recs/bob/nginx_1700000000/timing", k.String())
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, p := range []string{"", "/", "a", "a/", "a//", "a/b", "a/b/"} {
		once := Normalize(p)
		assert.Equal(t, once, Normalize(once), "Normalize(%q)", p)
	}
}

func TestExtractFolder(t *testing.T) {
	tests := []struct {
		name              string
		key, prefix, ns   string
		want              string
		ok                bool
	}{
		{"no prefix", "rec1/timing", "", "", "rec1", true},
		{"normalized prefix", "SSNREC/rec1/timing", "SSNREC/", "", "rec1", true},
		{"bare prefix", "SSNREC/rec1/timing", "SSNREC", "", "rec1", true},
		{"namespace", "SSNREC/alice/rec1/typescript", "SSNREC/", "alice", "rec1", true},
		{"namespace with separator", "SSNREC/alice/rec1/typescript", "SSNREC", "alice/", "rec1", true},
		{"nested member", "rec1/sub/file", "", "", "rec1", true},
		{"key equals prefix", "SSNREC/", "SSNREC/", "", "", false},
		{"key equals bare prefix", "SSNREC", "SSNREC/", "", "", false},
		{"no folder component", "SSNREC/loose-file", "SSNREC/", "", "", false},
		{"leading separators collapsed", "SSNREC//rec1/timing", "SSNREC/", "", "rec1", true},
		{"empty key", "", "", "", "", false},
		{"bare prefix matches whole segment only", "SSNRECORD/x/timing", "SSNREC", "", "SSNRECORD", true},
		{"bare namespace matches whole segment only", "alice2/rec1/timing", "", "alice", "alice2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFolder(tt.key, tt.prefix, tt.ns)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListFolders(t *testing.T) {
	keys := []string{"rec1/timing", "rec1/typescript", "rec2/timing"}

	folders := ListFolders(keys, "", "")
	sort.Strings(folders)
	assert.Equal(t, []string{"rec1", "rec2"}, folders)
}

func TestIsValidRecording(t *testing.T) {
	assert.True(t, IsValidRecording([]string{"rec1/timing", "rec1/typescript"}))
	assert.False(t, IsValidRecording([]string{"rec2/timing"}))
	assert.True(t, IsValidRecording([]string{"rec2/timing", "rec2/notes.txt", "rec2/typescript"}))
	assert.False(t, IsValidRecording([]string{"rec3/timing.bak", "rec3/typescript.old"}))
	assert.False(t, IsValidRecording(nil))
}

func TestFolderSet_AccumulatesPages(t *testing.T) {
	fs := NewFolderSet("SSNREC/", "")

	fs.Add("SSNREC/rec1/timing", "SSNREC/rec2/timing")
	assert.Empty(t, fs.Valid())

	fs.Add("SSNREC/rec1/typescript", "SSNREC/")
	assert.Equal(t, 2, fs.Len())
	assert.Equal(t, []string{"rec1"}, fs.Valid())

	fs.Add("SSNREC/rec2/typescript")
	valid := fs.Valid()
	sort.Strings(valid)
	assert.Equal(t, []string{"rec1", "rec2"}, valid)
}

func TestParseFolderName(t *testing.T) {
	info := ParseFolderName("nginx_1700000000")
	assert.Equal(t, "nginx", info.Workload)
	require.NotNil(t, info.StartedAt)
	assert.Equal(t, int64(1700000000), info.StartedAt.Unix())

	info = ParseFolderName("my_app_1700000001")
	assert.Equal(t, "my_app", info.Workload)

	for _, name := range []string{"rec1", "_1700000000", "nginx_", "nginx_abc", "nginx_-5"} {
		info := ParseFolderName(name)
		assert.Empty(t, info.Workload, name)
		assert.Nil(t, info.StartedAt, name)
	}
}

func TestSortFolders(t *testing.T) {
	infos := []FolderInfo{
		ParseFolderName("zeta"),
		ParseFolderName("web_1700000000"),
		ParseFolderName("alpha"),
		ParseFolderName("db_1700000500"),
	}
	SortFolders(infos)

	got := make([]string, len(infos))
	for i, info := range infos {
		got[i] = info.Folder
	}
	assert.Equal(t, []string{"db_1700000500", "web_1700000000", "alpha", "zeta"}, got)
}
