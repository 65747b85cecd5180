package recording

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Names of the two members every recording folder holds.
const (
	TimingFile     = "timing"
	TypescriptFile = "typescript"
)

const separator = "/"

// Normalize returns p with exactly one trailing separator, or "" when p is
// empty or consists only of separators. It is idempotent.
func Normalize(p string) string {
	p = strings.TrimRight(p, separator)
	if p == "" {
		return ""
	}
	return p + separator
}

// normalizeNamespace is Normalize for a path segment appended after a prefix;
// leading separators are dropped so the two never join as "//".
func normalizeNamespace(ns string) string {
	return Normalize(strings.TrimLeft(ns, separator))
}

// RecordingKey addresses one member of a recording in the object store.
type RecordingKey struct {
	Prefix    string
	Namespace string
	Folder    string
	File      string
}

// String returns the physical object key.
func (k RecordingKey) String() string {
	return BuildKey(k.Prefix, k.Namespace, k.Folder, k.File)
}

// BuildKey returns {prefix}{namespace}/{folder}/{file}. Empty prefix and
// namespace contribute nothing; non-empty ones are normalized so a trailing
// separator never doubles.
func BuildKey(prefix, namespace, folder, file string) string {
	return FolderPrefix(prefix, namespace, folder) + file
}

// NamespacePrefix is the listing prefix covering every recording in a
// namespace.
func NamespacePrefix(prefix, namespace string) string {
	return Normalize(prefix) + normalizeNamespace(namespace)
}

// FolderPrefix is the listing prefix covering the members of one folder.
func FolderPrefix(prefix, namespace, folder string) string {
	return NamespacePrefix(prefix, namespace) + folder + separator
}

// ExtractFolder is the inverse of BuildKey: it strips prefix and namespace
// from a physical key and returns the first remaining path segment. It
// reports false when the key has no folder component, including a key equal
// to the prefix itself.
func ExtractFolder(key, prefix, namespace string) (string, bool) {
	rest := stripPrefix(key, prefix)
	if namespace != "" {
		rest = stripPrefix(strings.TrimLeft(rest, separator), strings.TrimLeft(namespace, separator))
	}
	rest = strings.TrimLeft(rest, separator)

	parts := strings.SplitN(rest, separator, 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

// stripPrefix removes p from the front of key, preferring the normalized form
// of p and falling back to p without its trailing separator.
func stripPrefix(key, p string) string {
	if p == "" {
		return key
	}
	if n := Normalize(p); n != "" && strings.HasPrefix(key, n) {
		return key[len(n):]
	}
	if bare := strings.TrimRight(p, separator); bare != "" && strings.HasPrefix(key, bare) {
		// Only a whole segment matches: "SSNREC" must not strip "SSNRECORD".
		if len(key) == len(bare) || key[len(bare)] == separator[0] {
			return key[len(bare):]
		}
	}
	return key
}

// IsValidRecording reports whether a listing of keys under one folder holds
// both a timing and a typescript member. Other files are ignored.
func IsValidRecording(keys []string) bool {
	var timing, typescript bool
	for _, k := range keys {
		switch {
		case strings.HasSuffix(k, separator+TimingFile):
			timing = true
		case strings.HasSuffix(k, separator+TypescriptFile):
			typescript = true
		}
		if timing && typescript {
			return true
		}
	}
	return false
}

// FolderSet accumulates the distinct folders found in a flat key listing.
// Keys from several listing pages can be added before reading the result.
// A FolderSet is not safe for concurrent use.
type FolderSet struct {
	prefix    string
	namespace string
	members   map[string][]string
}

// NewFolderSet creates an empty set for keys under prefix and namespace.
func NewFolderSet(prefix, namespace string) *FolderSet {
	return &FolderSet{
		prefix:    prefix,
		namespace: namespace,
		members:   make(map[string][]string),
	}
}

// Add records the folder of each key. Keys without a folder component are
// ignored.
func (fs *FolderSet) Add(keys ...string) {
	for _, k := range keys {
		folder, ok := ExtractFolder(k, fs.prefix, fs.namespace)
		if !ok {
			continue
		}
		fs.members[folder] = append(fs.members[folder], k)
	}
}

// Len returns the number of distinct folders seen.
func (fs *FolderSet) Len() int { return len(fs.members) }

// Folders returns every folder seen, in no particular order.
func (fs *FolderSet) Folders() []string {
	out := make([]string, 0, len(fs.members))
	for f := range fs.members {
		out = append(out, f)
	}
	return out
}

// Valid returns the folders whose keys satisfy IsValidRecording.
func (fs *FolderSet) Valid() []string {
	out := make([]string, 0, len(fs.members))
	for f, keys := range fs.members {
		if IsValidRecording(keys) {
			out = append(out, f)
		}
	}
	return out
}

// ListFolders returns the distinct folders named by keys, in no particular
// order.
func ListFolders(keys []string, prefix, namespace string) []string {
	fs := NewFolderSet(prefix, namespace)
	fs.Add(keys...)
	return fs.Folders()
}

// FolderInfo describes a folder for display. Names of the form
// <workload>_<unixSeconds> are split into Workload and StartedAt; other names
// leave both zero.
type FolderInfo struct {
	Folder    string     `json:"folder"`
	Workload  string     `json:"workload,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// ParseFolderName splits a folder name following the <workload>_<unixSeconds>
// convention.
func ParseFolderName(folder string) FolderInfo {
	info := FolderInfo{Folder: folder}
	i := strings.LastIndexByte(folder, '_')
	if i <= 0 || i == len(folder)-1 {
		return info
	}
	ts, err := strconv.ParseInt(folder[i+1:], 10, 64)
	if err != nil || ts < 0 {
		return info
	}
	started := time.Unix(ts, 0).UTC()
	info.Workload = folder[:i]
	info.StartedAt = &started
	return info
}

// SortFolders orders folders newest first when they carry a timestamp,
// followed by the rest in lexical order.
func SortFolders(infos []FolderInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		a, b := infos[i].StartedAt, infos[j].StartedAt
		switch {
		case a != nil && b != nil:
			if !a.Equal(*b) {
				return a.After(*b)
			}
			return infos[i].Folder < infos[j].Folder
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return infos[i].Folder < infos[j].Folder
		}
	})
}
