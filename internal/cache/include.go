package cache

import (
	"path"
	"regexp"
	"strings"
)

// Policy decides which documents the cache parses: the text extension must
// match, the containing folder must not be excluded, and the path must not
// match any excluded glob pattern.
type Policy struct {
	Extension        string
	ExcludedFolders  []string
	ExcludedPatterns []string

	compiled []*regexp.Regexp
}

// NewPolicy builds a Policy, compiling the glob patterns once. Globs are
// anchored; `*` matches any run of characters and `?` exactly one.
func NewPolicy(extension string, folders, patterns []string) Policy {
	p := Policy{
		Extension:        extension,
		ExcludedFolders:  folders,
		ExcludedPatterns: patterns,
	}
	for _, g := range patterns {
		if re, err := regexp.Compile(globToRegexp(g)); err == nil {
			p.compiled = append(p.compiled, re)
		}
	}
	return p
}

// Eligible reports whether the document at the given path should be parsed.
// Separators are normalized before any comparison so exclusion lists written
// on one platform behave identically on another.
func (p Policy) Eligible(docPath string) bool {
	norm := normalize(docPath)

	if p.Extension != "" && !strings.HasSuffix(norm, p.Extension) {
		return false
	}

	dir := path.Dir(norm)
	for _, f := range p.ExcludedFolders {
		ex := strings.TrimSuffix(normalize(f), "/")
		if ex == "" || ex == "." {
			continue
		}
		if dir == ex || strings.HasPrefix(dir, ex+"/") {
			return false
		}
	}

	for _, re := range p.compiled {
		if re.MatchString(norm) {
			return false
		}
	}

	return true
}

func normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// globToRegexp translates an exclusion glob into an anchored regexp.
func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
