package task

import (
	"regexp"
	"strings"

	"github.com/twiced-technology-gmbh/taskvault/internal/clierr"
	"github.com/twiced-technology-gmbh/taskvault/internal/date"
)

// maxFieldLength bounds free-form structured fields (owner, project).
const maxFieldLength = 100

var tagRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_/-]*$`)

// ValidateDateString checks that a value is a well-formed YYYY-MM-DD date.
func ValidateDateString(field, input string) (date.Date, error) {
	d, err := date.Parse(input)
	if err != nil {
		return date.Date{}, clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
			WithDetails(map[string]any{
				"field": field,
				"input": input,
			})
	}
	return d, nil
}

// ValidateOwner checks owner length and character set. Owners live inside
// the structured-metadata block, so the block syntax characters are banned.
func ValidateOwner(owner string) error {
	if err := validateField(owner); err != nil {
		return clierr.Newf(clierr.InvalidOwner, "invalid owner %q: %v", owner, err).
			WithDetails(map[string]any{"owner": owner})
	}
	return nil
}

// ValidateProject checks project length and character set.
func ValidateProject(project string) error {
	if err := validateField(project); err != nil {
		return clierr.Newf(clierr.InvalidProject, "invalid project %q: %v", project, err).
			WithDetails(map[string]any{"project": project})
	}
	return nil
}

// ValidateStage checks that a stage is in the allowed list.
func ValidateStage(stage string, allowed []string) error {
	for _, s := range allowed {
		if strings.EqualFold(s, stage) {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidStage, "invalid stage %q", stage).
		WithDetails(map[string]any{
			"stage":   stage,
			"allowed": allowed,
		})
}

// ValidatePriority checks that a priority is one of the 3-level enum.
func ValidatePriority(priority string) error {
	if _, ok := matchPriority(priority); ok {
		return nil
	}
	return clierr.Newf(clierr.InvalidPriority, "invalid priority %q", priority).
		WithDetails(map[string]any{
			"priority": priority,
			"allowed":  Priorities,
		})
}

// ValidateTag checks that a tag is lowercase and hashtag-safe.
func ValidateTag(tag string) error {
	if tagRe.MatchString(tag) {
		return nil
	}
	return clierr.Newf(clierr.InvalidTag, "invalid tag %q: must be lowercase alphanumeric", tag).
		WithDetails(map[string]any{"tag": tag})
}

// ValidateLineIndex checks a line index against a document's line count.
// lineCount itself is a valid insertion point (append position).
func ValidateLineIndex(line, lineCount int) error {
	if line >= 0 && line <= lineCount {
		return nil
	}
	return clierr.Newf(clierr.LineOutOfRange,
		"line %d out of range (document has %d lines)", line, lineCount).
		WithDetails(map[string]any{
			"line":  line,
			"lines": lineCount,
		})
}

func validateField(v string) error {
	switch {
	case v == "":
		return errEmpty
	case len(v) > maxFieldLength:
		return errTooLong
	case strings.ContainsAny(v, "|*:\n[]#"):
		return errBadChars
	}
	return nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

const (
	errEmpty    = fieldError("must not be empty")
	errTooLong  = fieldError("too long")
	errBadChars = fieldError("contains reserved characters")
)
