package task

import (
	"regexp"
	"strings"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
)

// DefaultDelimiter separates fields inside a structured-metadata block.
const DefaultDelimiter = "|"

var (
	// checklistRe matches the task line grammar:
	// optional indent, list marker, checkbox, content.
	checklistRe = regexp.MustCompile(`^([ \t]*)([-*+]) \[( |x|X)\] ?(.*)$`)

	doneTagRe      = regexp.MustCompile(`\[done:(\d{4}-\d{2}-\d{2})\]`)
	createdTagRe   = regexp.MustCompile(`\[created:(\d{4}-\d{2}-\d{2})\]`)
	priorityTagRe  = regexp.MustCompile(`(?i)\[priority:(high|medium|low)\]`)
	repeatTagRe    = regexp.MustCompile(`\[repeat:([^\]]+)\]`)
	blockedByTagRe = regexp.MustCompile(`\[blocked-by:([^\]]+)\]`)
	blocksTagRe    = regexp.MustCompile(`\[blocks:([^\]]+)\]`)
	estimateTagRe  = regexp.MustCompile(`\[estimate:([^\]]+)\]`)
	loggedTagRe    = regexp.MustCompile(`\[logged:([^\]]+)\]`)
	hashtagRe      = regexp.MustCompile(`#([A-Za-z0-9][A-Za-z0-9_/-]*)`)

	// metadataRe matches the "**field | field:** display text" block shape.
	metadataRe = regexp.MustCompile(`^\*\*(.+?):\*\*\s*(.*)$`)

	spaceRunRe = regexp.MustCompile(`\s{2,}`)
)

// maxMetadataFields caps how many delimited fields a structured block carries.
const maxMetadataFields = 4

// Parser converts raw checklist lines into Task records. It is stateless
// apart from the configured stage set and metadata delimiter.
type Parser struct {
	stages    []string
	delimiter string
}

// NewParser creates a Parser recognizing the built-in stages plus the given
// custom stages. An empty delimiter falls back to DefaultDelimiter.
func NewParser(customStages []string, delimiter string) *Parser {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	stages := append([]string{}, DefaultStages...)
	stages = append(stages, customStages...)
	return &Parser{stages: stages, delimiter: delimiter}
}

// Stages returns the full recognized stage set in order.
func (p *Parser) Stages() []string {
	return append([]string{}, p.stages...)
}

// ParseLine parses one raw text line into a Task. Lines that do not match
// the checklist grammar return nil; malformed metadata never fails, it is
// simply left in the display text.
func (p *Parser) ParseLine(raw, path string, line int) *Task {
	m := checklistRe.FindStringSubmatch(strings.TrimRight(raw, "\r"))
	if m == nil {
		return nil
	}

	indent, marker, box, content := m[1], m[2], m[3], m[4]
	t := &Task{
		ID:        MakeID(path, line),
		Path:      path,
		Line:      line,
		Completed: box == "x" || box == "X",
		Indent:    indent,
		Depth:     indentDepth(indent),
		Marker:    marker,
		RawLine:   raw,
	}

	// Inline tokens are stripped in a fixed order so they cannot
	// interfere with one another.
	content = extractDate(content, doneTagRe, &t.Done)
	content = extractDate(content, createdTagRe, &t.Created)
	content = extractString(content, priorityTagRe, &t.Priority)
	t.Priority = strings.ToLower(t.Priority)
	content = extractRecurrence(content, t)
	content = extractRefs(content, blockedByTagRe, &t.BlockedBy)
	content = extractRefs(content, blocksTagRe, &t.Blocks)
	content = extractString(content, estimateTagRe, &t.Estimate)
	content = extractString(content, loggedTagRe, &t.TimeLogged)
	content = extractTags(content, t)

	content = p.extractMetadata(content, t)

	t.Text = cleanText(content)

	// A checked task is either stage-less or Completed; any other parsed
	// stage is coerced so the two fields cannot contradict.
	if t.Completed && t.Stage != "" && t.Stage != StageCompleted {
		t.Stage = StageCompleted
	}

	return t
}

// ParseDocument parses every line of a document, skipping non-task lines.
// A malformed line never aborts the remaining lines.
func (p *Parser) ParseDocument(path, content string) []*Task {
	var tasks []*Task
	for i, line := range SplitLines(content) {
		if t := p.ParseLine(line, path, i); t != nil {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// SplitLines splits document content into lines, dropping the empty
// element a trailing newline would otherwise produce.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if n := len(lines); lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// JoinLines is the inverse of SplitLines: lines joined with a trailing newline.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// extractMetadata pulls the structured "**field | field:** text" block out of
// the working text and classifies its fields onto the task.
func (p *Parser) extractMetadata(content string, t *Task) string {
	m := metadataRe.FindStringSubmatch(strings.TrimSpace(content))
	if m == nil {
		return content
	}
	label, rest := m[1], m[2]

	if !strings.Contains(label, p.delimiter) {
		// Unlabeled single-value shorthand: date → stage → priority → owner,
		// stopping at the first match. Never classified as project.
		p.classifyField(strings.TrimSpace(label), t, false)
		return rest
	}

	fields := strings.Split(label, p.delimiter)
	if len(fields) > maxMetadataFields {
		fields = fields[:maxMetadataFields]
	}
	for _, f := range fields {
		p.classifyField(strings.TrimSpace(f), t, true)
	}
	return rest
}

// classifyField assigns one structured-metadata field to the most specific
// matching task attribute. Inline tokens already extracted take precedence:
// a field classified onto an occupied attribute is dropped, not merged.
func (p *Parser) classifyField(f string, t *Task, allowProject bool) {
	if f == "" {
		return
	}
	if d, ok := parseFieldDate(f); ok {
		if t.Due == nil {
			t.Due = &d
		}
		return
	}
	if stage, ok := p.matchStage(f); ok {
		if t.Stage == "" {
			t.Stage = stage
		}
		return
	}
	if pr, ok := matchPriority(f); ok {
		if t.Priority == "" {
			t.Priority = pr
		}
		return
	}
	if t.Owner == "" {
		t.Owner = f
		return
	}
	if allowProject && t.Project == "" {
		t.Project = f
	}
}

// parseFieldDate parses a date field, tolerating a single leading word
// such as "Due 2025-03-01".
func parseFieldDate(f string) (date.Date, bool) {
	if d, err := date.Parse(f); err == nil {
		return d, true
	}
	if _, rest, ok := strings.Cut(f, " "); ok {
		if d, err := date.Parse(strings.TrimSpace(rest)); err == nil {
			return d, true
		}
	}
	return date.Date{}, false
}

func (p *Parser) matchStage(f string) (string, bool) {
	for _, s := range p.stages {
		if strings.EqualFold(s, f) {
			return s, true
		}
	}
	return "", false
}

func matchPriority(f string) (string, bool) {
	low := strings.ToLower(f)
	for _, pr := range Priorities {
		if pr == low {
			return pr, true
		}
	}
	return "", false
}

// extractDate strips the first tag carrying a real calendar date. A tag in
// date shape whose value does not parse (month 13, day 40) stays in the
// display text so nothing is lost on rewrite.
func extractDate(content string, re *regexp.Regexp, dst **date.Date) string {
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		d, err := date.Parse(m[1])
		if err != nil {
			continue
		}
		*dst = &d
		return strings.Replace(content, m[0], "", 1)
	}
	return content
}

func extractString(content string, re *regexp.Regexp, dst *string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return content
	}
	*dst = strings.TrimSpace(m[1])
	return strings.Replace(content, m[0], "", 1)
}

func extractRecurrence(content string, t *Task) string {
	m := repeatTagRe.FindStringSubmatch(content)
	if m == nil {
		return content
	}
	r := ParseRecurrence(strings.TrimSpace(m[1]))
	t.Recurrence = &r
	return strings.Replace(content, m[0], "", 1)
}

func extractRefs(content string, re *regexp.Regexp, dst *[]string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return content
	}
	for _, ref := range strings.Split(m[1], ",") {
		if ref = strings.TrimSpace(ref); ref != "" {
			*dst = append(*dst, ref)
		}
	}
	return strings.Replace(content, m[0], "", 1)
}

func extractTags(content string, t *Task) string {
	seen := make(map[string]bool)
	out := hashtagRe.ReplaceAllStringFunc(content, func(m string) string {
		tag := strings.ToLower(strings.TrimPrefix(m, "#"))
		if !seen[tag] {
			seen[tag] = true
			t.Tags = append(t.Tags, tag)
		}
		return ""
	})
	return out
}

func indentDepth(indent string) int {
	width := 0
	for _, r := range indent {
		if r == '\t' {
			width += 2
		} else {
			width++
		}
	}
	return width / 2
}

func cleanText(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}
