package task

import "strings"

// FormatLine serializes a task back into the checklist-line grammar.
// The structured-metadata block is reconstructed only when at least one
// structured field (owner, due date, stage, project) is set; inline tags
// follow in a fixed order so that parse(format(t)) reproduces t.
func FormatLine(t *Task, delimiter string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	var parts []string
	if block := metadataBlock(t, delimiter); block != "" {
		parts = append(parts, block)
	}
	if t.Text != "" {
		parts = append(parts, t.Text)
	}

	if t.Priority != "" {
		parts = append(parts, "[priority:"+t.Priority+"]")
	}
	if t.Recurrence != nil {
		parts = append(parts, "[repeat:"+t.Recurrence.Raw+"]")
	}
	if t.Estimate != "" {
		parts = append(parts, "[estimate:"+t.Estimate+"]")
	}
	if t.TimeLogged != "" {
		parts = append(parts, "[logged:"+t.TimeLogged+"]")
	}
	if len(t.BlockedBy) > 0 {
		parts = append(parts, "[blocked-by:"+strings.Join(t.BlockedBy, ",")+"]")
	}
	if len(t.Blocks) > 0 {
		parts = append(parts, "[blocks:"+strings.Join(t.Blocks, ",")+"]")
	}
	for _, tag := range t.Tags {
		parts = append(parts, "#"+tag)
	}
	if t.Done != nil {
		parts = append(parts, "[done:"+t.Done.String()+"]")
	}
	if t.Created != nil {
		parts = append(parts, "[created:"+t.Created.String()+"]")
	}

	marker := t.Marker
	if marker == "" {
		marker = "-"
	}
	box := " "
	if t.Completed {
		box = "x"
	}

	line := t.Indent + marker + " [" + box + "]"
	if len(parts) > 0 {
		line += " " + strings.Join(parts, " ")
	}
	return line
}

// metadataBlock rebuilds the "**field | field:**" label. Owner always
// precedes project because the parser assigns the first unclassified field
// to owner; any other order would not survive a round trip.
func metadataBlock(t *Task, delimiter string) string {
	var fields []string
	if t.Owner != "" {
		fields = append(fields, t.Owner)
	}
	if t.Due != nil {
		fields = append(fields, t.Due.String())
	}
	if t.Stage != "" {
		fields = append(fields, t.Stage)
	}
	if t.Project != "" {
		fields = append(fields, t.Project)
	}
	if len(fields) == 0 {
		return ""
	}
	return "**" + strings.Join(fields, " "+delimiter+" ") + ":**"
}
