package agent

import (
	"fmt"
	"sort"
	"strings"

	"genbi/config"
)

// RenderSchema formats a stored database schema as the markdown block embedded
// in SQL-generation and planning prompts. Tables are sorted so the same schema
// always renders identically.
func RenderSchema(schema config.DatabaseSchema) string {
	if schema.IsEmpty() {
		return ""
	}

	names := make([]string, 0, len(schema.Tables))
	for name := range schema.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("### Table: %s\n", name))
		if desc := schema.Descriptions[name]; desc != "" {
			sb.WriteString(fmt.Sprintf("%s\n", desc))
		}
		sb.WriteString("| Column | Type | Comment |\n")
		sb.WriteString("|--------|------|---------|\n")
		for _, col := range schema.Tables[name].Columns {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", col.Name, col.Type, col.Comment))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// SchemaTableNames returns the table names of a schema in sorted order.
func SchemaTableNames(schema config.DatabaseSchema) []string {
	names := make([]string, 0, len(schema.Tables))
	for name := range schema.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
