package i18n

var englishTranslations = map[string]string{
	// Intent handling
	"intent.detected": "[Intent] %s",
	"intent.rejected": "This request looks like a data modification operation. For safety, only read-only queries and analysis are supported.",

	// Direct query path
	"query.no_schema":       "No schema is configured for this database, so a query cannot be generated. Please configure the table schema first.",
	"query.cannot_generate": "Sorry, I could not generate a SQL query for this question. Try rephrasing it or check the schema configuration.",
	"query.blocked":         "Dangerous operation detected (%s). Execution has been blocked.\nGenerated SQL: %s",
	"query.failed":          "Query execution failed: %s",
	"query.empty":           "The query ran successfully but returned no rows.",
	"query.rows":            "Query returned %d rows.",

	// Analysis plan lifecycle
	"plan.ready":        "I prepared an analysis plan. Reply \"execute\" to run it, or describe how to adjust it.",
	"plan.goal":         "Analysis goal: %s",
	"plan.expected":     "Expected output: %s",
	"plan.step_line":    "  %d. [%s] %s",
	"plan.fallback":     "I could not produce a structured plan, but here is my suggested approach:\n%s",
	"plan.failed":       "Plan generation failed: %s",
	"plan.none_pending": "There is no pending analysis plan to execute. Ask an analytical question first.",
	"plan.modified":     "The plan has been updated.",

	// Report
	"report.title":       "Analysis Report",
	"report.goal":        "Goal: %s",
	"report.ratio":       "Steps succeeded: %d/%d (%.0f%%)",
	"report.findings":    "Key Findings",
	"report.log":         "Execution Log",
	"report.no_findings": "No analytical findings were produced.",
}

var chineseTranslations = map[string]string{
	"intent.detected": "[意图识别] %s",
	"intent.rejected": "该请求涉及数据修改操作。出于安全考虑，系统仅支持只读查询和分析。",

	"query.no_schema":       "当前数据库尚未配置表结构，无法生成查询。请先配置表结构。",
	"query.cannot_generate": "抱歉，无法为该问题生成SQL查询。请尝试换一种问法或检查表结构配置。",
	"query.blocked":         "检测到危险操作（%s），已阻止执行。\n生成的SQL：%s",
	"query.failed":          "查询执行失败：%s",
	"query.empty":           "查询执行成功，但没有返回数据。",
	"query.rows":            "查询返回 %d 行数据。",

	"plan.ready":        "我已生成分析计划。回复“执行”开始运行，或描述需要调整的内容。",
	"plan.goal":         "分析目标：%s",
	"plan.expected":     "预期输出：%s",
	"plan.step_line":    "  %d. [%s] %s",
	"plan.fallback":     "未能生成结构化分析计划，以下是建议的分析思路：\n%s",
	"plan.failed":       "分析计划生成失败：%s",
	"plan.none_pending": "当前没有待执行的分析计划。请先提出一个分析问题。",
	"plan.modified":     "分析计划已更新。",

	"report.title":       "分析报告",
	"report.goal":        "目标：%s",
	"report.ratio":       "步骤成功率：%d/%d（%.0f%%）",
	"report.findings":    "关键发现",
	"report.log":         "执行日志",
	"report.no_findings": "没有产生分析结论。",
}
