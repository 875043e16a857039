package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"genbi/agent"
	"genbi/config"
	"genbi/i18n"
	"genbi/logger"
	"genbi/mcp"
)

// Answer is one assistant response: text plus an optional data table.
type Answer struct {
	Text  string
	Table *agent.TableData
}

// App wires the services together and routes user questions by intent.
type App struct {
	configMgr   *config.Manager
	chatService *ChatService
	logger      *logger.Logger

	cfg     config.Config
	backend config.DatabaseBackend
	schema  config.DatabaseSchema

	llm     agent.Completer
	gateway agent.Gateway
	session *agent.Session

	threadID string
}

// NewApp loads configuration from baseDir and connects the services. The
// selected backend is the first configured one; SelectDatabase switches later.
func NewApp(baseDir string) (*App, error) {
	log := logger.NewLogger()
	if err := log.Init(filepath.Join(baseDir, "logs")); err != nil {
		return nil, WrapOperationError("initialize logger", err)
	}

	mgr, err := config.NewManager(filepath.Join(baseDir, "config"))
	if err != nil {
		return nil, err
	}
	cfg, err := mgr.LoadConfig()
	if err != nil {
		return nil, err
	}
	i18n.SetLanguage(i18n.Language(cfg.Language))

	llm, err := agent.NewLLMService(cfg, log.Func())
	if err != nil {
		return nil, err
	}

	app := &App{
		configMgr:   mgr,
		chatService: NewChatService(filepath.Join(baseDir, "sessions")),
		logger:      log,
		cfg:         cfg,
		llm:         llm,
		session:     agent.NewSession(),
	}

	backends, err := mgr.LoadDatabases()
	if err != nil {
		return nil, err
	}
	if len(backends) > 0 {
		if err := app.useBackend(backends[0]); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// useBackend binds the gateway and schema to one configured backend.
func (a *App) useBackend(backend config.DatabaseBackend) error {
	a.backend = backend
	a.gateway = mcp.NewClient(backend, a.cfg, a.logger.Func())

	schema, _, err := a.configMgr.LoadSchema(backend.Name)
	if err != nil {
		return err
	}
	a.schema = schema
	a.logger.Logf("Using database backend %s (%s)", backend.Name, backend.Engine)
	return nil
}

// SelectDatabase switches to the named backend.
func (a *App) SelectDatabase(name string) error {
	backends, err := a.configMgr.LoadDatabases()
	if err != nil {
		return err
	}
	for _, b := range backends {
		if b.Name == name {
			return a.useBackend(b)
		}
	}
	return fmt.Errorf("unknown database backend: %s", name)
}

// Databases lists the configured backend names.
func (a *App) Databases() ([]string, error) {
	backends, err := a.configMgr.LoadDatabases()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name
	}
	return names, nil
}

// CurrentBackend returns the active backend name, or "".
func (a *App) CurrentBackend() string {
	return a.backend.Name
}

// OpenThread starts persisting the conversation into a chat thread.
func (a *App) OpenThread(title string) error {
	t, err := a.chatService.CreateThread(a.backend.Name, title)
	if err != nil {
		return err
	}
	a.threadID = t.ID
	return nil
}

// Shutdown closes the log file.
func (a *App) Shutdown() {
	a.logger.Close()
}

// HandleQuestion routes one user question by intent and returns the answer.
// The session message log and, when a thread is open, the persisted thread are
// both updated.
func (a *App) HandleQuestion(ctx context.Context, question string) Answer {
	a.session.AddMessage(agent.RoleUser, question, nil)
	a.persistMessage(agent.RoleUser, question, nil)

	intent := agent.ClassifyIntent(ctx, a.llm, question, a.session.HasPendingPlan())
	a.logger.Logf("Question classified as %s", intent)

	var ans Answer
	switch intent {
	case agent.IntentReject:
		ans = Answer{Text: i18n.T("intent.rejected")}
	case agent.IntentAnalysis:
		ans = a.handleAnalysis(ctx, question)
	case agent.IntentAnalysisModify:
		ans = a.handleAnalysisModify(ctx, question)
	case agent.IntentAnalysisExecute:
		ans = a.handleAnalysisExecute(ctx)
	default:
		ans = a.handleQuery(ctx, question)
	}

	ans.Text = i18n.T("intent.detected", string(intent)) + "\n\n" + ans.Text
	a.session.AddMessage(agent.RoleAssistant, ans.Text, ans.Table)
	a.persistMessage(agent.RoleAssistant, ans.Text, ans.Table)
	return ans
}

func (a *App) persistMessage(role, content string, table *agent.TableData) {
	if a.threadID == "" {
		return
	}
	if _, err := a.chatService.AddMessage(a.threadID, ChatMessage{Role: role, Content: content, Table: table}); err != nil {
		a.logger.Logf("Failed to persist message: %v", err)
	}
}

// handleQuery answers a direct question with one generated query.
func (a *App) handleQuery(ctx context.Context, question string) Answer {
	if a.schema.IsEmpty() {
		return Answer{Text: i18n.T("query.no_schema")}
	}

	sql, err := agent.GenerateSQL(ctx, a.llm, question, a.schema)
	if err != nil {
		a.logger.Logf("SQL generation failed, trying rule fallback: %v", err)
		sql = agent.FallbackSQL(question, a.schema)
	}
	if sql == "" {
		return Answer{Text: i18n.T("query.cannot_generate")}
	}

	if dangerous, keyword := agent.IsDangerousSQL(sql); dangerous {
		return Answer{Text: i18n.T("query.blocked", keyword, sql)}
	}

	raw, err := a.gateway.Call(ctx, "execute_query", map[string]interface{}{"query": sql})
	if err != nil {
		return Answer{Text: i18n.T("query.failed", err.Error())}
	}

	var result mcp.QueryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return Answer{Text: i18n.T("query.failed", err.Error())}
	}

	text := fmt.Sprintf("```sql\n%s\n```\n\n", sql)
	if len(result.Rows) == 0 {
		return Answer{Text: text + i18n.T("query.empty")}
	}
	return Answer{
		Text:  text + i18n.T("query.rows", len(result.Rows)),
		Table: &agent.TableData{Columns: result.Columns, Rows: result.Rows},
	}
}

// handleAnalysis generates a plan and parks it in the session for approval.
func (a *App) handleAnalysis(ctx context.Context, question string) Answer {
	if a.schema.IsEmpty() {
		return Answer{Text: i18n.T("query.no_schema")}
	}

	result := agent.GeneratePlan(ctx, a.llm, question, a.schema)
	if result.Err != nil {
		return Answer{Text: i18n.T("plan.failed", result.Err.Error())}
	}

	pending := agent.PendingPlan{Plan: result.Plan, Fallback: result.Fallback, Question: question}
	a.session.SetPendingPlan(pending)
	return Answer{Text: a.renderPlan(pending)}
}

// handleAnalysisModify regenerates the pending plan with the user's amendment
// folded into the originating question. The new plan replaces the old one.
func (a *App) handleAnalysisModify(ctx context.Context, amendment string) Answer {
	question := a.session.PendingQuestion()
	if question == "" {
		return Answer{Text: i18n.T("plan.none_pending")}
	}
	combined := fmt.Sprintf("%s\n\nAdditional instructions: %s", question, amendment)

	result := agent.GeneratePlan(ctx, a.llm, combined, a.schema)
	if result.Err != nil {
		return Answer{Text: i18n.T("plan.failed", result.Err.Error())}
	}

	pending := agent.PendingPlan{Plan: result.Plan, Fallback: result.Fallback, Question: combined}
	a.session.SetPendingPlan(pending)
	return Answer{Text: i18n.T("plan.modified") + "\n\n" + a.renderPlan(pending)}
}

// handleAnalysisExecute consumes the pending plan and runs it. A structured
// plan goes through the step executor; a fallback plan degrades to a single
// query on the originating question.
func (a *App) handleAnalysisExecute(ctx context.Context) Answer {
	pending, ok := a.session.TakePendingPlan()
	if !ok {
		return Answer{Text: i18n.T("plan.none_pending")}
	}

	if pending.Plan == nil {
		return a.handleQuery(ctx, pending.Question)
	}

	executor := agent.NewExecutor(a.llm, a.gateway, a.schema, a.logger.Func())
	report := executor.Execute(ctx, pending.Plan)
	return a.renderReport(report)
}

func (a *App) renderPlan(p agent.PendingPlan) string {
	if p.Plan == nil {
		return i18n.T("plan.fallback", p.Fallback) + "\n\n" + i18n.T("plan.ready")
	}

	var sb strings.Builder
	sb.WriteString(i18n.T("plan.goal", p.Plan.AnalysisGoal) + "\n")
	for _, step := range p.Plan.Steps {
		sb.WriteString(i18n.T("plan.step_line", step.StepID, step.StepType, step.Description) + "\n")
	}
	sb.WriteString(i18n.T("plan.expected", p.Plan.ExpectedOutput) + "\n\n")
	sb.WriteString(i18n.T("plan.ready"))
	return sb.String()
}

func (a *App) renderReport(report *agent.Report) Answer {
	var sb strings.Builder
	sb.WriteString("# " + i18n.T("report.title") + "\n\n")
	sb.WriteString(i18n.T("report.goal", report.Goal) + "\n")
	sb.WriteString(i18n.T("report.ratio", report.Succeeded, report.TotalSteps, report.SuccessRatio*100) + "\n\n")

	sb.WriteString("## " + i18n.T("report.findings") + "\n\n")
	if len(report.KeyFindings) == 0 {
		sb.WriteString(i18n.T("report.no_findings") + "\n")
	} else {
		for _, finding := range report.KeyFindings {
			sb.WriteString(finding + "\n\n")
		}
	}

	sb.WriteString("## " + i18n.T("report.log") + "\n\n")
	for _, line := range report.Log {
		sb.WriteString("- " + line + "\n")
	}

	// Surface the first data table inline; the rest stay in the report log.
	var table *agent.TableData
	ids := make([]int, 0, len(report.Tables))
	for id := range report.Tables {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if len(ids) > 0 {
		table = report.Tables[ids[0]]
	}
	return Answer{Text: sb.String(), Table: table}
}

// RefreshSchema rebuilds the schema store entry for the active backend by
// asking the gateway for the live table list and columns, preserving any
// table descriptions the user wrote.
func (a *App) RefreshSchema(ctx context.Context) (config.DatabaseSchema, error) {
	if a.gateway == nil {
		return config.DatabaseSchema{}, fmt.Errorf("no database backend selected")
	}

	raw, err := a.gateway.Call(ctx, "get_tables", nil)
	if err != nil {
		return config.DatabaseSchema{}, WrapOperationError("list tables", err)
	}
	var tables mcp.TableList
	if err := json.Unmarshal(raw, &tables); err != nil {
		return config.DatabaseSchema{}, WrapOperationError("parse table list", err)
	}

	schema := config.DatabaseSchema{
		Tables:       make(map[string]config.TableSchema, len(tables.Tables)),
		Descriptions: a.schema.Descriptions,
	}
	if schema.Descriptions == nil {
		schema.Descriptions = map[string]string{}
	}

	for _, table := range tables.Tables {
		raw, err := a.gateway.Call(ctx, "describe_table", map[string]interface{}{"table": table})
		if err != nil {
			a.logger.Logf("Failed to describe table %s: %v", table, err)
			continue
		}
		var cols mcp.TableColumns
		if err := json.Unmarshal(raw, &cols); err != nil {
			a.logger.Logf("Failed to parse columns for %s: %v", table, err)
			continue
		}

		ts := config.TableSchema{Columns: make([]config.Column, len(cols.Columns))}
		for i, c := range cols.Columns {
			ts.Columns[i] = config.Column{Name: c.Name, Type: c.Type}
		}
		schema.Tables[table] = ts
	}

	if err := a.configMgr.SaveSchema(a.backend.Name, schema); err != nil {
		return config.DatabaseSchema{}, WrapOperationError("save schema", err)
	}
	a.schema = schema
	a.logger.Logf("Schema refreshed: %d tables", len(schema.Tables))
	return schema, nil
}
