package sqldb

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/levitang/llm-practice/llm"
	"github.com/levitang/llm-practice/prompt"
	"github.com/levitang/llm-practice/tool"
)

// Toolkit returns the four SQL tools. The query checker needs model.
func Toolkit(db *Database, model llms.Model) []tool.Tool {
	return []tool.Tool{
		&QueryTool{db},
		&InfoTool{db},
		&ListTablesTool{db},
		&QueryCheckerTool{db: db, model: model},
	}
}

// QueryTool is sql_db_query.
type QueryTool struct{ db *Database }

func (*QueryTool) Name() string { return "sql_db_query" }

func (*QueryTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
		"If the query is not correct, an error message will be returned. " +
		"If an error is returned, rewrite the query, check the query, and try again. " +
		"If you encounter an issue with Unknown column 'xxxx' in 'field list', use sql_db_schema to query the correct table fields."
}

func (t *QueryTool) Call(ctx context.Context, input string) (string, error) {
	return t.db.RunNoThrow(ctx, tool.Argument(input, "query")), nil
}

// InfoTool is sql_db_schema.
type InfoTool struct{ db *Database }

func (*InfoTool) Name() string { return "sql_db_schema" }

func (*InfoTool) Description() string {
	return "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. " +
		"Be sure that the tables actually exist by calling sql_db_list_tables first! " +
		"Example Input: table1, table2, table3"
}

func (t *InfoTool) Call(ctx context.Context, input string) (string, error) {
	var tables []string
	for _, name := range strings.Split(tool.Argument(input, "table_names"), ",") {
		if name = strings.Trim(strings.TrimSpace(name), "`\"'"); name != "" {
			tables = append(tables, name)
		}
	}
	info, err := t.db.TableInfo(ctx, tables)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	return info, nil
}

// ListTablesTool is sql_db_list_tables.
type ListTablesTool struct{ db *Database }

func (*ListTablesTool) Name() string { return "sql_db_list_tables" }

func (*ListTablesTool) Description() string {
	return "Input is an empty string, output is a comma-separated list of tables in the database."
}

func (t *ListTablesTool) Call(ctx context.Context, _ string) (string, error) {
	names, err := t.db.TableNames(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

// QueryCheckerTool is sql_db_query_checker.
type QueryCheckerTool struct {
	db    *Database
	model llms.Model
}

func (*QueryCheckerTool) Name() string { return "sql_db_query_checker" }

func (*QueryCheckerTool) Description() string {
	return "Use this tool to double check if your query is correct before executing it. " +
		"Always use this tool before executing a query with sql_db_query!"
}

func (t *QueryCheckerTool) Call(ctx context.Context, input string) (string, error) {
	text, err := prompt.QueryChecker().Format(map[string]any{
		"query":   tool.Argument(input, "query"),
		"dialect": t.db.Dialect(),
	})
	if err != nil {
		return "", err
	}
	return llm.Invoke(ctx, t.model, "", text)
}
