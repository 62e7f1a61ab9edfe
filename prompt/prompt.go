// Package prompt holds the chat and text prompt templates.
package prompt

import (
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// fstring builds a template with {var} placeholders. A missing variable
// is an error.
func fstring(template string, vars ...string) prompts.PromptTemplate {
	return prompts.PromptTemplate{
		Template:       template,
		InputVariables: vars,
		TemplateFormat: prompts.TemplateFormatFString,
	}
}

func system(template string, vars ...string) prompts.SystemMessagePromptTemplate {
	return prompts.SystemMessagePromptTemplate{Prompt: fstring(template, vars...)}
}

func human(template string, vars ...string) prompts.HumanMessagePromptTemplate {
	return prompts.HumanMessagePromptTemplate{Prompt: fstring(template, vars...)}
}

const translateSystem = "Translate the following from English into {language}"

// Translate is a system+user chat template with the variables language and text.
func Translate() prompts.ChatPromptTemplate {
	return prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		system(translateSystem, "language"),
		human("{text}", "text"),
	})
}

const ragTemplate = `You are an assistant for question-answering tasks. Use the following pieces of retrieved context to answer the question. If you don't know the answer, just say that you don't know. Use three sentences maximum and keep the answer concise.
Question: {question} 
Context: {context} 
Answer:`

// RAG is the question answering template with question and context.
func RAG() prompts.ChatPromptTemplate {
	return prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		human(ragTemplate, "question", "context"),
	})
}

const qaTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{context}

Question: {question}
Helpful Answer:`

// QA answers over stuffed context; used after question condensing.
func QA() prompts.PromptTemplate {
	return fstring(qaTemplate, "context", "question")
}

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
{chat_history}
Follow Up Input: {question}
Standalone question:`

// Condense rewrites a follow up question using chat_history.
func Condense() prompts.PromptTemplate {
	return fstring(condenseTemplate, "chat_history", "question")
}

const reactTemplate = `Answer the following questions as best you can. You have access to the following tools:

{tools}

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{tool_names}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Question: {input}
Thought:{agent_scratchpad}`

// ReAct is the text protocol agent template.
func ReAct() prompts.PromptTemplate {
	return fstring(reactTemplate, "tools", "tool_names", "input", "agent_scratchpad")
}

const sqlAgentTemplate = `You are an agent designed to interact with a SQL database.
Given an input question, create a syntactically correct {dialect} query to run, then look at the results of the query and return the answer.
Unless the user specifies a specific number of examples they wish to obtain, always limit your query to at most {top_k} results.
You can order the results by a relevant column to return the most interesting examples in the database.
Never query for all the columns from a specific table, only ask for the relevant columns given the question.
You have access to tools for interacting with the database.
Only use the below tools. Only use the information returned by the below tools to construct your final answer.
You MUST double check your query before executing it. If you get an error while executing a query, rewrite the query and try again.

DO NOT make any DML statements (INSERT, UPDATE, DELETE, DROP etc.) to the database.

To start you should ALWAYS look at the tables in the database to see what you can query.
Do NOT skip this step.
Then you should query the schema of the most relevant tables.`

// SQLAgent is the system prompt of the SQL agent.
func SQLAgent() prompts.PromptTemplate {
	return fstring(sqlAgentTemplate, "dialect", "top_k")
}

const queryCheckerTemplate = `{query}
Double check the {dialect} query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `

// QueryChecker asks the model to review a SQL query.
func QueryChecker() prompts.PromptTemplate {
	return fstring(queryCheckerTemplate, "query", "dialect")
}

// Flower asks for the language of a flower.
func Flower() prompts.PromptTemplate {
	return fstring("{flower}的花语是?", "flower")
}

// ImagePrompt translates a Chinese description into an English DALL-E prompt.
func ImagePrompt() prompts.ChatPromptTemplate {
	return prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		human("将以下中文描述翻译为英文的 DALL-E 提示词：{input}", "input"),
	})
}

// ReviewSystem instructs the model to list functions whose bodies changed in a Go diff.
const ReviewSystem = "作为一个golang专业开发人员，请根据git diff中的内容中获取所有被改动的函数，注意改动的函数必须是在函数体内部进行有效修改;无效修改包含添加注释, 添加日志, 语句中添加空格等相关操作; "

// CodingAssistantSystem is the system prompt of the interactive coding agent.
const CodingAssistantSystem = "You are a helpful Go programmer assistant. You have access to tools to interact with the local filesystem (read, list, edit files). Use them when appropriate to fulfill the user's request. When editing, be precise about the changes. Respond ONLY with tool calls if you need to use tools, otherwise respond with text."

// FormatChat renders a chat template into langchaingo message content.
func FormatChat(tmpl prompts.ChatPromptTemplate, values map[string]any) ([]llms.MessageContent, error) {
	msgs, err := tmpl.FormatMessages(values)
	if err != nil {
		return nil, err
	}
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llms.TextParts(m.GetType(), m.GetContent()))
	}
	return out, nil
}
