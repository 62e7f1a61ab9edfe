// Package prebuilt provides ready made agent graphs: a chat agent with
// thread memory, a tool calling ReAct agent, a prompt driven text ReAct
// agent, SQL and browser agents, and an interactive coding agent.
package prebuilt
