package importer

import (
	"strings"

	"github.com/rendis/flowcost/pkg/schema"
)

// DefaultKind is assigned when no marker matches.
const DefaultKind = schema.NodeKindAgent

// markerKinds maps the recognized node markers of LangGraph-style and
// generic exports to node kinds. Keys are lower case.
var markerKinds = map[string]schema.NodeKind{
	"__start__":  schema.NodeKindStart,
	"start":      schema.NodeKindStart,
	"startnode":  schema.NodeKindStart,
	"__end__":    schema.NodeKindFinish,
	"end":        schema.NodeKindFinish,
	"finish":     schema.NodeKindFinish,
	"finishnode": schema.NodeKindFinish,
	"tool":       schema.NodeKindTool,
	"tools":      schema.NodeKindTool,
	"toolnode":   schema.NodeKindTool,
	"agent":      schema.NodeKindAgent,
	"agentnode":  schema.NodeKindAgent,
}

// kindOf returns the kind of the first marker that is recognized, or
// DefaultKind with matched=false.
func kindOf(markers ...string) (kind schema.NodeKind, matched bool) {
	for _, m := range markers {
		if k, ok := markerKinds[strings.ToLower(strings.TrimSpace(m))]; ok {
			return k, true
		}
	}
	return DefaultKind, false
}

// n8nRule matches the short form of an n8n node type (the part after the
// package prefix, e.g. "lmChatOpenAi" for "@n8n/n8n-nodes-langchain.lmChatOpenAi").
type n8nRule struct {
	match func(pkg, short string) bool
	kind  schema.NodeKind
}

// n8nRules are evaluated in order; the first match wins.
var n8nRules = []n8nRule{
	{func(_, s string) bool { return strings.HasSuffix(s, "Trigger") }, schema.NodeKindStart},
	{func(_, s string) bool { return strings.HasPrefix(s, "tool") || strings.Contains(s, "Tool") }, schema.NodeKindTool},
	{func(_, s string) bool {
		return s == "agent" || strings.HasPrefix(s, "lmChat") || strings.HasPrefix(s, "chainLlm") || s == "openAi"
	}, schema.NodeKindAgent},
	{func(_, s string) bool {
		return strings.HasPrefix(s, "memory") || strings.HasPrefix(s, "vectorStore") || strings.HasPrefix(s, "retriever")
	}, schema.NodeKindTool},
	{func(p, _ string) bool { return p == "n8n-nodes-base" }, schema.NodeKindTool},
}

func splitN8NType(nodeType string) (pkg, short string) {
	i := strings.LastIndex(nodeType, ".")
	if i < 0 {
		return "", nodeType
	}
	return strings.TrimPrefix(nodeType[:i], "@n8n/"), nodeType[i+1:]
}

func n8nKind(nodeType string) (schema.NodeKind, bool) {
	pkg, short := splitN8NType(nodeType)
	for _, r := range n8nRules {
		if r.match(pkg, short) {
			return r.kind, true
		}
	}
	return DefaultKind, false
}

// n8nProviders maps chat model node types to pricing catalog providers.
var n8nProviders = map[string]string{
	"lmChatOpenAi":       "OpenAI",
	"lmChatAzureOpenAi":  "OpenAI",
	"lmChatAnthropic":    "Anthropic",
	"lmChatGoogleGemini": "Google",
	"lmChatGoogleVertex": "Google",
	"lmChatMistralCloud": "Mistral",
	"lmChatOllama":       "Meta",
	"lmChatGroq":         "Meta",
	"openAi":             "OpenAI",
}
